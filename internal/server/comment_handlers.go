package server

import (
	"netsocial/internal/models"
	"netsocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments
// @Summary List a post's comments
// @Description Comments in creation order, each with its replies and authors
// @Tags comments
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	postID := c.Params("id")
	userID := currentUserID(c)
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(EventCommentCreated, map[string]interface{}{
		"post_id": postID,
		"comment": comment,
	})
	if authorID, err := s.postService.AuthorID(c.UserContext(), postID); err == nil {
		s.publishUserEvent(authorID, userID, EventPostCommented, map[string]interface{}{
			"post_id":    postID,
			"comment_id": comment.ID,
			"user_id":    userID,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CreateReply handles POST /api/posts/:id/comments/:commentId/replies
// @Summary Reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "Reply"
// @Success 201 {object} models.Reply
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentId}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	postID := c.Params("id")
	userID := currentUserID(c)
	reply, err := s.commentService.CreateReply(c.UserContext(), service.CreateReplyInput{
		UserID:    userID,
		PostID:    postID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(EventReplyCreated, map[string]interface{}{
		"post_id":    postID,
		"comment_id": commentID,
		"reply":      reply,
	})
	if authorID, err := s.commentService.AuthorID(c.UserContext(), commentID); err == nil {
		s.publishUserEvent(authorID, userID, EventCommentReplied, map[string]interface{}{
			"post_id":    postID,
			"comment_id": commentID,
			"reply_id":   reply.ID,
			"user_id":    userID,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}
