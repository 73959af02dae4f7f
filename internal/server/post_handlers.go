package server

import (
	"time"

	"netsocial/internal/models"
	"netsocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postDetailResponse struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Author      models.User `json:"author"`
	CreatedAt   time.Time   `json:"createdAt"`
	TimeAgo     string      `json:"timeAgo"`
	Hearts      []uint      `json:"hearts"`
	HeartsCount int         `json:"heartsCount"`
	Hearted     bool        `json:"hearted"`
	ImageURL    *string     `json:"imageUrl"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Every post, newest first, with its relative age and heart count
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext(), s.optionalUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Accepts JSON or multipart form data with an optional image file
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param image formData file false "Image"
// @Success 201 {object} object{message=string,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		in.Title = c.FormValue("title")
		in.Content = c.FormValue("content")
		image, err := readFormFile(c, "image")
		if err != nil {
			return s.respondError(c, err)
		}
		in.Image = image
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title = req.Title
		in.Content = req.Content
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(EventPostCreated, map[string]interface{}{
		"post": post,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// GetUserPosts handles GET /api/posts/user/:userId
// @Summary List the authenticated user's posts
// @Tags posts
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/user/{userId} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := parseID(c, "userId", "user ID")
	if err != nil {
		return nil
	}

	posts, err := s.postService.GetUserPosts(c.UserContext(), currentUserID(c), authorID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} postDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	detail, err := s.postService.GetPost(c.UserContext(), c.Params("id"), s.optionalUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	p := detail.Post
	var imageURL *string
	if p.ImageURL != nil && *p.ImageURL != "" {
		proxied := "/api/posts/" + p.ID + "/image"
		imageURL = &proxied
	}

	return c.JSON(postDetailResponse{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		CreatedAt:   p.CreatedAt,
		TimeAgo:     p.TimeAgo,
		Hearts:      detail.Hearts,
		HeartsCount: len(detail.Hearts),
		Hearted:     p.Hearted,
		ImageURL:    imageURL,
	})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Only the author or an administrator may delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID := c.Params("id")
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: postID,
	}); err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(EventPostDeleted, map[string]interface{}{
		"post_id": postID,
	})

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// ToggleHeart handles POST /api/posts/:id/heart
// @Summary Heart or un-heart a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{message=string,hearts=int,heartsCount=int,hearted=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/heart [post]
func (s *Server) ToggleHeart(c *fiber.Ctx) error {
	postID := c.Params("id")
	userID := currentUserID(c)
	hearted, count, err := s.postService.ToggleHeart(c.UserContext(), postID, userID)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(EventPostHeartsUpdated, map[string]interface{}{
		"post_id":      postID,
		"hearts_count": count,
	})
	if hearted {
		if authorID, err := s.postService.AuthorID(c.UserContext(), postID); err == nil {
			s.publishUserEvent(authorID, userID, EventPostHearted, map[string]interface{}{
				"post_id": postID,
				"user_id": userID,
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":     "Heart updated successfully",
		"hearts":      count,
		"heartsCount": count,
		"hearted":     hearted,
	})
}

// GetPostImage handles GET /api/posts/:id/image
// @Summary Get a post's image
// @Description Streams the image attached to the post from the image host
// @Tags posts
// @Produce image/jpeg
// @Param id path string true "Post ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /posts/{id}/image [get]
func (s *Server) GetPostImage(c *fiber.Ctx) error {
	img, err := s.postService.GetPostImage(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, img.ContentType)
	return c.Send(img.Data)
}
