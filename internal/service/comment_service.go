package service

import (
	"context"
	"strings"

	"netsocial/internal/models"
	"netsocial/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

type CreateCommentInput struct {
	UserID  uint
	PostID  string
	Content string
}

type CreateReplyInput struct {
	UserID    uint
	PostID    string
	CommentID uint
	Content   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Content too long (max 10000 characters)")
	}
	return nil
}

// publicAuthor strips contact details from an author shown beside content.
func publicAuthor(u *models.User) models.User {
	author := *u
	author.Email = ""
	return author
}

func (s *CommentService) ensurePost(ctx context.Context, postID string) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Post")
	}
	return nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if err := s.ensurePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: in.Content,
		Replies: []models.Reply{},
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	if author, err := s.userRepo.GetByID(ctx, in.UserID); err == nil {
		comment.Author = publicAuthor(author)
	}
	return comment, nil
}

// CreateReply appends a reply to a comment. The comment must belong to the post.
func (s *CommentService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Reply, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if err := s.ensurePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != in.PostID {
		return nil, models.NewNotFoundError("Comment")
	}

	reply := &models.Reply{
		CommentID: comment.ID,
		UserID:    in.UserID,
		Content:   in.Content,
	}
	if err := s.commentRepo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	if author, err := s.userRepo.GetByID(ctx, in.UserID); err == nil {
		reply.Author = publicAuthor(author)
	}
	return reply, nil
}

// AuthorID returns the id of the user who wrote the comment.
func (s *CommentService) AuthorID(ctx context.Context, commentID uint) (uint, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return 0, err
	}
	return comment.UserID, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
