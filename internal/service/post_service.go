package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"netsocial/internal/models"
	"netsocial/internal/observability"
	"netsocial/internal/repository"
	"netsocial/internal/snowflake"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000

	msgForbiddenDelete = "Unauthorized: You are not authorized to delete this post"
	msgForbiddenAccess = "Unauthorized: You are not authorized to access this resource"
)

// ImageStore uploads post images and reads them back.
type ImageStore interface {
	Upload(ctx context.Context, image []byte) (string, error)
	Fetch(ctx context.Context, imageURL string) ([]byte, string, error)
}

type PostService struct {
	postRepo   repository.PostRepository
	images     ImageStore
	isAdmin    func(ctx context.Context, userID uint) (bool, error)
	idAttempts int
	now        func() time.Time
}

type CreatePostInput struct {
	UserID  uint
	Title   string
	Content string
	Image   []byte
}

type DeletePostInput struct {
	UserID uint
	PostID string
}

// PostDetail is a single post together with the ids of the users who hearted it.
type PostDetail struct {
	Post   *models.Post
	Hearts []uint
}

// PostImage is a post image fetched from the image host.
type PostImage struct {
	Data        []byte
	ContentType string
}

func NewPostService(
	postRepo repository.PostRepository,
	images ImageStore,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	idAttempts int,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		images:     images,
		isAdmin:    isAdmin,
		idAttempts: idAttempts,
		now:        time.Now,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	var imageURL *string
	if len(in.Image) > 0 {
		if s.images == nil {
			return nil, models.NewBadGatewayError("Failed to upload image", errors.New("no image store configured"))
		}
		url, err := s.images.Upload(ctx, in.Image)
		if err != nil {
			return nil, models.NewBadGatewayError("Failed to upload image", err)
		}
		imageURL = &url
	}

	post := &models.Post{
		Title:    title,
		Content:  in.Content,
		UserID:   in.UserID,
		ImageURL: imageURL,
	}

	// A conflict on insert means another request took the id between the
	// existence check and the insert; draw again once.
	for round := 0; ; round++ {
		id, err := snowflake.Unique(ctx, s.countingExists, s.idAttempts)
		if err != nil {
			if errors.Is(err, snowflake.ErrExhausted) {
				return nil, models.NewResourceExhaustedError("Could not allocate a post identifier, please retry", err)
			}
			return nil, models.NewInternalError(err)
		}
		post.ID = id

		err = s.postRepo.Create(ctx, post)
		if err == nil {
			break
		}
		var appErr *models.AppError
		if round == 0 && errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			observability.IDCollisions.Inc()
			continue
		}
		return nil, err
	}

	observability.PostsCreated.Inc()

	created, err := s.postRepo.GetByID(ctx, post.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	created.TimeAgo = models.TimeAgo(created.CreatedAt, s.now())
	return created, nil
}

func (s *PostService) countingExists(ctx context.Context, id string) (bool, error) {
	taken, err := s.postRepo.Exists(ctx, id)
	if taken {
		observability.IDCollisions.Inc()
	}
	return taken, err
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	s.stampTimeAgo(posts)
	return posts, nil
}

// GetUserPosts lists the posts of authorID. Only the author may list them.
func (s *PostService) GetUserPosts(ctx context.Context, requesterID, authorID uint) ([]*models.Post, error) {
	if requesterID != authorID {
		return nil, models.NewForbiddenError(msgForbiddenAccess)
	}
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, requesterID)
	if err != nil {
		return nil, err
	}
	s.stampTimeAgo(posts)
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id string, viewerID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	hearts, err := s.postRepo.HeartUserIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	post.TimeAgo = models.TimeAgo(post.CreatedAt, s.now())
	return &PostDetail{Post: post, Hearts: hearts}, nil
}

// DeletePost removes a post. Only its author or an administrator may do so.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, in.UserID)
			if err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError(msgForbiddenDelete)
		}
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleHeart flips userID's heart on the post and returns the new state and count.
func (s *PostService) ToggleHeart(ctx context.Context, postID string, userID uint) (bool, int64, error) {
	hearted, count, err := s.postRepo.ToggleHeart(ctx, postID, userID)
	if err != nil {
		return false, 0, err
	}
	action := "removed"
	if hearted {
		action = "added"
	}
	observability.HeartToggles.WithLabelValues(action).Inc()
	return hearted, count, nil
}

// AuthorID returns the id of the user who wrote the post.
func (s *PostService) AuthorID(ctx context.Context, postID string) (uint, error) {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return 0, err
	}
	return post.UserID, nil
}

// GetPostImage fetches the image attached to a post from the image host.
func (s *PostService) GetPostImage(ctx context.Context, postID string) (*PostImage, error) {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, err
	}
	if post.ImageURL == nil || *post.ImageURL == "" || s.images == nil {
		return nil, models.NewNotFoundError("Image")
	}

	data, contentType, err := s.images.Fetch(ctx, *post.ImageURL)
	if err != nil {
		return nil, models.NewBadGatewayError("Failed to fetch image", err)
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return &PostImage{Data: data, ContentType: contentType}, nil
}

func (s *PostService) stampTimeAgo(posts []*models.Post) {
	now := s.now()
	for _, p := range posts {
		p.TimeAgo = models.TimeAgo(p.CreatedAt, now)
	}
}
