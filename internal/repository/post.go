package repository

import (
	"context"
	"errors"

	"netsocial/internal/cache"
	"netsocial/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	// GetByID loads a post with its author and hearts count. Hearted is set
	// for viewerID, which may be 0 for anonymous readers.
	GetByID(ctx context.Context, id string, viewerID uint) (*models.Post, error)
	List(ctx context.Context, viewerID uint) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]*models.Post, error)
	// Delete removes the post together with its hearts, comments and replies.
	Delete(ctx context.Context, id string) error
	HeartUserIDs(ctx context.Context, postID string) ([]uint, error)
	// ToggleHeart adds the user's heart if absent and removes it otherwise.
	// It returns whether the post is hearted afterwards and the new count.
	ToggleHeart(ctx context.Context, postID string, userID uint) (bool, int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Post identifier already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string, viewerID uint) (*models.Post, error) {
	var post models.Post
	load := func() error {
		err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
			Preload("Author", publicAuthor).
			Where("posts.id = ?", id).
			First(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post")
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	var err error
	if viewerID == 0 {
		err = cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author", publicAuthor).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author", publicAuthor).
		Where("posts.user_id = ?", authorID).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails adds subqueries to fetch the hearts count and hearted flag in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM hearts WHERE hearts.post_id = posts.id) AS hearts_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM hearts WHERE hearts.post_id = posts.id AND hearts.user_id = ?) AS hearted", viewerID)
	}

	return db.Select(selectQuery + ", false AS hearted")
}

// publicAuthor loads the author fields shown next to posts, comments and replies.
func publicAuthor(db *gorm.DB) *gorm.DB {
	return db.Omit("email", "password", "profile_picture", "profile_banner")
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Heart{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post")
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) HeartUserIDs(ctx context.Context, postID string) ([]uint, error) {
	userIDs := make([]uint, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.Heart{}).
		Where("post_id = ?", postID).
		Order("created_at, id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return userIDs, nil
}

func (r *postRepository) ToggleHeart(ctx context.Context, postID string, userID uint) (bool, int64, error) {
	var (
		hearted bool
		count   int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return models.NewNotFoundError("Post")
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Heart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			heart := models.Heart{PostID: postID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&heart).Error; err != nil {
				return err
			}
			hearted = true
		}

		return tx.Model(&models.Heart{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return false, 0, err
		}
		return false, 0, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return hearted, count, nil
}
