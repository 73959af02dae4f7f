package service

import (
	"context"
	"errors"
	"testing"

	"netsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getWithMediaFn    func(context.Context, uint) (*models.User, error)
	getByIdentifierFn func(context.Context, string) (*models.User, error)
	existsFn          func(context.Context, string, string) (bool, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetWithMedia(ctx context.Context, id uint) (*models.User, error) {
	return s.getWithMediaFn(ctx, id)
}
func (s *userRepoStub) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.getByIdentifierFn(ctx, identifier)
}
func (s *userRepoStub) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return s.existsFn(ctx, username, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getWithMediaFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByIdentifierFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:          func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		createFn:          func(_ context.Context, _ *models.User) error { return nil },
		updateFn:          func(_ context.Context, _ *models.User) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	existsFn       func(context.Context, string) (bool, error)
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, string, uint) (*models.Post, error)
	listFn         func(context.Context, uint) ([]*models.Post, error)
	listByAuthorFn func(context.Context, uint, uint) ([]*models.Post, error)
	deleteFn       func(context.Context, string) error
	heartUserIDsFn func(context.Context, string) ([]uint, error)
	toggleHeartFn  func(context.Context, string, uint) (bool, int64, error)
}

func (s *postRepoStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, viewerID uint) ([]*models.Post, error) {
	return s.listFn(ctx, viewerID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, viewerID)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) HeartUserIDs(ctx context.Context, postID string) ([]uint, error) {
	return s.heartUserIDsFn(ctx, postID)
}
func (s *postRepoStub) ToggleHeart(ctx context.Context, postID string, userID uint) (bool, int64, error) {
	return s.toggleHeartFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		existsFn:       func(_ context.Context, _ string) (bool, error) { return false, nil },
		createFn:       func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:      func(_ context.Context, id string, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:         func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _, _ uint) ([]*models.Post, error) { return nil, nil },
		deleteFn:       func(_ context.Context, _ string) error { return nil },
		heartUserIDsFn: func(_ context.Context, _ string) ([]uint, error) { return []uint{}, nil },
		toggleHeartFn:  func(_ context.Context, _ string, _ uint) (bool, int64, error) { return true, 1, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	createReplyFn func(context.Context, *models.Reply) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	listByPostFn  func(context.Context, string) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) CreateReply(ctx context.Context, reply *models.Reply) error {
	return s.createReplyFn(ctx, reply)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		createReplyFn: func(_ context.Context, _ *models.Reply) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn:  func(_ context.Context, _ string) ([]*models.Comment, error) { return nil, nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}
