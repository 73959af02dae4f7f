package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"netsocial/internal/models"
	"netsocial/internal/snowflake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// imageStoreStub is a stub for ImageStore.
type imageStoreStub struct {
	uploadFn func(context.Context, []byte) (string, error)
	fetchFn  func(context.Context, string) ([]byte, string, error)
}

func (s *imageStoreStub) Upload(ctx context.Context, image []byte) (string, error) {
	return s.uploadFn(ctx, image)
}
func (s *imageStoreStub) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	return s.fetchFn(ctx, imageURL)
}

func notAdmin(_ context.Context, _ uint) (bool, error) { return false, nil }

func TestCreatePost_Validation(t *testing.T) {
	svc := NewPostService(noopPostRepo(), nil, notAdmin, 8)

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"missing title", CreatePostInput{UserID: 1, Content: "body"}},
		{"blank title", CreatePostInput{UserID: 1, Title: "   ", Content: "body"}},
		{"missing content", CreatePostInput{UserID: 1, Title: "t"}},
		{"title too long", CreatePostInput{UserID: 1, Title: strings.Repeat("t", 301), Content: "body"}},
		{"content too long", CreatePostInput{UserID: 1, Title: "t", Content: strings.Repeat("c", 50001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(context.Background(), tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestCreatePost_Success(t *testing.T) {
	repo := noopPostRepo()
	var stored *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		stored = p
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id string, _ uint) (*models.Post, error) {
		require.NotNil(t, stored)
		p := *stored
		p.CreatedAt = time.Now()
		p.Author = models.User{ID: p.UserID, Username: "alice"}
		return &p, nil
	}
	images := &imageStoreStub{
		uploadFn: func(_ context.Context, img []byte) (string, error) {
			assert.Equal(t, []byte("img"), img)
			return "https://i.example/1.png", nil
		},
	}
	svc := NewPostService(repo, images, notAdmin, 8)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 7, Title: " Hello ", Content: "World", Image: []byte("img")})
	require.NoError(t, err)
	assert.Len(t, post.ID, snowflake.Length)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, uint(7), post.UserID)
	assert.Equal(t, "alice", post.Author.Username)
	require.NotNil(t, post.ImageURL)
	assert.Equal(t, "https://i.example/1.png", *post.ImageURL)
	assert.Equal(t, "0 seconds ago", post.TimeAgo)
}

func TestCreatePost_ImageUploadFailure(t *testing.T) {
	created := false
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		created = true
		return nil
	}
	images := &imageStoreStub{
		uploadFn: func(_ context.Context, _ []byte) (string, error) { return "", errors.New("host down") },
	}
	svc := NewPostService(repo, images, notAdmin, 8)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", Content: "c", Image: []byte("x")})
	assertAppError(t, err, models.CodeBadGateway)
	assert.False(t, created)
}

func TestCreatePost_IDSpaceExhausted(t *testing.T) {
	repo := noopPostRepo()
	checks := 0
	repo.existsFn = func(_ context.Context, _ string) (bool, error) {
		checks++
		return true, nil
	}
	svc := NewPostService(repo, nil, notAdmin, 3)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", Content: "c"})
	assertAppError(t, err, models.CodeResourceExhausted)
	assert.ErrorIs(t, err, snowflake.ErrExhausted)
	assert.Equal(t, 3, checks)
}

func TestCreatePost_RetriesOnInsertConflict(t *testing.T) {
	repo := noopPostRepo()
	attempts := 0
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		attempts++
		if attempts == 1 {
			return models.NewConflictError("Post identifier already in use")
		}
		return nil
	}
	svc := NewPostService(repo, nil, notAdmin, 8)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestCreatePost_ConcurrentIDsAreDistinct(t *testing.T) {
	var (
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	repo := noopPostRepo()
	repo.existsFn = func(_ context.Context, id string) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return ids[id], nil
	}
	repo.createFn = func(_ context.Context, p *models.Post) error {
		mu.Lock()
		defer mu.Unlock()
		if ids[p.ID] {
			return models.NewConflictError("Post identifier already in use")
		}
		ids[p.ID] = true
		return nil
	}
	svc := NewPostService(repo, nil, notAdmin, 8)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", Content: "c"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, ids, n)
}

func TestDeletePost_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		requester  uint
		admin      bool
		wantCode   string
		wantDelete bool
	}{
		{name: "author", requester: 1, wantDelete: true},
		{name: "admin", requester: 2, admin: true, wantDelete: true},
		{name: "stranger", requester: 3, wantCode: models.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			repo := noopPostRepo()
			repo.getByIDFn = func(_ context.Context, id string, _ uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 1}, nil
			}
			repo.deleteFn = func(_ context.Context, _ string) error {
				deleted = true
				return nil
			}
			isAdmin := func(_ context.Context, _ uint) (bool, error) { return tt.admin, nil }
			svc := NewPostService(repo, nil, isAdmin, 8)

			err := svc.DeletePost(context.Background(), DeletePostInput{UserID: tt.requester, PostID: "p"})
			if tt.wantCode != "" {
				assertAppError(t, err, tt.wantCode)
				assert.Equal(t, "Unauthorized: You are not authorized to delete this post", err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantDelete, deleted)
		})
	}
}

func TestDeletePost_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ string, _ uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post")
	}
	svc := NewPostService(repo, nil, notAdmin, 8)

	err := svc.DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: "missing"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestGetUserPosts_OnlySelf(t *testing.T) {
	svc := NewPostService(noopPostRepo(), nil, notAdmin, 8)

	_, err := svc.GetUserPosts(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.GetUserPosts(context.Background(), 1, 1)
	assert.NoError(t, err)
}

func TestGetPost_IncludesHeartsAndTimeAgo(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id string, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), HeartsCount: 2}, nil
	}
	repo.heartUserIDsFn = func(_ context.Context, _ string) ([]uint, error) { return []uint{3, 4}, nil }
	svc := NewPostService(repo, nil, notAdmin, 8)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC) }

	detail, err := svc.GetPost(context.Background(), "p", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 4}, detail.Hearts)
	assert.Equal(t, "180 minutes ago", detail.Post.TimeAgo)
}

func TestGetPostImage(t *testing.T) {
	url := "https://i.example/1.png"
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id string, _ uint) (*models.Post, error) {
		if id == "with-image" {
			return &models.Post{ID: id, ImageURL: &url}, nil
		}
		return &models.Post{ID: id}, nil
	}
	images := &imageStoreStub{
		fetchFn: func(_ context.Context, u string) ([]byte, string, error) {
			assert.Equal(t, url, u)
			return []byte("bytes"), "application/octet-stream", nil
		},
	}
	svc := NewPostService(repo, images, notAdmin, 8)

	img, err := svc.GetPostImage(context.Background(), "with-image")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), img.Data)
	assert.Equal(t, "image/jpeg", img.ContentType)

	_, err = svc.GetPostImage(context.Background(), "without-image")
	assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, "Image not found", err.Error())

	images.fetchFn = func(_ context.Context, _ string) ([]byte, string, error) {
		return nil, "", errors.New("HTTP 500")
	}
	_, err = svc.GetPostImage(context.Background(), "with-image")
	assertAppError(t, err, models.CodeBadGateway)
}

func TestToggleHeart_PropagatesNotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.toggleHeartFn = func(_ context.Context, _ string, _ uint) (bool, int64, error) {
		return false, 0, models.NewNotFoundError("Post")
	}
	svc := NewPostService(repo, nil, notAdmin, 8)

	_, _, err := svc.ToggleHeart(context.Background(), "missing", 1)
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostAuthorID(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id string, _ uint) (*models.Post, error) {
		if id != "p1" {
			return nil, models.NewNotFoundError("Post")
		}
		return &models.Post{ID: id, UserID: 5}, nil
	}
	svc := NewPostService(repo, nil, notAdmin, 8)

	author, err := svc.AuthorID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, uint(5), author)

	_, err = svc.AuthorID(context.Background(), "missing")
	assertAppError(t, err, models.CodeNotFound)
}
