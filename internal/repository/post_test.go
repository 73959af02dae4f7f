package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"netsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	exists, err := repo.Exists(ctx, "100000000000000001")
	require.NoError(t, err)
	assert.False(t, exists)

	createPost(t, db, "100000000000000001", alice, time.Now())

	exists, err = repo.Exists(ctx, "100000000000000001")
	require.NoError(t, err)
	assert.True(t, exists)

	post, err := repo.GetByID(ctx, "100000000000000001", 0)
	require.NoError(t, err)
	assert.Equal(t, "title 100000000000000001", post.Title)
	assert.Equal(t, "alice", post.Author.Username)
	assert.Empty(t, post.Author.Password)
	assert.Empty(t, post.Author.Email)
	assert.Zero(t, post.HeartsCount)
	assert.False(t, post.Hearted)

	_, err = repo.GetByID(ctx, "missing", 0)
	require.Error(t, err)
	assert.Equal(t, "Post not found", err.Error())
}

func TestPostRepository_CreateDuplicateID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	alice := createUser(t, db, "alice")
	createPost(t, db, "100000000000000001", alice, time.Now())

	err := repo.Create(context.Background(), &models.Post{ID: "100000000000000001", Title: "x", Content: "y", UserID: alice.ID})
	require.Error(t, err)
	assert.Equal(t, 409, models.StatusFor(err))
}

func TestPostRepository_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	base := time.Now().Add(-time.Hour)
	createPost(t, db, "100000000000000001", alice, base)
	createPost(t, db, "100000000000000002", bob, base.Add(time.Minute))
	createPost(t, db, "100000000000000003", alice, base.Add(2*time.Minute))

	posts, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "100000000000000003", posts[0].ID)
	assert.Equal(t, "100000000000000002", posts[1].ID)
	assert.Equal(t, "bob", posts[1].Author.Username)
	assert.Equal(t, "100000000000000001", posts[2].ID)

	mine, err := repo.ListByAuthor(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "100000000000000003", mine[0].ID)
	assert.Equal(t, "100000000000000001", mine[1].ID)
}

func TestPostRepository_ToggleHeartTwiceRestoresCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	createPost(t, db, "100000000000000001", alice, time.Now())

	hearted, count, err := repo.ToggleHeart(ctx, "100000000000000001", bob.ID)
	require.NoError(t, err)
	assert.True(t, hearted)
	assert.Equal(t, int64(1), count)

	post, err := repo.GetByID(ctx, "100000000000000001", bob.ID)
	require.NoError(t, err)
	assert.True(t, post.Hearted)
	assert.Equal(t, 1, post.HeartsCount)

	ids, err := repo.HeartUserIDs(ctx, "100000000000000001")
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, ids)

	hearted, count, err = repo.ToggleHeart(ctx, "100000000000000001", bob.ID)
	require.NoError(t, err)
	assert.False(t, hearted)
	assert.Equal(t, int64(0), count)

	ids, err = repo.HeartUserIDs(ctx, "100000000000000001")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPostRepository_ToggleHeartMissingPost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	bob := createUser(t, db, "bob")

	_, _, err := repo.ToggleHeart(context.Background(), "nope", bob.ID)
	require.Error(t, err)
	assert.Equal(t, 404, models.StatusFor(err))

	var hearts int64
	require.NoError(t, db.Model(&models.Heart{}).Count(&hearts).Error)
	assert.Zero(t, hearts)
}

func TestPostRepository_ConcurrentHeartsFromDistinctUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "author")
	createPost(t, db, "100000000000000001", author, time.Now())

	users := make([]*models.User, 8)
	for i := range users {
		users[i] = createUser(t, db, "fan"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, _, err := repo.ToggleHeart(ctx, "100000000000000001", id)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	ids, err := repo.HeartUserIDs(ctx, "100000000000000001")
	require.NoError(t, err)
	assert.Len(t, ids, len(users))
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	createPost(t, db, "100000000000000001", alice, time.Now())
	createPost(t, db, "100000000000000002", alice, time.Now())

	comment := &models.Comment{PostID: "100000000000000001", UserID: alice.ID, Content: "hi"}
	require.NoError(t, comments.Create(ctx, comment))
	require.NoError(t, comments.CreateReply(ctx, &models.Reply{CommentID: comment.ID, UserID: alice.ID, Content: "re"}))
	_, _, err := repo.ToggleHeart(ctx, "100000000000000001", alice.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "100000000000000001"))

	for _, model := range []any{&models.Comment{}, &models.Reply{}, &models.Heart{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows left behind", model)
	}

	exists, err := repo.Exists(ctx, "100000000000000002")
	require.NoError(t, err)
	assert.True(t, exists, "other posts are untouched")

	err = repo.Delete(ctx, "100000000000000001")
	assert.Equal(t, 404, models.StatusFor(err))
}

func TestPostRepository_ExistsDriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE id = $1`)).
		WithArgs("100000000000000001").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Exists(context.Background(), "100000000000000001")
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusFor(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
