package seed

import (
	"context"
	"testing"

	"netsocial/internal/auth"
	"netsocial/internal/cache"
	"netsocial/internal/database"
	"netsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return int(n)
}

func TestSeed_CreatesConsistentData(t *testing.T) {
	db := setupTestDB(t)
	s := newSeeder(db, 42)

	res, err := s.Seed(context.Background(), Options{NumUsers: 5, NumPosts: 12, MaxCommentsPerPost: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Users)
	assert.Equal(t, 12, res.Posts)
	assert.Equal(t, res.Users, count(t, db, &models.User{}))
	assert.Equal(t, res.Posts, count(t, db, &models.Post{}))
	assert.Equal(t, res.Comments, count(t, db, &models.Comment{}))
	assert.Equal(t, res.Replies, count(t, db, &models.Reply{}))
	assert.Equal(t, res.Hearts, count(t, db, &models.Heart{}))

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		assert.Len(t, p.ID, 18)
		assert.NotEmpty(t, p.Title)
	}

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.LessOrEqual(t, len(user.Username), 30)
	ok, err := auth.VerifyPassword(DefaultPassword, user.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeed_RequiresUsers(t *testing.T) {
	db := setupTestDB(t)
	_, err := newSeeder(db, 1).Seed(context.Background(), Options{NumPosts: 3})
	assert.Error(t, err)
}

func TestClearAll(t *testing.T) {
	db := setupTestDB(t)
	s := newSeeder(db, 7)
	_, err := s.Seed(context.Background(), Options{NumUsers: 3, NumPosts: 4, MaxCommentsPerPost: 2})
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())
	for _, model := range []interface{}{&models.User{}, &models.Post{}, &models.Comment{}, &models.Reply{}, &models.Heart{}} {
		assert.Zero(t, count(t, db, model))
	}
}
