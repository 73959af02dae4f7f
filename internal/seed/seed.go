// Package seed populates the database with demo users, posts, comments,
// replies and hearts. It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"netsocial/internal/auth"
	"netsocial/internal/models"
	"netsocial/internal/repository"
	"netsocial/internal/snowflake"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	// MaxCommentsPerPost bounds the comments generated for each post.
	MaxCommentsPerPost int
	// MaxDays spreads creation times over the last MaxDays days.
	MaxDays int
}

// Result counts what a seeding run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Replies  int
	Hearts   int
}

// Seeder writes demo data through the application repositories.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	faker    *gofakeit.Faker
	rng      *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	seed := time.Now().UnixNano()
	return newSeeder(db, seed)
}

func newSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		faker:    gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng: rand.New(rand.NewSource(seed)),
	}
}

// ClearAll removes every row of seeded data.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE hearts, replies, comments, posts, users RESTART IDENTITY CASCADE;`).Error
	}
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{&models.Heart{}, &models.Reply{}, &models.Comment{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// Seed creates opts.NumUsers users and opts.NumPosts posts with engagement.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.NumUsers <= 0 {
		return res, fmt.Errorf("seed: at least one user is required")
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.MaxCommentsPerPost < 0 {
		opts.MaxCommentsPerPost = 0
	}

	users, err := s.createUsers(ctx, opts.NumUsers)
	if err != nil {
		return res, fmt.Errorf("failed to create users: %w", err)
	}
	res.Users = len(users)
	log.Printf("✓ %d test users created", res.Users)

	posts, err := s.createPosts(ctx, users, opts.NumPosts, opts.MaxDays)
	if err != nil {
		return res, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = len(posts)
	log.Printf("✓ %d posts created", res.Posts)

	if err := s.seedEngagement(ctx, users, posts, opts.MaxCommentsPerPost, &res); err != nil {
		return res, fmt.Errorf("failed to seed engagement: %w", err)
	}
	log.Printf("✓ %d comments, %d replies and %d hearts created", res.Comments, res.Replies, res.Hearts)

	return res, nil
}

func (s *Seeder) createUsers(ctx context.Context, n int) ([]*models.User, error) {
	// One digest for every account keeps seeding fast.
	digest, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	taken := make(map[string]bool, n)
	for len(users) < n {
		username := s.username(taken)
		user := &models.User{
			Username: username,
			Email:    username + "@example.com",
			Password: digest,
			Bio:      s.faker.Sentence(8),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// username returns a unique lower-case name within the 30 character limit.
func (s *Seeder) username(taken map[string]bool) string {
	for {
		name := strings.ToLower(s.faker.FirstName() + s.faker.LastName())
		name = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, name)
		if len(name) > 24 {
			name = name[:24]
		}
		name = fmt.Sprintf("%s%d", name, s.rng.Intn(1000))
		if !taken[name] {
			taken[name] = true
			return name
		}
	}
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.User, n, maxDays int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		id, err := snowflake.Unique(ctx, s.posts.Exists, snowflake.DefaultMaxAttempts)
		if err != nil {
			return nil, err
		}
		author := users[s.rng.Intn(len(users))]
		post := &models.Post{
			ID:        id,
			Title:     strings.TrimSuffix(s.faker.Sentence(5), "."),
			Content:   s.faker.Paragraph(1, 3, 8, "\n"),
			UserID:    author.ID,
			CreatedAt: s.pastTime(maxDays),
		}
		if s.rng.Intn(3) == 0 {
			url := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
			post.ImageURL = &url
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post, maxComments int, res *Result) error {
	for _, post := range posts {
		for _, idx := range s.rng.Perm(len(users))[:s.rng.Intn(len(users)+1)] {
			hearted, _, err := s.posts.ToggleHeart(ctx, post.ID, users[idx].ID)
			if err != nil {
				return err
			}
			if hearted {
				res.Hearts++
			}
		}

		if maxComments == 0 {
			continue
		}
		for c := s.rng.Intn(maxComments + 1); c > 0; c-- {
			comment := &models.Comment{
				PostID:  post.ID,
				UserID:  users[s.rng.Intn(len(users))].ID,
				Content: s.faker.Sentence(10),
			}
			if err := s.comments.Create(ctx, comment); err != nil {
				return err
			}
			res.Comments++

			if s.rng.Intn(2) == 0 {
				reply := &models.Reply{
					CommentID: comment.ID,
					UserID:    users[s.rng.Intn(len(users))].ID,
					Content:   s.faker.Sentence(6),
				}
				if err := s.comments.CreateReply(ctx, reply); err != nil {
					return err
				}
				res.Replies++
			}
		}
	}
	return nil
}

func (s *Seeder) pastTime(maxDays int) time.Time {
	back := time.Duration(s.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(s.rng.Intn(24))*time.Hour +
		time.Duration(s.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}
