package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"netsocial/internal/config"
	"netsocial/internal/database"
	"netsocial/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret        = "test-secret-that-is-long-enough-for-hs256"
	defaultAvatarURL  = "https://cdn.example.com/default-avatar.png"
	defaultBannerURL  = "https://cdn.example.com/default-banner.png"
	hostedImageURL    = "https://images.example.com/abc.png"
	hostedContentType = "image/png"
)

// fakeImageStore stands in for the external image host.
type fakeImageStore struct {
	mu        sync.Mutex
	uploads   [][]byte
	data      []byte
	uploadErr error
	fetchErr  error
}

func (f *fakeImageStore) Upload(_ context.Context, image []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, image)
	f.data = image
	return hostedImageURL, nil
}

func (f *fakeImageStore) Fetch(_ context.Context, _ string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return f.data, hostedContentType, nil
}

type testEnv struct {
	app    *fiber.App
	server *Server
	db     *gorm.DB
	images *fakeImageStore
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

func testConfig() *config.Config {
	cfg := &config.Config{
		Port:              "5000",
		Env:               "test",
		JWTSecret:         testSecret,
		DefaultAvatarURL:  defaultAvatarURL,
		DefaultBannerURL:  defaultBannerURL,
		IDMaxAttempts:     8,
		MaxProfileImageMB: 1,
	}
	cfg.SetAdmins([]string{"root"})
	return cfg
}

// newTestEnv wires a full app against an in-memory database. A nil
// redisClient runs without cache, revocation or pub/sub.
func newTestEnv(t *testing.T, redisClient *redis.Client) *testEnv {
	t.Helper()

	images := &fakeImageStore{}
	prev := newImageStore
	newImageStore = func(*config.Config) service.ImageStore { return images }
	t.Cleanup(func() { newImageStore = prev })

	db := newTestDB(t)
	srv, err := NewServerWithDeps(testConfig(), db, redisClient)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &testEnv{app: app, server: srv, db: db, images: images}
}

func (e *testEnv) do(t *testing.T, req *http.Request, session *http.Cookie) *http.Response {
	t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, session *http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, req, session)
}

func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, files map[string][]byte, session *http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for k, data := range files {
		part, err := w.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, session)
}

// signupAndLogin registers username and returns its session cookie.
func (e *testEnv) signupAndLogin(t *testing.T, username string) *http.Cookie {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "pw-" + username,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.doJSON(t, http.MethodPost, "/api/login", map[string]string{
		"identifier": username,
		"password":   "pw-" + username,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return sessionCookie(t, resp)
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("response carries no %q cookie", sessionCookieName)
	return nil
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// createPost creates a post as session and returns its id.
func (e *testEnv) createPost(t *testing.T, session *http.Cookie, title string) string {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   title,
		"content": "content of " + title,
	}, session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[struct {
		Message string `json:"message"`
		Post    struct {
			ID string `json:"_id"`
		} `json:"post"`
	}](t, resp)
	require.NotEmpty(t, body.Post.ID)
	return body.Post.ID
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
