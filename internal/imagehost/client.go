// Package imagehost uploads post images to an imgbb-compatible host and
// fetches them back for the image proxy route.
package imagehost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFetchBytes caps how much of a hosted image is read back.
const MaxFetchBytes = 32 << 20

var (
	// ErrNotConfigured is returned by Upload when no API key is set.
	ErrNotConfigured = errors.New("imagehost: api key not configured")
	// ErrRejected is returned when the host answers but refuses the upload.
	ErrRejected = errors.New("imagehost: upload rejected")
)

// Client talks to the image host over HTTP.
type Client struct {
	httpClient *http.Client
	uploadURL  string
	apiKey     string
}

// New returns a Client posting uploads to uploadURL with apiKey.
func New(uploadURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		uploadURL:  uploadURL,
		apiKey:     apiKey,
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client.
func NewWithHTTPClient(httpClient *http.Client, uploadURL, apiKey string) *Client {
	c := New(uploadURL, apiKey)
	c.httpClient = httpClient
	return c
}

// uploadResponse is the subset of the imgbb reply we read.
type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends image to the host and returns its public URL.
func (c *Client) Upload(ctx context.Context, image []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	form.Set("name", uuid.NewString())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return "", fmt.Errorf("upload: HTTP %d: decode response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.Success || result.Data.URL == "" {
		msg := result.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, msg)
	}
	return result.Data.URL, nil
}

// Fetch downloads the image at imageURL and returns its bytes and content type.
func (c *Client) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	if len(data) > MaxFetchBytes {
		return nil, "", fmt.Errorf("fetch: image larger than %d bytes", MaxFetchBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
