package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"unauthorized", NewUnauthorizedError("nope"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("nope"), http.StatusForbidden},
		{"not found", NewNotFoundError("Post"), http.StatusNotFound},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"conflict", NewConflictError("taken"), http.StatusConflict},
		{"exhausted", NewResourceExhaustedError("busy", nil), http.StatusServiceUnavailable},
		{"bad gateway", NewBadGatewayError("upstream", nil), http.StatusBadGateway},
		{"internal", NewInternalError(errors.New("db down")), http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("ctx: %w", NewNotFoundError("User")), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFor(tt.err))
		})
	}
}

func TestRespondWithError_HidesCause(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("dial tcp 10.0.0.1:5432")))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, errors.New("secret detail"))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusNotFound, NewNotFoundError("Post"))
	})

	tests := []struct {
		path    string
		status  int
		message string
		code    string
	}{
		{"/internal", http.StatusInternalServerError, "Internal server error", CodeInternal},
		{"/plain", http.StatusInternalServerError, "Internal server error", CodeInternal},
		{"/missing", http.StatusNotFound, "Post not found", CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "10.0.0.1")
			assert.NotContains(t, string(raw), "secret detail")

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
