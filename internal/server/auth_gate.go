package server

import (
	"context"
	"time"

	"netsocial/internal/middleware"
	"netsocial/internal/models"

	"github.com/gofiber/fiber/v2"
)

const sessionCookieName = "token"

// AuthRequired returns middleware that resolves the session cookie into a
// principal. Requests without a usable session are rejected with 401; store
// or revocation faults are reported as 500 and never let the request through.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(sessionCookieName)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized: No token provided"))
		}

		user, _, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return s.respondError(c, err)
		}

		c.Locals("principal", user.Principal())
		c.Locals("userID", user.ID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID resolves the session cookie on public routes without
// enforcing it. Any failure is treated as an anonymous request.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	token := c.Cookies(sessionCookieName)
	if token == "" {
		return 0
	}
	user, _, err := s.authService.Authenticate(c.UserContext(), token)
	if err != nil {
		return 0
	}
	return user.ID
}

// currentUserID returns the id stored by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.authService.TokenTTL().Seconds()),
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
