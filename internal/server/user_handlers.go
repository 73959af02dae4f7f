package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type currentUserResponse struct {
	ID             uint      `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
	Bio            string    `json:"bio"`
	ProfilePicture *string   `json:"profilePicture"`
	Admin          bool      `json:"admin"`
}

// GetCurrentUser handles GET /api/user
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} currentUserResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	current, err := s.userService.GetCurrentUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	u := current.User
	return c.JSON(currentUserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		CreatedAt:      u.CreatedAt,
		Bio:            u.Bio,
		ProfilePicture: optionalString(u.ProfilePicture),
		Admin:          current.Admin,
	})
}

// GetUserProfile handles GET /api/user/:userid
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Param userid path int true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/{userid} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userid", "user ID")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
