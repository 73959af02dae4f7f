package server

import (
	"context"

	"netsocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

type profileSettingsResponse struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Bio            string  `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
	ProfileBanner  *string `json:"profileBanner"`
}

// GetProfileSettings handles GET /api/profile/settings
// @Summary Get profile settings
// @Tags profile
// @Produce json
// @Success 200 {object} profileSettingsResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/settings [get]
func (s *Server) GetProfileSettings(c *fiber.Ctx) error {
	user, err := s.userService.GetProfileSettings(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profileSettingsResponse{
		Name:           user.Username,
		Email:          user.Email,
		Bio:            user.Bio,
		ProfilePicture: optionalString(user.ProfilePicture),
		ProfileBanner:  optionalString(user.ProfileBanner),
	})
}

// UpdateProfileSettings handles POST /api/profile/settings
// @Summary Update profile settings
// @Description Replace the avatar, banner or bio. Omitted fields are left unchanged.
// @Tags profile
// @Accept mpfd
// @Produce json
// @Param avatar formData file false "Avatar image"
// @Param banner formData file false "Banner image"
// @Param newBio formData string false "New bio"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/settings [post]
func (s *Server) UpdateProfileSettings(c *fiber.Ctx) error {
	avatar, err := readFormFile(c, "avatar")
	if err != nil {
		return s.respondError(c, err)
	}
	banner, err := readFormFile(c, "banner")
	if err != nil {
		return s.respondError(c, err)
	}

	if _, err := s.userService.UpdateProfileSettings(c.UserContext(), service.UpdateProfileSettingsInput{
		UserID: currentUserID(c),
		Avatar: avatar,
		Banner: banner,
		Bio:    c.FormValue("newBio"),
	}); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Profile settings updated successfully"})
}

// GetProfileImage handles GET /api/profile/:userid/image
// @Summary Get a user's avatar
// @Description Redirects to the default avatar when the user has none
// @Tags profile
// @Produce image/png,image/jpeg,image/gif,image/webp
// @Param userid path int true "User ID"
// @Success 200 {file} binary
// @Success 302
// @Router /profile/{userid}/image [get]
func (s *Server) GetProfileImage(c *fiber.Ctx) error {
	return s.serveProfileMedia(c, s.userService.ProfilePicture, s.config.DefaultAvatarURL)
}

// GetProfileBanner handles GET /api/profile/:userid/banner
// @Summary Get a user's banner
// @Description Redirects to the default banner when the user has none
// @Tags profile
// @Produce image/png,image/jpeg,image/gif,image/webp
// @Param userid path int true "User ID"
// @Success 200 {file} binary
// @Success 302
// @Router /profile/{userid}/banner [get]
func (s *Server) GetProfileBanner(c *fiber.Ctx) error {
	return s.serveProfileMedia(c, s.userService.ProfileBanner, s.config.DefaultBannerURL)
}

func (s *Server) serveProfileMedia(
	c *fiber.Ctx,
	load func(ctx context.Context, userID uint) (*service.ProfileMedia, error),
	fallbackURL string,
) error {
	userID, err := c.ParamsInt("userid")
	if err != nil || userID <= 0 {
		return c.Redirect(fallbackURL, fiber.StatusFound)
	}

	media, err := load(c.UserContext(), uint(userID))
	if err != nil {
		return s.respondError(c, err)
	}
	if media == nil {
		return c.Redirect(fallbackURL, fiber.StatusFound)
	}

	c.Set(fiber.HeaderContentType, media.ContentType)
	return c.Send(media.Data)
}
