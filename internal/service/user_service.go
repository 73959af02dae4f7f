package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"netsocial/internal/models"
	"netsocial/internal/repository"

	_ "golang.org/x/image/webp"
)

const maxBioLen = 500

// allowedImageFormats are the formats accepted for avatars and banners, as
// named by image.DecodeConfig.
var allowedImageFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

type UserService struct {
	userRepo      repository.UserRepository
	isAdmin       func(username string) bool
	maxImageBytes int
}

// CurrentUser is the authenticated user's own view of their account.
type CurrentUser struct {
	User  *models.User
	Admin bool
}

type UpdateProfileSettingsInput struct {
	UserID uint
	Avatar []byte
	Banner []byte
	Bio    string
}

// ProfileMedia is a decoded avatar or banner.
type ProfileMedia struct {
	Data        []byte
	ContentType string
}

func NewUserService(userRepo repository.UserRepository, isAdmin func(username string) bool, maxImageBytes int) *UserService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &UserService{
		userRepo:      userRepo,
		isAdmin:       isAdmin,
		maxImageBytes: maxImageBytes,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetCurrentUser loads the full account of userID including its admin flag.
func (s *UserService) GetCurrentUser(ctx context.Context, userID uint) (*CurrentUser, error) {
	user, err := s.userRepo.GetWithMedia(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CurrentUser{User: user, Admin: s.isAdmin(user.Username)}, nil
}

// IsAdmin reports whether userID belongs to a configured administrator.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.isAdmin(user.Username), nil
}

func (s *UserService) GetProfileSettings(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetWithMedia(ctx, userID)
}

// UpdateProfileSettings replaces the avatar, banner and bio when supplied.
// An empty bio leaves the current one in place.
func (s *UserService) UpdateProfileSettings(ctx context.Context, in UpdateProfileSettingsInput) (*models.User, error) {
	if len(in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}
	if in.Avatar != nil {
		if err := s.validateImage(in.Avatar, "Avatar"); err != nil {
			return nil, err
		}
	}
	if in.Banner != nil {
		if err := s.validateImage(in.Banner, "Banner"); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.GetWithMedia(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Avatar != nil {
		user.ProfilePicture = base64.StdEncoding.EncodeToString(in.Avatar)
	}
	if in.Banner != nil {
		user.ProfileBanner = base64.StdEncoding.EncodeToString(in.Banner)
	}
	if in.Bio != "" {
		user.Bio = in.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ProfilePicture returns the stored avatar of userID, or nil when the user
// does not exist or has none.
func (s *UserService) ProfilePicture(ctx context.Context, userID uint) (*ProfileMedia, error) {
	return s.profileMedia(ctx, userID, func(u *models.User) string { return u.ProfilePicture })
}

// ProfileBanner is ProfilePicture for the banner image.
func (s *UserService) ProfileBanner(ctx context.Context, userID uint) (*ProfileMedia, error) {
	return s.profileMedia(ctx, userID, func(u *models.User) string { return u.ProfileBanner })
}

func (s *UserService) profileMedia(ctx context.Context, userID uint, field func(*models.User) string) (*ProfileMedia, error) {
	user, err := s.userRepo.GetWithMedia(ctx, userID)
	if err != nil {
		if models.StatusFor(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	encoded := field(user)
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &ProfileMedia{Data: data, ContentType: http.DetectContentType(data)}, nil
}

func (s *UserService) validateImage(data []byte, label string) error {
	if len(data) == 0 {
		return models.NewValidationError(label + " file is empty")
	}
	if s.maxImageBytes > 0 && len(data) > s.maxImageBytes {
		return models.NewValidationError(label + " file is too large")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || !allowedImageFormats[format] {
		return models.NewValidationError(label + " must be a PNG, JPEG, GIF or WebP image")
	}
	return nil
}
