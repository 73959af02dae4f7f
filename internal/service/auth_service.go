package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"netsocial/internal/auth"
	"netsocial/internal/cache"
	"netsocial/internal/middleware"
	"netsocial/internal/models"
	"netsocial/internal/observability"
	"netsocial/internal/repository"
	"netsocial/internal/validation"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidToken       = "Unauthorized: Invalid token"
	msgUserConflict       = "Username or email already in use"
)

var (
	dummyDigestOnce sync.Once
	dummyDigest     string
)

// AuthService registers accounts, logs users in and resolves session tokens.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Identifier string
	Password   string
}

// Session is the result of a successful login.
type Session struct {
	Token  string
	Claims *auth.Claims
	User   *models.User
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// Signup creates an account. Username and email must both be unused.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		observability.Signups.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	for _, check := range []func() error{
		func() error { return validation.ValidateUsername(in.Username) },
		func() error { return validation.ValidateEmail(in.Email) },
		func() error { return validation.ValidatePassword(in.Password) },
	} {
		if err := check(); err != nil {
			observability.Signups.WithLabelValues("invalid").Inc()
			return nil, models.NewValidationError(err.Error())
		}
	}

	taken, err := s.userRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		observability.Signups.WithLabelValues("error").Inc()
		return nil, err
	}
	if taken {
		observability.Signups.WithLabelValues("conflict").Inc()
		return nil, models.NewConflictError(msgUserConflict)
	}

	digest, err := auth.HashPassword(in.Password)
	if err != nil {
		observability.Signups.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: digest,
	}
	// The unique indexes settle races the pre-check cannot see.
	if err := s.userRepo.Create(ctx, user); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			observability.Signups.WithLabelValues("conflict").Inc()
		} else {
			observability.Signups.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	observability.Signups.WithLabelValues("created").Inc()
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues a session token. Unknown
// identifiers and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if in.Identifier == "" || in.Password == "" {
		observability.Logins.WithLabelValues("invalid").Inc()
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}

	user, err := s.userRepo.GetByIdentifier(ctx, in.Identifier)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	digest := dummyPasswordDigest()
	if user != nil {
		digest = user.Password
	}
	ok, err := auth.VerifyPassword(in.Password, digest)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	if user == nil || !ok {
		observability.Logins.WithLabelValues("rejected").Inc()
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}

	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}

	observability.Logins.WithLabelValues("success").Inc()
	return &Session{Token: token, Claims: claims, User: user}, nil
}

// Authenticate resolves a session token to its user. Every verification
// failure is reported as the same Unauthorized error; store and revocation
// faults are internal errors.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError(msgInvalidToken)
	}

	revoked, err := cache.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	if revoked {
		return nil, nil, models.NewUnauthorizedError(msgInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, nil, models.NewUnauthorizedError(msgInvalidToken)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout revokes token until it would have expired. Tokens that no longer
// verify need no revocation.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	if err := cache.RevokeJTI(ctx, claims.JTI, time.Until(claims.ExpiresAt)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke token", "error", err)
	}
	return nil
}

// TokenTTL is the lifetime of issued session tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// dummyPasswordDigest is compared against when the identifier is unknown so
// both rejection paths spend a bcrypt comparison.
func dummyPasswordDigest() string {
	dummyDigestOnce.Do(func() {
		dummyDigest, _ = auth.HashPassword("netsocial-placeholder-password")
	})
	return dummyDigest
}
