// Package auth implements credential hashing and session tokens.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// ErrInvalidCredentialFormat means a stored digest could not be parsed as bcrypt.
var ErrInvalidCredentialFormat = errors.New("auth: stored credential is not a valid bcrypt digest")

// HashPassword returns a salted bcrypt digest of plaintext. Every call uses a fresh salt.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword compares plaintext against digest in constant time.
// A mismatch is (false, nil); an unparseable digest is ErrInvalidCredentialFormat.
func VerifyPassword(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return false, nil
	}

	var (
		prefixErr  bcrypt.InvalidHashPrefixError
		costErr    bcrypt.InvalidCostError
		versionErr bcrypt.HashVersionTooNewError
	)
	if errors.Is(err, bcrypt.ErrHashTooShort) ||
		errors.As(err, &prefixErr) ||
		errors.As(err, &costErr) ||
		errors.As(err, &versionErr) {
		return false, fmt.Errorf("%w: %v", ErrInvalidCredentialFormat, err)
	}
	return false, fmt.Errorf("verify password: %w", err)
}
