// Package snowflake generates the opaque identifiers used for posts.
package snowflake

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Length is the number of decimal digits in a generated identifier.
const Length = 18

// DefaultMaxAttempts bounds Unique when the caller passes a non-positive limit.
const DefaultMaxAttempts = 8

// ErrExhausted is returned when every attempt collided with an existing identifier.
var ErrExhausted = errors.New("snowflake: identifier space exhausted after max attempts")

// lower is 10^17, the smallest 18-digit number; span is 9*10^17.
var (
	lower = new(big.Int).Exp(big.NewInt(10), big.NewInt(Length-1), nil)
	span  = new(big.Int).Mul(big.NewInt(9), lower)
)

// New returns a random 18-digit decimal string with a non-zero leading digit.
// Uniqueness is not guaranteed; see Unique.
func New() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("snowflake: read random: %w", err)
	}
	return n.Add(n, lower).String(), nil
}

// ExistsFunc reports whether id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// Unique generates identifiers until exists reports one as free, giving up
// with ErrExhausted after maxAttempts collisions. The check is advisory: the
// store's primary key remains the final arbiter.
func Unique(ctx context.Context, exists ExistsFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id, err := New()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("snowflake: check %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}

	return "", ErrExhausted
}
