package auth

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"time"
)

// maxTokenAttempts bounds how often Except asks its source for a new token.
const maxTokenAttempts = 16

// ErrTokenExhausted is returned when a token source keeps repeating the
// token it is asked to replace.
var ErrTokenExhausted = errors.New("token source keeps repeating the current token")

// TokenFunc produces pending tokens. NewToken is the production source;
// tests substitute deterministic ones.
type TokenFunc func() string

// Except returns a token from f that differs from current, giving up after
// maxTokenAttempts draws.
func (f TokenFunc) Except(current string) (string, error) {
	for range maxTokenAttempts {
		if tok := f(); tok != current {
			return tok, nil
		}
	}
	return "", ErrTokenExhausted
}

// NewToken returns an opaque identifier for confirmation and reset links.
// It is a random number followed by the current time, both in base 32.
// Tokens are not secret-grade; they only need to be hard to guess and unlikely to repeat.
func NewToken() string {
	random := strconv.FormatUint(rand.Uint64(), 32)
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 32)
	return random + stamp
}

// NewTokenExcept returns a token that differs from current.
func NewTokenExcept(current string) (string, error) {
	return TokenFunc(NewToken).Except(current)
}
