package checker

import (
	"errors"
	"fmt"
)

// Authentication failure causes. Every failure returned by Authenticate wraps
// one of these in an *AuthError.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrLoginUnreachable   = errors.New("login page unreachable")
	ErrTokenNotFound      = errors.New("csrf token not found on login page")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthError reports why a session could not be established. When it is
// returned no URL has been probed.
type AuthError struct {
	Step string // login_page, login_post, verify
	URL  string
	Err  error
}

func (e *AuthError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("authentication failed at %s (%s): %v", e.Step, e.URL, e.Err)
	}
	return fmt.Sprintf("authentication failed at %s: %v", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// wrapCause joins a sentinel cause with the underlying error so that both
// match errors.Is.
func wrapCause(cause, err error) error {
	if err == nil {
		return cause
	}
	return fmt.Errorf("%w: %w", cause, err)
}
