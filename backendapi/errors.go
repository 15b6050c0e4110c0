package backendapi

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrWalletAlreadyRegistered = errors.New("wallet already registered")
	ErrWalletAlreadyLinked     = errors.New("wallet already linked to an account")
	ErrUserNotFound            = errors.New("user not found")
	ErrTokenExpired            = errors.New("access token expired")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrNonceExpired            = errors.New("nonce expired")
	ErrEmailNotVerified        = errors.New("email not verified")
)

// RateLimitedError carries the backend's retryAfter hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return "rate limited, retry after " + e.RetryAfter.String()
}

// APIError is a backend rejection that did not classify to a sentinel. The
// backend message is surfaced verbatim; the UI renders it as-is.
type APIError struct {
	StatusCode int
	Message    string
	Reasons    []string
}

func (e *APIError) Error() string {
	if len(e.Reasons) > 0 {
		return e.Message + ": " + strings.Join(e.Reasons, "; ")
	}
	return e.Message
}

// classify maps a backend rejection onto the engine's sentinel errors by
// status code and message shape. The backend does not return stable machine
// codes for these, so matching the message is the contract we have.
func classify(statusCode int, message string, reasons []string, retryAfter int) error {
	lower := strings.ToLower(message)
	switch {
	case statusCode == 429 || retryAfter > 0:
		if retryAfter <= 0 {
			retryAfter = 1
		}
		return &RateLimitedError{RetryAfter: time.Duration(retryAfter) * time.Second}
	case strings.Contains(lower, "already registered"), strings.Contains(lower, "wallet already exists"):
		return ErrWalletAlreadyRegistered
	case strings.Contains(lower, "already linked"):
		return ErrWalletAlreadyLinked
	case strings.Contains(lower, "user not found"), strings.Contains(lower, "no account found"):
		return ErrUserNotFound
	case strings.Contains(lower, "invalid signature"), strings.Contains(lower, "signature verification"):
		return ErrInvalidSignature
	case strings.Contains(lower, "nonce"):
		return ErrNonceExpired
	case strings.Contains(lower, "not verified"):
		return ErrEmailNotVerified
	// The bare status check comes after the message shapes: failed SIWE
	// verification also arrives as a 401 and must not classify as expiry.
	case statusCode == 401, strings.Contains(lower, "token expired"), strings.Contains(lower, "jwt expired"):
		return ErrTokenExpired
	}
	if message == "" {
		message = "request failed"
	}
	return &APIError{StatusCode: statusCode, Message: message, Reasons: reasons}
}

// IsTokenExpired reports whether err is a token-expiry-shaped failure, the
// trigger for the single refresh-and-retry pass.
func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
