package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// AuthMethod records how a session was established. A wallet linked onto an
// email account (or vice versa) upgrades the session to hybrid.
type AuthMethod string

const (
	AuthMethodEmail  AuthMethod = "email"
	AuthMethodWallet AuthMethod = "wallet"
	AuthMethodHybrid AuthMethod = "hybrid"
)

var (
	ErrUnverifiedEmail = errors.New("tokens must not be stored for an unverified email account")
	ErrNoSession       = errors.New("no active session")
)

// Session is the engine's authenticated state against the Kenesis backend.
// The access token lives inside Tokens; RefreshToken is the opaque rotation
// credential issued alongside it.
type Session struct {
	UserID        string       `json:"user_id"`
	WalletAddress string       `json:"wallet_address,omitempty"`
	Email         string       `json:"email,omitempty"`
	AuthMethod    AuthMethod   `json:"auth_method"`
	Tokens        oauth2.Token `json:"tokens"`
	EmailVerified bool         `json:"email_verified,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// HasTokens reports whether the session carries a usable token pair.
func (s *Session) HasTokens() bool {
	return s != nil && s.Tokens.AccessToken != "" && s.Tokens.RefreshToken != ""
}

// WalletOnly reports whether the session was established purely by wallet
// signature, with no email identity attached.
func (s *Session) WalletOnly() bool {
	return s != nil && s.AuthMethod == AuthMethodWallet
}

// AccessTokenExpired derives local expiry from the JWT exp claim. The token
// is minted and verified by the backend; the engine only reads the claim to
// decide whether a proactive refresh is worthwhile, so the signature is not
// checked here.
func (s *Session) AccessTokenExpired(now time.Time) bool {
	if s == nil || s.Tokens.AccessToken == "" {
		return true
	}
	if !s.Tokens.Expiry.IsZero() {
		return !now.Before(s.Tokens.Expiry)
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.Tokens.AccessToken, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// Subject extracts the userId (sub claim) from the access token. Falls back
// to the stored UserID when the token is not parseable.
func (s *Session) Subject() string {
	if s == nil {
		return ""
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.Tokens.AccessToken, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			return sub
		}
	}
	return s.UserID
}

// Validate enforces the persistence invariant: tokens are never stored for
// an email-authenticated user whose email address is unverified.
func (s *Session) Validate() error {
	if s == nil {
		return errors.New("[Session.Validate] nil session")
	}
	if s.UserID == "" {
		return errors.New("[Session.Validate] userID is required")
	}
	emailAuthed := s.AuthMethod == AuthMethodEmail || s.AuthMethod == AuthMethodHybrid
	if emailAuthed && !s.EmailVerified && s.HasTokens() {
		return ErrUnverifiedEmail
	}
	return nil
}
