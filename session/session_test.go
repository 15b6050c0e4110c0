package session_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/kenesis-labs/kenesis-engine/session"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestValidateRejectsTokensForUnverifiedEmailUser(t *testing.T) {
	s := &session.Session{
		UserID:        "user-1",
		Email:         "john.doe@example.com",
		AuthMethod:    session.AuthMethodEmail,
		EmailVerified: false,
		Tokens: oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
		},
	}
	require.ErrorIs(t, s.Validate(), session.ErrUnverifiedEmail)

	// Without tokens the unverified session is fine
	s.Tokens = oauth2.Token{}
	require.NoError(t, s.Validate())

	// Verified email with tokens is fine
	s.EmailVerified = true
	s.Tokens = oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, s.Validate())
}

func TestValidateAllowsWalletSessionWithTokens(t *testing.T) {
	s := &session.Session{
		UserID:        "user-1",
		WalletAddress: "0x0000000000000000000000000000000000000001",
		AuthMethod:    session.AuthMethodWallet,
		Tokens:        oauth2.Token{AccessToken: "access", RefreshToken: "refresh"},
	}
	require.NoError(t, s.Validate())
}

func TestAccessTokenExpiredFromJWTClaim(t *testing.T) {
	now := time.Now()

	live := &session.Session{
		UserID: "user-1",
		Tokens: oauth2.Token{AccessToken: signedToken(t, "user-1", now.Add(time.Hour))},
	}
	require.False(t, live.AccessTokenExpired(now))
	require.Equal(t, "user-1", live.Subject())

	stale := &session.Session{
		UserID: "user-1",
		Tokens: oauth2.Token{AccessToken: signedToken(t, "user-1", now.Add(-time.Minute))},
	}
	require.True(t, stale.AccessTokenExpired(now))
}

func TestAccessTokenExpiredPrefersStoredExpiry(t *testing.T) {
	now := time.Now()
	s := &session.Session{
		UserID: "user-1",
		Tokens: oauth2.Token{
			AccessToken: signedToken(t, "user-1", now.Add(time.Hour)),
			Expiry:      now.Add(-time.Minute),
		},
	}
	require.True(t, s.AccessTokenExpired(now))
}

func TestFileRepoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	repo := session.NewFileRepo(path)

	_, err := repo.Get()
	require.ErrorIs(t, err, session.ErrNoSession)

	s := &session.Session{
		UserID:        "user-1",
		WalletAddress: "0x0000000000000000000000000000000000000001",
		AuthMethod:    session.AuthMethodWallet,
		Tokens:        oauth2.Token{AccessToken: "access", RefreshToken: "refresh"},
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(s))

	loaded, err := repo.Get()
	require.NoError(t, err)
	require.Equal(t, s.UserID, loaded.UserID)
	require.Equal(t, s.WalletAddress, loaded.WalletAddress)
	require.Equal(t, s.Tokens.AccessToken, loaded.Tokens.AccessToken)

	require.NoError(t, repo.Delete())
	_, err = repo.Get()
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestFileRepoEnforcesInvariantOnWrite(t *testing.T) {
	repo := session.NewFileRepo(filepath.Join(t.TempDir(), "session.json"))
	err := repo.Upsert(&session.Session{
		UserID:     "user-1",
		Email:      "jane@example.com",
		AuthMethod: session.AuthMethodHybrid,
		Tokens:     oauth2.Token{AccessToken: "access", RefreshToken: "refresh"},
	})
	require.ErrorIs(t, err, session.ErrUnverifiedEmail)
}
