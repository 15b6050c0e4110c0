package backendapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
)

func TestWalletNonceDecodesEnvelope(t *testing.T) {
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/wallet/nonce", r.URL.Path)
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"nonce":"abc123","message":"Sign in to Kenesis\nNonce: abc123"}}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	challenge, err := client.WalletNonce(context.Background(), "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	require.Equal(t, "abc123", challenge.Nonce)
	require.Contains(t, challenge.Message, "abc123")
	require.NotEmpty(t, gotRequestID, "requests must carry a correlation id")
}

func TestLoginClassifiesUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"User not found"}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	_, err := client.WalletLogin(context.Background(), backendapi.WalletAuthRequest{})
	require.ErrorIs(t, err, backendapi.ErrUserNotFound)
}

func TestRegisterClassifiesAlreadyRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"Wallet already registered"}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	_, err := client.WalletRegister(context.Background(), backendapi.WalletAuthRequest{})
	require.ErrorIs(t, err, backendapi.ErrWalletAlreadyRegistered)
}

func TestUnauthorizedClassifiesAsTokenExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"jwt expired"}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	_, err := client.ConfirmPurchase(context.Background(), "stale", backendapi.ConfirmPurchaseRequest{})
	require.True(t, backendapi.IsTokenExpired(err))
}

func TestUnauthorizedWithSpecificMessageKeepsItsMeaning(t *testing.T) {
	tests := map[string]struct {
		message string
		want    error
	}{
		"invalid signature": {message: "Invalid signature", want: backendapi.ErrInvalidSignature},
		"nonce expired":     {message: "Nonce expired or not found", want: backendapi.ErrNonceExpired},
		"email unverified":  {message: "Email not verified", want: backendapi.ErrEmailNotVerified},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"` + tc.message + `"}`))
			}))
			defer srv.Close()

			client := backendapi.NewClient(srv.URL)
			_, err := client.WalletLogin(context.Background(), backendapi.WalletAuthRequest{})
			require.ErrorIs(t, err, tc.want)
			require.NotErrorIs(t, err, backendapi.ErrTokenExpired,
				"a 401 with a specific rejection must not trigger a token refresh")
		})
	}
}

func TestBareUnauthorizedClassifiesAsTokenExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	_, err := client.GetCourse(context.Background(), "course-1")
	require.ErrorIs(t, err, backendapi.ErrTokenExpired)
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"message":"Too many requests","retryAfter":30}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	err := client.ResendVerification(context.Background(), "jane@example.com")
	var rateErr *backendapi.RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, float64(30), rateErr.RetryAfter.Seconds())
}

func TestGenericErrorSurfacesMessageAndReasons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Validation failed","errors":[{"message":"title is required"},{"message":"price must be positive"}]}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	_, err := client.GetCourse(context.Background(), "course-1")
	var apiErr *backendapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Error(), "title is required")
	require.Contains(t, apiErr.Error(), "price must be positive")
}

func TestGetCourseDecodesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/courses/course-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"course-1","title":"Intro to Solidity","type":"video","price":49.99,"soldCount":120,"isPublished":true,"isAvailable":true,"instructor":{"id":"inst-1","username":"vitalik"}}}`))
	}))
	defer srv.Close()

	client := backendapi.NewClient(srv.URL)
	course, err := client.GetCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, "Intro to Solidity", course.Title)
	require.Equal(t, 49.99, course.Price)
	require.Equal(t, "vitalik", course.Instructor.Username)
}
