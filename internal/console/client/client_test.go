package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	require.NoError(t, err)
	return c, ts
}

func TestCallRetriesOnceAfterSuccessfulRefresh(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/me/", func(w http.ResponseWriter, r *http.Request) {
		// First attempt is unauthorized, the retry succeeds
		if meCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "Token expired"}`))
			return
		}
		w.Write([]byte(`{"id": "u1", "email": "chief@agency.gov"}`))
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Write([]byte(`{"refreshed": true}`))
	})

	c, _ := newTestClient(t, mux)

	user, err := c.Me()
	require.NoError(t, err)
	assert.Equal(t, "chief@agency.gov", user.Email)
	assert.Equal(t, int32(2), meCalls.Load(), "original call plus exactly one retry")
	assert.Equal(t, int32(1), refreshCalls.Load(), "exactly one refresh")
}

func TestCallPropagatesOriginalErrorWhenRefreshFails(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/me/", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Token expired"}`))
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"refreshed": false}`))
	})

	c, _ := newTestClient(t, mux)

	_, err := c.Me()
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindUnauthorized, apiErr.Kind)
	assert.Equal(t, "Token expired", apiErr.Message)
	assert.Equal(t, int32(1), meCalls.Load(), "no retry when refresh fails")
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestCallDoesNotRefreshOnOtherErrors(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "boom"}`))
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Write([]byte(`{"refreshed": true}`))
	})

	c, _ := newTestClient(t, mux)

	_, err := c.Me()
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, int32(0), refreshCalls.Load(), "server errors must not trigger a refresh")
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	c, err := New("http://127.0.0.1:1") // nothing listens here
	require.NoError(t, err)

	_, err = c.Me()
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, 0, apiErr.Status)
}

func TestRefreshTokenNeverFailsLoudly(t *testing.T) {
	// Unreachable server resolves to false, not an error
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)
	assert.False(t, c.RefreshToken())

	// Explicit rejection also resolves to false
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"refreshed": false}`))
	})
	c2, _ := newTestClient(t, mux)
	assert.False(t, c2.RefreshToken())
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{"message extracted", 400, `{"message": "Invalid OTP"}`, KindValidation, "Invalid OTP"},
		{"forbidden is unauthorized", 403, `{"message": "nope"}`, KindUnauthorized, "nope"},
		{"not found", 404, `{}`, KindNotFound, "An unexpected error occurred"},
		{"rate limited", 429, `{"message": "slow down"}`, KindRateLimited, "slow down"},
		{"server error", 502, `not even json`, KindServer, "An unexpected error occurred"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/authenticated/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			// Keep the refresh path dead so unauthorized cases don't loop
			mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"refreshed": false}`))
			})

			c, _ := newTestClient(t, mux)

			err := c.doOnce("GET", "/api/authenticated/", nil, nil, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.wantKind, apiErr.Kind)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMsg, apiErr.Message)
		})
	}
}

func TestCookiePersistenceRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok-abc", Path: "/"})
		w.Write([]byte(`{"success": true, "user": {"id": "u1", "email": "a@b.co"}}`))
	})
	mux.HandleFunc("/api/authenticated/", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("access_token")
		if err != nil || cookie.Value != "tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "no cookie"}`))
			return
		}
		w.Write([]byte(`{"authenticated": true}`))
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"refreshed": false}`))
	})

	c, ts := newTestClient(t, mux)

	_, err := c.Login("a@b.co", "password123")
	require.NoError(t, err)
	require.True(t, c.IsAuthenticated())

	// A second client restored from the first one's cookies shares the session
	c2, err := New(ts.URL)
	require.NoError(t, err)
	assert.False(t, c2.IsAuthenticated())

	c2.SetCookies(c.Cookies())
	assert.True(t, c2.IsAuthenticated())
}
