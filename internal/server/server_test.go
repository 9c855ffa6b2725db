package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/config"
	"github.com/ecogate-dev/ecogate/internal/models"
)

// newTestServer spins up a server backed by a throwaway sqlite file and
// returns an HTTP client with a cookie jar so session cookies flow
func newTestServer(t *testing.T) (*Server, *httptest.Server, *http.Client) {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "test.sqlite")},
		Redis:    config.RedisConfig{Address: "localhost:6379"},
		HTTP:     config.HTTPConfig{Port: "0", AllowedOrigin: "http://localhost"},
		Auth:     config.AuthConfig{DefaultPassword: "Ecogate@2025"},
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return srv, ts, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// setupAdmin runs first-run setup, leaving the admin session in the jar
func setupAdmin(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	resp := postJSON(t, client, baseURL+"/api/setup/", map[string]string{
		"email":      "admin@agency.gov",
		"password":   "correct-horse-9",
		"first_name": "Ada",
		"last_name":  "Reyes",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// createUser inserts a user directly, bypassing the admin endpoints
func createUser(t *testing.T, srv *Server, email, password string, level models.UserLevel, status string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		UserLevel:    level,
		Status:       status,
	}
	require.NoError(t, srv.GetDB().Create(user).Error)
	return user
}

func TestSetupAndLogin(t *testing.T) {
	_, ts, client := newTestServer(t)

	setupAdmin(t, client, ts.URL)

	// Setup only works once
	resp := postJSON(t, client, ts.URL+"/api/setup/", map[string]string{
		"email":      "second@agency.gov",
		"password":   "another-pass-9",
		"first_name": "Eve",
		"last_name":  "Intruder",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password
	resp = postJSON(t, client, ts.URL+"/api/login/", map[string]string{
		"email":    "admin@agency.gov",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid credentials", body["message"])

	// Unknown account gets the same message as a wrong password
	resp = postJSON(t, client, ts.URL+"/api/login/", map[string]string{
		"email":    "nobody@agency.gov",
		"password": "whatever-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Invalid credentials", body["message"])

	// Correct credentials
	resp = postJSON(t, client, ts.URL+"/api/login/", map[string]string{
		"email":    "Admin@Agency.gov", // mixed case is normalized
		"password": "correct-horse-9",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin@agency.gov", user["email"])
	assert.Equal(t, "administrator", user["user_level"])
}

func TestAuthenticatedRequiresCookie(t *testing.T) {
	_, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	// Cookie from setup is in the jar
	resp, err := client.Get(ts.URL + "/api/authenticated/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["authenticated"])

	// A bare client has no cookie
	resp, err = http.Get(ts.URL + "/api/authenticated/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRefreshTokenFlow(t *testing.T) {
	_, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	// No refresh cookie at all
	resp := postJSON(t, &http.Client{}, ts.URL+"/api/token/refresh/", struct{}{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["refreshed"])

	// With the session jar the refresh cookie is present
	resp = postJSON(t, client, ts.URL+"/api/token/refresh/", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated bool
	for _, c := range resp.Cookies() {
		if c.Name == AccessCookieName && c.Value != "" {
			rotated = true
		}
	}
	assert.True(t, rotated, "expected a fresh access cookie")

	body = decodeBody(t, resp)
	assert.Equal(t, true, body["refreshed"])

	// An access token must not pass as a refresh token
	accessToken, err := auth.GenerateAccessToken("some-id", "admin@agency.gov")
	require.NoError(t, err)

	req, err := http.NewRequest("POST", ts.URL+"/api/token/refresh/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: accessToken})

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	resp2.Body.Close()
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	user := createUser(t, srv, "chief@agency.gov", "chief-pass-99", models.LevelDivisionChief, models.StatusActive)

	jar, _ := cookiejar.New(nil)
	userClient := &http.Client{Jar: jar}
	resp := postJSON(t, userClient, ts.URL+"/api/login/", map[string]string{
		"email":    "chief@agency.gov",
		"password": "chief-pass-99",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Deactivate after the refresh token was minted
	require.NoError(t, srv.GetDB().Model(user).Update("status", models.StatusInactive).Error)

	resp = postJSON(t, userClient, ts.URL+"/api/token/refresh/", struct{}{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["refreshed"])
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	_, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/logout/", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == AccessCookieName || c.Name == RefreshCookieName {
			assert.True(t, c.MaxAge < 0 || c.Value == "", "expected %s to be cleared", c.Name)
		}
	}
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	// Without any session at all, logout still succeeds
	resp = postJSON(t, &http.Client{}, ts.URL+"/api/logout/", struct{}{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestInactiveUserCannotLogin(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	createUser(t, srv, "gone@agency.gov", "gone-pass-999", models.LevelAirQualityUnitHead, models.StatusInactive)

	resp := postJSON(t, &http.Client{}, ts.URL+"/api/login/", map[string]string{
		"email":    "gone@agency.gov",
		"password": "gone-pass-999",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["message"], "inactive")
}

func TestAdminEndpointsRejectNonAdmins(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	createUser(t, srv, "staff@agency.gov", "staff-pass-99", models.LevelSolidWasteSectionChief, models.StatusActive)

	jar, _ := cookiejar.New(nil)
	staffClient := &http.Client{Jar: jar}
	resp := postJSON(t, staffClient, ts.URL+"/api/login/", map[string]string{
		"email":    "staff@agency.gov",
		"password": "staff-pass-99",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Staff can reach regular authed endpoints
	resp, err := staffClient.Get(ts.URL + "/api/me/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// But not the admin group
	resp, err = staffClient.Get(ts.URL + "/api/users/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The admin from setup can
	resp, err = client.Get(ts.URL + "/api/users/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	_, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	// Unknown accounts get the same response as known ones
	resp := postJSON(t, &http.Client{}, ts.URL+"/api/request-password-reset/", map[string]string{
		"email": "ghost@agency.gov",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["message"], "If an account with this email exists")
}

func TestRequestPasswordResetRateLimit(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	for i := 0; i < auth.OTPRateLimit; i++ {
		otp := &models.PasswordResetOTP{
			Email:     "admin@agency.gov",
			Code:      fmt.Sprintf("%06d", i),
			ExpiresAt: time.Now().Add(auth.OTPTTL),
		}
		require.NoError(t, srv.GetDB().Create(otp).Error)
	}

	resp := postJSON(t, &http.Client{}, ts.URL+"/api/request-password-reset/", map[string]string{
		"email": "admin@agency.gov",
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["message"], "Rate limit exceeded")
}

func TestVerifyPasswordReset(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	seedOTP := func(code string, expiresAt time.Time) *models.PasswordResetOTP {
		otp := &models.PasswordResetOTP{
			Email:     "admin@agency.gov",
			Code:      code,
			ExpiresAt: expiresAt,
		}
		require.NoError(t, srv.GetDB().Create(otp).Error)
		return otp
	}

	// Malformed OTP is rejected by validation
	resp := postJSON(t, &http.Client{}, ts.URL+"/api/verify-password-reset/", map[string]string{
		"email":        "admin@agency.gov",
		"otp":          "12ab56",
		"new_password": "fresh-password-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Expired code
	expired := seedOTP("111111", time.Now().Add(-time.Minute))
	resp = postJSON(t, &http.Client{}, ts.URL+"/api/verify-password-reset/", map[string]string{
		"email":        "admin@agency.gov",
		"otp":          "111111",
		"new_password": "fresh-password-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "OTP expired. Please request a new password reset.", body["message"])
	require.NoError(t, srv.GetDB().Model(expired).Update("used", true).Error)

	// Wrong code increments attempts on the latest unused OTP
	otp := seedOTP("222222", time.Now().Add(auth.OTPTTL))
	resp = postJSON(t, &http.Client{}, ts.URL+"/api/verify-password-reset/", map[string]string{
		"email":        "admin@agency.gov",
		"otp":          "333333",
		"new_password": "fresh-password-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Invalid OTP", body["message"])

	var reloaded models.PasswordResetOTP
	require.NoError(t, srv.GetDB().First(&reloaded, "id = ?", otp.ID).Error)
	assert.Equal(t, 1, reloaded.Attempts)

	// Correct code resets the password and consumes the OTP
	resp = postJSON(t, &http.Client{}, ts.URL+"/api/verify-password-reset/", map[string]string{
		"email":        "admin@agency.gov",
		"otp":          "222222",
		"new_password": "fresh-password-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, srv.GetDB().First(&reloaded, "id = ?", otp.ID).Error)
	assert.True(t, reloaded.Used)

	// Old password no longer works, new one does
	resp = postJSON(t, &http.Client{}, ts.URL+"/api/login/", map[string]string{
		"email":    "admin@agency.gov",
		"password": "correct-horse-9",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, &http.Client{}, ts.URL+"/api/login/", map[string]string{
		"email":    "admin@agency.gov",
		"password": "fresh-password-1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestVerifyPasswordResetAttemptCap(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	otp := &models.PasswordResetOTP{
		Email:     "admin@agency.gov",
		Code:      "654321",
		ExpiresAt: time.Now().Add(auth.OTPTTL),
		Attempts:  auth.OTPMaxAttempts,
	}
	require.NoError(t, srv.GetDB().Create(otp).Error)

	// Even the correct code is refused once the attempt cap is hit
	resp := postJSON(t, &http.Client{}, ts.URL+"/api/verify-password-reset/", map[string]string{
		"email":        "admin@agency.gov",
		"otp":          "654321",
		"new_password": "fresh-password-1",
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()
}

func TestActivityLogPagination(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	for i := 0; i < 5; i++ {
		entry := &models.ActivityLog{Action: "login"}
		require.NoError(t, srv.GetDB().Create(entry).Error)
	}

	resp, err := client.Get(ts.URL + "/api/activity-logs/?page=2&page_size=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(5), body["count"])
	assert.Equal(t, float64(2), body["current_page"])
	assert.Equal(t, float64(3), body["total_pages"])
	assert.Equal(t, float64(3), body["next"])
	assert.Equal(t, float64(1), body["previous"])
	assert.Len(t, body["results"], 2)
}

func TestChangeOwnStatusRejected(t *testing.T) {
	srv, ts, client := newTestServer(t)
	setupAdmin(t, client, ts.URL)

	var admin models.User
	require.NoError(t, srv.GetDB().Where("email = ?", "admin@agency.gov").First(&admin).Error)

	data, _ := json.Marshal(map[string]string{"status": "inactive"})
	req, err := http.NewRequest("PATCH", ts.URL+"/api/users/"+admin.ID+"/status/", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
