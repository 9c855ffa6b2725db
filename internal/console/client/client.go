// Package client is the HTTP client for the Ecogate API. Session credentials
// live in the cookie jar; no token material is held in application memory.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
)

// Client represents an HTTP client for the Ecogate API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        *cookiejar.Jar
}

// New creates a new API client for the given base URL (e.g. "https://api.agency.gov")
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		jar: jar,
	}, nil
}

// SetHTTPClient sets a custom HTTP client. The session cookie jar is
// re-attached so credentials keep flowing.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	httpClient.Jar = c.jar
	c.httpClient = httpClient
}

// Cookies returns the session cookies for persistence across runs
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies restores previously persisted session cookies
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

// User represents a staff account as returned by the API
type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	MiddleName           string    `json:"middle_name,omitempty"`
	UserLevel            string    `json:"user_level"`
	Status               string    `json:"status"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	UsingDefaultPassword bool      `json:"using_default_password"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NatureOfBusiness categorizes establishments
type NatureOfBusiness struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Establishment represents a registry entry
type Establishment struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	AddressLine      string            `json:"address_line"`
	Barangay         string            `json:"barangay"`
	City             string            `json:"city"`
	Province         string            `json:"province"`
	Region           string            `json:"region"`
	PostalCode       string            `json:"postal_code"`
	Latitude         string            `json:"latitude"`
	Longitude        string            `json:"longitude"`
	YearEstablished  string            `json:"year_established"`
	IsArchived       bool              `json:"is_archived"`
	NatureOfBusiness *NatureOfBusiness `json:"nature_of_business,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ActivityLog represents an audit trail entry
type ActivityLog struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	Admin     *User           `json:"admin,omitempty"`
	User      *User           `json:"user,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Todo represents a dashboard task
type Todo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Paginated is the list envelope for paginated endpoints
type Paginated[T any] struct {
	Count       int64 `json:"count"`
	Next        *int  `json:"next"`
	Previous    *int  `json:"previous"`
	Results     []T   `json:"results"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
}

// doOnce performs a single request and normalizes any failure to *APIError
func (c *Client) doOnce(method, path string, query url.Values, body, out any) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "network error: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// normalizeError turns a non-2xx response into an APIError, surfacing the
// server payload's message field when present
func normalizeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Kind:    kindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: "An unexpected error occurred",
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// call wraps doOnce with the session recovery contract: on an unauthorized
// response it refreshes the token exactly once and, only if the refresh
// succeeded, retries the original request exactly once. Anything else
// propagates unchanged. Concurrent calls hitting an expired session each
// perform their own refresh; there is no single-flight here.
func (c *Client) call(method, path string, query url.Values, body, out any) error {
	err := c.doOnce(method, path, query, body, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized {
		if c.RefreshToken() {
			return c.doOnce(method, path, query, body, out)
		}
	}
	return err
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// Login authenticates with email and password. The session cookies land in
// the jar as a side effect.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.doOnce("POST", "/api/login/", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken posts to the refresh endpoint. It never fails loudly: any
// error resolves to false.
func (c *Client) RefreshToken() bool {
	var resp struct {
		Refreshed bool `json:"refreshed"`
	}
	if err := c.doOnce("POST", "/api/token/refresh/", nil, struct{}{}, &resp); err != nil {
		return false
	}
	return resp.Refreshed
}

// Logout ends the server-side session. Returns false on failure; callers
// clear local state regardless.
func (c *Client) Logout() bool {
	return c.doOnce("POST", "/api/logout/", nil, struct{}{}, nil) == nil
}

// IsAuthenticated reports whether the ambient session credentials are valid
func (c *Client) IsAuthenticated() bool {
	return c.call("GET", "/api/authenticated/", nil, nil, nil) == nil
}

// RequestPasswordReset asks the server to send an OTP to the given address
func (c *Client) RequestPasswordReset(email string) error {
	return c.doOnce("POST", "/api/request-password-reset/", nil, map[string]string{
		"email": email,
	}, nil)
}

// VerifyPasswordReset exchanges an OTP for a new password
func (c *Client) VerifyPasswordReset(email, otp, newPassword string) error {
	return c.doOnce("POST", "/api/verify-password-reset/", nil, map[string]string{
		"email":        email,
		"otp":          otp,
		"new_password": newPassword,
	}, nil)
}

// Me returns the authenticated user's profile
func (c *Client) Me() (*User, error) {
	var user User
	if err := c.call("GET", "/api/me/", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate carries self-service profile changes
type ProfileUpdate struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	MiddleName      *string `json:"middle_name,omitempty"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
	CurrentPassword string  `json:"current_password,omitempty"`
	NewPassword     string  `json:"new_password,omitempty"`
}

// UpdateProfile applies profile changes and returns the updated profile
func (c *Client) UpdateProfile(update ProfileUpdate) (*User, error) {
	var user User
	if err := c.call("PATCH", "/api/me/update/", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the caller's own password. The server clears the
// default-password flag on success.
func (c *Client) ChangePassword(currentPassword, newPassword string) (*User, error) {
	return c.UpdateProfile(ProfileUpdate{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
}

// ListUsers returns all staff accounts (administrator only)
func (c *Client) ListUsers() ([]User, error) {
	var users []User
	if err := c.call("GET", "/api/users/", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RegisterUserRequest carries a new staff account
type RegisterUserRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name,omitempty"`
	Password   string `json:"password,omitempty"`
	UserLevel  string `json:"user_level"`
	Status     string `json:"status,omitempty"`
}

// RegisterUser creates a staff account (administrator only)
func (c *Client) RegisterUser(req RegisterUserRequest) (*User, error) {
	var resp struct {
		Success bool  `json:"success"`
		User    *User `json:"user"`
	}
	if err := c.call("POST", "/api/register/", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UserUpdate carries partial edits to another account. Nil fields are left
// untouched.
type UserUpdate struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	UserLevel  *string `json:"user_level,omitempty"`
}

// UpdateUser edits a staff account (administrator only)
func (c *Client) UpdateUser(userID string, update UserUpdate) (*User, error) {
	var user User
	if err := c.call("PATCH", "/api/users/"+userID+"/", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangeUserStatus activates or deactivates an account (administrator only)
func (c *Client) ChangeUserStatus(userID, status string) error {
	return c.call("PATCH", "/api/users/"+userID+"/status/", nil, map[string]string{
		"status": status,
	}, nil)
}

// AdminResetPassword resets a user to the default password (administrator only)
func (c *Client) AdminResetPassword(email, adminPassword string) error {
	return c.call("POST", "/api/admin-reset-password/", nil, map[string]string{
		"email":          email,
		"admin_password": adminPassword,
	}, nil)
}

// EstablishmentListParams filters the registry listing
type EstablishmentListParams struct {
	Archived bool
	Search   string
}

// ListEstablishments returns registry entries
func (c *Client) ListEstablishments(params EstablishmentListParams) ([]Establishment, error) {
	query := url.Values{}
	if params.Archived {
		query.Set("archived", "true")
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var establishments []Establishment
	if err := c.call("GET", "/api/establishment/establishments/", query, nil, &establishments); err != nil {
		return nil, err
	}
	return establishments, nil
}

// ArchiveEstablishment moves an establishment to the archive
func (c *Client) ArchiveEstablishment(id string) error {
	return c.call("POST", "/api/establishment/establishments/"+id+"/archive/", nil, struct{}{}, nil)
}

// UnarchiveEstablishment restores an establishment from the archive
func (c *Client) UnarchiveEstablishment(id string) error {
	return c.call("POST", "/api/establishment/establishments/"+id+"/unarchive/", nil, struct{}{}, nil)
}

// ListNatureOfBusiness returns the business category reference list
func (c *Client) ListNatureOfBusiness() ([]NatureOfBusiness, error) {
	var categories []NatureOfBusiness
	if err := c.call("GET", "/api/establishment/nature-of-business/", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ActivityLogParams filters the audit trail listing
type ActivityLogParams struct {
	Action   string
	UserID   string
	AdminID  string
	Search   string
	Page     int
	PageSize int
}

// ListActivityLogs returns a page of the audit trail (administrator only)
func (c *Client) ListActivityLogs(params ActivityLogParams) (*Paginated[ActivityLog], error) {
	query := url.Values{}
	if params.Action != "" {
		query.Set("action", params.Action)
	}
	if params.UserID != "" {
		query.Set("user_id", params.UserID)
	}
	if params.AdminID != "" {
		query.Set("admin_id", params.AdminID)
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(params.PageSize))
	}

	var page Paginated[ActivityLog]
	if err := c.call("GET", "/api/activity-logs/", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListTodos returns the user's dashboard tasks
func (c *Client) ListTodos() ([]Todo, error) {
	var todos []Todo
	if err := c.call("GET", "/api/todos/", nil, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodo adds a dashboard task
func (c *Client) CreateTodo(name string) (*Todo, error) {
	var todo Todo
	if err := c.call("POST", "/api/todos/", nil, map[string]string{"name": name}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CompleteTodo marks a task as done
func (c *Client) CompleteTodo(id, name string) error {
	return c.call("PATCH", "/api/todos/"+id+"/", nil, map[string]any{
		"name":      name,
		"completed": true,
	}, nil)
}
