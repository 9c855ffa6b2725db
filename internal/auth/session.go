package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID               string `json:"user_id"`
	Email                string `json:"email"`
	UserLevel            string `json:"user_level"`
	UsingDefaultPassword bool   `json:"using_default_password"`
}
