// Package cookiestore persists session cookies in the OS keychain so the
// console stays signed in across runs.
package cookiestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zalando/go-keyring"
)

const (
	service = "ecogate-console"
)

// ErrNotFound is returned when no session is stored for the host
var ErrNotFound = errors.New("no stored session")

// getKeyringKey returns a unique key for storing cookies per API host
func getKeyringKey(host string) string {
	return fmt.Sprintf("session-%s", host)
}

// storedCookie is the persisted shape of a cookie. Only the fields needed to
// replay the cookie to the server survive the round trip.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SaveCookies persists the session cookies securely in the OS keychain
func SaveCookies(host string, cookies []*http.Cookie) error {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := keyring.Set(service, getKeyringKey(host), string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadCookies retrieves the session cookies from the OS keychain
func LoadCookies(host string) ([]*http.Cookie, error) {
	data, err := keyring.Get(service, getKeyringKey(host))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// DeleteCookies removes the stored session from the OS keychain
func DeleteCookies(host string) error {
	if err := keyring.Delete(service, getKeyringKey(host)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
