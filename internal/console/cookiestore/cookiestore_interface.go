package cookiestore

import "net/http"

// Store defines the interface for session persistence operations
// This allows us to mock the keyring in tests
type Store interface {
	SaveCookies(host string, cookies []*http.Cookie) error
	LoadCookies(host string) ([]*http.Cookie, error)
	DeleteCookies(host string) error
}

// defaultStore implements Store using the OS keyring
type defaultStore struct{}

var Default Store = &defaultStore{}

func (d *defaultStore) SaveCookies(host string, cookies []*http.Cookie) error {
	return SaveCookies(host, cookies)
}

func (d *defaultStore) LoadCookies(host string) ([]*http.Cookie, error) {
	return LoadCookies(host)
}

func (d *defaultStore) DeleteCookies(host string) error {
	return DeleteCookies(host)
}
