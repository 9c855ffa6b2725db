package commands

import (
	"fmt"
	"net/url"

	"github.com/ecogate-dev/ecogate/internal/console/client"
	"github.com/ecogate-dev/ecogate/internal/console/config"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
)

// consoleNotifier renders auth outcome banners on stdout. Failures are left
// to the command error path so they print exactly once.
type consoleNotifier struct{}

func (consoleNotifier) Success(message string) {
	fmt.Println("✓ " + message)
}

func (consoleNotifier) Error(string) {}

// getServer loads the config and resolves which server to talk to.
// This is common logic used by most commands.
func getServer(alias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'ecogate init' to create a configuration file", err)
	}

	var server *config.Server
	if alias != "" {
		server, err = cfg.GetServerByAlias(alias)
	} else {
		server, err = cfg.GetDefaultServer()
	}
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit ecogate.yaml and add a valid URL")
	}

	return server, nil
}

// serverHost extracts the host used as the keychain key for the server
func serverHost(server *config.Server) (string, error) {
	u, err := url.Parse(server.URL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	return u.Host, nil
}

// newSessionClient creates an API client with any stored session restored
// from the keychain
func newSessionClient(server *config.Server, store cookiestore.Store) (*client.Client, string, error) {
	host, err := serverHost(server)
	if err != nil {
		return nil, "", err
	}

	apiClient, err := client.New(server.URL)
	if err != nil {
		return nil, "", err
	}

	cookies, err := store.LoadCookies(host)
	if err == nil {
		apiClient.SetCookies(cookies)
	}

	return apiClient, host, nil
}

// saveSession persists the client's current session cookies. A refresh during
// any call may have rotated them, so commands save after talking to the API.
func saveSession(store cookiestore.Store, host string, apiClient *client.Client) {
	cookies := apiClient.Cookies()
	if len(cookies) == 0 {
		return
	}
	if err := store.SaveCookies(host, cookies); err != nil {
		fmt.Printf("Warning: failed to save session: %v\n", err)
	}
}
