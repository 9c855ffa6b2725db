package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runLogout(serverAlias string, store cookiestore.Store) error {
	server, err := getServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, host, err := newSessionClient(server, store)
	if err != nil {
		return err
	}

	// Server call is best effort: the local session is cleared even if the
	// server rejects or is unreachable
	session.NewStore(apiClient).Logout()

	if err := store.DeleteCookies(host); err != nil {
		return err
	}

	fmt.Println("✓ Signed out.")
	return nil
}
