package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/session"
)

// NewChangePasswordCmd creates the change-password command
func NewChangePasswordCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change your own password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChangePassword(serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runChangePassword(serverAlias string, store cookiestore.Store) error {
	server, err := getServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, host, err := newSessionClient(server, store)
	if err != nil {
		return err
	}

	sess := session.NewStore(apiClient).Init()
	if sess.State != session.StateAuthenticated {
		return fmt.Errorf("not signed in. Run 'ecogate login' first")
	}

	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}
	newPassword, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if err := validateNewPassword(newPassword, confirm); err != nil {
		return err
	}

	if _, err := apiClient.ChangePassword(current, newPassword); err != nil {
		return err
	}

	saveSession(store, host, apiClient)

	fmt.Println("✓ Password changed.")
	return nil
}
