package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/client"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
	"github.com/ecogate-dev/ecogate/internal/console/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runWhoami(serverAlias string, store cookiestore.Store) error {
	server, err := getServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, host, err := newSessionClient(server, store)
	if err != nil {
		return err
	}

	sess := session.NewStore(apiClient).Init()
	if decision := guard.Private(sess, guard.RouteProfile); decision.Outcome == guard.OutcomeRedirect {
		if decision.RedirectTo == guard.RouteChangePassword {
			return fmt.Errorf("you must change the issued default password first. Run 'ecogate change-password'")
		}
		return fmt.Errorf("not signed in. Run 'ecogate login' first")
	}

	saveSession(store, host, apiClient)

	user := sess.User
	fmt.Printf("%s (%s)\n", fullName(user), user.Email)
	fmt.Printf("  Role:   %s\n", user.UserLevel)
	fmt.Printf("  Status: %s\n", user.Status)
	return nil
}

func fullName(u *client.User) string {
	if u.MiddleName != "" {
		return fmt.Sprintf("%s %s %s", u.FirstName, u.MiddleName, u.LastName)
	}
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}
