package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ecogate-dev/ecogate/internal/console/authsvc"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
	"github.com/ecogate-dev/ecogate/internal/console/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an Ecogate server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ECOGATE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ECOGATE_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runLogin(email, password, serverAlias string, store cookiestore.Store) error {
	// Environment variables are useful for CI
	if email == "" {
		email = os.Getenv("ECOGATE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("ECOGATE_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or ECOGATE_EMAIL env var)")
	}

	server, err := getServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, host, err := newSessionClient(server, store)
	if err != nil {
		return err
	}

	// Signed-in users don't get a second login screen
	sess := session.NewStore(apiClient).Init()
	if decision := guard.Public(sess, guard.NavState{}); decision.Outcome == guard.OutcomeRedirect {
		fmt.Printf("Already signed in as %s. Run 'ecogate logout' first.\n", sess.User.Email)
		return nil
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or ECOGATE_PASSWORD env var)")
		}
	}

	fmt.Printf("Signing in to %s (%s)...\n", server.Alias, server.URL)

	svc := authsvc.NewWithNotifier(apiClient, consoleNotifier{})
	user, err := svc.Login(email, password)
	if err != nil {
		return err
	}

	saveSession(store, host, apiClient)

	fmt.Printf("  User: %s (%s)\n", fullName(user), user.Email)
	fmt.Printf("  Role: %s\n", user.UserLevel)

	if user.UsingDefaultPassword {
		fmt.Println("\nYou are still using the issued default password.")
		fmt.Println("Run 'ecogate change-password' before doing anything else.")
	}

	return nil
}
