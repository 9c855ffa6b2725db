package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/authsvc"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
)

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd() *cobra.Command {
	var email, serverAlias string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset code by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForgotPassword(email, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runForgotPassword(email, serverAlias string, store cookiestore.Store) error {
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	// Block resends while the previous code's cooldown is still running
	if nav := loadPendingReset(); nav.Email == email {
		if wait := authsvc.ResendWait(nav.LastEmailSent); wait > 0 {
			return fmt.Errorf("a code was sent recently. Wait %d seconds before requesting another", wait)
		}
	}

	server, err := getServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, _, err := newSessionClient(server, store)
	if err != nil {
		return err
	}

	svc := authsvc.NewWithNotifier(apiClient, consoleNotifier{})
	if err := svc.RequestPasswordReset(email); err != nil {
		return err
	}

	if err := savePendingReset(pendingReset{Email: email, LastEmailSent: time.Now()}); err != nil {
		return err
	}

	fmt.Println("If an account exists for that address, the code is on its way.")
	fmt.Println("Check your email, then run 'ecogate reset-password'.")
	return nil
}
