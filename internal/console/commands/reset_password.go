package commands

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ecogate-dev/ecogate/internal/console/authsvc"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
)

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd() *cobra.Command {
	var otp, serverAlias string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Redeem an emailed reset code for a new password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(otp, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&otp, "otp", "", "6-digit code from the reset email (will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runResetPassword(otp, serverAlias string, store cookiestore.Store) error {
	nav := loadPendingReset()
	if decision := guard.PasswordReset(nav); decision.Outcome == guard.OutcomeRedirect {
		return fmt.Errorf("no password reset in progress. Run 'ecogate forgot-password' first")
	}

	if otp == "" {
		fmt.Print("Reset code: ")
		if _, err := fmt.Scanln(&otp); err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
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

	server, err := getServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, _, err := newSessionClient(server, store)
	if err != nil {
		return err
	}

	svc := authsvc.NewWithNotifier(apiClient, consoleNotifier{})
	if err := svc.VerifyPasswordReset(nav.Email, otp, newPassword); err != nil {
		return err
	}

	clearPendingReset()

	fmt.Println("Sign in with your new password: ecogate login")
	return nil
}

// validateNewPassword checks a prompted password pair before it leaves the
// process
func validateNewPassword(newPassword, confirm string) error {
	if newPassword != confirm {
		return fmt.Errorf("passwords do not match")
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password prompts require an interactive terminal")
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(raw), nil
}
