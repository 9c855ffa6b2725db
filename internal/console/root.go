// Package console is the command-line console for the Ecogate API.
package console

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "ecogate",
	Short: "Ecogate - Environmental compliance console",
	Long: `Ecogate console - Manage staff accounts, the establishment registry
and the audit trail of an Ecogate server from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ecogate version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewForgotPasswordCmd())
	rootCmd.AddCommand(commands.NewResetPasswordCmd())
	rootCmd.AddCommand(commands.NewChangePasswordCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewEstablishmentsCmd())
	rootCmd.AddCommand(commands.NewActivityCmd())
	rootCmd.AddCommand(commands.NewTodosCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
