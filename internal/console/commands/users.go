package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/client"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
	"github.com/ecogate-dev/ecogate/internal/console/session"
)

// NewUsersCmd creates the users command group
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage staff accounts (administrator only)",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersAddCmd())
	cmd.AddCommand(newUsersEditCmd())
	cmd.AddCommand(newUsersStatusCmd())
	cmd.AddCommand(newUsersResetCmd())

	return cmd
}

// requireSession resolves the session and enforces the private route gate
func requireSession(serverAlias, route string, store cookiestore.Store) (*client.Client, string, error) {
	server, err := getServer(serverAlias)
	if err != nil {
		return nil, "", err
	}

	apiClient, host, err := newSessionClient(server, store)
	if err != nil {
		return nil, "", err
	}

	sess := session.NewStore(apiClient).Init()
	if decision := guard.Private(sess, route); decision.Outcome == guard.OutcomeRedirect {
		if decision.RedirectTo == guard.RouteChangePassword {
			return nil, "", fmt.Errorf("you must change the issued default password first. Run 'ecogate change-password'")
		}
		return nil, "", fmt.Errorf("not signed in. Run 'ecogate login' first")
	}

	return apiClient, host, nil
}

func newUsersListCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runUsersList(serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteUserManagement, store)
	if err != nil {
		return err
	}

	users, err := apiClient.ListUsers()
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tSTATUS")
	fmt.Fprintln(w, "─────\t────\t────\t──────")

	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, fullName(&u), u.UserLevel, u.Status)
	}

	w.Flush()
	return nil
}

func newUsersAddCmd() *cobra.Command {
	var serverAlias string
	var req client.RegisterUserRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersAdd(req, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&req.MiddleName, "middle-name", "", "Middle name")
	cmd.Flags().StringVar(&req.UserLevel, "role", "", "User level (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password (issued default when omitted)")

	return cmd
}

func runUsersAdd(req client.RegisterUserRequest, serverAlias string, store cookiestore.Store) error {
	if req.Email == "" || req.FirstName == "" || req.LastName == "" || req.UserLevel == "" {
		return fmt.Errorf("email, first-name, last-name and role are required")
	}

	apiClient, host, err := requireSession(serverAlias, guard.RouteUserManagement, store)
	if err != nil {
		return err
	}

	user, err := apiClient.RegisterUser(req)
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	fmt.Println("✓ User registered!")
	fmt.Printf("  %s (%s), role %s\n", fullName(user), user.Email, user.UserLevel)
	if user.UsingDefaultPassword {
		fmt.Println("  The account uses the issued default password and must change it on first sign-in.")
	}
	return nil
}

func newUsersEditCmd() *cobra.Command {
	var serverAlias string
	var firstName, lastName, middleName, email, role string

	cmd := &cobra.Command{
		Use:   "edit <user-id>",
		Short: "Edit a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := client.UserUpdate{}
			if cmd.Flags().Changed("first-name") {
				update.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				update.LastName = &lastName
			}
			if cmd.Flags().Changed("middle-name") {
				update.MiddleName = &middleName
			}
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if cmd.Flags().Changed("role") {
				update.UserLevel = &role
			}
			return runUsersEdit(args[0], update, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "New last name")
	cmd.Flags().StringVar(&middleName, "middle-name", "", "New middle name")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&role, "role", "", "New user level")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runUsersEdit(userID string, update client.UserUpdate, serverAlias string, store cookiestore.Store) error {
	if update == (client.UserUpdate{}) {
		return fmt.Errorf("nothing to change. Pass at least one of --first-name, --last-name, --middle-name, --email, --role")
	}

	apiClient, host, err := requireSession(serverAlias, guard.RouteUserManagement, store)
	if err != nil {
		return err
	}

	user, err := apiClient.UpdateUser(userID, update)
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	fmt.Println("✓ User updated.")
	fmt.Printf("  %s (%s), role %s\n", fullName(user), user.Email, user.UserLevel)
	return nil
}

func newUsersStatusCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "status <user-id> <active|inactive>",
		Short: "Activate or deactivate an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersStatus(args[0], args[1], serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runUsersStatus(userID, status, serverAlias string, store cookiestore.Store) error {
	if status != "active" && status != "inactive" {
		return fmt.Errorf("status must be 'active' or 'inactive'")
	}

	apiClient, host, err := requireSession(serverAlias, guard.RouteUserManagement, store)
	if err != nil {
		return err
	}

	if err := apiClient.ChangeUserStatus(userID, status); err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	fmt.Printf("✓ User %s is now %s.\n", userID, status)
	return nil
}

func newUsersResetCmd() *cobra.Command {
	var serverAlias, email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset an account to the issued default password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersReset(email, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the account to reset (required)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runUsersReset(email, serverAlias string, store cookiestore.Store) error {
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	apiClient, host, err := requireSession(serverAlias, guard.RouteUserManagement, store)
	if err != nil {
		return err
	}

	// The server re-verifies the administrator's own password before resetting
	adminPassword, err := promptPassword("Your password: ")
	if err != nil {
		return err
	}

	if err := apiClient.AdminResetPassword(email, adminPassword); err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	fmt.Printf("✓ %s has been reset to the issued default password.\n", email)
	return nil
}
