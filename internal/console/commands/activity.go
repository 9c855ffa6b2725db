package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/client"
	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
)

// NewActivityCmd creates the activity command
func NewActivityCmd() *cobra.Command {
	var serverAlias, action string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the audit trail (administrator only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivity(client.ActivityLogParams{
				Action:   action,
				Page:     page,
				PageSize: pageSize,
			}, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Filter by action (login, user_registered, ...)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "Entries per page")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runActivity(params client.ActivityLogParams, serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteReport, store)
	if err != nil {
		return err
	}

	logs, err := apiClient.ListActivityLogs(params)
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	if len(logs.Results) == 0 {
		fmt.Println("No activity found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tADMIN\tAFFECTED")
	fmt.Fprintln(w, "────\t──────\t─────\t────────")

	for _, entry := range logs.Results {
		admin, affected := "", ""
		if entry.Admin != nil {
			admin = entry.Admin.Email
		}
		if entry.User != nil {
			affected = entry.User.Email
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.Action,
			admin,
			affected,
		)
	}

	w.Flush()

	fmt.Printf("\nPage %d of %d (%d entries total)\n", logs.CurrentPage, logs.TotalPages, logs.Count)
	return nil
}
