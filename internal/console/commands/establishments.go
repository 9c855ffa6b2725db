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

// NewEstablishmentsCmd creates the establishments command group
func NewEstablishmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "establishments",
		Aliases: []string{"est"},
		Short:   "Browse the establishment registry",
	}

	cmd.AddCommand(newEstablishmentsListCmd())
	cmd.AddCommand(newEstablishmentsArchiveCmd())
	cmd.AddCommand(newEstablishmentsUnarchiveCmd())
	cmd.AddCommand(newNatureOfBusinessCmd())

	return cmd
}

func newEstablishmentsListCmd() *cobra.Command {
	var serverAlias, search string
	var archived bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List establishments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstablishmentsList(client.EstablishmentListParams{
				Archived: archived,
				Search:   search,
			}, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "Show archived establishments instead of active ones")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name or city")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runEstablishmentsList(params client.EstablishmentListParams, serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteEstablishments, store)
	if err != nil {
		return err
	}

	establishments, err := apiClient.ListEstablishments(params)
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	if len(establishments) == 0 {
		fmt.Println("No establishments found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCITY\tBUSINESS")
	fmt.Fprintln(w, "──\t────\t────\t────────")

	for _, e := range establishments {
		business := ""
		if e.NatureOfBusiness != nil {
			business = e.NatureOfBusiness.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.City, business)
	}

	w.Flush()
	return nil
}

func newEstablishmentsArchiveCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Move an establishment to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstablishmentsArchive(args[0], true, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func newEstablishmentsUnarchiveCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "unarchive <id>",
		Short: "Restore an establishment from the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstablishmentsArchive(args[0], false, serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runEstablishmentsArchive(id string, archive bool, serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteEstablishments, store)
	if err != nil {
		return err
	}

	if archive {
		err = apiClient.ArchiveEstablishment(id)
	} else {
		err = apiClient.UnarchiveEstablishment(id)
	}
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	if archive {
		fmt.Printf("✓ Establishment %s archived.\n", id)
	} else {
		fmt.Printf("✓ Establishment %s restored.\n", id)
	}
	return nil
}

func newNatureOfBusinessCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "business-types",
		Short: "List nature of business categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNatureOfBusiness(serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runNatureOfBusiness(serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteEstablishments, store)
	if err != nil {
		return err
	}

	categories, err := apiClient.ListNatureOfBusiness()
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	if len(categories) == 0 {
		fmt.Println("No business categories found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	fmt.Fprintln(w, "──\t────\t───────────")

	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
	}

	w.Flush()
	return nil
}
