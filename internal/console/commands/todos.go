package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
)

// NewTodosCmd creates the todos command group
func NewTodosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "Manage your dashboard tasks",
	}

	cmd.AddCommand(newTodosListCmd())
	cmd.AddCommand(newTodosAddCmd())
	cmd.AddCommand(newTodosDoneCmd())

	return cmd
}

func newTodosListCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTodosList(serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runTodosList(serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteDashboard, store)
	if err != nil {
		return err
	}

	todos, err := apiClient.ListTodos()
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	if len(todos) == 0 {
		fmt.Println("No tasks. Add one with: ecogate todos add <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tNAME")
	fmt.Fprintln(w, "──\t────\t────")

	for _, t := range todos {
		done := " "
		if t.Completed {
			done = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, done, t.Name)
	}

	w.Flush()
	return nil
}

func newTodosAddCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTodosAdd(args[0], serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runTodosAdd(name, serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteDashboard, store)
	if err != nil {
		return err
	}

	todo, err := apiClient.CreateTodo(name)
	if err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	fmt.Printf("✓ Added task %s.\n", todo.ID)
	return nil
}

func newTodosDoneCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "done <id> <name>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTodosDone(args[0], args[1], serverAlias, cookiestore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses first server if not specified)")

	return cmd
}

func runTodosDone(id, name, serverAlias string, store cookiestore.Store) error {
	apiClient, host, err := requireSession(serverAlias, guard.RouteDashboard, store)
	if err != nil {
		return err
	}

	if err := apiClient.CompleteTodo(id, name); err != nil {
		return err
	}
	saveSession(store, host, apiClient)

	fmt.Printf("✓ Task %s completed.\n", id)
	return nil
}
