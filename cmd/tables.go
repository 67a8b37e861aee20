package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"table-manager/feature/project"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// tablesCmd is the parent command for table store maintenance.
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect and maintain the table store",
}

var tablesListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List stored tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runTablesList,
}

var tablesDeleteCmd = &cobra.Command{
	Use:   "delete <project> <table>...",
	Short: "Remove tables from the store so the next build skips them",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTablesDelete,
}

func init() {
	tablesCmd.AddCommand(tablesListCmd, tablesDeleteCmd)
	RootCmd.AddCommand(tablesCmd)
}

func runTablesList(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	store, err := rt.openStore(p)
	if err != nil {
		return err
	}
	list, err := store.List(rt.ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS\tENVIRONMENTS\tUPDATED")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t.Name, t.RowCount, strings.Join(t.Environments, ","), humanize.Time(t.UpdatedAt))
	}
	return tw.Flush()
}

func runTablesDelete(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	store, err := rt.openStore(p)
	if err != nil {
		return err
	}
	for _, name := range args[1:] {
		if err := store.Delete(rt.ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
	}
	return nil
}
