package cmd

import (
	"fmt"

	"table-manager/feature/project"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <project>",
	Short: "Import and merge every environment's tables into the table store",
	Long: `Decodes the table files of each environment declared in the project file,
in declaration order, and merges the copies of each table into one stored table.
A table that fails to decode is reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
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

	sum, err := project.NewImporter(p, store, rt.log).Import(rt.ctx)
	if err != nil {
		return err
	}
	for name, ferr := range sum.Failed {
		rt.log.Error("Table not imported", zap.String("table", name), zap.Error(ferr))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d tables from %d files (%d conflicts, %d warnings, %d failed)\n",
		sum.Tables, sum.Files, sum.Conflicts, sum.Warnings, len(sum.Failed))
	if len(sum.Failed) > 0 {
		return fmt.Errorf("%d tables failed to import", len(sum.Failed))
	}
	return nil
}
