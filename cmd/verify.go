package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"table-manager/feature/project"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <project> <env>",
	Short: "Reconcile the table store against an environment's import and build trees",
	Long: `Compares, for one environment, the tables held in the store with the files
in its import and build directories. Reports tables missing from any side and
tables whose record count, column count or file tag disagree.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	RootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	report, err := project.Verify(rt.ctx, p, store, args[1])
	if err != nil {
		return err
	}
	problems := report.Problems()

	out := cmd.OutOrStdout()
	if len(problems) > 0 {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TABLE\tMISSING IN\tMISMATCH")
		for _, r := range problems {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Key, strings.Join(r.Missing(report.Sources), ","), strings.Join(r.Mismatch, "; "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "%d tables, %d with problems\n", report.Summary.Total, len(problems))
	if len(problems) > 0 {
		return fmt.Errorf("verification found %d problems", len(problems))
	}
	return nil
}
