package cmd

import (
	"fmt"

	"table-manager/feature/project"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build <project> [env]",
	Short: "Rebuild each environment's binary table files from the table store",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runBuild,
}

func init() {
	RootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	env := ""
	if len(args) == 2 {
		env = args[1]
	}
	store, err := rt.openStore(p)
	if err != nil {
		return err
	}

	sum, err := project.NewBuilder(p, store, rt.log).Build(rt.ctx, env)
	if err != nil {
		return err
	}
	for _, name := range p.EnvNames() {
		if n, ok := sum.PerEnv[name]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files\n", name, n)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "built %d files, %s\n", sum.Files, humanize.Bytes(uint64(sum.Bytes)))
	return nil
}
