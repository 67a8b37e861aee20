package cmd

import (
	"fmt"

	"table-manager/feature/snapshot"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <importPath> <patchesDir> <outputDir>",
	Short: "Rebuild the latest client tree from the baseline and all patches",
	Args:  cobra.ExactArgs(3),
	RunE:  runSnapshot,
}

func init() {
	RootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := snapshot.NewBuilder(rt.cfg.Pack, rt.log).Build(rt.ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "snapshot: %d baseline files, %d patches applied, %d missing, %d files patched\n",
		res.BaselineFiles, len(res.Applied), len(res.Missing), res.FilesWritten)
	return nil
}
