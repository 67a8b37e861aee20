package cmd

import (
	"fmt"

	"table-manager/feature/pack"
	"table-manager/feature/project"

	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "pack <project> <buildDir> <outputDir> <env> [baseUrl]",
	Short: "Package changed files into the next patch archive",
	Long: `Hashes every file of the build directory, with the environment's override
directory layered on top, and compares the result with the environment's
manifest. Changed files are written to patch_<version>.zip in the output
directory and appended to the patch index.

Examples:
  pack ./game build/live out/live live
  pack ./game build/live out/live live https://cdn.example.com/live`,
	Args: cobra.RangeArgs(4, 5),
	RunE: runPack,
}

func init() {
	RootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	env, err := p.Env(args[3])
	if err != nil {
		return err
	}
	req := pack.Request{
		Env:          env.Name,
		BuildDir:     args[1],
		OverrideDir:  env.OverrideDir,
		OutputDir:    args[2],
		ManifestPath: p.ManifestPath(env.Name, rt.cfg.Pack.ManifestName),
	}
	if len(args) == 5 {
		req.BaseURL = args[4]
	}

	res, err := pack.NewPackager(rt.cfg.Pack, rt.log).Pack(rt.ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	return nil
}
