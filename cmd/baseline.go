package cmd

import (
	"fmt"

	"table-manager/feature/pack"
	"table-manager/feature/project"

	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline <project> <env>",
	Short: "Seed an environment's pack manifest at version 0 from its import directory",
	Long: `Hashes the environment's import directory, which mirrors the installed client,
and writes it as the version 0 manifest. The first pack then only ships files
that differ from what clients already have.`,
	Args: cobra.ExactArgs(2),
	RunE: runBaseline,
}

func init() {
	RootCmd.AddCommand(baselineCmd)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	env, err := p.Env(args[1])
	if err != nil {
		return err
	}

	manifestPath := p.ManifestPath(env.Name, rt.cfg.Pack.ManifestName)
	m, err := pack.NewPackager(rt.cfg.Pack, rt.log).Baseline(rt.ctx, env.ImportDir, manifestPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "baseline for %s: %d files -> %s\n", env.Name, len(m.Files), manifestPath)
	return nil
}
