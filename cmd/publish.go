package cmd

import (
	"fmt"

	"table-manager/core/storage"
	"table-manager/feature/publish"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var publishPrefix string

var publishCmd = &cobra.Command{
	Use:   "publish <outputDir>",
	Short: "Upload new patch archives and the patch index to the configured bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "Object key prefix (overrides storage.prefix)")
	RootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	rt, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	storeCfg := rt.cfg.Storage
	if publishPrefix != "" {
		storeCfg.Prefix = publishPrefix
	}
	client, err := storage.NewClient(storeCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	res, err := publish.NewPublisher(client, storeCfg, rt.cfg.Pack, rt.log).Publish(rt.ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d objects (%s), %d already present\n",
		len(res.Uploaded), humanize.Bytes(uint64(res.Bytes)), res.Skipped)
	return nil
}
