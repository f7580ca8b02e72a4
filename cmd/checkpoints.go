package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/catalog-cli/internal/checkpoint"
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Manage batch checkpoints",
}

var checkpointsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved batch checkpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Pipeline.CheckpointDir
		}
		if err := checkpoint.NewStore(dir).Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoints cleared from %s\n", dir)
		return nil
	},
}

func init() {
	checkpointsClearCmd.Flags().String("dir", "", "checkpoint directory (defaults to config)")
	checkpointsCmd.AddCommand(checkpointsClearCmd)
	rootCmd.AddCommand(checkpointsCmd)
}
