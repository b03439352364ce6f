// Export command for the datalus CLI.
package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <table> [path]",
	Short: "Write every row of a table as JSON lines",
	Long:  "Write every row of a table as JSON lines. The default path is <data-dir>/<table>.jsonl.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cfg, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		table := args[0]
		path := filepath.Join(cfg.DataDir, table+".jsonl")
		if len(args) == 2 {
			path = args[1]
		}

		n, err := backend.Export(table, path)
		if errors.Is(err, types.ErrTableNotFound) {
			return userErrorf("export %s: %w", table, err)
		}
		if err != nil {
			return fmt.Errorf("export %s: %w", table, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", n, path)
		return nil
	},
}
