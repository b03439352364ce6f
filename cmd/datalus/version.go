// Version command for the datalus CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datalus/pkg/datalus"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the datalus version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "datalus", datalus.Version)
	},
}
