// Init command for the datalus CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datalus/internal/paths"
)

var flagInitForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the configuration and create the datalus database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cfg, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		if flagInitForce {
			written := cfg
			written.DataDir = settings.GetString(cfgKeyDataDir)
			if _, err := writeConfigFile(configDir, written, true); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "datalus initialized")
		fmt.Fprintln(out, "  config:", paths.ConfigFile(configDir))
		fmt.Fprintln(out, "  data:  ", cfg.DataDir)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "rewrite config.yaml from the effective settings")
}
