// Root command for the datalus CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/internal/logging"
	"github.com/mesh-intelligence/datalus/internal/paths"
	"github.com/mesh-intelligence/datalus/pkg/datalus"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagLogLevel  string
	flagJSON      bool
)

// State shared by subcommands, set by PersistentPreRunE.
var (
	configDir string
	settings  *viper.Viper
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "datalus",
	Short:         "Datalus maps entities and components onto relational tables",
	Version:       datalus.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		configDir = dir

		if err := loadEnvFile(configDir); err != nil {
			return err
		}

		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			v.Set(cfgKeyLogLevel, flagLogLevel)
		}
		settings = v

		l, err := logging.New(v.GetString(cfgKeyLogLevel), v.GetString(cfgKeyLogFormat))
		if err != nil {
			return userErrorf("logging: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.datalus)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadEnvFile loads the .env file of the config directory into the process
// environment. Variables already set are kept. A missing file is fine.
func loadEnvFile(dir string) error {
	err := godotenv.Load(paths.EnvFile(dir))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", paths.EnvFile(dir), err)
}

// resolveDataDir applies the data directory precedence:
// --data-dir flag > config data_dir > DATALUS_DATA_DIR env > $(CWD)/.datalus.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, settings.GetString(cfgKeyDataDir))
}
