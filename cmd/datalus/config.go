// Config loading for the datalus CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/datalus/internal/paths"
	"github.com/mesh-intelligence/datalus/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "DATALUS"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyEntityIDFloor = "entity_id_floor"
	cfgKeyLogLevel      = "log_level"
	cfgKeyLogFormat     = "log_format"
)

// envKeys may be overridden by DATALUS_<KEY>. data_dir is resolved by the
// paths package, where the config file takes precedence over the
// environment.
var envKeys = []string{cfgKeyBackend, cfgKeyEntityIDFloor, cfgKeyLogLevel, cfgKeyLogFormat}

// defaultConfig is written to config.yaml on first run.
func defaultConfig() types.Config {
	return types.Config{
		Backend:       types.BackendSQLite,
		EntityIDFloor: types.DefaultEntityIDFloor,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := writeConfigFile(configDir, defaultConfig(), false); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	def := defaultConfig()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyEntityIDFloor, def.EntityIDFloor)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigFile writes cfg as YAML to config.yaml in configDir. An
// existing file is kept unless overwrite is set. It reports whether the
// file was written.
func writeConfigFile(configDir string, cfg types.Config, overwrite bool) (bool, error) {
	path := paths.ConfigFile(configDir)
	if !overwrite {
		_, err := os.Stat(path)
		if err == nil {
			return false, nil
		}
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("stat config file: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}
	header := []byte("# datalus configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// backendConfig builds the backend Config from the loaded settings.
func backendConfig(v *viper.Viper) (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		EntityIDFloor: v.GetInt64(cfgKeyEntityIDFloor),
		LogLevel:      v.GetString(cfgKeyLogLevel),
		LogFormat:     v.GetString(cfgKeyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userErrorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
