// Package paths resolves the datalus configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "datalus"

// CWD-relative data directory used when nothing else is configured.
const DefaultDataDirName = ".datalus"

// File names inside the configuration directory.
const (
	ConfigFileName = "config.yaml"
	EnvFileName    = ".env"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DATALUS_CONFIG_DIR"
	EnvDataDir   = "DATALUS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/datalus (fallback ~/.config/datalus)
// macOS:   ~/Library/Application Support/datalus
// Windows: %APPDATA%/datalus
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/datalus (fallback ~/.local/share/datalus)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// userDir applies the XDG convention on Linux and os.UserConfigDir
// elsewhere.
func userDir(xdgVar string, homeFallback ...string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, homeFallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > DATALUS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config file value > DATALUS_DATA_DIR env > $(CWD)/.datalus.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the path of the config file in configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// EnvFile returns the path of the dotenv file in configDir.
func EnvFile(configDir string) string {
	return filepath.Join(configDir, EnvFileName)
}
