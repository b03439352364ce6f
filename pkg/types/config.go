package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// EntityIDFloor is the value NextEntityID builds on when the entity
	// relation is empty. Zero means DefaultEntityIDFloor.
	EntityIDFloor int64 `json:"entity_id_floor,omitempty" yaml:"entity_id_floor,omitempty"`

	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultEntityIDFloor is the legacy floor for entity id allocation. The
// first entity saved into an empty store receives DefaultEntityIDFloor+1.
const DefaultEntityIDFloor int64 = 1000

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrEntityFloorRange = errors.New("entity id floor must not be negative")
	ErrLogLevelUnknown  = errors.New("unknown log level")
	ErrLogFormatUnknown = errors.New("unknown log format")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var knownLogFormats = map[string]bool{
	"":        true,
	"json":    true,
	"console": true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.EntityIDFloor < 0 {
		return ErrEntityFloorRange
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	if !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	return nil
}

// Floor returns the effective entity id floor.
func (c Config) Floor() int64 {
	if c.EntityIDFloor == 0 {
		return DefaultEntityIDFloor
	}
	return c.EntityIDFloor
}
