// Package sqlite implements the datalus store collaborator on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// DatabaseFile is the name of the SQLite file inside Config.DataDir.
const DatabaseFile = "datalus.db"

// Backend implements types.Backend on a SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	opts   *options
	logger *zap.Logger
}

var _ types.Backend = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Backend{opts: o, logger: o.logger}
}

// Attach opens the database in config.DataDir, creating the directory and
// the core relations if they do not exist. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", dbPath, b.opts.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	for _, ddl := range slices.Concat(schemaDDL, indexDDL) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Info("sqlite backend attached", zap.String("path", dbPath))
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrBackendDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Info("sqlite backend detached")
	return nil
}

// session runs fn on a dedicated connection that is released before
// session returns.
func (b *Backend) session(op string, fn func(ctx context.Context, conn *sql.Conn) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrBackendDetached
	}

	ctx := context.Background()
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	id := sessionID()
	b.logger.Debug("store session", zap.String("session", id), zap.String("op", op))
	if err := fn(ctx, conn); err != nil {
		b.logger.Debug("store session failed",
			zap.String("session", id),
			zap.String("op", op),
			zap.Error(err))
		return err
	}
	return nil
}

// sessionID generates a UUID v7 to correlate the log lines of one session.
func sessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
