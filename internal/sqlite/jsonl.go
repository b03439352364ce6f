package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// Export writes every row of table to path, one JSON object per line, and
// returns the number of rows written. The file is replaced atomically.
func (b *Backend) Export(table, path string) (int, error) {
	var records []json.RawMessage
	err := b.session("export "+table, func(ctx context.Context, conn *sql.Conn) error {
		var name string
		err := conn.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", types.ErrTableNotFound, table)
		}
		if err != nil {
			return err
		}

		rows, err := conn.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
		if err != nil {
			return err
		}
		defer rows.Close()
		rs, err := scanRows(rows)
		if err != nil {
			return err
		}

		for _, row := range rs.Rows() {
			values := row.Values()
			for k, v := range values {
				if raw, ok := v.([]byte); ok {
					values[k] = string(raw)
				}
			}
			rec, err := json.Marshal(values)
			if err != nil {
				return fmt.Errorf("encoding row: %w", err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	b.logger.Info("table exported",
		zap.String("table", table),
		zap.String("path", path),
		zap.Int("rows", len(records)))
	return len(records), nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
