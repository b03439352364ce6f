package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// RegisterKind records class in component_kinds and returns its kind id.
// A class that is already registered keeps its id.
func (b *Backend) RegisterKind(class string) (int64, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return types.KindNotFound, types.ErrInvalidClass
	}
	var id int64
	err := b.session("register kind", func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO component_kinds (class) VALUES (?)`, class); err != nil {
			return err
		}
		return conn.QueryRowContext(ctx,
			`SELECT kind_id FROM component_kinds WHERE class = ?`, class).Scan(&id)
	})
	if err != nil {
		return types.KindNotFound, err
	}
	return id, nil
}

// Kinds returns the component_kinds relation.
func (b *Backend) Kinds() (map[int64]string, error) {
	kinds := make(map[int64]string)
	err := b.session("list kinds", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT kind_id, class FROM component_kinds ORDER BY kind_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id    int64
				class string
			)
			if err := rows.Scan(&id, &class); err != nil {
				return err
			}
			kinds[id] = class
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return kinds, nil
}
