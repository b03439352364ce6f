package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// Query runs a read on a fresh session and returns its rows.
func (b *Backend) Query(query string, args ...any) (*types.RowSet, error) {
	var rs *types.RowSet
	err := b.session("query", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		rs, err = scanRows(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func scanRows(rows *sql.Rows) (*types.RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := types.NewRowSet(cols...)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, c := range cols {
			record[c] = values[i]
		}
		rs.Load(record)
	}
	return rs, rows.Err()
}

// Apply writes the pending rows of rs to table in one transaction and
// accepts the changes on success.
func (b *Backend) Apply(rs *types.RowSet, table string) error {
	changes := rs.Changes()
	if len(changes) == 0 {
		return nil
	}
	if len(rs.Key) == 0 && slices.ContainsFunc(changes, func(r *types.Row) bool {
		return r.State() != types.RowAdded
	}) {
		return types.ErrNoKeyColumns
	}

	err := b.session("apply "+table, func(ctx context.Context, conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, row := range changes {
			stmt, args := rowStatement(table, rs, row)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				tx.Rollback()
				return fmt.Errorf("%s %s: %w", row.State(), table, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	b.logger.Debug("changes applied",
		zap.String("table", table),
		zap.Int("added", rs.Count(types.RowAdded)),
		zap.Int("modified", rs.Count(types.RowModified)),
		zap.Int("deleted", rs.Count(types.RowDeleted)))
	rs.AcceptChanges()
	return nil
}

// rowStatement builds the INSERT, UPDATE or DELETE for one pending row.
func rowStatement(table string, rs *types.RowSet, row *types.Row) (string, []any) {
	switch row.State() {
	case types.RowAdded:
		cols := rowColumns(rs, row)
		names := make([]string, len(cols))
		marks := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, c := range cols {
			names[i] = quoteIdent(c)
			marks[i] = "?"
			args[i] = bindValue(row.Get(c))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", ")), args

	case types.RowModified:
		changed := row.Changed()
		if len(changed) == 0 {
			return "", nil
		}
		sets := make([]string, len(changed))
		args := make([]any, 0, len(changed)+len(rs.Key))
		for i, c := range changed {
			sets[i] = quoteIdent(c) + " = ?"
			args = append(args, bindValue(row.Get(c)))
		}
		where, keyArgs := keyClause(rs, row)
		return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			quoteIdent(table), strings.Join(sets, ", "), where), append(args, keyArgs...)

	case types.RowDeleted:
		where, args := keyClause(rs, row)
		return fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(table), where), args
	}
	return "", nil
}

// rowColumns returns the row's columns: the RowSet's columns first, then
// any others in name order.
func rowColumns(rs *types.RowSet, row *types.Row) []string {
	values := row.Values()
	cols := make([]string, 0, len(values))
	for _, c := range rs.Columns {
		if _, ok := values[c]; ok {
			cols = append(cols, c)
			delete(values, c)
		}
	}
	extra := make([]string, 0, len(values))
	for c := range values {
		extra = append(extra, c)
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// bindValue prepares a column value for the driver. Times are written as
// RFC 3339 text in UTC so any location reads back, and named basic types
// are reduced to their driver form.
func bindValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	if dv, err := driver.DefaultParameterConverter.ConvertValue(v); err == nil {
		return dv
	}
	return v
}

func keyClause(rs *types.RowSet, row *types.Row) (string, []any) {
	parts := make([]string, len(rs.Key))
	args := make([]any, len(rs.Key))
	for i, k := range rs.Key {
		parts[i] = quoteIdent(k) + " = ?"
		args[i] = bindValue(row.Get(k))
	}
	return strings.Join(parts, " AND "), args
}

// NextEntityID returns one past the highest entity id, or the configured
// floor plus one when the entities relation is empty.
func (b *Backend) NextEntityID() (int64, error) {
	var next int64
	err := b.session("next entity id", func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COALESCE(MAX(%s), ?) + 1 FROM %s", types.EntityIDColumn, types.EntitiesTable),
			b.config.Floor(),
		).Scan(&next)
	})
	if err != nil {
		return types.UnassignedID, err
	}
	return next, nil
}

// Exec runs a statement that returns no rows.
func (b *Backend) Exec(statement string, args ...any) error {
	return b.session("exec", func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, statement, args...)
		return err
	})
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
