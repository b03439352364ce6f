package types

import "slices"

// RowState tracks what Apply must do with a row.
type RowState int

// Row states.
const (
	RowUnchanged RowState = iota
	RowAdded
	RowModified
	RowDeleted
	RowDetached
)

func (s RowState) String() string {
	switch s {
	case RowUnchanged:
		return "unchanged"
	case RowAdded:
		return "added"
	case RowModified:
		return "modified"
	case RowDeleted:
		return "deleted"
	default:
		return "detached"
	}
}

// Row is one record of a RowSet. Values are keyed by column name.
type Row struct {
	values  map[string]any
	state   RowState
	changed []string
}

// Get returns the value of column, or nil if the row has no such column.
func (r *Row) Get(column string) any {
	return r.values[column]
}

// Set assigns column. On an unchanged row the row becomes modified and the
// column is recorded as changed; added and detached rows just take the value.
func (r *Row) Set(column string, value any) {
	r.values[column] = value
	switch r.state {
	case RowUnchanged:
		r.state = RowModified
		r.markChanged(column)
	case RowModified:
		r.markChanged(column)
	}
}

func (r *Row) markChanged(column string) {
	if !slices.Contains(r.changed, column) {
		r.changed = append(r.changed, column)
	}
}

// State returns the row state.
func (r *Row) State() RowState { return r.state }

// Changed returns the columns assigned since the row was loaded, in
// assignment order.
func (r *Row) Changed() []string {
	return slices.Clone(r.changed)
}

// Values returns a copy of the row's column values.
func (r *Row) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// RowSet is an in-memory result set that records pending inserts, updates
// and deletes until a Store applies them.
type RowSet struct {
	// Columns lists the result columns in query order.
	Columns []string

	// Key names the columns that identify a row for Find and Apply.
	Key []string

	rows []*Row
}

// NewRowSet creates an empty RowSet with the given columns.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{Columns: columns}
}

// SetKey sets the key columns and returns the RowSet.
func (rs *RowSet) SetKey(columns ...string) *RowSet {
	rs.Key = columns
	return rs
}

// Load appends a row read from the store. Loaded rows start unchanged.
func (rs *RowSet) Load(values map[string]any) *Row {
	row := &Row{values: values, state: RowUnchanged}
	if row.values == nil {
		row.values = make(map[string]any)
	}
	rs.rows = append(rs.rows, row)
	return row
}

// NewRow returns a detached row with the RowSet's columns set to nil. The
// row takes part in Apply only after Add.
func (rs *RowSet) NewRow() *Row {
	values := make(map[string]any, len(rs.Columns))
	for _, c := range rs.Columns {
		values[c] = nil
	}
	return &Row{values: values, state: RowDetached}
}

// Add appends a detached row as an insert.
func (rs *RowSet) Add(row *Row) {
	if row == nil || row.state != RowDetached {
		return
	}
	row.state = RowAdded
	rs.rows = append(rs.rows, row)
}

// Delete marks row for deletion. A row added since the last load is simply
// dropped.
func (rs *RowSet) Delete(row *Row) {
	i := slices.Index(rs.rows, row)
	if i < 0 {
		return
	}
	if row.state == RowAdded {
		rs.rows = slices.Delete(rs.rows, i, i+1)
		row.state = RowDetached
		return
	}
	row.state = RowDeleted
}

// Rows returns the rows that are not marked deleted.
func (rs *RowSet) Rows() []*Row {
	out := make([]*Row, 0, len(rs.rows))
	for _, r := range rs.rows {
		if r.state != RowDeleted {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of rows not marked deleted.
func (rs *RowSet) Len() int {
	n := 0
	for _, r := range rs.rows {
		if r.state != RowDeleted {
			n++
		}
	}
	return n
}

// Find returns the first live row whose key columns equal keyValues, in
// Key order. Returns nil when nothing matches or the RowSet has no key.
func (rs *RowSet) Find(keyValues ...any) *Row {
	if len(rs.Key) == 0 || len(keyValues) != len(rs.Key) {
		return nil
	}
	for _, r := range rs.rows {
		if r.state == RowDeleted {
			continue
		}
		match := true
		for i, k := range rs.Key {
			if !SameValue(r.values[k], keyValues[i]) {
				match = false
				break
			}
		}
		if match {
			return r
		}
	}
	return nil
}

// Changes returns the rows Apply has to persist, in row order.
func (rs *RowSet) Changes() []*Row {
	var out []*Row
	for _, r := range rs.rows {
		if r.state == RowAdded || r.state == RowDeleted || r.state == RowModified {
			out = append(out, r)
		}
	}
	return out
}

// HasChanges reports whether any row is pending.
func (rs *RowSet) HasChanges() bool {
	return len(rs.Changes()) > 0
}

// Count returns the number of rows in the given state.
func (rs *RowSet) Count(state RowState) int {
	n := 0
	for _, r := range rs.rows {
		if r.state == state {
			n++
		}
	}
	return n
}

// AcceptChanges drops deleted rows and marks every remaining row unchanged.
// Stores call it after a successful Apply.
func (rs *RowSet) AcceptChanges() {
	kept := rs.rows[:0]
	for _, r := range rs.rows {
		if r.state == RowDeleted {
			r.state = RowDetached
			continue
		}
		r.state = RowUnchanged
		r.changed = nil
		kept = append(kept, r)
	}
	rs.rows = kept
}
