package datalus

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// FormatComponent trims and case-normalizes every formattable text property
// of c. Non-text values go through the component's Formatter, if any.
func FormatComponent(c Component) {
	formatter, _ := c.(Formatter)
	for _, p := range c.Descriptor().Properties {
		if !p.IsFormattable() || !p.IsWritable() {
			continue
		}
		current := p.Value(c)
		next := current
		if s, ok := textValue(current); ok {
			next = formatText(p, s)
		} else if formatter != nil && current != nil {
			next = formatter.FormatProperty(p.Name, current)
		}
		if types.SameValue(current, next) {
			continue
		}
		if err := p.Assign(c, next); err != nil {
			logDroppedFormat(c, p, next, err)
		}
	}
}

// logDroppedFormat records a formatted value that could not be assigned
// back, typically a Formatter result of the wrong type.
func logDroppedFormat(c Component, p *Property, value any, err error) {
	e := c.base().entity
	if e == nil {
		return
	}
	e.rt.logger.Debug("formatted value dropped",
		zap.String("component", c.Descriptor().TypeName),
		zap.String("property", p.Name),
		zap.String("value_type", fmt.Sprintf("%T", value)),
		zap.Error(err))
}

func formatText(p *Property, s string) string {
	if p.Trim {
		s = strings.TrimSpace(s)
	}
	switch p.Case {
	case CaseUpper:
		s = strings.ToUpper(s)
	case CaseLower:
		s = strings.ToLower(s)
	}
	return s
}

// ValidateComponent formats c and then checks every validatable property in
// declaration order. It returns a ValidationError for the first property
// that is null or blank when the descriptor forbids it.
func ValidateComponent(c Component) error {
	FormatComponent(c)
	for _, p := range c.Descriptor().Properties {
		if !p.IsValidatable() {
			continue
		}
		msg := checkProperty(p, p.Value(c))
		if msg == "" {
			continue
		}
		if obs, ok := c.(ValidationObserver); ok {
			obs.ValidationFailed(p.Name, msg)
		}
		return componentFault(c, types.NewValidationError(c.Descriptor().TypeName, p.Name, msg))
	}
	return nil
}

func checkProperty(p *Property, v any) string {
	if v == nil {
		if !p.AllowNull {
			return p.Name + " cannot be null."
		}
		return ""
	}
	if s, ok := textValue(v); ok && !p.AllowBlank && strings.TrimSpace(s) == "" {
		return p.Name + " cannot be blank."
	}
	return ""
}

// LoadComponent binds c to e and hydrates its persistent properties from the
// row of c's table keyed by e's id. A missing row leaves the defaults in
// place. Components without persistent properties load without touching the
// store.
func LoadComponent(c Component, e *Entity) error {
	if err := bind(c, e); err != nil {
		return err
	}
	d := c.Descriptor()
	props := d.Persistent()
	if len(props) == 0 {
		c.base().modified = false
		return nil
	}

	rs, err := e.rt.Store.Query(selectColumns(d.Table, columnNames(props)), e.id)
	if err != nil {
		return componentFault(c, types.NewStoreError("load "+d.Table, err))
	}
	rows := rs.Rows()
	if len(rows) > 0 {
		row := rows[0]
		for _, p := range props {
			if !p.IsWritable() {
				continue
			}
			if err := p.Assign(c, row.Get(p.Name)); err != nil {
				return componentFault(c, fmt.Errorf("load %s.%s: %w", d.Table, p.Name, err))
			}
		}
	}
	c.base().modified = false
	return nil
}

// SaveComponent writes c's persistent properties to its table, optionally
// validating first. A missing row is inserted; an existing row is updated
// on the changed columns only; an unchanged row is not written.
func SaveComponent(c Component, validate bool) error {
	b := c.base()
	e := b.entity
	if e == nil {
		return fmt.Errorf("%s: %w", c.Descriptor().TypeName, types.ErrNotAttached)
	}
	if e.IsNew() {
		return componentFault(c, types.ErrUnsavedEntity)
	}
	if validate {
		if err := ValidateComponent(c); err != nil {
			return err
		}
	}

	d := c.Descriptor()
	props := d.Persistent()
	if len(props) == 0 {
		b.modified = false
		return nil
	}

	store := e.rt.Store
	cols := append([]string{types.EntityIDColumn}, columnNames(props)...)
	rs, err := store.Query(selectColumns(d.Table, cols), e.id)
	if err != nil {
		return componentFault(c, types.NewStoreError("read "+d.Table, err))
	}
	rs.SetKey(types.EntityIDColumn)

	rows := rs.Rows()
	switch len(rows) {
	case 0:
		row := rs.NewRow()
		row.Set(types.EntityIDColumn, e.id)
		for _, p := range props {
			row.Set(p.Name, p.Value(c))
		}
		rs.Add(row)
	case 1:
		row := rows[0]
		for _, p := range props {
			v := p.Value(c)
			if !types.SameValue(row.Get(p.Name), v) {
				row.Set(p.Name, v)
			}
		}
	default:
		return componentFault(c, types.NewIntegrityError(d.Table,
			fmt.Sprintf("%d rows for entity %d", len(rows), e.id)))
	}

	if rs.HasChanges() {
		if err := store.Apply(rs, d.Table); err != nil {
			return componentFault(c, types.NewStoreError("write "+d.Table, err))
		}
	}
	b.modified = false
	return nil
}

// componentFault tags err with the component type, notifies the component's
// ErrorObserver, and reports it through the owning entity.
func componentFault(c Component, err error) error {
	if obs, ok := c.(ErrorObserver); ok {
		obs.ComponentError(err)
	}
	wrapped := fmt.Errorf("%s: %w", c.Descriptor().TypeName, err)
	if e := c.base().entity; e != nil {
		return e.fail(wrapped)
	}
	return wrapped
}

func columnNames(props []*Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func selectColumns(table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(quoted, ", "), quoteIdent(table), quoteIdent(types.EntityIDColumn))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
