package datalus

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Case is the case transform applied to a formattable text property.
type Case int

// Case transforms.
const (
	CaseAny Case = iota
	CaseUpper
	CaseLower
)

// level is how far down the metadata chain a property participates.
type level int

const (
	levelNone level = iota
	levelFormat
	levelValidate
	levelPersist
)

// tableSuffix is stripped from a component's type name to form its table.
const tableSuffix = "Component"

// Property describes one property of a component type. A property that is
// persisted is also validated, and a property that is validated is also
// formatted.
type Property struct {
	Name string

	Trim       bool
	Case       Case
	AllowNull  bool
	AllowBlank bool

	level level
	get   func(Component) any
	set   func(Component, any) error
}

// Field declares a property read by get and written by set. A nil set makes
// the property read-only: it is still saved, but never assigned on load.
func Field[C Component, V any](name string, get func(C) V, set func(C, V)) *Property {
	p := newProperty(name)
	p.get = func(c Component) any { return get(c.(C)) }
	if set != nil {
		p.set = func(c Component, v any) error {
			cv, err := coerce[V](v)
			if err != nil {
				return err
			}
			set(c.(C), cv)
			return nil
		}
	}
	return p
}

// NullableField declares a property whose value may be absent. A nil pointer
// reads as null, and a null column loads as nil.
func NullableField[C Component, V any](name string, get func(C) *V, set func(C, *V)) *Property {
	p := newProperty(name)
	p.get = func(c Component) any {
		ptr := get(c.(C))
		if ptr == nil {
			return nil
		}
		return *ptr
	}
	if set != nil {
		p.set = func(c Component, v any) error {
			if v == nil {
				set(c.(C), nil)
				return nil
			}
			cv, err := coerce[V](v)
			if err != nil {
				return err
			}
			set(c.(C), &cv)
			return nil
		}
	}
	return p
}

func newProperty(name string) *Property {
	return &Property{
		Name:       name,
		Trim:       true,
		AllowBlank: true,
	}
}

// Formattable marks the property for formatting.
func (p *Property) Formattable() *Property {
	p.raise(levelFormat)
	return p
}

// Validatable marks the property for formatting and validation.
func (p *Property) Validatable() *Property {
	p.raise(levelValidate)
	return p
}

// Persistent marks the property for formatting, validation, load and save.
func (p *Property) Persistent() *Property {
	p.raise(levelPersist)
	return p
}

// NoTrim disables whitespace trimming and marks the property formattable.
func (p *Property) NoTrim() *Property {
	p.raise(levelFormat)
	p.Trim = false
	return p
}

// Upper upper-cases the text value on format and marks the property
// formattable.
func (p *Property) Upper() *Property {
	p.raise(levelFormat)
	p.Case = CaseUpper
	return p
}

// Lower lower-cases the text value on format and marks the property
// formattable.
func (p *Property) Lower() *Property {
	p.raise(levelFormat)
	p.Case = CaseLower
	return p
}

// Nullable permits a null value and marks the property validatable.
func (p *Property) Nullable() *Property {
	p.raise(levelValidate)
	p.AllowNull = true
	return p
}

// Required forbids blank text and marks the property validatable.
func (p *Property) Required() *Property {
	p.raise(levelValidate)
	p.AllowBlank = false
	return p
}

func (p *Property) raise(l level) {
	if p.level < l {
		p.level = l
	}
}

// IsFormattable reports whether the property takes part in formatting.
func (p *Property) IsFormattable() bool { return p.level >= levelFormat }

// IsValidatable reports whether the property takes part in validation.
func (p *Property) IsValidatable() bool { return p.level >= levelValidate }

// IsPersistent reports whether the property is loaded and saved.
func (p *Property) IsPersistent() bool { return p.level >= levelPersist }

// IsWritable reports whether the property can be assigned.
func (p *Property) IsWritable() bool { return p.set != nil }

// Value returns the property's current value on c.
func (p *Property) Value(c Component) any {
	return p.get(c)
}

// Assign sets the property on c, converting v to the property's type.
func (p *Property) Assign(c Component, v any) error {
	if p.set == nil {
		return fmt.Errorf("property %s is read-only", p.Name)
	}
	return p.set(c, v)
}

// Descriptor is the static description of a component type.
type Descriptor struct {
	// Class is the name stored in the kind lookup relation.
	Class string

	// TypeName is the last dotted segment of Class.
	TypeName string

	// Table is TypeName without its Component suffix.
	Table string

	Properties []*Property

	newFn      func() Component
	persistent []*Property
}

// Describe builds the descriptor for component type *T. Property names must
// be unique and non-empty; Describe panics otherwise, as descriptors are
// declared at package level.
func Describe[T any, PT ComponentPtr[T]](class string, props ...*Property) *Descriptor {
	if class == "" {
		panic("datalus: component class must not be empty")
	}
	typeName, table := TableName(class)

	d := &Descriptor{
		Class:      class,
		TypeName:   typeName,
		Table:      table,
		Properties: props,
		newFn:      func() Component { return PT(new(T)) },
	}

	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if p == nil || p.Name == "" {
			panic(fmt.Sprintf("datalus: %s declares a property without a name", class))
		}
		if seen[p.Name] {
			panic(fmt.Sprintf("datalus: %s declares property %q twice", class, p.Name))
		}
		seen[p.Name] = true
		if p.IsPersistent() {
			d.persistent = append(d.persistent, p)
		}
	}
	return d
}

// TableName derives the type name and table name of a component class: the
// type name is the last dotted segment, and the table is the type name
// without a trailing Component.
func TableName(class string) (typeName, table string) {
	typeName = class[strings.LastIndex(class, ".")+1:]
	table = strings.TrimSuffix(typeName, tableSuffix)
	if table == "" {
		table = typeName
	}
	return typeName, table
}

// New returns a fresh, unattached instance of the component type.
func (d *Descriptor) New() Component {
	return d.newFn()
}

// Persistent returns the persisted properties in declaration order.
func (d *Descriptor) Persistent() []*Property {
	return d.persistent
}

// Property returns the named property.
func (d *Descriptor) Property(name string) (*Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

// coerce converts a stored column value to V. Null converts to the zero
// value. Named types such as `type Status int` convert through their
// underlying kind.
func coerce[V any](v any) (V, error) {
	var zero V
	if v == nil {
		return zero, nil
	}
	if x, ok := v.(V); ok {
		return x, nil
	}

	target := reflect.TypeFor[V]()
	out, err := castTo(target, underlying(v))
	if err != nil {
		return zero, err
	}
	rv := reflect.ValueOf(out)
	if !rv.Type().ConvertibleTo(target) {
		return zero, fmt.Errorf("cannot convert %T to %s", v, target)
	}
	return rv.Convert(target).Interface().(V), nil
}

// castTo converts v to the basic type underlying target.
func castTo(target reflect.Type, v any) (any, error) {
	switch {
	case target == timeType:
		return cast.ToTimeE(v)
	case target == durationType:
		return cast.ToDurationE(v)
	case target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint8:
		s, err := cast.ToStringE(v)
		return []byte(s), err
	}

	switch target.Kind() {
	case reflect.String:
		return cast.ToStringE(v)
	case reflect.Int:
		return cast.ToIntE(v)
	case reflect.Int8:
		return cast.ToInt8E(v)
	case reflect.Int16:
		return cast.ToInt16E(v)
	case reflect.Int32:
		return cast.ToInt32E(v)
	case reflect.Int64:
		return cast.ToInt64E(v)
	case reflect.Uint:
		return cast.ToUintE(v)
	case reflect.Uint8:
		return cast.ToUint8E(v)
	case reflect.Uint16:
		return cast.ToUint16E(v)
	case reflect.Uint32:
		return cast.ToUint32E(v)
	case reflect.Uint64:
		return cast.ToUint64E(v)
	case reflect.Float32:
		return cast.ToFloat32E(v)
	case reflect.Float64:
		return cast.ToFloat64E(v)
	case reflect.Bool:
		return cast.ToBoolE(v)
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, target)
}

// underlying strips a named basic type down to its builtin type so the
// cast converters recognize it.
func underlying(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Type().PkgPath() == "" {
		return v
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// textValue reports whether v is a string or a named string type and
// returns its text.
func textValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}
