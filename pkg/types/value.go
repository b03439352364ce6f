package types

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// SameValue reports whether a value read from the store and an in-memory
// value denote the same column content. Both sides are reduced to driver
// values first, so int and int64, bool and 0/1, []byte and string compare
// equal, and a time compares equal to its stored text form.
func SameValue(a, b any) bool {
	na, nb := normalizeValue(a), normalizeValue(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}

	if ta, ok := na.(time.Time); ok {
		return sameTime(ta, nb)
	}
	if tb, ok := nb.(time.Time); ok {
		return sameTime(tb, na)
	}

	switch x := na.(type) {
	case int64:
		switch y := nb.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := nb.(type) {
		case float64:
			return x == y
		case int64:
			return x == float64(y)
		}
	case string:
		if y, ok := nb.(string); ok {
			return x == y
		}
	}
	return fmt.Sprint(na) == fmt.Sprint(nb)
}

func sameTime(t time.Time, other any) bool {
	switch o := other.(type) {
	case time.Time:
		return t.Equal(o)
	case string:
		parsed, err := cast.ToTimeE(o)
		if err != nil {
			return false
		}
		return t.Equal(parsed)
	default:
		return false
	}
}

// normalizeValue reduces v to one of nil, int64, float64, string or
// time.Time.
func normalizeValue(v any) any {
	if v == nil {
		return nil
	}
	dv, err := driver.DefaultParameterConverter.ConvertValue(v)
	if err != nil {
		return v
	}
	switch x := dv.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case []byte:
		return string(x)
	default:
		return dv
	}
}
