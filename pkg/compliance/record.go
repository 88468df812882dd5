// Package compliance turns record dates into compliance statuses and provides the
// sort, filter and aggregation helpers shared by every list screen.
//
// Everything in this package is a pure function of its inputs. Callers pass the
// current time explicitly; nothing here reads the system clock.
package compliance

// Record is a read-only keyed mapping. Absent fields return (nil, false).
type Record interface {
	Field(name string) (any, bool)
}

// Fields adapts a decoded JSON object (or any plain map) to Record.
type Fields map[string]any

// Field implements Record.
func (f Fields) Field(name string) (any, bool) {
	value, ok := f[name]
	return value, ok
}
