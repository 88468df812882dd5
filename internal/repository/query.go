package repository

import (
	"fmt"
	"strings"
)

// where accumulates positional conditions for dynamic filters.
type where struct {
	conditions []string
	args       []interface{}
}

func (w *where) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *where) eq(column string, value string) {
	if value != "" {
		w.add(column+" = $%d", value)
	}
}

func (w *where) flag(column string, value *bool) {
	if value != nil {
		w.add(column+" = $%d", *value)
	}
}

func (w *where) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}
