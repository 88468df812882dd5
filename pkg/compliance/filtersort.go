package compliance

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortSpec orders records by one field.
type SortSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// ParseSortSpec builds a spec from query values; anything but "desc" is ascending.
func ParseSortSpec(key, order string) SortSpec {
	direction := Ascending
	if strings.EqualFold(strings.TrimSpace(order), string(Descending)) {
		direction = Descending
	}
	return SortSpec{Key: strings.TrimSpace(key), Direction: direction}
}

// SortRecords returns a stably sorted copy of records. The first spec is the
// primary key and later specs break ties; remaining ties keep input order.
//
// Absent values sort as the empty string. Each key picks one comparison for the
// whole slice: numeric when every present value is a number, by date when every
// present value parses as a date, otherwise case-sensitive text.
func SortRecords[T Record](records []T, specs ...SortSpec) []T {
	out := make([]T, len(records))
	copy(out, records)

	columns := make([]sortColumn, 0, len(specs))
	for _, spec := range specs {
		if spec.Key != "" {
			columns = append(columns, newSortColumn(records, spec))
		}
	}
	if len(columns) == 0 {
		return out
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		for _, col := range columns {
			c := col.compare(order[i], order[j])
			if col.desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	for i, idx := range order {
		out[i] = records[idx]
	}
	return out
}

type sortMode int

const (
	sortText sortMode = iota
	sortNumber
	sortDate
)

type sortKey struct {
	empty bool
	num   float64
	at    time.Time
	text  string
}

type sortColumn struct {
	desc bool
	mode sortMode
	keys []sortKey
}

func newSortColumn[T Record](records []T, spec SortSpec) sortColumn {
	values := make([]any, len(records))
	allNumbers, allDates := true, true
	for i, rec := range records {
		values[i] = lookup(rec, spec.Key)
		if isEmptyValue(values[i]) {
			continue
		}
		if _, ok := toFloat(values[i]); !ok {
			allNumbers = false
		}
		if _, ok := ParseDate(values[i]); !ok {
			allDates = false
		}
	}

	col := sortColumn{desc: spec.Direction == Descending, mode: sortText, keys: make([]sortKey, len(records))}
	switch {
	case allNumbers:
		col.mode = sortNumber
	case allDates:
		col.mode = sortDate
	}
	for i, value := range values {
		if isEmptyValue(value) {
			col.keys[i] = sortKey{empty: true}
			continue
		}
		switch col.mode {
		case sortNumber:
			col.keys[i].num, _ = toFloat(value)
		case sortDate:
			col.keys[i].at, _ = ParseDate(value)
		default:
			col.keys[i].text = stringify(value)
		}
	}
	return col
}

func (c sortColumn) compare(i, j int) int {
	a, b := c.keys[i], c.keys[j]
	switch {
	case a.empty && b.empty:
		return 0
	case a.empty:
		return -1
	case b.empty:
		return 1
	}
	switch c.mode {
	case sortNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case sortDate:
		return a.at.Compare(b.at)
	}
	return strings.Compare(a.text, b.text)
}

// FilterRecords keeps records where any of fields contains needle, ignoring case.
// An empty needle keeps everything. Input order is preserved.
func FilterRecords[T Record](records []T, needle string, fields []string) []T {
	needle = strings.ToLower(strings.TrimSpace(needle))
	out := make([]T, 0, len(records))
	if needle == "" {
		return append(out, records...)
	}
	for _, rec := range records {
		for _, name := range fields {
			value, ok := rec.Field(name)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(stringify(value)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func lookup(rec Record, key string) any {
	value, ok := rec.Field(key)
	if !ok {
		return nil
	}
	return deref(value)
}

func deref(value any) any {
	switch v := value.(type) {
	case *string:
		if v == nil {
			return nil
		}
		return *v
	case *int:
		if v == nil {
			return nil
		}
		return *v
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	case *float64:
		if v == nil {
			return nil
		}
		return *v
	case *bool:
		if v == nil {
			return nil
		}
		return *v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	default:
		return value
	}
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case time.Time:
		return v.IsZero()
	default:
		return false
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := deref(value).(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
