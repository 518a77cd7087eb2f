package types

import (
	"fmt"
	"strconv"
)

// Kind identifies what a cell holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a single decoded cell.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func StringValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindString, Str: s}
}

func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsEmpty reports whether the cell has no content.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// String returns the display form of the value. Empty cells render as "".
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// GoString keeps test failure output readable.
func (v Value) GoString() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindNumber, KindBool:
		return v.String()
	default:
		return "<empty>"
	}
}

// RowRecord maps a header name to the cell under it. Only non-empty cells are present.
type RowRecord map[string]Value

// Get returns the cell for header, or an empty Value when the record has none.
func (r RowRecord) Get(header string) Value {
	return r[header]
}

// Table is the normalized form of a sheet. Every record is read through Headers,
// in Headers order.
type Table struct {
	Headers []string
	Rows    []RowRecord
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cells projects row i onto Headers. Missing values become "".
func (t *Table) Cells(i int) []string {
	cells := make([]string, len(t.Headers))
	row := t.Rows[i]
	for j, h := range t.Headers {
		cells[j] = row.Get(h).String()
	}
	return cells
}

// Preview is the read-only on-screen sample of a Table.
type Preview struct {
	Headers []string
	Rows    [][]string
	Total   int
}

// Truncated reports whether the preview holds fewer rows than the table.
func (p Preview) Truncated() bool {
	return p.Total > len(p.Rows)
}

// Notice is the truncation message shown under the preview, or "" when nothing was cut.
func (p Preview) Notice() string {
	if !p.Truncated() {
		return ""
	}
	return fmt.Sprintf("Showing %d of %d rows", len(p.Rows), p.Total)
}

type ConversionResult struct {
	InputFile     string
	Title         string
	Table         *Table
	Document      []byte
	ColumnsFound  []string
	RowsProcessed int
}
