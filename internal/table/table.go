// Package table groups decoded records by message type.
package table

import (
	"errors"
	"io"
	"sort"

	"example.com/flightlog/internal/dataflash"
)

// RecordSource yields records until io.EOF. *dataflash.Reader satisfies it.
type RecordSource interface {
	Next() (dataflash.Record, error)
}

// Schema is an insertion-ordered set of field names.
type Schema struct {
	seen  map[string]struct{}
	order []string
}

func newSchema() *Schema {
	return &Schema{seen: make(map[string]struct{})}
}

func (s *Schema) add(name string) {
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
}

// Contains reports whether name was ever observed.
func (s *Schema) Contains(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Names returns the field names in first-seen order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.order...)
}

// Sorted returns the field names in lexicographic order.
func (s *Schema) Sorted() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// Table holds every record of a log grouped by type, in decode order, along
// with the union of field names seen per type.
type Table struct {
	rows    map[string][]dataflash.Record
	schemas map[string]*Schema
	total   int
}

func New() *Table {
	return &Table{
		rows:    make(map[string][]dataflash.Record),
		schemas: make(map[string]*Schema),
	}
}

// Collect drains src into a new table. Any error other than io.EOF is
// returned together with the records collected so far.
func Collect(src RecordSource) (*Table, error) {
	t := New()
	for {
		rec, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return t, nil
			}
			return t, err
		}
		t.Add(rec)
	}
}

// Add appends rec to its type's sequence and widens that type's schema.
func (t *Table) Add(rec dataflash.Record) {
	t.rows[rec.Type] = append(t.rows[rec.Type], rec)
	s, ok := t.schemas[rec.Type]
	if !ok {
		s = newSchema()
		t.schemas[rec.Type] = s
	}
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.add(name)
	}
	t.total++
}

// Has reports whether at least one record of typ was collected.
func (t *Table) Has(typ string) bool {
	return len(t.rows[typ]) > 0
}

// Rows returns the records of typ in decode order. The slice must not be
// modified.
func (t *Table) Rows(typ string) []dataflash.Record {
	return t.rows[typ]
}

// Schema returns the sorted union of field names seen for typ.
func (t *Table) Schema(typ string) []string {
	s, ok := t.schemas[typ]
	if !ok {
		return nil
	}
	return s.Sorted()
}

// SchemaSet returns the schema of typ, or nil.
func (t *Table) SchemaSet(typ string) *Schema {
	return t.schemas[typ]
}

// Types returns every collected type name, sorted.
func (t *Table) Types() []string {
	out := make([]string, 0, len(t.rows))
	for typ := range t.rows {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of records of typ.
func (t *Table) Count(typ string) int {
	return len(t.rows[typ])
}

// Len returns the total number of records.
func (t *Table) Len() int {
	return t.total
}
