// Package export persists a collected table, one table per message type.
package export

import (
	"fmt"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/dataflash"
	"example.com/flightlog/internal/table"
)

// Sink persists the rows of one message type. Schema is sorted; rows are in
// decode order and may lack some schema fields.
type Sink interface {
	Export(typ string, schema []string, rows []dataflash.Record) error
}

// Locator is implemented by sinks that write one artifact per type.
type Locator interface {
	Location(typ string) string
}

// Result describes the export of a single type.
type Result struct {
	Type     string `json:"type"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Location string `json:"location,omitempty"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// All exports every type of t through s in sorted type order. A failing type
// does not stop the others; check each Result.
func All(t *table.Table, s Sink) []Result {
	types := t.Types()
	results := make([]Result, 0, len(types))
	for _, typ := range types {
		schema := t.Schema(typ)
		rows := t.Rows(typ)
		res := Result{Type: typ, Rows: len(rows), Columns: len(schema)}
		if loc, ok := s.(Locator); ok {
			res.Location = loc.Location(typ)
		}
		if err := s.Export(typ, schema, rows); err != nil {
			res.Err = fmt.Errorf("export %s: %w", typ, err)
			res.Error = res.Err.Error()
			common.Logf("export %s failed: %v", typ, err)
		} else {
			common.Debugf("exported %s: %d rows, %d columns", typ, len(rows), len(schema))
		}
		results = append(results, res)
	}
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

func cell(rec dataflash.Record, name string) (string, bool) {
	v, ok := rec.Fields[name]
	if !ok {
		return "", false
	}
	return dataflash.FormatValue(v), true
}
