package dataflash

import (
	"math"
	"strconv"
	"strings"
)

// Format is the layout of one message type as announced by an FMT frame.
type Format struct {
	Type    uint8
	Length  uint8
	Name    string
	Format  string
	Columns []string
}

// Fields maps column names to normalized scalar values: int64, uint64,
// float32, float64, string or []int16.
type Fields map[string]any

// Record is one decoded message instance.
type Record struct {
	Type   string
	Offset int64
	Fields Fields
}

// Stats summarizes what the reader skipped while decoding.
type Stats struct {
	Frames         int64 `json:"frames"`
	Definitions    int64 `json:"definitions"`
	BadDefinitions int64 `json:"badDefinitions"`
	BadBytes       int64 `json:"badBytes"`
	Resyncs        int64 `json:"resyncs"`
	Truncated      bool  `json:"truncated"`
}

// Value returns the raw field value.
func (r Record) Value(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Float returns the named field as a finite float64. Strings are parsed.
func (r Record) Float(name string) (float64, bool) {
	v, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	var f float64
	switch x := v.(type) {
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int returns the named field as an int64. Only integer kinds and strings
// holding a base-10 integer qualify; floats never do.
func (r Record) Int(name string) (int64, bool) {
	v, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Text returns the canonical string rendering of the named field. Empty
// renderings report false.
func (r Record) Text(name string) (string, bool) {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return "", false
	}
	s := FormatValue(v)
	if s == "" {
		return "", false
	}
	return s, true
}

// FormatValue renders a field value the way it is exported. Integers are
// base 10, floats use the shortest representation that round-trips at
// their stored precision.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case []int16:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(int64(n), 10)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return ""
	}
}

func formatFloat(f float64, bitSize int) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}
