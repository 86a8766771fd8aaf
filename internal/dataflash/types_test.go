package dataflash

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestRecordAccessors(t *testing.T) {
	rec := Record{Type: "T", Fields: Fields{
		"i":     int64(-7),
		"u":     uint64(42),
		"big":   uint64(math.MaxUint64),
		"f32":   float32(0.5),
		"f64":   1.25,
		"nan":   math.NaN(),
		"inf":   math.Inf(1),
		"num":   " 12 ",
		"fnum":  "3.5",
		"word":  "GUIDED",
		"empty": "",
		"arr":   []int16{1, 2},
	}}

	floats := []struct {
		name string
		want float64
		ok   bool
	}{
		{"i", -7, true},
		{"u", 42, true},
		{"f32", 0.5, true},
		{"f64", 1.25, true},
		{"num", 12, true},
		{"fnum", 3.5, true},
		{"nan", 0, false},
		{"inf", 0, false},
		{"word", 0, false},
		{"arr", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range floats {
		got, ok := rec.Float(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Float(%s) = %v, %v; want %v, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}

	ints := []struct {
		name string
		want int64
		ok   bool
	}{
		{"i", -7, true},
		{"u", 42, true},
		{"num", 12, true},
		{"big", 0, false},
		{"f64", 0, false},
		{"fnum", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range ints {
		got, ok := rec.Int(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Int(%s) = %v, %v; want %v, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}

	texts := []struct {
		name string
		want string
		ok   bool
	}{
		{"u", "42", true},
		{"word", "GUIDED", true},
		{"f64", "1.25", true},
		{"empty", "", false},
		{"missing", "", false},
	}
	for _, tc := range texts {
		got, ok := rec.Text(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Text(%s) = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{int64(-3), "-3"},
		{uint64(18446744073709551615), "18446744073709551615"},
		{float32(0.1), "0.1"},
		{float64(0.1), "0.1"},
		{float64(0), "0"},
		{float64(-12.34), "-12.34"},
		{float64(1e-7), "1e-07"},
		{float64(1234567.5), "1234567.5"},
		{[]int16{1, -2, 3}, "[1 -2 3]"},
		{struct{}{}, ""},
	}
	for _, tc := range tests {
		if got := FormatValue(tc.in); got != tc.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       Format
		wantErr error
	}{
		{
			name: "valid",
			f:    Format{Type: 1, Length: 13, Name: "TST", Format: "QH", Columns: []string{"TimeUS", "Val"}},
		},
		{
			name:    "no name",
			f:       Format{Type: 1, Length: 11, Format: "Q", Columns: []string{"TimeUS"}},
			wantErr: ErrBadDefinition,
		},
		{
			name:    "no fields",
			f:       Format{Type: 1, Length: 3, Name: "NIL"},
			wantErr: ErrBadDefinition,
		},
		{
			name:    "column count mismatch",
			f:       Format{Type: 1, Length: 13, Name: "TST", Format: "QH", Columns: []string{"TimeUS"}},
			wantErr: ErrBadDefinition,
		},
		{
			name:    "empty column",
			f:       Format{Type: 1, Length: 13, Name: "TST", Format: "QH", Columns: []string{"TimeUS", ""}},
			wantErr: ErrBadDefinition,
		},
		{
			name:    "wrong length",
			f:       Format{Type: 1, Length: 12, Name: "TST", Format: "QH", Columns: []string{"TimeUS", "Val"}},
			wantErr: ErrBadDefinition,
		},
		{
			name:    "unknown character",
			f:       Format{Type: 1, Length: 12, Name: "TST", Format: "Qx", Columns: []string{"TimeUS", "Val"}},
			wantErr: ErrUnknownFormatChar,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewFormatComputesLength(t *testing.T) {
	f, err := NewFormat(5, "GPS", "QBLLe", "TimeUS", "Status", "Lat", "Lng", "Alt")
	if err != nil {
		t.Fatalf("NewFormat: %v", err)
	}
	if f.Length != 3+8+1+4+4+4 {
		t.Fatalf("Length = %d", f.Length)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := NewFormat(5, "BIG", strings.Repeat("Z", 4)); !errors.Is(err, ErrBadDefinition) {
		t.Fatalf("expected oversize frame to fail, got %v", err)
	}
}

func TestEncodeMessageErrors(t *testing.T) {
	f, err := NewFormat(5, "TXT", "Qn", "TimeUS", "Tag")
	if err != nil {
		t.Fatalf("NewFormat: %v", err)
	}
	tests := []struct {
		name   string
		values []any
	}{
		{name: "missing value", values: []any{int64(1)}},
		{name: "string too long", values: []any{int64(1), "TOOLONG"}},
		{name: "wrong kind", values: []any{"1", "OK"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EncodeMessage(f, tc.values...); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
