// Package flight derives flight summary metrics from decoded DataFlash
// records: distance traveled, flight duration and time spent per mode.
package flight

import (
	"example.com/flightlog/internal/dataflash"
)

// Status tells callers whether a metric carries a value.
type Status string

const (
	StatusOK Status = "ok"
	// StatusNotComputed means the required message type never appeared.
	StatusNotComputed Status = "not_computed"
	// StatusUndetermined means the type appeared but no record carried a
	// usable timestamp.
	StatusUndetermined Status = "undetermined"
)

// SkipFunc is told about every record an accumulator could not use. It may
// be called from several goroutines at once.
type SkipFunc func(stage string, rec dataflash.Record, reason string)

// Options names the message types and fields each metric reads.
type Options struct {
	PositionType string
	EastField    string
	NorthField   string
	TimeField    string

	ModeType      string
	ModeField     string
	ModeTimeField string
	Modes         ModeTable

	OnSkip SkipFunc
}

// DefaultOptions reads positions from the EKF core output and modes from
// MODE messages, with the rover mode names.
func DefaultOptions() Options {
	return Options{
		PositionType:  "XKF1",
		EastField:     "PE",
		NorthField:    "PN",
		TimeField:     "TimeUS",
		ModeType:      "MODE",
		ModeField:     "Mode",
		ModeTimeField: "TimeUS",
		Modes:         DefaultModes(),
	}
}

// ModeName maps a raw mode code to a display name.
type ModeName struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// ModeTable is the closed set of recognized modes, in presentation order.
type ModeTable []ModeName

func DefaultModes() ModeTable {
	return ModeTable{
		{Code: "0", Name: "MANUAL"},
		{Code: "15", Name: "GUIDED"},
		{Code: "6", Name: "FOLLOW"},
	}
}

// Lookup returns the name registered for code.
func (t ModeTable) Lookup(code string) (string, bool) {
	for _, m := range t {
		if m.Code == code {
			return m.Name, true
		}
	}
	return "", false
}

// Names returns the distinct mode names in table order.
func (t ModeTable) Names() []string {
	seen := make(map[string]bool, len(t))
	var out []string
	for _, m := range t {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, m.Name)
	}
	return out
}
