package flight

import (
	"time"

	"example.com/flightlog/internal/dataflash"
)

const microsPerMinute = 60_000_000

type DurationResult struct {
	Status  Status `json:"status"`
	FirstUs int64  `json:"firstUs"`
	LastUs  int64  `json:"lastUs"`
	Samples int    `json:"samples"`
	Skipped int    `json:"skipped"`
}

// Micros is the elapsed time between the first and last valid timestamp.
func (r DurationResult) Micros() int64 {
	if r.Status != StatusOK {
		return 0
	}
	return r.LastUs - r.FirstUs
}

func (r DurationResult) Minutes() float64 {
	return float64(r.Micros()) / microsPerMinute
}

func (r DurationResult) Duration() time.Duration {
	return time.Duration(r.Micros()) * time.Microsecond
}

// DurationAccumulator tracks the first and last valid timestamp in
// iteration order. Input is assumed to be in decode order already; it is
// never re-sorted.
type DurationAccumulator struct {
	field  string
	onSkip SkipFunc

	first, last int64
	records     int
	samples     int
	skipped     int
}

func NewDurationAccumulator(timeField string, onSkip SkipFunc) *DurationAccumulator {
	return &DurationAccumulator{field: timeField, onSkip: onSkip}
}

func (a *DurationAccumulator) Add(rec dataflash.Record) {
	a.records++
	ts, ok := rec.Int(a.field)
	if !ok {
		a.skipped++
		if a.onSkip != nil {
			a.onSkip("duration", rec, "missing or unparseable "+a.field)
		}
		return
	}
	if a.samples == 0 {
		a.first = ts
	}
	a.last = ts
	a.samples++
}

func (a *DurationAccumulator) Result() DurationResult {
	res := DurationResult{
		Status:  StatusOK,
		FirstUs: a.first,
		LastUs:  a.last,
		Samples: a.samples,
		Skipped: a.skipped,
	}
	switch {
	case a.records == 0:
		res.Status = StatusNotComputed
	case a.samples == 0:
		res.Status = StatusUndetermined
	}
	return res
}
