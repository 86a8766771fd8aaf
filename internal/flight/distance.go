package flight

import (
	"math"

	"example.com/flightlog/internal/dataflash"
)

type DistanceResult struct {
	Status  Status  `json:"status"`
	Meters  float64 `json:"meters"`
	Samples int     `json:"samples"`
	Skipped int     `json:"skipped"`
}

// DistanceAccumulator sums the straight-line distance between consecutive
// valid position samples.
type DistanceAccumulator struct {
	east, north string
	onSkip      SkipFunc

	prevEast, prevNorth float64
	hasPrev             bool
	total               float64

	records int
	samples int
	skipped int
}

func NewDistanceAccumulator(eastField, northField string, onSkip SkipFunc) *DistanceAccumulator {
	return &DistanceAccumulator{east: eastField, north: northField, onSkip: onSkip}
}

// Add consumes one position record. Records without two finite numeric
// coordinates are skipped and leave the previous point untouched.
func (a *DistanceAccumulator) Add(rec dataflash.Record) {
	a.records++
	e, ok := rec.Float(a.east)
	if !ok {
		a.skip(rec, "missing or non-numeric "+a.east)
		return
	}
	n, ok := rec.Float(a.north)
	if !ok {
		a.skip(rec, "missing or non-numeric "+a.north)
		return
	}
	if a.hasPrev {
		a.total += math.Hypot(e-a.prevEast, n-a.prevNorth)
	}
	a.prevEast, a.prevNorth, a.hasPrev = e, n, true
	a.samples++
}

func (a *DistanceAccumulator) skip(rec dataflash.Record, reason string) {
	a.skipped++
	if a.onSkip != nil {
		a.onSkip("distance", rec, reason)
	}
}

// Result reports the running total. It can be called at any point.
func (a *DistanceAccumulator) Result() DistanceResult {
	res := DistanceResult{
		Status:  StatusOK,
		Meters:  a.total,
		Samples: a.samples,
		Skipped: a.skipped,
	}
	if a.records == 0 {
		res.Status = StatusNotComputed
	}
	return res
}
