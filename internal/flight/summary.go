package flight

import (
	"golang.org/x/sync/errgroup"

	"example.com/flightlog/internal/dataflash"
	"example.com/flightlog/internal/table"
)

// Summary holds the three derived metrics.
type Summary struct {
	Distance DistanceResult `json:"distance"`
	Duration DurationResult `json:"duration"`
	Modes    ModeResult     `json:"modes"`
}

// Summarize computes every metric from a collected table. The aggregators
// only read their own type's rows and run concurrently.
func Summarize(t *table.Table, opts Options) Summary {
	var (
		s Summary
		g errgroup.Group
	)
	g.Go(func() error {
		acc := NewDistanceAccumulator(opts.EastField, opts.NorthField, opts.OnSkip)
		for _, rec := range t.Rows(opts.PositionType) {
			acc.Add(rec)
		}
		s.Distance = acc.Result()
		return nil
	})
	g.Go(func() error {
		acc := NewDurationAccumulator(opts.TimeField, opts.OnSkip)
		for _, rec := range t.Rows(opts.PositionType) {
			acc.Add(rec)
		}
		s.Duration = acc.Result()
		return nil
	})
	g.Go(func() error {
		acc := NewModeAccumulator(opts.ModeField, opts.ModeTimeField, opts.Modes, opts.OnSkip)
		for _, rec := range t.Rows(opts.ModeType) {
			acc.Add(rec)
		}
		s.Modes = acc.Result()
		return nil
	})
	_ = g.Wait()
	return s
}

// Tracker computes the same metrics as Summarize while records stream past,
// without retaining them.
type Tracker struct {
	opts     Options
	distance *DistanceAccumulator
	duration *DurationAccumulator
	modes    *ModeAccumulator
}

func NewTracker(opts Options) *Tracker {
	return &Tracker{
		opts:     opts,
		distance: NewDistanceAccumulator(opts.EastField, opts.NorthField, opts.OnSkip),
		duration: NewDurationAccumulator(opts.TimeField, opts.OnSkip),
		modes:    NewModeAccumulator(opts.ModeField, opts.ModeTimeField, opts.Modes, opts.OnSkip),
	}
}

// Observe routes rec to the accumulators interested in its type.
func (t *Tracker) Observe(rec dataflash.Record) {
	if rec.Type == t.opts.PositionType {
		t.distance.Add(rec)
		t.duration.Add(rec)
	}
	if rec.Type == t.opts.ModeType {
		t.modes.Add(rec)
	}
}

func (t *Tracker) Summary() Summary {
	return Summary{
		Distance: t.distance.Result(),
		Duration: t.duration.Result(),
		Modes:    t.modes.Result(),
	}
}
