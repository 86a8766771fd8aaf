package flight

import (
	"example.com/flightlog/internal/dataflash"
)

// ModeDuration is the time accumulated by one named mode.
type ModeDuration struct {
	Name   string   `json:"name"`
	Codes  []string `json:"codes"`
	Micros int64    `json:"micros"`
}

func (d ModeDuration) Seconds() float64 {
	return float64(d.Micros) / 1_000_000
}

type ModeResult struct {
	Status       Status         `json:"status"`
	Modes        []ModeDuration `json:"modes"`
	Events       int            `json:"events"`
	Skipped      int            `json:"skipped"`
	Unrecognized int            `json:"unrecognized"`
}

// Micros returns the accumulated time of the named mode.
func (r ModeResult) Micros(name string) (int64, bool) {
	for _, m := range r.Modes {
		if m.Name == name {
			return m.Micros, true
		}
	}
	return 0, false
}

// ModeAccumulator measures the time spent in each recognized mode by
// run-length accumulation: a run lasts from the event that entered a mode
// until the next event with a different mode. The final run ends at the
// last event's timestamp.
type ModeAccumulator struct {
	modeField, timeField string
	onSkip               SkipFunc

	modes   []ModeDuration
	buckets map[string]int

	lastMode  string
	lastTime  int64
	finalTime int64
	hasLast   bool

	records      int
	events       int
	skipped      int
	unrecognized int
}

func NewModeAccumulator(modeField, timeField string, modes ModeTable, onSkip SkipFunc) *ModeAccumulator {
	a := &ModeAccumulator{
		modeField: modeField,
		timeField: timeField,
		onSkip:    onSkip,
		buckets:   make(map[string]int, len(modes)),
	}
	byName := make(map[string]int)
	for _, m := range modes {
		i, ok := byName[m.Name]
		if !ok {
			i = len(a.modes)
			byName[m.Name] = i
			a.modes = append(a.modes, ModeDuration{Name: m.Name})
		}
		if _, dup := a.buckets[m.Code]; dup {
			continue
		}
		a.buckets[m.Code] = i
		a.modes[i].Codes = append(a.modes[i].Codes, m.Code)
	}
	return a
}

func (a *ModeAccumulator) Add(rec dataflash.Record) {
	a.records++
	mode, ok := rec.Text(a.modeField)
	if !ok {
		a.skip(rec, "missing "+a.modeField)
		return
	}
	t, ok := rec.Int(a.timeField)
	if !ok {
		a.skip(rec, "missing or unparseable "+a.timeField)
		return
	}
	a.events++
	if _, known := a.buckets[mode]; !known {
		a.unrecognized++
	}
	if !a.hasLast || mode != a.lastMode {
		if a.hasLast {
			if i, ok := a.buckets[a.lastMode]; ok {
				a.modes[i].Micros += t - a.lastTime
			}
		}
		a.lastMode, a.lastTime, a.hasLast = mode, t, true
	}
	a.finalTime = t
}

func (a *ModeAccumulator) skip(rec dataflash.Record, reason string) {
	a.skipped++
	if a.onSkip != nil {
		a.onSkip("modes", rec, reason)
	}
}

// Result closes the open run without mutating the accumulator, so more
// events may still be added afterwards.
func (a *ModeAccumulator) Result() ModeResult {
	out := make([]ModeDuration, len(a.modes))
	for i, m := range a.modes {
		out[i] = ModeDuration{Name: m.Name, Codes: append([]string(nil), m.Codes...), Micros: m.Micros}
	}
	if a.hasLast {
		if i, ok := a.buckets[a.lastMode]; ok {
			out[i].Micros += a.finalTime - a.lastTime
		}
	}
	res := ModeResult{
		Status:       StatusOK,
		Modes:        out,
		Events:       a.events,
		Skipped:      a.skipped,
		Unrecognized: a.unrecognized,
	}
	if a.records == 0 {
		res.Status = StatusNotComputed
	}
	return res
}
