package report

import (
	"fmt"
	"io"
	"strings"

	"example.com/flightlog/internal/flight"
)

// FormatMeters renders a distance with two decimals.
func FormatMeters(m float64) string {
	return fmt.Sprintf("%.2f", m)
}

// FormatMinutes renders a duration in minutes with two decimals.
func FormatMinutes(r flight.DurationResult) string {
	return fmt.Sprintf("%.2f", r.Minutes())
}

// FormatSeconds renders a mode duration in seconds with three decimals.
func FormatSeconds(d flight.ModeDuration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// Lines returns the human readable metric lines for rep.
func Lines(rep Summary, tr Translator) []string {
	var lines []string
	s := rep.Flight

	if s.Distance.Status == flight.StatusOK {
		lines = append(lines, tr.Format("distance.value", FormatMeters(s.Distance.Meters)))
	} else {
		lines = append(lines, tr.Format("distance.missing", rep.PositionType))
	}

	switch s.Duration.Status {
	case flight.StatusOK:
		lines = append(lines, tr.Format("duration.value", FormatMinutes(s.Duration)))
	case flight.StatusUndetermined:
		lines = append(lines, tr.T("duration.undetermined"))
	default:
		lines = append(lines, tr.Format("duration.missing", rep.PositionType))
	}

	lines = append(lines, "")
	if s.Modes.Status != flight.StatusOK {
		lines = append(lines, tr.Format("modes.missing", rep.ModeType))
		return lines
	}
	lines = append(lines, tr.T("modes.header"))
	for _, m := range s.Modes.Modes {
		lines = append(lines, tr.Format("modes.value", m.Name, FormatSeconds(m)))
	}
	return lines
}

// WriteText prints the metric lines followed by a newline.
func WriteText(w io.Writer, rep Summary, tr Translator) error {
	_, err := io.WriteString(w, strings.Join(Lines(rep, tr), "\n")+"\n")
	return err
}
