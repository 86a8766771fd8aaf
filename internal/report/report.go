package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"example.com/flightlog/internal/dataflash"
	"example.com/flightlog/internal/export"
	"example.com/flightlog/internal/flight"
)

// Summary is everything one run learned about a log. It is what the JSON,
// text and PDF outputs render.
type Summary struct {
	RunID       string    `json:"runId"`
	CreatedAt   time.Time `json:"createdAt"`
	Input       string    `json:"input"`
	InputSHA256 string    `json:"inputSha256,omitempty"`
	InputSize   int64     `json:"inputSize,omitempty"`

	Records int             `json:"records"`
	Types   int             `json:"types"`
	Decode  dataflash.Stats `json:"decode"`

	PositionType string         `json:"positionType"`
	ModeType     string         `json:"modeType"`
	Flight       flight.Summary `json:"flight"`

	Exports  []export.Result `json:"exports,omitempty"`
	Manifest string          `json:"manifest,omitempty"`
}

// NewSummary starts a summary for input with a fresh run id.
func NewSummary(input string, opts flight.Options) Summary {
	return Summary{
		RunID:        uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Input:        input,
		PositionType: opts.PositionType,
		ModeType:     opts.ModeType,
	}
}

func SaveSummaryJSON(rep Summary, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadSummaryJSON(path string) (Summary, error) {
	var rep Summary
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}
