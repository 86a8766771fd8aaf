package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/dataflash"
)

// CSVSink writes <Dir>/<TYPE>.csv for every exported type.
type CSVSink struct {
	Dir string
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &CSVSink{Dir: dir}, nil
}

func (s *CSVSink) Location(typ string) string {
	return filepath.Join(s.Dir, common.SafeFileName(typ)+".csv")
}

func (s *CSVSink) Export(typ string, schema []string, rows []dataflash.Record) (err error) {
	f, err := os.Create(s.Location(typ))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, schema, rows)
}

// WriteCSV writes a header row followed by one row per record. Fields a
// record lacks are written as empty cells.
func WriteCSV(w io.Writer, schema []string, rows []dataflash.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema); err != nil {
		return err
	}
	line := make([]string, len(schema))
	for _, rec := range rows {
		for i, name := range schema {
			line[i], _ = cell(rec, name)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a file written by CSVSink. Empty cells are left out of the
// returned row maps.
func ReadCSV(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%s: missing header", path)
		}
		return nil, nil, err
	}
	var rows []map[string]string
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return header, rows, err
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(line) && line[i] != "" {
				row[name] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
