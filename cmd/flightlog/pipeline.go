package main

import (
	"fmt"
	"os"
	"time"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/config"
	"example.com/flightlog/internal/dataflash"
	"example.com/flightlog/internal/flight"
)

// loadConfig reads path when given, the built-in defaults otherwise, and
// applies logging settings.
func loadConfig(path string, verbose bool) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logs.Verbose = true
	}
	if err := common.SetupLogging(cfg.LogOptions()); err != nil {
		return cfg, fmt.Errorf("logging: %w", err)
	}
	return cfg, nil
}

// run bundles the per-invocation plumbing shared by the commands: the open
// reader, optional metrics and the diagnostics log.
type run struct {
	reader       *dataflash.Reader
	metrics      *common.Metrics
	skips        *common.SkipLog
	stopProgress func()
}

type runOptions struct {
	input       string
	diagnostics string
	metrics     bool
	progress    bool
}

func openRun(o runOptions) (*run, error) {
	rd, err := dataflash.NewReader(o.input)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	r := &run{reader: rd}
	if o.metrics || o.progress {
		r.metrics = common.NewMetrics()
		// Byte counters follow the decompressed stream, so a compressed
		// file size is no progress total.
		if info, err := os.Stat(o.input); err == nil && !rd.Compressed() {
			r.metrics.SetTotalBytes(info.Size())
		}
		rd.SetMetrics(r.metrics)
		r.metrics.Start()
		if o.progress {
			r.stopProgress = common.StartProgressPrinter(os.Stderr, r.metrics, 500*time.Millisecond)
		}
	}
	if o.diagnostics != "" {
		r.skips = common.NewSkipLog(o.diagnostics)
		rd.SetSkipFunc(func(offset int64, reason string) {
			r.appendSkip("decode", "", offset, reason)
		})
	}
	return r, nil
}

// skipFunc forwards aggregator skips to the diagnostics log, or nil when
// none is configured.
func (r *run) skipFunc() flight.SkipFunc {
	if r.skips == nil {
		return nil
	}
	return func(stage string, rec dataflash.Record, reason string) {
		r.appendSkip(stage, rec.Type, rec.Offset, reason)
	}
}

func (r *run) appendSkip(stage, typ string, offset int64, reason string) {
	err := r.skips.Append(common.SkipEntry{Stage: stage, Type: typ, Offset: offset, Reason: reason})
	if err != nil {
		common.Debugf("diagnostics: %v", err)
	}
}

// finishDecode stops metrics and progress output once the input is drained.
func (r *run) finishDecode() {
	if r.stopProgress != nil {
		r.stopProgress()
		r.stopProgress = nil
	}
	if r.metrics != nil {
		r.metrics.Stop()
	}
}

func (r *run) close() error {
	r.finishDecode()
	err := r.reader.Close()
	if r.skips != nil {
		if cerr := r.skips.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func logDecodeStats(input string, st dataflash.Stats) {
	if st.BadBytes > 0 || st.BadDefinitions > 0 || st.Truncated {
		common.Logf("%s: skipped %d bytes in %d resyncs, rejected %d definitions, truncated=%v",
			input, st.BadBytes, st.Resyncs, st.BadDefinitions, st.Truncated)
	}
}
