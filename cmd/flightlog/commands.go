package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/config"
	"example.com/flightlog/internal/dataflash"
	"example.com/flightlog/internal/export"
	"example.com/flightlog/internal/flight"
	"example.com/flightlog/internal/manifest"
	"example.com/flightlog/internal/report"
	"example.com/flightlog/internal/table"
)

func summaryCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	in := fs.String("in", "", "input DataFlash log (.bin, .gz, .zst)")
	cfgPath := fs.String("config", "", "flightlog.yaml")
	jsonOut := fs.String("json", "", "write summary JSON")
	diagPath := fs.String("diagnostics", "", "write skipped input as JSONL")
	lang := fs.String("lang", "", "text language (en, tr)")
	metricsFlag := fs.Bool("metrics", false, "print decode metrics")
	progressFlag := fs.Bool("progress", false, "display decode progress")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("required: --in")
	}
	cfg, err := loadConfig(*cfgPath, *verbose)
	if err != nil {
		return err
	}
	tr, err := translator(*lang, cfg)
	if err != nil {
		return err
	}

	r, err := openRun(runOptions{input: *in, diagnostics: *diagPath, metrics: *metricsFlag, progress: *progressFlag})
	if err != nil {
		return err
	}
	defer r.close()

	opts := cfg.FlightOptions()
	opts.OnSkip = r.skipFunc()
	tracker := flight.NewTracker(opts)
	types := make(map[string]bool)
	records := 0
	for {
		rec, err := r.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		records++
		types[rec.Type] = true
		tracker.Observe(rec)
	}
	r.finishDecode()

	rep := report.NewSummary(*in, opts)
	rep.Records = records
	rep.Types = len(types)
	rep.Decode = r.reader.Stats()
	rep.Flight = tracker.Summary()
	logDecodeStats(*in, rep.Decode)
	if err := hashInput(&rep); err != nil {
		return err
	}

	if err := report.WriteText(stdout, rep, tr); err != nil {
		return err
	}
	if *jsonOut != "" {
		if err := report.SaveSummaryJSON(rep, *jsonOut); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if r.metrics != nil && *metricsFlag {
		fmt.Fprintf(stdout, "Metrics: %s\n", r.metrics.Snapshot())
	}
	if r.skips != nil && r.skips.Count() > 0 {
		fmt.Fprintf(stdout, "Diagnostics: %d entries in %s\n", r.skips.Count(), r.skips.Path())
	}
	return nil
}

func exportCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	in := fs.String("in", "", "input DataFlash log (.bin, .gz, .zst)")
	cfgPath := fs.String("config", "", "flightlog.yaml")
	outDir := fs.String("out-dir", "", "export directory (default from config)")
	format := fs.String("format", "", "export format: csv or sqlite")
	sqlitePath := fs.String("sqlite", "", "SQLite database path")
	withManifest := fs.Bool("manifest", false, "write manifest.json for the exported files")
	jsonOut := fs.String("json", "", "write summary JSON")
	diagPath := fs.String("diagnostics", "", "write skipped input as JSONL")
	lang := fs.String("lang", "", "text language (en, tr)")
	metricsFlag := fs.Bool("metrics", false, "print decode metrics")
	progressFlag := fs.Bool("progress", false, "display decode progress")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("required: --in")
	}
	cfg, err := loadConfig(*cfgPath, *verbose)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.Export.SetDirectory(*outDir)
	}
	if *sqlitePath != "" {
		cfg.Export.SQLitePath = *sqlitePath
	}
	if *format != "" {
		cfg.Export.Format = strings.ToLower(strings.TrimSpace(*format))
	}
	if *withManifest {
		cfg.Export.Manifest = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tr, err := translator(*lang, cfg)
	if err != nil {
		return err
	}

	r, err := openRun(runOptions{input: *in, diagnostics: *diagPath, metrics: *metricsFlag, progress: *progressFlag})
	if err != nil {
		return err
	}
	defer r.close()

	t, err := table.Collect(r.reader)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	r.finishDecode()

	opts := cfg.FlightOptions()
	opts.OnSkip = r.skipFunc()
	rep := report.NewSummary(*in, opts)
	rep.Records = t.Len()
	rep.Types = len(t.Types())
	rep.Decode = r.reader.Stats()
	rep.Flight = flight.Summarize(t, opts)
	logDecodeStats(*in, rep.Decode)
	if err := hashInput(&rep); err != nil {
		return err
	}

	outputs, results, err := runExport(cfg.Export, t)
	if err != nil {
		return err
	}
	rep.Exports = results

	if cfg.Export.Manifest {
		rep.Manifest = filepath.Join(cfg.Export.Directory, "manifest.json")
	}
	summaryPath := *jsonOut
	if summaryPath == "" && cfg.Export.Manifest {
		summaryPath = filepath.Join(cfg.Export.Directory, "summary.json")
	}
	if summaryPath != "" {
		if err := report.SaveSummaryJSON(rep, summaryPath); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		outputs = append(outputs, summaryPath)
	}
	if cfg.Export.Manifest {
		if err := writeManifest(rep, outputs); err != nil {
			return err
		}
	}

	if err := report.WriteText(stdout, rep, tr); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported %d types to %s\n", len(results), exportTarget(cfg.Export))
	if r.metrics != nil && *metricsFlag {
		fmt.Fprintf(stdout, "Metrics: %s\n", r.metrics.Snapshot())
	}

	if failed := export.Failed(results); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = f.Type
		}
		return fmt.Errorf("export: %d of %d types failed: %s", len(failed), len(results), strings.Join(names, ", "))
	}
	return nil
}

// runExport writes every type of t and returns the artifact paths that were
// produced alongside the per-type results.
func runExport(ec config.ExportConfig, t *table.Table) ([]string, []export.Result, error) {
	switch ec.Format {
	case config.FormatSQLite:
		if err := os.MkdirAll(filepath.Dir(ec.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("export: %w", err)
		}
		sink, err := export.NewSQLiteSink(ec.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("export: %w", err)
		}
		results := export.All(t, sink)
		if err := sink.Close(); err != nil {
			return nil, results, fmt.Errorf("export: close %s: %w", ec.SQLitePath, err)
		}
		return []string{ec.SQLitePath}, results, nil
	default:
		sink, err := export.NewCSVSink(ec.Directory)
		if err != nil {
			return nil, nil, fmt.Errorf("export: %w", err)
		}
		results := export.All(t, sink)
		var outputs []string
		for _, res := range results {
			if res.Err == nil {
				outputs = append(outputs, res.Location)
			}
		}
		return outputs, results, nil
	}
}

func exportTarget(ec config.ExportConfig) string {
	if ec.Format == config.FormatSQLite {
		return ec.SQLitePath
	}
	return ec.Directory
}

func writeManifest(rep report.Summary, outputs []string) error {
	paths := append([]string{rep.Input}, outputs...)
	m, err := manifest.Build(paths)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	m.RunID = rep.RunID
	if err := manifest.Save(m, rep.Manifest); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	digest, err := manifest.Digest(m)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	common.Logf("manifest %s: %d items, sha256 %s", rep.Manifest, len(m.Items), digest)
	return nil
}

func typesCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("types", flag.ContinueOnError)
	in := fs.String("in", "", "input DataFlash log (.bin, .gz, .zst)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("required: --in")
	}
	common.SetVerbose(*verbose)
	rd, err := dataflash.NewReader(*in)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer rd.Close()
	t, err := table.Collect(rd)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCOUNT\tCOLUMNS")
	for _, typ := range t.Types() {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", typ, t.Count(typ), strings.Join(t.Schema(typ), ","))
	}
	return tw.Flush()
}

func reportCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	summaryPath := fs.String("summary", "", "summary.json from summary or export")
	pdfPath := fs.String("pdf", "", "output PDF")
	cfgPath := fs.String("config", "", "flightlog.yaml")
	lang := fs.String("lang", "", "report language (en, tr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *summaryPath == "" {
		return errors.New("required: --summary")
	}
	cfg, err := loadConfig(*cfgPath, false)
	if err != nil {
		return err
	}
	tr, err := translator(*lang, cfg)
	if err != nil {
		return err
	}
	rep, err := report.LoadSummaryJSON(*summaryPath)
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}
	if *pdfPath == "" {
		return report.WriteText(stdout, rep, tr)
	}
	if err := report.SaveSummaryPDF(rep, tr, *pdfPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintln(stdout, "Wrote PDF:", *pdfPath)
	return nil
}

// translator prefers the flag value over the configured language.
func translator(flagLang string, cfg config.Config) (report.Translator, error) {
	code := flagLang
	if code == "" {
		code = cfg.Report.Lang
	}
	lang, err := report.ParseLanguage(code)
	if err != nil {
		return report.Translator{}, err
	}
	return report.NewTranslator(lang), nil
}

func hashInput(rep *report.Summary) error {
	sum, size, err := common.Sha256OfFile(rep.Input)
	if err != nil {
		return fmt.Errorf("hash input: %w", err)
	}
	rep.InputSHA256 = sum
	rep.InputSize = size
	return nil
}
