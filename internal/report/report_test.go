package report

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"example.com/flightlog/internal/dataflash"
	"example.com/flightlog/internal/export"
	"example.com/flightlog/internal/flight"
)

func sampleSummary() Summary {
	rep := NewSummary("flight.bin", flight.DefaultOptions())
	rep.InputSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	rep.InputSize = 4096
	rep.Records = 120
	rep.Types = 4
	rep.Decode = dataflash.Stats{Frames: 120, Definitions: 4, BadBytes: 7, Resyncs: 1, Truncated: true}
	rep.Flight = flight.Summary{
		Distance: flight.DistanceResult{Status: flight.StatusOK, Meters: 80, Samples: 81},
		Duration: flight.DurationResult{Status: flight.StatusOK, FirstUs: 100000, LastUs: 900000, Samples: 3},
		Modes: flight.ModeResult{Status: flight.StatusOK, Modes: []flight.ModeDuration{
			{Name: "MANUAL", Codes: []string{"0"}, Micros: 3_000_000},
			{Name: "GUIDED", Codes: []string{"15"}, Micros: 2_000_000},
			{Name: "FOLLOW", Codes: []string{"6"}, Micros: 0},
		}},
	}
	rep.Exports = []export.Result{
		{Type: "MODE", Rows: 3, Columns: 4, Location: "out/MODE.csv"},
		{Type: "XKF1", Rows: 81, Columns: 13, Location: "out/XKF1.csv", Error: "export XKF1: disk full"},
	}
	return rep
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleSummary(), NewTranslator(LangEnglish)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	want := strings.Join([]string{
		"Total distance traveled: 80.00 meters",
		"Flight duration: 0.01 minutes",
		"",
		"Mode durations:",
		"MANUAL for 3.000 sec",
		"GUIDED for 2.000 sec",
		"FOLLOW for 0.000 sec",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Fatalf("WriteText =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestLinesMissingMetrics(t *testing.T) {
	rep := NewSummary("x.bin", flight.DefaultOptions())
	rep.Flight = flight.Summary{
		Distance: flight.DistanceResult{Status: flight.StatusNotComputed},
		Duration: flight.DurationResult{Status: flight.StatusNotComputed},
		Modes:    flight.ModeResult{Status: flight.StatusNotComputed},
	}
	lines := Lines(rep, NewTranslator(LangEnglish))
	want := []string{
		"Distance not computed (no XKF1 messages)",
		"Duration not computed (no XKF1 messages)",
		"",
		"Mode durations not computed (no MODE messages)",
	}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("Lines = %q", lines)
	}

	rep.Flight.Duration.Status = flight.StatusUndetermined
	if got := Lines(rep, NewTranslator(LangEnglish))[1]; got != "Could not determine duration." {
		t.Fatalf("undetermined line = %q", got)
	}
}

func TestTranslator(t *testing.T) {
	tr := NewTranslator(LangTurkish)
	if tr.Lang() != LangTurkish {
		t.Fatalf("lang = %s", tr.Lang())
	}
	if got := tr.T("duration.undetermined"); got != "Süre belirlenemedi." {
		t.Fatalf("T = %q", got)
	}
	if got := tr.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key = %q", got)
	}
	if NewTranslator(Language("de")).Lang() != LangEnglish {
		t.Fatalf("unknown language should fall back to English")
	}
	if en, trKeys := NewTranslator(LangEnglish).Keys(), tr.Keys(); strings.Join(en, ",") != strings.Join(trKeys, ",") {
		t.Errorf("locale keys differ:\nen %v\ntr %v", en, trKeys)
	}

	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"", LangEnglish, false},
		{"EN", LangEnglish, false},
		{"tr-TR", LangTurkish, false},
		{"turkish", LangTurkish, false},
		{"fr", LangEnglish, true},
	}
	for _, tc := range tests {
		got, err := ParseLanguage(tc.in)
		if got != tc.want || (err != nil) != tc.wantErr {
			t.Errorf("ParseLanguage(%q) = %s, %v", tc.in, got, err)
		}
		if tc.wantErr && !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("ParseLanguage(%q) error = %v", tc.in, err)
		}
	}
}

func TestSummaryJSONRoundTrip(t *testing.T) {
	rep := sampleSummary()
	path := filepath.Join(t.TempDir(), "summary.json")
	if err := SaveSummaryJSON(rep, path); err != nil {
		t.Fatalf("SaveSummaryJSON: %v", err)
	}
	loaded, err := LoadSummaryJSON(path)
	if err != nil {
		t.Fatalf("LoadSummaryJSON: %v", err)
	}
	if loaded.RunID != rep.RunID || loaded.InputSHA256 != rep.InputSHA256 || loaded.Decode != rep.Decode {
		t.Fatalf("loaded = %+v", loaded)
	}
	var a, b bytes.Buffer
	tr := NewTranslator(LangEnglish)
	_ = WriteText(&a, rep, tr)
	_ = WriteText(&b, loaded, tr)
	if a.String() != b.String() {
		t.Fatalf("text differs after round trip:\n%s\n%s", a.String(), b.String())
	}
	if len(loaded.Exports) != 2 || loaded.Exports[1].Error == "" {
		t.Fatalf("exports = %+v", loaded.Exports)
	}
}

func TestNewSummaryRunIDs(t *testing.T) {
	a := NewSummary("a", flight.DefaultOptions())
	b := NewSummary("a", flight.DefaultOptions())
	if a.RunID == "" || a.RunID == b.RunID {
		t.Fatalf("run ids %q and %q", a.RunID, b.RunID)
	}
}

func TestHashToQR(t *testing.T) {
	data, err := HashToQR("  ab:cd-ef 01  ", 64)
	if err != nil {
		t.Fatalf("HashToQR: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if _, err := HashToQR("zz", 64); err == nil {
		t.Fatalf("expected error for hash without hex digits")
	}
	if got := sanitizeHash(" ab:cd "); got != "ABCD" {
		t.Fatalf("sanitizeHash = %q", got)
	}
}

func TestPDFText(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	text, err := pdfTextFunc(pdf)
	if err != nil {
		t.Fatalf("pdfTextFunc: %v", err)
	}
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"Uçuş Özeti", "U\xe7us \xd6zeti"},
		{"Yeniden eşlemeler: İĞŞığş", "Yeniden eslemeler: IGSigs"},
		{"€5", "\x805"},
	}
	for _, tc := range tests {
		if got := text(tc.in); got != tc.want {
			t.Errorf("text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 9)
	long := text("çıktı/şehir/Öğle ölçüm çok uzun bir dosya adı.csv")
	lines := splitLines(pdf, long, 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped lines, got %q", lines)
	}
	rest := long
	for _, line := range lines {
		i := strings.Index(rest, line)
		if i < 0 {
			t.Fatalf("line %q not found in %q", line, rest)
		}
		rest = rest[i+len(line):]
	}
	if strings.TrimSpace(rest) != "" {
		t.Fatalf("text left over after wrapping: %q", rest)
	}
}

func TestSaveSummaryPDF(t *testing.T) {
	dir := t.TempDir()
	for _, lang := range []Language{LangEnglish, LangTurkish} {
		out := filepath.Join(dir, string(lang)+".pdf")
		if err := SaveSummaryPDF(sampleSummary(), NewTranslator(lang), out); err != nil {
			t.Fatalf("SaveSummaryPDF(%s): %v", lang, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Fatalf("%s output is not a PDF", lang)
		}
	}

	// Exported paths and types are not limited to the core font code page.
	odd := sampleSummary()
	odd.Input = "uçuşlar/İzmir_ğüz.bin"
	odd.Exports = append(odd.Exports,
		export.Result{Type: "MSG", Rows: 2, Columns: 2, Location: "çıktı/şehir/Öğle €ölçüm MSG.csv"},
		export.Result{Type: "GPS", Rows: 1, Columns: 5, Location: "out/航迹/GPS.csv"},
	)
	for _, lang := range []Language{LangEnglish, LangTurkish} {
		out := filepath.Join(dir, "odd-"+string(lang)+".pdf")
		if err := SaveSummaryPDF(odd, NewTranslator(lang), out); err != nil {
			t.Fatalf("SaveSummaryPDF(odd, %s): %v", lang, err)
		}
	}

	empty := NewSummary("x.bin", flight.DefaultOptions())
	if err := SaveSummaryPDF(empty, NewTranslator(LangEnglish), filepath.Join(dir, "empty.pdf")); err != nil {
		t.Fatalf("SaveSummaryPDF(empty): %v", err)
	}
}
