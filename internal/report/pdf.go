package report

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/export"
)

const qrImageName = "input-sha256"

// The core fonts are WinAnsi (cp1252) encoded. Turkish letters missing from
// cp1252 are folded to their base letter.
var cp1252Fold = strings.NewReplacer(
	"ğ", "g", "Ğ", "G",
	"ş", "s", "Ş", "S",
	"ı", "i", "İ", "I",
)

// pdfTextFunc returns the UTF-8 to cp1252 converter used for every string
// handed to the core fonts.
func pdfTextFunc(pdf *gofpdf.Fpdf) (func(string) string, error) {
	cp := pdf.UnicodeTranslatorFromDescriptor("cp1252")
	if pdf.Err() {
		return nil, pdf.Error()
	}
	return func(s string) string {
		return cp(cp1252Fold.Replace(s))
	}, nil
}

// SaveSummaryPDF renders rep into a PDF document at out.
func SaveSummaryPDF(rep Summary, tr Translator, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	utf, err := pdfTextFunc(pdf)
	if err != nil {
		return err
	}
	w := pdfWriter{pdf: pdf, tr: tr, utf: utf}

	pdf.SetTitle(tr.T("title"), true)
	pdf.SetAuthor("flightlog", false)
	pdf.SetCreator("flightlog", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	w.title(tr.T("title"))
	w.inputSection(rep)
	w.flightSection(rep)
	w.decodeSection(rep)
	w.exportsSection(rep.Exports)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  Translator
	utf func(string) string
}

func (w pdfWriter) title(s string) {
	w.pdf.SetFont("Helvetica", "B", 18)
	w.pdf.Cell(0, 10, w.utf(s))
	w.pdf.Ln(12)
}

func (w pdfWriter) heading(key string) {
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.Cell(0, 8, w.utf(w.tr.T(key)))
	w.pdf.Ln(8)
}

func (w pdfWriter) pairs(items [][2]string) {
	w.pdf.SetFont("Helvetica", "", 11)
	for _, item := range items {
		w.pdf.CellFormat(50, 6, w.utf(w.tr.T(item[0])), "", 0, "L", false, 0, "")
		w.pdf.CellFormat(0, 6, w.utf(emptyFallback(item[1], "-")), "", 1, "L", false, 0, "")
	}
	w.pdf.Ln(4)
}

func (w pdfWriter) inputSection(rep Summary) {
	w.heading("section.input")
	created := ""
	if !rep.CreatedAt.IsZero() {
		created = rep.CreatedAt.Format(time.RFC3339)
	}
	w.pairs([][2]string{
		{"label.file", rep.Input},
		{"label.size", common.FormatBytes(rep.InputSize)},
		{"label.sha256", rep.InputSHA256},
		{"label.run", rep.RunID},
		{"label.created", created},
	})
	if rep.InputSHA256 == "" {
		return
	}
	png, err := HashToQR(rep.InputSHA256, 256)
	if err != nil {
		common.Logf("report: qr for %s: %v", rep.Input, err)
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	w.pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(png))
	y := w.pdf.GetY()
	w.pdf.ImageOptions(qrImageName, 15, y, 30, 30, false, opts, 0, "")
	w.pdf.SetY(y + 34)
}

func (w pdfWriter) flightSection(rep Summary) {
	w.heading("section.flight")
	w.pdf.SetFont("Helvetica", "", 11)
	for _, line := range Lines(rep, w.tr) {
		if line == "" {
			w.pdf.Ln(2)
			continue
		}
		w.pdf.MultiCell(0, 6, w.utf(line), "", "L", false)
	}
	w.pdf.Ln(4)
}

func (w pdfWriter) decodeSection(rep Summary) {
	w.heading("section.decode")
	truncated := w.tr.T("label.no")
	if rep.Decode.Truncated {
		truncated = w.tr.T("label.yes")
	}
	w.pairs([][2]string{
		{"label.records", strconv.Itoa(rep.Records)},
		{"label.types", strconv.Itoa(rep.Types)},
		{"label.frames", strconv.FormatInt(rep.Decode.Frames, 10)},
		{"label.badBytes", strconv.FormatInt(rep.Decode.BadBytes, 10)},
		{"label.resyncs", strconv.FormatInt(rep.Decode.Resyncs, 10)},
		{"label.badDefinitions", strconv.FormatInt(rep.Decode.BadDefinitions, 10)},
		{"label.truncated", truncated},
	})
}

func (w pdfWriter) exportsSection(results []export.Result) {
	w.heading("section.exports")
	if len(results) == 0 {
		w.pdf.SetFont("Helvetica", "", 11)
		w.pdf.MultiCell(0, 6, w.utf(w.tr.T("exports.none")), "", "L", false)
		return
	}

	headers := []string{"table.type", "table.rows", "table.columns", "table.location", "table.status"}
	widths := []float64{24, 18, 20, 96, 22}

	w.pdf.SetFillColor(240, 240, 240)
	w.pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		w.pdf.CellFormat(widths[i], 7, w.utf(w.tr.T(h)), "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)

	w.pdf.SetFont("Helvetica", "", 9)
	for _, r := range results {
		status := w.tr.T("status.ok")
		if r.Error != "" {
			status = w.tr.T("status.failed")
		}
		values := []string{
			r.Type,
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Columns),
			r.Location,
			status,
		}
		for i := range values {
			values[i] = w.utf(values[i])
		}
		renderTableRow(w.pdf, widths, values, 5)
	}
	w.pdf.Ln(4)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		lines := splitLines(pdf, emptyFallback(val, "-"), widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

// splitLines wraps text that is already in the core font code page.
// SplitText indexes the width table by rune, so each byte is widened to a
// rune for measuring and narrowed back afterwards.
func splitLines(pdf *gofpdf.Fpdf, text string, width float64) []string {
	wide := make([]rune, len(text))
	for i := 0; i < len(text); i++ {
		wide[i] = rune(text[i])
	}
	lines := pdf.SplitText(string(wide), width)
	for i, line := range lines {
		narrow := make([]byte, 0, len(line))
		for _, r := range line {
			narrow = append(narrow, byte(r))
		}
		lines[i] = string(narrow)
	}
	return lines
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return strings.TrimSpace(val)
}
