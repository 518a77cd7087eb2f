package converter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/go-pdf/fpdf"
)

// Orientation selects the page layout of the generated document.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
	// OrientationAuto switches to landscape for tables wider than AutoLandscapeColumns.
	OrientationAuto Orientation = "auto"
)

const AutoLandscapeColumns = 6

// ParseOrientation accepts portrait, landscape or auto in any case.
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrientationPortrait, nil
	case OrientationPortrait, OrientationLandscape, OrientationAuto:
		return o, nil
	default:
		return "", fmt.Errorf("invalid orientation %q (must be portrait, landscape, or auto)", s)
	}
}

type DocumentOptions struct {
	Orientation Orientation
	// Uncompressed leaves page streams readable, mostly for tests.
	Uncompressed bool
	// Progress receives the fraction of rows drawn so far.
	Progress func(float64)
}

// Page geometry, in millimetres and points.
const (
	marginLeft    = 14.0
	marginRight   = 14.0
	marginTop     = 15.0
	marginBottom  = 15.0
	titleTop      = 10.0
	titleHeight   = 8.0
	tableTop      = 25.0
	titleFontSize = 16.0
	cellFontSize  = 8.0
	cellPadding   = 1.5
	lineSpacing   = 1.15
	fontFamily    = "Helvetica"
)

var (
	headerFill  = [3]int{41, 128, 185}
	headerText  = [3]int{255, 255, 255}
	bandFill    = [3]int{245, 245, 245}
	bodyText    = [3]int{33, 33, 33}
	gridColor   = [3]int{120, 120, 120}
	noDataColor = [3]int{107, 114, 128}
)

// RenderDocument lays t out as a PDF: the title on top, then one table with a
// header row and a row per record, columns in header order.
func RenderDocument(t *types.Table, title string, opts DocumentOptions) ([]byte, error) {
	return renderDocument(context.Background(), t, title, opts)
}

func renderDocument(ctx context.Context, t *types.Table, title string, opts DocumentOptions) (doc []byte, err error) {
	// fpdf reports some layout failures by panicking.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, &RenderError{Err: fmt.Errorf("layout: %v", r)}
		}
	}()

	if t == nil {
		t = &types.Table{}
	}
	if len(t.Headers) == 0 && len(t.Rows) > 0 {
		return nil, &RenderError{Err: ErrNoColumns}
	}

	orientation := "P"
	switch opts.Orientation {
	case OrientationLandscape:
		orientation = "L"
	case OrientationAuto:
		if len(t.Headers) > AutoLandscapeColumns {
			orientation = "L"
		}
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(title, true)
	pdf.SetCreator("sheetpdf", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", titleFontSize)
	pdf.SetXY(marginLeft, titleTop)
	pdf.CellFormat(0, titleHeight, tr(title), "", 0, "L", false, 0, "")

	if len(t.Headers) == 0 {
		pdf.SetFont(fontFamily, "I", cellFontSize+2)
		pdf.SetTextColor(noDataColor[0], noDataColor[1], noDataColor[2])
		pdf.SetXY(marginLeft, tableTop)
		pdf.CellFormat(0, titleHeight, "No tabular data", "", 0, "L", false, 0, "")
		return output(pdf)
	}

	l := &tableLayout{pdf: pdf, tr: tr}
	l.measure(t)

	y := l.drawHeader(tableTop, t.Headers)
	total := len(t.Rows)
	for i := range t.Rows {
		if i%cancelCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cells := l.translate(t.Cells(i))
		h := l.rowHeight(cells, false)
		if y+h > l.pageHeight-marginBottom {
			pdf.AddPage()
			y = l.drawHeader(marginTop, t.Headers)
		}
		l.drawRow(y, cells, h, false, i%2 == 1)
		y += h

		if opts.Progress != nil {
			opts.Progress(float64(i+1) / float64(total))
		}
	}

	return output(pdf)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	if err := pdf.Error(); err != nil {
		return nil, &RenderError{Err: err}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

type tableLayout struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	widths     []float64
	lineHeight float64
	pageHeight float64
}

// measure sizes columns proportionally to their widest content, scaled so the
// table spans the printable width.
func (l *tableLayout) measure(t *types.Table) {
	pageWidth, pageHeight := l.pdf.GetPageSize()
	l.pageHeight = pageHeight
	usable := pageWidth - marginLeft - marginRight

	natural := make([]float64, len(t.Headers))
	l.pdf.SetFont(fontFamily, "B", cellFontSize)
	for j, h := range t.Headers {
		natural[j] = l.pdf.GetStringWidth(l.tr(h))
	}
	l.pdf.SetFont(fontFamily, "", cellFontSize)
	for i := range t.Rows {
		for j, cell := range t.Cells(i) {
			natural[j] = max(natural[j], l.pdf.GetStringWidth(l.tr(cell)))
		}
	}

	var sum float64
	for j := range natural {
		natural[j] += 2 * cellPadding
		sum += natural[j]
	}

	l.widths = make([]float64, len(natural))
	for j, w := range natural {
		l.widths[j] = usable * w / sum
	}

	_, unitSize := l.pdf.GetFontSize()
	l.lineHeight = unitSize * lineSpacing
}

// translate converts cells to the core fonts' cp1252 code page and widens each
// byte back to a rune. SplitText indexes the font's 256-entry width table by
// rune, so it must never see a rune above 0xFF. Runes missing from the code
// page come out as '.'.
func (l *tableLayout) translate(cells []string) []string {
	out := make([]string, len(cells))
	for j, c := range cells {
		out[j] = widen(l.tr(c))
	}
	return out
}

func widen(b string) string {
	runes := make([]rune, len(b))
	for i := 0; i < len(b); i++ {
		runes[i] = rune(b[i])
	}
	return string(runes)
}

// narrow undoes widen on a wrapped line so it can be drawn.
func narrow(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		b = append(b, byte(r))
	}
	return string(b)
}

func (l *tableLayout) setFont(header bool) {
	if header {
		l.pdf.SetFont(fontFamily, "B", cellFontSize)
		return
	}
	l.pdf.SetFont(fontFamily, "", cellFontSize)
}

func (l *tableLayout) wrap(cells []string) [][]string {
	lines := make([][]string, len(cells))
	for j, c := range cells {
		lines[j] = l.pdf.SplitText(c, l.widths[j]-2*cellPadding)
		if len(lines[j]) == 0 {
			lines[j] = []string{""}
		}
	}
	return lines
}

func (l *tableLayout) rowHeight(cells []string, header bool) float64 {
	l.setFont(header)
	n := 1
	for _, cellLines := range l.wrap(cells) {
		n = max(n, len(cellLines))
	}
	return float64(n)*l.lineHeight + 2*cellPadding
}

func (l *tableLayout) drawHeader(y float64, headers []string) float64 {
	cells := l.translate(headers)
	h := l.rowHeight(cells, true)
	l.drawRow(y, cells, h, true, false)
	return y + h
}

func (l *tableLayout) drawRow(y float64, cells []string, h float64, header, banded bool) {
	pdf := l.pdf
	l.setFont(header)
	pdf.SetLineWidth(0.1)
	pdf.SetDrawColor(gridColor[0], gridColor[1], gridColor[2])

	style := "D"
	switch {
	case header:
		pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
		pdf.SetTextColor(headerText[0], headerText[1], headerText[2])
		style = "FD"
	case banded:
		pdf.SetFillColor(bandFill[0], bandFill[1], bandFill[2])
		pdf.SetTextColor(bodyText[0], bodyText[1], bodyText[2])
		style = "FD"
	default:
		pdf.SetTextColor(bodyText[0], bodyText[1], bodyText[2])
	}

	x := marginLeft
	for j, cellLines := range l.wrap(cells) {
		w := l.widths[j]
		pdf.Rect(x, y, w, h, style)
		for k, line := range cellLines {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(k)*l.lineHeight)
			pdf.CellFormat(w-2*cellPadding, l.lineHeight, narrow(line), "", 0, "L", false, 0, "")
		}
		x += w
	}
}
