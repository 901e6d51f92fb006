package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/storage"
)

// ErrNoEntries is returned by Render when there is nothing to report
var ErrNoEntries = eris.New("no expenses to export")

const (
	leftMargin   = 14.0
	newPageY     = 20.0
	maxLogoBytes = 2 << 20

	tableFontSize = 8.0
	cellPadding   = 2.0
	cellLineH     = 3.5

	lineBreakMargin = 15.0
)

var (
	teal      = [3]int{0, 128, 128}
	textDark  = [3]int{51, 51, 51}
	stripeRGB = [3]int{245, 245, 245}

	tableHeader = []string{"Employee", "Date", "Vendor", "Description", "Category", "Amount", "Risk", "AI Summary"}
	// The last column takes the remaining content width
	columnWidths = []float64{25, 18, 25, 35, 18, 20, 15, 0}
)

// PDFOptions configures the report masthead
type PDFOptions struct {
	CompanyName string
	// Logo is a file path, an http(s) URL or a data URI; empty disables it
	Logo        string
	LogoTimeout time.Duration
}

// Layout records what a render wrote: page count and each text block in order
type Layout struct {
	Pages int
	Lines []string
}

// Contains reports whether any written block contains s
func (l *Layout) Contains(s string) bool {
	for _, line := range l.Lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// PDFExporter renders the expense history as a paginated A4 report
type PDFExporter struct {
	opts       PDFOptions
	storage    storage.FileStorage
	httpClient *http.Client
	now        func() time.Time
	logger     *zap.Logger
}

// NewPDFExporter creates a PDF exporter saving through fileStorage
func NewPDFExporter(opts PDFOptions, fileStorage storage.FileStorage, logger *zap.Logger) *PDFExporter {
	return &PDFExporter{
		opts:       opts,
		storage:    fileStorage,
		httpClient: http.DefaultClient,
		now:        time.Now,
		logger:     logger,
	}
}

// FileName is the report name for today's date
func (e *PDFExporter) FileName() string {
	return fmt.Sprintf("Expense_Report_%s.pdf", e.now().Format(entity.DateLayout))
}

// Export renders entries and saves the file, returning its path. With no
// entries it does nothing and returns an empty path.
func (e *PDFExporter) Export(ctx context.Context, entries []entity.ExpenseEntry) (string, error) {
	if len(entries) == 0 {
		e.logger.Info("No expenses to export")
		return "", nil
	}

	var buf bytes.Buffer
	if _, err := e.Render(ctx, entries, &buf); err != nil {
		return "", err
	}

	path, err := e.storage.SaveReport(e.FileName(), buf.Bytes(), storage.FileTypePDF)
	if err != nil {
		return "", eris.Wrap(err, "failed to save pdf report")
	}
	return path, nil
}

// Render writes the report for entries to w
func (e *PDFExporter) Render(ctx context.Context, entries []entity.ExpenseEntry, w io.Writer) (*Layout, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(leftMargin, newPageY, leftMargin)
	pdf.SetAutoPageBreak(false, 0)

	r := &pdfRenderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		layout: &Layout{},
	}
	r.pageW, r.pageH = pdf.GetPageSize()
	r.contentW = r.pageW - 2*leftMargin
	r.addPage()

	r.y = 15
	if data, imgType, err := e.loadLogo(ctx); err != nil {
		e.logger.Warn("Could not add company logo to PDF", zap.Error(err))
	} else if data != nil {
		opts := fpdf.ImageOptions{ImageType: imgType}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
		pdf.ImageOptions("logo", leftMargin, 5, 15, 15, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			e.logger.Warn("Could not add company logo to PDF", zap.Error(err))
			pdf.ClearError()
		} else {
			r.y = 5 + 15 + 5
		}
	}
	if r.y < newPageY {
		r.y = newPageY
	}

	r.title(e.opts.CompanyName+" - Expense Report", e.now().Format("2006-01-02 15:04"))
	r.summary(Summarize(entries))
	r.table(entries)
	r.details(entries)

	if err := pdf.Error(); err != nil {
		return nil, eris.Wrap(err, "failed to lay out pdf report")
	}
	if err := pdf.Output(w); err != nil {
		return nil, eris.Wrap(err, "failed to write pdf report")
	}

	r.layout.Pages = pdf.PageCount()
	e.logger.Info("PDF report rendered",
		zap.Int("entries", len(entries)),
		zap.Int("pages", r.layout.Pages))
	return r.layout, nil
}

// pdfRenderer tracks the vertical cursor while laying out one document
type pdfRenderer struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	layout   *Layout
	pageW    float64
	pageH    float64
	contentW float64
	y        float64
}

func (r *pdfRenderer) addPage() {
	r.pdf.AddPage()
	r.y = newPageY
}

// ensure starts a new page when the cursor is within margin of the bottom
func (r *pdfRenderer) ensure(margin float64) bool {
	if r.y > r.pageH-margin {
		r.addPage()
		return true
	}
	return false
}

func (r *pdfRenderer) font(style string, size float64, rgb [3]int) {
	r.pdf.SetFont("Helvetica", style, size)
	r.pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
}

func (r *pdfRenderer) text(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
	r.layout.Lines = append(r.layout.Lines, s)
}

func (r *pdfRenderer) centered(y float64, s string) {
	w := r.pdf.GetStringWidth(r.tr(s))
	r.text((r.pageW-w)/2, y, s)
}

// wrap writes s word-wrapped to width, advancing the cursor line by line.
// A line that would start within lineBreakMargin of the bottom goes on a new page.
func (r *pdfRenderer) wrap(s string, x, width, lineH float64) {
	lines := r.pdf.SplitText(r.tr(s), width)
	if len(lines) == 0 {
		lines = []string{""}
	}
	for _, line := range lines {
		r.ensure(lineBreakMargin)
		r.pdf.Text(x, r.y, line)
		r.y += lineH
	}
	r.layout.Lines = append(r.layout.Lines, s)
}

func (r *pdfRenderer) title(name, generated string) {
	r.font("", 18, [3]int{40, 40, 40})
	r.centered(r.y, name)
	r.y += 10

	r.font("", 10, [3]int{100, 100, 100})
	r.centered(r.y, "Report Generated: "+generated)
	r.y += 15
}

func (r *pdfRenderer) section(title string) {
	r.font("", 14, teal)
	r.text(leftMargin, r.y, title)
}

func (r *pdfRenderer) summary(s Summary) {
	r.section("Overall Expense Summary")
	r.y += 8

	r.font("", 10, textDark)
	for _, row := range s.Rows() {
		r.ensure(20)
		r.text(leftMargin, r.y, row.Label)
		r.text(leftMargin+70, r.y, row.Value)
		r.y += 7
	}
	if s.MixedCurrencies {
		r.ensure(20)
		r.font("I", 9, textDark)
		r.wrap(s.MixedCurrencyNote(), leftMargin, r.contentW, 5)
	}
	r.y += 5
}

func (r *pdfRenderer) widths() []float64 {
	widths := append([]float64(nil), columnWidths...)
	used := 0.0
	for _, w := range widths[:len(widths)-1] {
		used += w
	}
	widths[len(widths)-1] = r.contentW - used
	return widths
}

func (r *pdfRenderer) table(entries []entity.ExpenseEntry) {
	r.ensure(40)
	r.section("Detailed Expenses")
	r.y += 8

	widths := r.widths()
	r.tableRow(tableHeader, widths, true, false)

	for i, e := range entries {
		risk, summary := "N/A", "N/A"
		if e.Analysis != nil {
			risk = string(e.Analysis.RiskScore)
			if e.Analysis.Summary != "" {
				summary = Truncate(e.Analysis.Summary, 40)
			}
		}
		cells := []string{
			e.EmployeeName,
			e.Date,
			Truncate(e.Vendor, 30),
			Truncate(e.Description, 30),
			string(e.Category),
			FormatAmount(e.Amount) + " " + e.Currency,
			risk,
			summary,
		}

		if r.y+r.rowHeight(cells, widths) > r.pageH-15 {
			r.addPage()
			r.tableRow(tableHeader, widths, true, false)
		}
		r.tableRow(cells, widths, false, i%2 == 1)
	}
	r.y += 10
}

func (r *pdfRenderer) cellLines(cells []string, widths []float64) [][]string {
	out := make([][]string, len(cells))
	for i, c := range cells {
		lines := r.pdf.SplitText(r.tr(c), widths[i]-2*cellPadding)
		if len(lines) == 0 {
			lines = []string{""}
		}
		out[i] = lines
	}
	return out
}

func (r *pdfRenderer) rowHeight(cells []string, widths []float64) float64 {
	r.pdf.SetFont("Helvetica", "", tableFontSize)
	maxLines := 1
	for _, lines := range r.cellLines(cells, widths) {
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	return float64(maxLines)*cellLineH + 2*cellPadding
}

func (r *pdfRenderer) tableRow(cells []string, widths []float64, header, striped bool) {
	height := r.rowHeight(cells, widths)

	switch {
	case header:
		r.pdf.SetFillColor(teal[0], teal[1], teal[2])
		r.font("B", tableFontSize, [3]int{255, 255, 255})
	case striped:
		r.pdf.SetFillColor(stripeRGB[0], stripeRGB[1], stripeRGB[2])
		r.font("", tableFontSize, textDark)
	default:
		r.pdf.SetFillColor(255, 255, 255)
		r.font("", tableFontSize, textDark)
	}

	x := leftMargin
	for i, lines := range r.cellLines(cells, widths) {
		r.pdf.Rect(x, r.y, widths[i], height, "F")
		for j, line := range lines {
			lx := x + cellPadding
			// Amount column is right aligned
			if i == 5 && !header {
				lx = x + widths[i] - cellPadding - r.pdf.GetStringWidth(line)
			}
			r.pdf.Text(lx, r.y+cellPadding+float64(j+1)*cellLineH-0.8, line)
		}
		x += widths[i]
	}
	r.layout.Lines = append(r.layout.Lines, strings.Join(cells, " | "))
	r.y += height
}

func (r *pdfRenderer) details(entries []entity.ExpenseEntry) {
	var items []entity.ExpenseEntry
	for _, e := range entries {
		if e.Analysis.NeedsDetail() {
			items = append(items, e)
		}
	}
	if len(items) == 0 {
		return
	}

	r.ensure(30)
	r.section("Detailed Analysis for Flagged or High/Medium Risk Items")
	r.y += 10

	for i, e := range items {
		a := e.Analysis
		r.ensure(60)

		r.font("", 11, textDark)
		head := fmt.Sprintf("Item %d: %s - %s (%s) - Risk: %s", i+1, e.EmployeeName, e.Vendor, FormatCurrency(e.Amount, e.Currency), a.RiskScore)
		if a.IsFlagged {
			head += " (Flagged)"
		}
		r.wrap(head, leftMargin, r.contentW, 5)
		r.y += 2

		r.font("", 9, textDark)
		if len(a.PolicyViolations) > 0 {
			r.wrap("Policy Violations:", leftMargin+5, r.contentW-5, 4)
			for _, pv := range a.PolicyViolations {
				r.wrap(fmt.Sprintf("- %s: %s", pv.Policy, pv.Details), leftMargin+10, r.contentW-10, 4)
			}
			r.y += 2
		}

		if len(a.AnomaliesDetected) > 0 {
			r.wrap("Anomalies Detected:", leftMargin+5, r.contentW-5, 4)
			for _, an := range a.AnomaliesDetected {
				r.wrap(fmt.Sprintf("- %s: %s", an.Anomaly, an.Details), leftMargin+10, r.contentW-10, 4)
			}
			r.y += 2
		}

		r.wrap("Recommended Action: "+a.RecommendedAction, leftMargin+5, r.contentW-5, 4)
		r.y += 7
	}
}

// loadLogo resolves the configured logo. It returns nil data when no logo is
// configured.
func (e *PDFExporter) loadLogo(ctx context.Context) ([]byte, string, error) {
	src := strings.TrimSpace(e.opts.Logo)
	if src == "" {
		return nil, "", nil
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err = decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, err = e.fetchLogo(ctx, src)
	default:
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxLogoBytes {
		return nil, "", eris.Errorf("logo exceeds %d bytes", maxLogoBytes)
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("image/png"):
		return data, "PNG", nil
	case mtype.Is("image/jpeg"):
		return data, "JPG", nil
	case mtype.Is("image/gif"):
		return data, "GIF", nil
	}
	return nil, "", eris.Errorf("unsupported logo type %s", mtype.String())
}

func (e *PDFExporter) fetchLogo(ctx context.Context, src string) ([]byte, error) {
	if _, err := url.Parse(src); err != nil {
		return nil, eris.Wrap(err, "invalid logo url")
	}

	timeout := e.opts.LogoTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build logo request")
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "failed to fetch logo")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("logo fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
}

func decodeDataURI(src string) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, eris.New("malformed data uri")
	}
	meta, payload := src[len("data:"):comma], src[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, eris.New("data uri is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, eris.Wrap(err, "failed to decode data uri")
	}
	return data, nil
}
