package grocery

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/mealcart/internal/blob"
	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// Export formats.
const (
	FormatText = "text"
	FormatPDF  = "pdf"
)

// Exporter renders lists for sharing and printing.
type Exporter struct {
	store          *Store
	blobs          blob.Store
	presignSeconds int
	logger         *zap.Logger
}

// NewExporter creates an exporter. blobs may be nil, in which case PDFs are
// only returned inline.
func NewExporter(store *Store, blobs blob.Store, presignSeconds int, logger *zap.Logger) *Exporter {
	if presignSeconds <= 0 {
		presignSeconds = 900
	}
	return &Exporter{store: store, blobs: blobs, presignSeconds: presignSeconds, logger: logger}
}

// CanPublish reports whether PDFs can be uploaded for download by URL.
func (e *Exporter) CanPublish() bool {
	return e.blobs != nil
}

// Text renders the current list as share text.
func (e *Exporter) Text(ctx context.Context, owner, start, end string) (string, error) {
	list, err := e.store.CurrentList(ctx, owner, start, end)
	if err != nil {
		return "", err
	}
	return RenderText(list), nil
}

// PDF renders the current list as a printable PDF.
func (e *Exporter) PDF(ctx context.Context, owner, start, end string) ([]byte, error) {
	list, err := e.store.CurrentList(ctx, owner, start, end)
	if err != nil {
		return nil, err
	}
	return RenderPDF(list)
}

// Publish uploads a PDF export and returns a presigned download URL.
func (e *Exporter) Publish(ctx context.Context, owner, start, end string) (ExportResponse, error) {
	if e.blobs == nil {
		return ExportResponse{}, fmt.Errorf("blob storage is not configured")
	}

	data, err := e.PDF(ctx, owner, start, end)
	if err != nil {
		return ExportResponse{}, err
	}

	key := fmt.Sprintf("grocery-exports/%s/%s_%s_%s.pdf", owner, start, end, uuid.NewString())
	size, err := e.blobs.PutObject(ctx, key, data, "application/pdf")
	if err != nil {
		return ExportResponse{}, fmt.Errorf("upload export: %w", err)
	}

	url, err := e.blobs.PresignGet(ctx, key, e.presignSeconds)
	if err != nil {
		return ExportResponse{}, fmt.Errorf("presign export: %w", err)
	}

	e.logger.Info("grocery export published",
		zap.String("owner_user_id", owner), zap.String("key", key), zap.Int64("size_bytes", size))
	return ExportResponse{URL: url, ExpiresIn: e.presignSeconds}, nil
}

// RenderText formats a list for sharing: unchecked lines grouped by aisle,
// then manual items, then everything already checked.
func RenderText(list List) string {
	var b strings.Builder
	b.WriteString("Grocery list\n")
	fmt.Fprintf(&b, "%s to %s\n\n", list.Start, list.End)

	for _, g := range list.ByAisle() {
		fmt.Fprintf(&b, "# %s\n", g.Aisle)
		for _, l := range g.Lines {
			fmt.Fprintf(&b, "- %s\n", describeLine(l.Line))
		}
		b.WriteString("\n")
	}

	var extras, checked []string
	for _, it := range list.Manual {
		if it.Checked {
			checked = append(checked, describeManual(it))
		} else {
			extras = append(extras, describeManual(it))
		}
	}
	for _, l := range list.Lines {
		if l.Checked {
			checked = append(checked, describeLine(l.Line))
		}
	}

	writeSection(&b, "Extras", extras)
	writeSection(&b, "Checked items", checked)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "# %s\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func amount(q string, unit string) string {
	if unit == "" {
		return q
	}
	return q + " " + unit
}

func describeLine(l Line) string {
	if l.Total == nil {
		if l.ToTaste {
			return l.Name + " (to taste)"
		}
		return l.Name
	}

	s := amount(quantity.Format(l.Total), l.Unit) + " " + l.Name
	if l.Mixed {
		parts := make([]string, 0, len(l.Breakdown))
		for _, p := range l.Breakdown {
			parts = append(parts, amount(quantity.Format(p.Quantity), p.Unit))
		}
		s += " (" + strings.Join(parts, " + ") + ")"
	}
	if l.ToTaste {
		s += ", plus some to taste"
	}
	return s
}

func describeManual(it storage.ManualItem) string {
	if it.Quantity == nil {
		return it.Label
	}
	return amount(quantity.Format(it.Quantity), it.Unit) + " " + it.Label
}

// RenderPDF lays the list out as a printable A4 checklist.
func RenderPDF(list List) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Grocery list", true)
	pdf.SetCreationDate(time.Now().UTC())
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Grocery list")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%s to %s", list.Start, list.End))
	pdf.Ln(12)

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 7, tr(title))
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
		for _, it := range items {
			pdf.CellFormat(6, 6, "", "1", 0, "C", false, 0, "")
			pdf.CellFormat(0, 6, "  "+tr(it), "", 1, "L", false, 0, "")
			pdf.Ln(1)
		}
		pdf.Ln(4)
	}

	for _, g := range list.ByAisle() {
		items := make([]string, 0, len(g.Lines))
		for _, l := range g.Lines {
			items = append(items, describeLine(l.Line))
		}
		section(g.Aisle, items)
	}

	var extras []string
	for _, it := range list.Manual {
		if !it.Checked {
			extras = append(extras, describeManual(it))
		}
	}
	section("Extras", extras)

	if len(list.Lines) == 0 && len(extras) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "Nothing to buy.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
