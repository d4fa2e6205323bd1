// Package receipt renders order confirmations as printable PDFs.
package receipt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/khaista/boutique/internal/checkout"
	qrcode "github.com/skip2/go-qrcode"
)

const shopName = "Khaista Boutique"

// Render returns a one-page Letter PDF for order. The QR code links to
// shopURL.
func Render(order checkout.OrderSnapshot, shopURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(fmt.Sprintf("%s order %s", shopName, order.ID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, shopName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Order "+order.ID, "", 1, "L", false, 0, "")
	if !order.PlacedAt.IsZero() {
		pdf.CellFormat(0, 6, order.PlacedAt.Format("January 2, 2006 at 3:04 PM MST"), "", 1, "L", false, 0, "")
	}
	if order.Demo {
		pdf.SetTextColor(160, 60, 40)
		pdf.CellFormat(0, 6, "Demo order: no payment was collected.", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(6)

	// Letter is 215.9mm wide; 10mm margins leave 195.9mm
	widths := []float64{105, 20, 35, 35.9}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(240, 236, 228)
	for i, h := range []string{"Item", "Qty", "Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	for _, item := range order.Items {
		pdf.CellFormat(widths[0], 7, tr(truncate(item.Name, 60)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", item.Qty), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, item.Price.Format(), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, item.Total().Format(), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 10, "Subtotal", "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 10, order.Subtotal.Format(), "T", 1, "R", false, 0, "")

	if shopURL != "" {
		png, err := qrcode.Encode(shopURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("shop-qr", opts, bytes.NewReader(png))
		pdf.Ln(8)
		pdf.ImageOptions("shop-qr", pdf.GetX(), pdf.GetY(), 30, 30, true, opts, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, shopURL, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.Ln(4)
	pdf.MultiCell(0, 5, "Thank you for supporting Afghan artisans. Every piece is handcrafted and may vary slightly from its photos.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
