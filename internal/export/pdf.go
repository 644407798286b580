package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteQuotePDF renders the quote as a printable A4 document.
func WriteQuotePDF(doc *QuoteDocument, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Quotation", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Quote Number: "+doc.Quote.QuoteNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+doc.Quote.CreatedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Status: "+doc.Quote.Status, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if doc.Client != nil {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, doc.Client.Company, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		if doc.Client.ContactName != "" {
			pdf.CellFormat(0, 6, doc.Client.ContactName, "", 1, "L", false, 0, "")
		}
		if doc.Client.ContactEmail != "" {
			pdf.CellFormat(0, 6, doc.Client.ContactEmail, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	widths := []float64{34, 76, 16, 32, 32}
	headers := []string{"SKU", "Description", "Qty", "Unit Price", "Total"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Items {
		pdf.CellFormat(widths[0], 6, line.Sku, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.2f", line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", line.TotalPrice), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", doc.Quote.TotalAmount), "1", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Generated "+time.Now().Format(time.RFC1123), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}
