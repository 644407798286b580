package export

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/equipview/equipview/internal/domain"
)

// QuoteDocument bundles everything needed to render a quote for a
// customer.
type QuoteDocument struct {
	Quote  *domain.Quote
	Client *domain.Client
	Items  []QuoteLine
}

// QuoteLine is a quote item resolved against the catalog.
type QuoteLine struct {
	Sku         string
	Description string
	Quantity    int
	UnitPrice   float64
	TotalPrice  float64
}

const quoteSheet = "Quote"

// WriteQuoteExcel renders the quote as an xlsx workbook.
func WriteQuoteExcel(doc *QuoteDocument, w io.Writer) error {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", quoteSheet)
	f.SetColWidth(quoteSheet, "A", "A", 22)
	f.SetColWidth(quoteSheet, "B", "B", 48)
	f.SetColWidth(quoteSheet, "C", "E", 14)

	f.SetCellValue(quoteSheet, "A1", "Quotation")
	f.SetCellValue(quoteSheet, "A2", "Quote Number")
	f.SetCellValue(quoteSheet, "B2", doc.Quote.QuoteNumber)
	f.SetCellValue(quoteSheet, "A3", "Date")
	f.SetCellValue(quoteSheet, "B3", doc.Quote.CreatedAt.Format("2006-01-02"))
	f.SetCellValue(quoteSheet, "A4", "Status")
	f.SetCellValue(quoteSheet, "B4", doc.Quote.Status)

	row := 6
	if doc.Client != nil {
		f.SetCellValue(quoteSheet, fmt.Sprintf("A%d", row), "Company")
		f.SetCellValue(quoteSheet, fmt.Sprintf("B%d", row), doc.Client.Company)
		row++
		f.SetCellValue(quoteSheet, fmt.Sprintf("A%d", row), "Contact")
		f.SetCellValue(quoteSheet, fmt.Sprintf("B%d", row), doc.Client.ContactName)
		row++
		f.SetCellValue(quoteSheet, fmt.Sprintf("A%d", row), "Email")
		f.SetCellValue(quoteSheet, fmt.Sprintf("B%d", row), doc.Client.ContactEmail)
		row += 2
	}

	headers := []string{"SKU", "Description", "Qty", "Unit Price", "Total"}
	for i, h := range headers {
		cell := fmt.Sprintf("%c%d", 'A'+i, row)
		f.SetCellValue(quoteSheet, cell, h)
	}
	row++
	for _, line := range doc.Items {
		f.SetCellValue(quoteSheet, fmt.Sprintf("A%d", row), line.Sku)
		f.SetCellValue(quoteSheet, fmt.Sprintf("B%d", row), line.Description)
		f.SetCellValue(quoteSheet, fmt.Sprintf("C%d", row), line.Quantity)
		f.SetCellValue(quoteSheet, fmt.Sprintf("D%d", row), line.UnitPrice)
		f.SetCellValue(quoteSheet, fmt.Sprintf("E%d", row), line.TotalPrice)
		row++
	}
	row++
	f.SetCellValue(quoteSheet, fmt.Sprintf("D%d", row), "Total")
	f.SetCellValue(quoteSheet, fmt.Sprintf("E%d", row), doc.Quote.TotalAmount)
	f.SetCellValue(quoteSheet, fmt.Sprintf("A%d", row+2), "Generated "+time.Now().Format(time.RFC1123))

	return f.Write(w)
}
