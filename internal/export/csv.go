package export

import (
	"io"

	"github.com/gocarina/gocsv"
)

type quoteCSVRow struct {
	QuoteNumber string  `csv:"quote_number"`
	Sku         string  `csv:"sku"`
	Description string  `csv:"description"`
	Quantity    int     `csv:"quantity"`
	UnitPrice   float64 `csv:"unit_price"`
	TotalPrice  float64 `csv:"total_price"`
}

// WriteQuoteCSV renders the quote line items as CSV, one row per item.
func WriteQuoteCSV(doc *QuoteDocument, w io.Writer) error {
	rows := make([]quoteCSVRow, 0, len(doc.Items))
	for _, line := range doc.Items {
		rows = append(rows, quoteCSVRow{
			QuoteNumber: doc.Quote.QuoteNumber,
			Sku:         line.Sku,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
		})
	}
	return gocsv.Marshal(&rows, w)
}
