package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipview/equipview/internal/domain"
)

func sampleDocument() *QuoteDocument {
	created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	return &QuoteDocument{
		Quote: &domain.Quote{
			ID:          1,
			QuoteNumber: "Q-20240315-103000",
			TotalAmount: 5498,
			Status:      domain.QuoteStatusDraft,
			CreatedAt:   created,
		},
		Client: &domain.Client{
			Company:      "Acme Kitchens",
			ContactName:  "Pat Jones",
			ContactEmail: "pat@acme.test",
		},
		Items: []QuoteLine{
			{Sku: "TSR-23SD-N6", Description: "Reach-in refrigerator", Quantity: 1, UnitPrice: 2999, TotalPrice: 2999},
			{Sku: "PST-28-N", Description: "Sandwich prep table", Quantity: 1, UnitPrice: 2499, TotalPrice: 2499},
		},
	}
}

func TestWriteQuoteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQuoteCSV(sampleDocument(), &buf))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "header plus one row per item")
	assert.Contains(t, lines[0], "quote_number")
	assert.Contains(t, lines[1], "TSR-23SD-N6")
	assert.Contains(t, lines[1], "Q-20240315-103000")
	assert.Contains(t, lines[2], "PST-28-N")
}

func TestWriteQuoteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQuoteExcel(sampleDocument(), &buf))

	// xlsx files are zip archives
	assert.Greater(t, buf.Len(), 4)
	assert.Equal(t, "PK", buf.String()[:2])
}

func TestWriteQuotePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQuotePDF(sampleDocument(), &buf))

	assert.Greater(t, buf.Len(), 4)
	assert.Equal(t, "%PDF", buf.String()[:4])
}

func TestWriteQuoteExcelWithoutClient(t *testing.T) {
	doc := sampleDocument()
	doc.Client = nil
	var buf bytes.Buffer
	require.NoError(t, WriteQuoteExcel(doc, &buf))
	assert.NotZero(t, buf.Len())
}
