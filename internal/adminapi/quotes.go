package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/export"
	"github.com/equipview/equipview/internal/mailer"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
	"github.com/equipview/equipview/pkg/common"
)

type createQuotePayload struct {
	ClientID int64 `json:"client_id,string"`
}

type quoteStatusPayload struct {
	Status string `json:"status"`
}

var quoteStatuses = map[string]bool{
	domain.QuoteStatusDraft:     true,
	domain.QuoteStatusSent:      true,
	domain.QuoteStatusAccepted:  true,
	domain.QuoteStatusClosed:    true,
	domain.QuoteStatusCancelled: true,
}

func registerQuoteRoutes() {
	webserver.ApiGET("/quotes", listQuotes)
	webserver.ApiGET("/quotes/:id", getQuote)
	webserver.ApiPOST("/quotes", createQuote)
	webserver.ApiPUT("/quotes/:id/status", updateQuoteStatus)
	webserver.ApiDELETE("/quotes/:id", deleteQuote)
	webserver.ApiGET("/quotes/:id/export", exportQuote)
	webserver.ApiPOST("/quotes/:id/email", emailQuote)
}

// nextQuoteNumber builds a number like Q-20240131-153002 from the
// configured prefix.
func nextQuoteNumber(c echo.Context) string {
	prefix := GetApp(c).GetSettingsStringValue("quote", "number_prefix")
	prefix = common.IfEmptyStr(prefix, "Q")
	return fmt.Sprintf("%s-%s", prefix, time.Now().Format("20060102-150405"))
}

func listQuotes(c echo.Context) error {
	f, okF := ownerFilter(c)
	if !okF {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	page, pageSize := parsePagination(c)

	appendCond := func(cond string, args ...interface{}) {
		if f.Query != "" {
			f.Query += " AND " + cond
		} else {
			f.Query = cond
		}
		f.Args = append(f.Args, args...)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		appendCond("status = ?", status)
	}
	if cid := cast.ToInt64(c.QueryParam("client_id")); cid != 0 {
		appendCond("client_id = ?", cid)
	}

	ctx := requestCtx(c)
	mgr := GetSync(c)
	total, err := mgr.Count(ctx, &domain.Quote{}, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query quotes", err.Error())
	}
	var rows []domain.Quote
	stale, err := mgr.Read(ctx, &rows, f.WithOrder("created_at DESC").WithPage(page, pageSize))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query quotes", err.Error())
	}
	return paged(c, rows, total, page, pageSize, stale)
}

func fetchOwnedQuote(c echo.Context) (*domain.Quote, error) {
	quoteID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, sync.Invalid("id", "invalid quote id")
	}
	f, okF := ownerFilter(c)
	if !okF {
		return nil, sync.Invalid("identity", "sign in required")
	}
	if f.Query != "" {
		f.Query += " AND id = ?"
	} else {
		f.Query = "id = ?"
	}
	f.Args = append(f.Args, quoteID)

	var quote domain.Quote
	if _, err := GetSync(c).First(requestCtx(c), &quote, f); err != nil {
		return nil, err
	}
	return &quote, nil
}

// buildQuoteDocument resolves the quote with its items, client and
// catalog descriptions.
func buildQuoteDocument(c echo.Context, quote *domain.Quote) (*export.QuoteDocument, error) {
	ctx := requestCtx(c)
	mgr := GetSync(c)

	doc := &export.QuoteDocument{Quote: quote}
	if quote.ClientID != 0 {
		var client domain.Client
		if _, err := mgr.First(ctx, &client, sync.Where("id = ?", quote.ClientID)); err == nil {
			doc.Client = &client
		}
	}
	var items []domain.QuoteItem
	if _, err := mgr.Read(ctx, &items, sync.Where("quote_id = ?", quote.ID).WithOrder("created_at ASC")); err != nil {
		return nil, err
	}
	for _, item := range items {
		line := export.QuoteLine{
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
		var p domain.Product
		if _, perr := mgr.First(ctx, &p, sync.Where("id = ?", item.ProductID)); perr == nil {
			line.Sku = p.Sku
			line.Description = p.Description
		}
		doc.Items = append(doc.Items, line)
	}
	return doc, nil
}

func getQuote(c echo.Context) error {
	quote, err := fetchOwnedQuote(c)
	if err != nil {
		return failForErr(c, err)
	}
	doc, err := buildQuoteDocument(c, quote)
	if err != nil {
		return failForErr(c, err)
	}
	return ok(c, map[string]interface{}{
		"quote":  doc.Quote,
		"client": doc.Client,
		"items":  doc.Items,
	})
}

// createQuote converts the caller's cart for the given client into a
// draft quote, snapshotting unit prices, then clears the cart.
func createQuote(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	var payload createQuotePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if payload.ClientID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "client_id is required", nil)
	}

	ctx := requestCtx(c)
	mgr := GetSync(c)

	var client domain.Client
	if _, err := mgr.First(ctx, &client, sync.Where("id = ?", payload.ClientID)); err != nil {
		return failForErr(c, err)
	}

	// items with a matching client plus unassigned ones
	var items []domain.CartItem
	if _, err := mgr.Read(ctx, &items,
		sync.Where("user_id = ? AND (client_id = ? OR client_id = 0)", id.UserID, payload.ClientID)); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to read cart", err.Error())
	}
	if len(items) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)
	}

	now := time.Now()
	quote := domain.Quote{
		ID:          common.UUIDint64(),
		UserID:      id.UserID,
		ClientID:    payload.ClientID,
		QuoteNumber: nextQuoteNumber(c),
		Status:      GetApp(c).GetSettingsStringValue("quote", "default_status"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	quote.Status = common.IfEmptyStr(quote.Status, domain.QuoteStatusDraft)

	var total float64
	var lines []domain.QuoteItem
	for _, item := range items {
		var p domain.Product
		if _, perr := mgr.First(ctx, &p, sync.Where("id = ?", item.ProductID)); perr != nil {
			zap.L().Warn("skipping cart item with missing product",
				zap.Int64("product_id", item.ProductID))
			continue
		}
		lineTotal := p.Price * float64(item.Quantity)
		lines = append(lines, domain.QuoteItem{
			ID:         common.UUIDint64(),
			QuoteID:    quote.ID,
			UserID:     id.UserID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: lineTotal,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		total += lineTotal
	}
	if len(lines) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart has no valid items", nil)
	}
	quote.TotalAmount = total

	if err := mgr.Write(ctx, &quote); err != nil {
		return failForErr(c, err)
	}
	for i := range lines {
		if err := mgr.Write(ctx, &lines[i]); err != nil {
			return failForErr(c, err)
		}
	}
	// remove exactly the lines that went into the quote, unassigned
	// ones included; a scoped Clear would leave those behind
	for i := range items {
		if derr := mgr.Delete(ctx, &items[i]); derr != nil {
			zap.L().Warn("failed to clear cart item after quote",
				zap.Int64("cart_item_id", items[i].ID), zap.Error(derr))
		}
	}

	return ok(c, map[string]interface{}{
		"quote": quote,
		"items": lines,
	})
}

func updateQuoteStatus(c echo.Context) error {
	quote, err := fetchOwnedQuote(c)
	if err != nil {
		return failForErr(c, err)
	}
	var payload quoteStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if !quoteStatuses[status] {
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown quote status", status)
	}
	quote.Status = status
	quote.UpdatedAt = time.Now()
	if err := GetSync(c).Write(requestCtx(c), quote); err != nil {
		return failForErr(c, err)
	}
	return ok(c, quote)
}

func deleteQuote(c echo.Context) error {
	quote, err := fetchOwnedQuote(c)
	if err != nil {
		return failForErr(c, err)
	}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	var items []domain.QuoteItem
	if _, err := mgr.Read(ctx, &items, sync.Where("quote_id = ?", quote.ID)); err == nil {
		for i := range items {
			if derr := mgr.Delete(ctx, &items[i]); derr != nil {
				zap.L().Warn("failed to delete quote item", zap.Error(derr))
			}
		}
	}
	if err := mgr.Delete(ctx, quote); err != nil {
		return failForErr(c, err)
	}
	return ok(c, map[string]interface{}{"deleted": true})
}

func exportQuote(c echo.Context) error {
	quote, err := fetchOwnedQuote(c)
	if err != nil {
		return failForErr(c, err)
	}
	doc, err := buildQuoteDocument(c, quote)
	if err != nil {
		return failForErr(c, err)
	}

	format := strings.ToLower(common.IfEmptyStr(c.QueryParam("format"), "xlsx"))
	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := export.WriteQuoteCSV(doc, &buf); err != nil {
			return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build CSV", err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s.csv"`, quote.QuoteNumber))
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	case "pdf":
		if err := export.WriteQuotePDF(doc, &buf); err != nil {
			return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build PDF", err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s.pdf"`, quote.QuoteNumber))
		return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
	case "xlsx":
		if err := export.WriteQuoteExcel(doc, &buf); err != nil {
			return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build workbook", err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s.xlsx"`, quote.QuoteNumber))
		return c.Blob(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		return fail(c, http.StatusBadRequest, "INVALID_FORMAT", "Format must be xlsx, csv or pdf", format)
	}
}

type emailQuotePayload struct {
	Recipient string `json:"recipient"`
}

func emailQuote(c echo.Context) error {
	app := GetApp(c)
	if !app.GetSettingsBoolValue("email", "enabled") {
		return fail(c, http.StatusBadRequest, "EMAIL_DISABLED", "Email delivery is disabled", nil)
	}
	quote, err := fetchOwnedQuote(c)
	if err != nil {
		return failForErr(c, err)
	}
	doc, err := buildQuoteDocument(c, quote)
	if err != nil {
		return failForErr(c, err)
	}

	var payload emailQuotePayload
	_ = c.Bind(&payload)
	recipient := strings.TrimSpace(payload.Recipient)
	if recipient == "" && doc.Client != nil {
		recipient = doc.Client.ContactEmail
	}
	if recipient == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No recipient address available", nil)
	}

	if err := mailer.SendQuote(app.Config().Smtp, doc, recipient); err != nil {
		return fail(c, http.StatusInternalServerError, "MAIL_ERROR", "Failed to send quote", err.Error())
	}

	// a mailed quote moves from draft to sent
	if quote.Status == domain.QuoteStatusDraft {
		quote.Status = domain.QuoteStatusSent
		quote.UpdatedAt = time.Now()
		if werr := GetSync(c).Write(requestCtx(c), quote); werr != nil {
			zap.L().Warn("failed to update quote status after mail", zap.Error(werr))
		}
	}
	return ok(c, map[string]interface{}{"sent": true, "recipient": recipient})
}
