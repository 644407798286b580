package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
	"github.com/equipview/equipview/pkg/common"
)

type cartItemPayload struct {
	ProductID int64 `json:"product_id,string"`
	ClientID  int64 `json:"client_id,string"`
	Quantity  int   `json:"quantity"`
}

// cartLine is a cart item joined with its product for display.
type cartLine struct {
	domain.CartItem
	Product *domain.Product `json:"product,omitempty"`
	Total   float64         `json:"total"`
}

func registerCartRoutes() {
	webserver.ApiGET("/cart", listCart)
	webserver.ApiPOST("/cart", addCartItem)
	webserver.ApiPUT("/cart/:id", updateCartItem)
	webserver.ApiDELETE("/cart/:id", removeCartItem)
	webserver.ApiDELETE("/cart", clearCart)
}

func cartFilter(c echo.Context) (sync.Filter, sync.Identity, bool) {
	id, okID := currentIdentity(c)
	if !okID {
		return sync.Filter{}, id, false
	}
	f := sync.Where("user_id = ?", id.UserID)
	if cid := cast.ToInt64(c.QueryParam("client_id")); cid != 0 {
		f.Query += " AND client_id = ?"
		f.Args = append(f.Args, cid)
	}
	return f, id, true
}

func listCart(c echo.Context) error {
	f, _, okF := cartFilter(c)
	if !okF {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	var items []domain.CartItem
	stale, err := mgr.Read(ctx, &items, f.WithOrder("created_at ASC"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cart", err.Error())
	}

	lines := make([]cartLine, 0, len(items))
	var subtotal float64
	for _, item := range items {
		line := cartLine{CartItem: item}
		var p domain.Product
		if _, perr := mgr.First(ctx, &p, sync.Where("id = ?", item.ProductID)); perr == nil {
			line.Product = &p
			line.Total = p.Price * float64(item.Quantity)
			subtotal += line.Total
		}
		lines = append(lines, line)
	}
	return okStale(c, map[string]interface{}{
		"items":    lines,
		"subtotal": subtotal,
	}, stale)
}

func addCartItem(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	var payload cartItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item", err.Error())
	}
	if payload.ProductID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "product_id is required", nil)
	}
	if payload.Quantity <= 0 {
		payload.Quantity = 1
	}

	ctx := requestCtx(c)
	mgr := GetSync(c)

	var product domain.Product
	if _, err := mgr.First(ctx, &product, sync.Where("id = ?", payload.ProductID)); err != nil {
		return failForErr(c, err)
	}

	// adding the same product again merges quantities
	var existing domain.CartItem
	_, err := mgr.First(ctx, &existing,
		sync.Where("user_id = ? AND product_id = ? AND client_id = ?", id.UserID, payload.ProductID, payload.ClientID))
	if err == nil {
		existing.Quantity += payload.Quantity
		existing.UpdatedAt = time.Now()
		if werr := mgr.Write(ctx, &existing); werr != nil {
			return failForErr(c, werr)
		}
		return ok(c, existing)
	}

	now := time.Now()
	item := domain.CartItem{
		ID:        common.UUIDint64(),
		UserID:    id.UserID,
		ClientID:  payload.ClientID,
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if werr := mgr.Write(ctx, &item); werr != nil {
		return failForErr(c, werr)
	}
	return ok(c, item)
}

func fetchOwnedCartItem(c echo.Context) (*domain.CartItem, error) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, sync.Invalid("id", "invalid cart item id")
	}
	id, okID := currentIdentity(c)
	if !okID {
		return nil, sync.Invalid("identity", "sign in required")
	}
	var item domain.CartItem
	if _, err := GetSync(c).First(requestCtx(c), &item,
		sync.Where("id = ? AND user_id = ?", itemID, id.UserID)); err != nil {
		return nil, err
	}
	return &item, nil
}

func updateCartItem(c echo.Context) error {
	item, err := fetchOwnedCartItem(c)
	if err != nil {
		return failForErr(c, err)
	}
	var payload cartItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item", err.Error())
	}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	// quantity zero or below removes the line
	if payload.Quantity <= 0 {
		if derr := mgr.Delete(ctx, item); derr != nil {
			return failForErr(c, derr)
		}
		return ok(c, map[string]interface{}{"removed": true})
	}
	item.Quantity = payload.Quantity
	if payload.ClientID != 0 {
		item.ClientID = payload.ClientID
	}
	item.UpdatedAt = time.Now()
	if werr := mgr.Write(ctx, item); werr != nil {
		return failForErr(c, werr)
	}
	return ok(c, item)
}

func removeCartItem(c echo.Context) error {
	item, err := fetchOwnedCartItem(c)
	if err != nil {
		return failForErr(c, err)
	}
	if derr := GetSync(c).Delete(requestCtx(c), item); derr != nil {
		return failForErr(c, derr)
	}
	return ok(c, map[string]interface{}{"removed": true})
}

func clearCart(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	clientID := cast.ToInt64(c.QueryParam("client_id"))
	if err := GetSync(c).Clear(requestCtx(c), (domain.CartItem{}).TableName(), id.UserID, clientID); err != nil {
		return failForErr(c, err)
	}
	return ok(c, map[string]interface{}{"cleared": true})
}
