package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
	"github.com/equipview/equipview/pkg/common"
)

type clientPayload struct {
	Company       string `json:"company"`
	ContactName   string `json:"contact_name"`
	ContactEmail  string `json:"contact_email"`
	ContactNumber string `json:"contact_number"`
}

func registerClientRoutes() {
	webserver.ApiGET("/clients", listClients)
	webserver.ApiGET("/clients/:id", getClient)
	webserver.ApiPOST("/clients", createClient)
	webserver.ApiPUT("/clients/:id", updateClient)
	webserver.ApiDELETE("/clients/:id", deleteClient)
}

// ownerFilter scopes a query to the caller unless the caller is an
// admin, who may see everything.
func ownerFilter(c echo.Context) (sync.Filter, bool) {
	id, okID := currentIdentity(c)
	if !okID {
		return sync.Filter{}, false
	}
	if id.Admin() {
		return sync.Filter{}, true
	}
	return sync.Where("user_id = ?", id.UserID), true
}

func listClients(c echo.Context) error {
	f, okF := ownerFilter(c)
	if !okF {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	page, pageSize := parsePagination(c)
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		extra := "(LOWER(company) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(contact_email) LIKE ?)"
		if f.Query != "" {
			f.Query += " AND " + extra
		} else {
			f.Query = extra
		}
		f.Args = append(f.Args, like, like, like)
	}

	ctx := requestCtx(c)
	mgr := GetSync(c)
	total, err := mgr.Count(ctx, &domain.Client{}, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query clients", err.Error())
	}
	var rows []domain.Client
	stale, err := mgr.Read(ctx, &rows, f.WithOrder("company ASC").WithPage(page, pageSize))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query clients", err.Error())
	}
	return paged(c, rows, total, page, pageSize, stale)
}

func fetchOwnedClient(c echo.Context) (*domain.Client, bool, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, false, sync.Invalid("id", "invalid client id")
	}
	f, okF := ownerFilter(c)
	if !okF {
		return nil, false, sync.Invalid("identity", "sign in required")
	}
	if f.Query != "" {
		f.Query += " AND id = ?"
	} else {
		f.Query = "id = ?"
	}
	f.Args = append(f.Args, id)

	var client domain.Client
	stale, err := GetSync(c).First(requestCtx(c), &client, f)
	if err != nil {
		return nil, stale, err
	}
	return &client, stale, nil
}

func getClient(c echo.Context) error {
	client, stale, err := fetchOwnedClient(c)
	if err != nil {
		return failForErr(c, err)
	}
	return okStale(c, client, stale)
}

func createClient(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	var payload clientPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse client", err.Error())
	}
	if strings.TrimSpace(payload.Company) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Company name is required", nil)
	}

	now := time.Now()
	client := domain.Client{
		ID:            common.UUIDint64(),
		UserID:        id.UserID,
		Company:       strings.TrimSpace(payload.Company),
		ContactName:   payload.ContactName,
		ContactEmail:  strings.ToLower(strings.TrimSpace(payload.ContactEmail)),
		ContactNumber: payload.ContactNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := GetSync(c).Write(requestCtx(c), &client); err != nil {
		return failForErr(c, err)
	}
	return ok(c, client)
}

func updateClient(c echo.Context) error {
	client, _, err := fetchOwnedClient(c)
	if err != nil {
		return failForErr(c, err)
	}
	var payload clientPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse client", err.Error())
	}
	if strings.TrimSpace(payload.Company) != "" {
		client.Company = strings.TrimSpace(payload.Company)
	}
	client.ContactName = payload.ContactName
	client.ContactEmail = strings.ToLower(strings.TrimSpace(payload.ContactEmail))
	client.ContactNumber = payload.ContactNumber
	client.UpdatedAt = time.Now()

	if err := GetSync(c).Write(requestCtx(c), client); err != nil {
		return failForErr(c, err)
	}
	return ok(c, client)
}

func deleteClient(c echo.Context) error {
	client, _, err := fetchOwnedClient(c)
	if err != nil {
		return failForErr(c, err)
	}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	// refuse to orphan quotes
	count, err := mgr.Count(ctx, &domain.Quote{}, sync.Where("client_id = ?", client.ID))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check quotes", err.Error())
	}
	if count > 0 {
		return fail(c, http.StatusConflict, "CLIENT_IN_USE", "Client has quotes and cannot be deleted", nil)
	}

	if err := mgr.Delete(ctx, client); err != nil {
		return failForErr(c, err)
	}
	return ok(c, map[string]interface{}{"deleted": true})
}
