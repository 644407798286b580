package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
	"github.com/equipview/equipview/pkg/common"
)

type productPayload struct {
	Sku         string  `json:"sku"`
	ProductType string  `json:"product_type"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Price       float64 `json:"price"`

	Capacity               string `json:"capacity"`
	Doors                  string `json:"doors"`
	Amperage               string `json:"amperage"`
	Dimensions             string `json:"dimensions"`
	DimensionsMetric       string `json:"dimensions_metric"`
	Weight                 string `json:"weight"`
	WeightMetric           string `json:"weight_metric"`
	TemperatureRange       string `json:"temperature_range"`
	TemperatureRangeMetric string `json:"temperature_range_metric"`
	Voltage                string `json:"voltage"`
	Phase                  string `json:"phase"`
	Frequency              string `json:"frequency"`
	PlugType               string `json:"plug_type"`
	Refrigerant            string `json:"refrigerant"`
	Compressor             string `json:"compressor"`
	Shelves                string `json:"shelves"`
	Features               string `json:"features"`
	Certifications         string `json:"certifications"`
}

// registerProductRoutes registers catalog endpoints. Reads are open to
// every signed-in user; writes are admin only (enforced by the sync
// layer for unowned records).
func registerProductRoutes() {
	webserver.ApiGET("/catalog/products", listProducts)
	webserver.ApiGET("/catalog/products/:id", getProduct)
	webserver.ApiGET("/catalog/categories", listCategories)
	webserver.ApiPOST("/catalog/products", createProduct)
	webserver.ApiPUT("/catalog/products/:id", updateProduct)
	webserver.ApiGET("/catalog/products-export", exportProductsCSV)
	webserver.ApiPOST("/catalog/products-import", importProductsCSV)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))
	subcategory := strings.TrimSpace(c.QueryParam("subcategory"))

	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"sku":        "sku",
		"price":      "price",
		"category":   "category",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol || sortCol == "" {
		sortCol = "sku"
	}

	var conds []string
	var args []interface{}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		conds = append(conds, "(LOWER(sku) LIKE ? OR LOWER(description) LIKE ? OR LOWER(product_type) LIKE ?)")
		args = append(args, like, like, like)

		// searches are remembered per user for quick recall
		recordSearch(c, q)
	}
	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	if subcategory != "" {
		conds = append(conds, "subcategory = ?")
		args = append(args, subcategory)
	}

	f := sync.Filter{Query: strings.Join(conds, " AND "), Args: args}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	total, err := mgr.Count(ctx, &domain.Product{}, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	stale, err := mgr.Read(ctx, &rows, f.WithOrder(sortCol+" "+order).WithPage(page, pageSize))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize, stale)
}

func recordSearch(c echo.Context, term string) {
	id, okID := currentIdentity(c)
	if !okID {
		return
	}
	now := time.Now()
	entry := &domain.SearchHistory{
		ID:         common.UUIDint64(),
		UserID:     id.UserID,
		SearchTerm: term,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := GetSync(c).Write(requestCtx(c), entry); err != nil {
		c.Logger().Warnf("failed to record search: %v", err)
	}
}

func getProduct(c echo.Context) error {
	// the catalog is addressed by SKU or numeric id
	param := c.Param("id")
	f := sync.Where("sku = ?", param)
	if id, err := parseIDParam(c, "id"); err == nil {
		f = sync.Where("id = ? OR sku = ?", id, param)
	}
	var p domain.Product
	stale, err := GetSync(c).First(requestCtx(c), &p, f)
	if err != nil {
		return failForErr(c, err)
	}
	return okStale(c, p, stale)
}

type categoryInfo struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
	Count         int      `json:"count"`
}

func listCategories(c echo.Context) error {
	var rows []domain.Product
	stale, err := GetSync(c).Read(requestCtx(c), &rows, sync.Filter{Order: "category ASC, subcategory ASC"})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}

	byName := map[string]*categoryInfo{}
	var ordered []*categoryInfo
	for _, p := range rows {
		if p.Category == "" {
			continue
		}
		info, exists := byName[p.Category]
		if !exists {
			info = &categoryInfo{Name: p.Category}
			byName[p.Category] = info
			ordered = append(ordered, info)
		}
		info.Count++
		if p.Subcategory != "" && !containsStr(info.Subcategories, p.Subcategory) {
			info.Subcategories = append(info.Subcategories, p.Subcategory)
		}
	}
	return okStale(c, ordered, stale)
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func productFromPayload(p *domain.Product, payload productPayload) {
	p.Sku = strings.TrimSpace(payload.Sku)
	p.ProductType = payload.ProductType
	p.Description = payload.Description
	p.Category = payload.Category
	p.Subcategory = payload.Subcategory
	p.Price = payload.Price
	p.Capacity = payload.Capacity
	p.Doors = payload.Doors
	p.Amperage = payload.Amperage
	p.Dimensions = payload.Dimensions
	p.DimensionsMetric = payload.DimensionsMetric
	p.Weight = payload.Weight
	p.WeightMetric = payload.WeightMetric
	p.TemperatureRange = payload.TemperatureRange
	p.TemperatureRangeMetric = payload.TemperatureRangeMetric
	p.Voltage = payload.Voltage
	p.Phase = payload.Phase
	p.Frequency = payload.Frequency
	p.PlugType = payload.PlugType
	p.Refrigerant = payload.Refrigerant
	p.Compressor = payload.Compressor
	p.Shelves = payload.Shelves
	p.Features = payload.Features
	p.Certifications = payload.Certifications
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if strings.TrimSpace(payload.Sku) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "SKU is required", nil)
	}

	ctx := requestCtx(c)
	mgr := GetSync(c)

	var dup domain.Product
	if _, err := mgr.First(ctx, &dup, sync.Where("sku = ?", strings.TrimSpace(payload.Sku))); err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_SKU", "Product with this SKU already exists", nil)
	}

	now := time.Now()
	p := domain.Product{ID: common.UUIDint64(), CreatedAt: now, UpdatedAt: now}
	productFromPayload(&p, payload)

	if err := mgr.Write(ctx, &p); err != nil {
		return failForErr(c, err)
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	var p domain.Product
	if _, err := mgr.First(ctx, &p, sync.Where("id = ?", id)); err != nil {
		return failForErr(c, err)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if strings.TrimSpace(payload.Sku) == "" {
		payload.Sku = p.Sku
	}
	productFromPayload(&p, payload)
	p.UpdatedAt = time.Now()

	if err := mgr.Write(ctx, &p); err != nil {
		return failForErr(c, err)
	}
	return ok(c, p)
}

// productCSV is the import/export row format; timestamps are free-form
// on import and parsed leniently.
type productCSV struct {
	Sku         string  `csv:"sku"`
	ProductType string  `csv:"product_type"`
	Description string  `csv:"description"`
	Category    string  `csv:"category"`
	Subcategory string  `csv:"subcategory"`
	Price       float64 `csv:"price"`
	Voltage     string  `csv:"voltage"`
	Refrigerant string  `csv:"refrigerant"`
	Shelves     string  `csv:"shelves"`
	Features    string  `csv:"features"`
	UpdatedAt   string  `csv:"updated_at"`
}

func exportProductsCSV(c echo.Context) error {
	var rows []domain.Product
	if _, err := GetSync(c).Read(requestCtx(c), &rows, sync.Filter{Order: "sku ASC"}); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	out := make([]productCSV, 0, len(rows))
	for _, p := range rows {
		out = append(out, productCSV{
			Sku:         p.Sku,
			ProductType: p.ProductType,
			Description: p.Description,
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Price:       p.Price,
			Voltage:     p.Voltage,
			Refrigerant: p.Refrigerant,
			Shelves:     p.Shelves,
			Features:    p.Features,
			UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
		})
	}
	data, err := gocsv.MarshalString(&out)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build CSV", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(data))
}

func importProductsCSV(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "CSV file is required", nil)
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to open upload", err.Error())
	}
	defer src.Close()

	var rows []productCSV
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_CSV", "Unable to parse CSV", err.Error())
	}

	ctx := requestCtx(c)
	mgr := GetSync(c)

	imported, updated := 0, 0
	var errs []string
	for i, row := range rows {
		sku := strings.TrimSpace(row.Sku)
		if sku == "" {
			errs = append(errs, fmt.Sprintf("row %d: missing sku", i+1))
			continue
		}
		var p domain.Product
		_, lookupErr := mgr.First(ctx, &p, sync.Where("sku = ?", sku))
		fresh := lookupErr != nil
		if fresh {
			p = domain.Product{ID: common.UUIDint64(), Sku: sku, CreatedAt: time.Now()}
		}
		p.ProductType = row.ProductType
		p.Description = row.Description
		p.Category = row.Category
		p.Subcategory = row.Subcategory
		p.Price = row.Price
		p.Voltage = row.Voltage
		p.Refrigerant = row.Refrigerant
		p.Shelves = row.Shelves
		p.Features = row.Features
		p.UpdatedAt = time.Now()
		if row.UpdatedAt != "" {
			if ts, perr := dateparse.ParseAny(row.UpdatedAt); perr == nil {
				p.UpdatedAt = ts
			}
		}
		if err := mgr.Write(ctx, &p); err != nil {
			errs = append(errs, fmt.Sprintf("row %d (%s): %v", i+1, sku, err))
			continue
		}
		if fresh {
			imported++
		} else {
			updated++
		}
	}

	return ok(c, map[string]interface{}{
		"imported": imported,
		"updated":  updated,
		"errors":   errs,
	})
}
