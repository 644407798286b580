package adminapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
)

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestParsePaginationDefaults(t *testing.T) {
	c, _ := newTestContext(t, "/")
	page, pageSize := parsePagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, pageSize)
}

func TestParsePaginationBounds(t *testing.T) {
	c, _ := newTestContext(t, "/?page=3&perPage=50")
	page, pageSize := parsePagination(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, pageSize)

	// pageSize alias and upper bound
	c, _ = newTestContext(t, "/?page=0&pageSize=9999")
	page, pageSize = parsePagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, pageSize)
}

func TestFailForErrStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{sync.ErrNotFound, http.StatusNotFound},
		{sync.Invalid("owner", "record belongs to another user"), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newTestContext(t, "/")
		require.NoError(t, failForErr(c, tc.err))
		assert.Equal(t, tc.status, rec.Code, "for error %v", tc.err)
	}
}

func TestCurrentIdentityFromToken(t *testing.T) {
	c, _ := newTestContext(t, "/")
	c.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  int64(42),
		"role": domain.UserRoleSales,
	}))

	id, ok := currentIdentity(c)
	require.True(t, ok)
	assert.EqualValues(t, 42, id.UserID)
	assert.Equal(t, domain.UserRoleSales, id.Role)
	assert.False(t, id.Admin())
}

func TestCurrentIdentityMissingToken(t *testing.T) {
	c, _ := newTestContext(t, "/")
	_, ok := currentIdentity(c)
	assert.False(t, ok)

	// the sync layer must reject a context without identity
	ctx := requestCtx(c)
	_, hasID := sync.IdentityFrom(ctx)
	assert.False(t, hasID)
}
