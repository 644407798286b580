package adminapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipview/equipview/internal/domain"
)

func TestRegisterCreatesPendingAccount(t *testing.T) {
	a := newHandlerApp(t)

	c, rec := newHandlerContext(t, a, http.MethodPost, "/auth/register",
		`{"email":"New.Dealer@Example.COM","password":"s3cret-enough","realname":"New Dealer","company":"Dealer Co"}`,
		0, "")
	require.NoError(t, register(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "token")

	var user domain.SysUser
	require.NoError(t, a.LocalDB().First(&user, "email = ?", "new.dealer@example.com").Error)
	assert.Equal(t, domain.UserRoleDistributor, user.Role)
	assert.NotEqual(t, "s3cret-enough", user.Password, "password must be stored hashed")

	// the link is down, so the account waits in the sync queue
	pending, err := a.Sync().PendingCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	a := newHandlerApp(t)

	c, rec := newHandlerContext(t, a, http.MethodPost, "/auth/register",
		`{"email":"dealer@example.com","password":"s3cret-enough"}`, 0, "")
	require.NoError(t, register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newHandlerContext(t, a, http.MethodPost, "/auth/register",
		`{"email":"dealer@example.com","password":"another-secret"}`, 0, "")
	require.NoError(t, register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_TAKEN")
}

func TestRegisterValidatesInput(t *testing.T) {
	a := newHandlerApp(t)

	c, rec := newHandlerContext(t, a, http.MethodPost, "/auth/register",
		`{"email":"not-an-email","password":"s3cret-enough"}`, 0, "")
	require.NoError(t, register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newHandlerContext(t, a, http.MethodPost, "/auth/register",
		`{"email":"dealer@example.com","password":"short"}`, 0, "")
	require.NoError(t, register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
