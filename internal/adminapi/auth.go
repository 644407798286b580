package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
	"github.com/equipview/equipview/pkg/common"
)

func registerAuthRoutes() {
	webserver.PubPOST("/auth/login", login)
	webserver.PubPOST("/auth/register", register)
	webserver.ApiGET("/auth/profile", profile)
	webserver.ApiPUT("/auth/profile", updateProfile)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login authenticates against the user profiles. Profiles replicate to
// the local store, so sign-in works offline too.
func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse credentials", nil)
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required", nil)
	}

	a := GetApp(c)
	ctx := sync.WithIdentity(c.Request().Context(), sync.SystemIdentity)

	var user domain.SysUser
	_, err := a.Sync().First(ctx, &user, sync.Where("email = ?", payload.Email))
	if err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	if user.Status != common.ENABLED {
		return fail(c, http.StatusUnauthorized, "ACCOUNT_DISABLED", "Account is disabled", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}

	user.LastLogin = time.Now()
	user.UpdatedAt = time.Now()
	if err := a.Sync().Write(ctx, &user); err != nil {
		// non-fatal, login proceeds
		c.Logger().Warnf("failed to record last login: %v", err)
	}

	claims := jwt.MapClaims{
		"uid":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.Config().Web.Secret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}

	return ok(c, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Realname string `json:"realname"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

// register creates a distributor account. The write lands in the local
// store first, so sign-up works offline and replicates on reconnect.
func register(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse registration", nil)
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || !strings.Contains(payload.Email, "@") {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "A valid email is required", nil)
	}
	if len(payload.Password) < 8 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 8 characters", nil)
	}

	a := GetApp(c)
	ctx := sync.WithIdentity(c.Request().Context(), sync.SystemIdentity)

	var existing domain.SysUser
	if _, err := a.Sync().First(ctx, &existing, sync.Where("email = ?", payload.Email)); err == nil {
		return fail(c, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
	}

	now := time.Now()
	user := domain.SysUser{
		ID:        common.UUIDint64(),
		Email:     payload.Email,
		Password:  string(hashed),
		Realname:  payload.Realname,
		Company:   payload.Company,
		Phone:     payload.Phone,
		Role:      domain.UserRoleDistributor,
		Status:    common.ENABLED,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Sync().Write(ctx, &user); err != nil {
		return failForErr(c, err)
	}

	claims := jwt.MapClaims{
		"uid":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.Config().Web.Secret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}

	return ok(c, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

func profile(c echo.Context) error {
	id, ok2 := currentIdentity(c)
	if !ok2 {
		return fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", nil)
	}
	var user domain.SysUser
	stale, err := GetSync(c).First(requestCtx(c), &user, sync.Where("id = ?", id.UserID))
	if err != nil {
		return failForErr(c, err)
	}
	return okStale(c, user, stale)
}

type profilePayload struct {
	Realname string `json:"realname"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func updateProfile(c echo.Context) error {
	id, ok2 := currentIdentity(c)
	if !ok2 {
		return fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", nil)
	}
	var payload profilePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse profile", nil)
	}

	ctx := requestCtx(c)
	var user domain.SysUser
	if _, err := GetSync(c).First(ctx, &user, sync.Where("id = ?", id.UserID)); err != nil {
		return failForErr(c, err)
	}

	if payload.Realname != "" {
		user.Realname = payload.Realname
	}
	if payload.Company != "" {
		user.Company = payload.Company
	}
	if payload.Phone != "" {
		user.Phone = payload.Phone
	}
	if payload.Password != "" {
		if len(payload.Password) < 8 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 8 characters", nil)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
		}
		user.Password = string(hashed)
	}
	user.UpdatedAt = time.Now()

	if err := GetSync(c).Write(ctx, &user); err != nil {
		return failForErr(c, err)
	}
	return ok(c, user)
}
