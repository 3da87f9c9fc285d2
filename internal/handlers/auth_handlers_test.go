package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Joris1Jansen/BulkyBook/internal/hash"
	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"github.com/Joris1Jansen/BulkyBook/internal/mykafka"
)

func newAuthTestHandler(t *testing.T) (*echo.Echo, *AuthHandler, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	h := &AuthHandler{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Producer:      &mykafka.Producer{},
	}
	return echo.New(), h, db
}

func postJSON(t *testing.T, e *echo.Echo, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestRegister(t *testing.T) {
	e, h, db := newAuthTestHandler(t)

	rec, c := postJSON(t, e, "/api/v1/register", map[string]string{
		"username": "reader",
		"password": "secret123",
		"name":     "Reader One",
	})
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, db.Where("username = ?", "reader").First(&user).Error)
	require.Equal(t, models.RoleUser, user.Role)
	require.NotEqual(t, "secret123", user.PasswordHash)
	require.True(t, hash.CheckPassword(user.PasswordHash, "secret123"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e, h, _ := newAuthTestHandler(t)

	body := map[string]string{"username": "reader", "password": "secret123"}

	_, c := postJSON(t, e, "/api/v1/register", body)
	require.NoError(t, h.Register(c))

	_, c = postJSON(t, e, "/api/v1/register", body)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	e, h, _ := newAuthTestHandler(t)

	_, c := postJSON(t, e, "/api/v1/register", map[string]string{"username": "reader"})
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLoginSetsCookiesAndTokens(t *testing.T) {
	e, h, db := newAuthTestHandler(t)

	passwordHash, err := hash.HashPassword("secret123")
	require.NoError(t, err)
	db.Create(&models.User{Username: "reader", PasswordHash: passwordHash, Role: models.RoleUser})

	rec, c := postJSON(t, e, "/api/v1/login", map[string]string{
		"username": "reader",
		"password": "secret123",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IsAdmin      bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.False(t, resp.IsAdmin)

	cookies := rec.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, ck := range cookies {
		names[ck.Name] = true
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.False(t, stored.Revoked)
}

func TestLoginWrongPassword(t *testing.T) {
	e, h, db := newAuthTestHandler(t)

	passwordHash, err := hash.HashPassword("secret123")
	require.NoError(t, err)
	db.Create(&models.User{Username: "reader", PasswordHash: passwordHash, Role: models.RoleUser})

	_, c := postJSON(t, e, "/api/v1/login", map[string]string{
		"username": "reader",
		"password": "wrong",
	})
	err = h.Login(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogOutRevokesRefreshToken(t *testing.T) {
	e, h, db := newAuthTestHandler(t)

	passwordHash, err := hash.HashPassword("secret123")
	require.NoError(t, err)
	db.Create(&models.User{Username: "reader", PasswordHash: passwordHash, Role: models.RoleUser})

	loginRec, loginCtx := postJSON(t, e, "/api/v1/login", map[string]string{
		"username": "reader",
		"password": "secret123",
	})
	require.NoError(t, h.Login(loginCtx))

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: resp.RefreshToken})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}
