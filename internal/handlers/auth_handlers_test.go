package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lawravasco2207/phone-store-sub001/internal/hash"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	db := initTestDB(t)
	return &AuthHandler{
		DB: db,
		Tokens: &token.TokenService{
			DB:            db,
			JWTSecret:     []byte("test_jwt_secret"),
			RefreshSecret: []byte("test_refresh_secret"),
		},
	}
}

func TestRegister(t *testing.T) {
	h := newAuthHandler(t)

	payload := map[string]string{"username": "test_user", "password": "password123"}
	rec, c := newContext(t, http.MethodPost, "/api/v1/register", payload)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	env := decodeEnvelope(t, rec, &user)
	require.True(t, env.Success)
	require.Equal(t, "test_user", user.Username)
	require.Equal(t, "user", user.Role)
	require.NotEmpty(t, user.ID)

	var stored models.User
	require.NoError(t, h.DB.First(&stored, user.ID).Error)
	require.NotEqual(t, "password123", stored.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	h := newAuthHandler(t)

	payload := map[string]string{"username": "test_user", "password": "password123"}
	rec, c := newContext(t, http.MethodPost, "/api/v1/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, c2 := newContext(t, http.MethodPost, "/api/v1/register", payload)
	require.NoError(t, h.Register(c2))
	requireError(t, rec2, http.StatusConflict)
}

func TestRegisterShortPassword(t *testing.T) {
	h := newAuthHandler(t)

	payload := map[string]string{"username": "test_user", "password": "short"}
	rec, c := newContext(t, http.MethodPost, "/api/v1/register", payload)
	require.NoError(t, h.Register(c))
	requireError(t, rec, http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)

	passwordHash, err := hash.HashPassword("password123")
	require.NoError(t, err)
	require.NoError(t, h.DB.Create(&models.User{
		Username:     "test_user",
		PasswordHash: passwordHash,
		Role:         "user",
	}).Error)

	payload := map[string]string{"username": "test_user", "password": "password123"}
	rec, c := newContext(t, http.MethodPost, "/api/v1/login", payload)

	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]interface{}
	env := decodeEnvelope(t, rec, &data)
	require.True(t, env.Success)
	require.NotEmpty(t, data["access_token"])
	require.NotEmpty(t, data["refresh_token"])
	require.Equal(t, false, data["is_admin"])

	var stored models.RefreshToken
	require.NoError(t, h.DB.Where("token = ?", data["refresh_token"]).First(&stored).Error)
	require.False(t, stored.Revoked)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newAuthHandler(t)

	passwordHash, _ := hash.HashPassword("password123")
	require.NoError(t, h.DB.Create(&models.User{
		Username:     "test_user",
		PasswordHash: passwordHash,
		Role:         "user",
	}).Error)

	payload := map[string]string{"username": "test_user", "password": "wrong_password"}
	rec, c := newContext(t, http.MethodPost, "/api/v1/login", payload)

	require.NoError(t, h.Login(c))
	requireError(t, rec, http.StatusUnauthorized)
}

func TestLogOut(t *testing.T) {
	h := newAuthHandler(t)

	refreshToken, err := token.SignRefreshToken(1, "user", h.Tokens.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, token.SaveRefreshToken(h.DB, refreshToken, 1, "user"))

	rec, c := newContext(t, http.MethodPost, "/api/v1/logout", nil)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})

	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, h.DB.Where("token = ?", refreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newAuthHandler(t)

	refreshToken, err := token.SignRefreshToken(7, "user", h.Tokens.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, token.SaveRefreshToken(h.DB, refreshToken, 7, "user"))

	rec, c := newContext(t, http.MethodPost, "/api/v1/refresh", nil)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})

	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]string
	decodeEnvelope(t, rec, &data)
	require.NotEmpty(t, data["access_token"])
	require.NotEmpty(t, data["refresh_token"])
	require.NotEqual(t, refreshToken, data["refresh_token"])

	// The old token is revoked and cannot be replayed.
	var old models.RefreshToken
	require.NoError(t, h.DB.Where("token = ?", refreshToken).First(&old).Error)
	require.True(t, old.Revoked)

	rec2, c2 := newContext(t, http.MethodPost, "/api/v1/refresh", nil)
	c2.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
	require.NoError(t, h.Refresh(c2))
	requireError(t, rec2, http.StatusUnauthorized)
}
