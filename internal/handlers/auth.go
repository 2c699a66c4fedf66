package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/hash"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *events.Producer
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any, key string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || len(req.Password) < 8 {
		return api.Err(c, http.StatusBadRequest, "username and a password of at least 8 characters are required")
	}

	var existing models.User
	result := h.DB.Where("username = ?", req.Username).First(&existing)
	if result.Error == nil {
		return api.Err(c, http.StatusConflict, "user already exists")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return api.Err(c, http.StatusInternalServerError, "could not hash password")
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	}, fmt.Sprint(user.ID))

	return api.OK(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return api.Err(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return api.Err(c, http.StatusUnauthorized, "invalid credentials")
	}

	accessToken, err := token.SignAccessToken(user.ID, user.Role, h.Tokens.JWTSecret)
	if err != nil {
		return api.Err(c, http.StatusInternalServerError, "could not create access token")
	}
	refreshToken, err := token.SignRefreshToken(user.ID, user.Role, h.Tokens.RefreshSecret)
	if err != nil {
		return api.Err(c, http.StatusInternalServerError, "could not create refresh token")
	}
	if err := token.SaveRefreshToken(h.DB, refreshToken, user.ID, user.Role); err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	}, fmt.Sprint(user.ID))

	return api.OK(c, http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"is_admin":      user.Role == "admin",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	rfCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return api.Err(c, http.StatusUnauthorized, "refresh token missing")
	}

	newAccess, newRefresh, _, err := h.Tokens.RotateToken(rfCookie.Value)
	if err != nil {
		return api.Err(c, http.StatusUnauthorized, "cannot rotate token")
	}

	c.SetCookie(token.CreateCookie("accessToken", newAccess, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(token.RefreshTTL)))

	return api.OK(c, http.StatusOK, echo.Map{
		"access_token":  newAccess,
		"refresh_token": newRefresh,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return api.Err(c, http.StatusBadRequest, "refresh token missing")
	}

	if err := h.Tokens.RevokeRefresh(refreshCookie.Value); err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	return api.OK(c, http.StatusOK, echo.Map{"message": "logged out"})
}
