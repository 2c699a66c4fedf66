package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/chatbot"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type ChatHandler struct {
	Bot *chatbot.Service
}

func (h *ChatHandler) Ask(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return api.Err(c, http.StatusBadRequest, "message is required")
	}

	reply, err := h.Bot.Ask(c.Request().Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, chatbot.ErrDisabled) {
			return api.Err(c, http.StatusServiceUnavailable, "assistant is not available")
		}
		c.Logger().Errorf("chatbot error: %v", err)
		return api.Err(c, http.StatusBadGateway, "assistant request failed")
	}

	return api.OK(c, http.StatusOK, reply)
}

func (h *ChatHandler) History(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	limit := parseIntDefault(c.QueryParam("limit"), 50)
	msgs, err := h.Bot.Messages(c.Request().Context(), userID, limit)
	if err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, msgs)
}
