package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/audit"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type SupportHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Audit    *audit.Logger
}

func (h *SupportHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicSupportEvents, fmt.Sprint(event["ticketID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *SupportHandler) CreateTicket(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}
	if req.Subject == "" || req.Body == "" {
		return api.Err(c, http.StatusBadRequest, "subject and body are required")
	}

	ticket := models.SupportTicket{
		Reference: uuid.NewString(),
		UserID:    userID,
		Subject:   req.Subject,
		Status:    models.TicketStatusOpen,
		CreatedAt: time.Now().Unix(),
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		msg := models.SupportMessage{
			TicketID:  ticket.ID,
			UserID:    userID,
			Body:      req.Body,
			CreatedAt: time.Now().Unix(),
		}
		return tx.Create(&msg).Error
	})
	if txErr != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.publish(c, map[string]any{
		"type":     "ticket_created",
		"ticketID": ticket.ID,
		"userID":   userID,
	})

	return api.OK(c, http.StatusCreated, ticket)
}

func (h *SupportHandler) ListMyTickets(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var tickets []models.SupportTicket
	if err := h.DB.Where("user_id = ?", userID).Order("id DESC").Find(&tickets).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, tickets)
}

func (h *SupportHandler) GetTicket(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	ticket, httpErr := h.loadTicket(c, userID)
	if httpErr != nil {
		return api.Err(c, httpErr.Code, fmt.Sprint(httpErr.Message))
	}

	var messages []models.SupportMessage
	if err := h.DB.Where("ticket_id = ?", ticket.ID).Order("id ASC").Find(&messages).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	return api.OK(c, http.StatusOK, echo.Map{"ticket": ticket, "messages": messages})
}

func (h *SupportHandler) AddMessage(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	ticket, httpErr := h.loadTicket(c, userID)
	if httpErr != nil {
		return api.Err(c, httpErr.Code, fmt.Sprint(httpErr.Message))
	}
	if ticket.Status == models.TicketStatusClosed {
		return api.Err(c, http.StatusConflict, "ticket is closed")
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&req); err != nil || req.Body == "" {
		return api.Err(c, http.StatusBadRequest, "body is required")
	}

	msg := models.SupportMessage{
		TicketID:  ticket.ID,
		UserID:    userID,
		Body:      req.Body,
		CreatedAt: time.Now().Unix(),
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.publish(c, map[string]any{
		"type":     "ticket_message_added",
		"ticketID": ticket.ID,
		"userID":   userID,
	})

	return api.OK(c, http.StatusCreated, msg)
}

// loadTicket fetches the ticket and enforces ownership; admins may read
// any ticket. Non-owners get a 404 rather than a 403.
func (h *SupportHandler) loadTicket(c echo.Context, userID uint) (models.SupportTicket, *echo.HTTPError) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return models.SupportTicket{}, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var ticket models.SupportTicket
	if err := h.DB.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SupportTicket{}, echo.NewHTTPError(http.StatusNotFound, "ticket not found")
		}
		return models.SupportTicket{}, echo.NewHTTPError(http.StatusInternalServerError, "database error")
	}

	if ticket.UserID != userID && token.Role(c) != "admin" {
		return models.SupportTicket{}, echo.NewHTTPError(http.StatusNotFound, "ticket not found")
	}
	return ticket, nil
}

func (h *SupportHandler) ListAllTickets(c echo.Context) error {
	var tickets []models.SupportTicket
	query := h.DB.Order("id DESC")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&tickets).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, tickets)
}

func (h *SupportHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}
	switch req.Status {
	case models.TicketStatusOpen, models.TicketStatusPending, models.TicketStatusClosed:
	default:
		return api.Err(c, http.StatusBadRequest, "invalid status")
	}

	var ticket models.SupportTicket
	if err := h.DB.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "ticket not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	ticket.Status = req.Status
	if err := h.DB.Save(&ticket).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	if actorID, ok := token.UserID(c); ok {
		h.Audit.Record(c.Request().Context(), actorID, "support.status", "ticket", ticket.ID, req.Status)
	}
	h.publish(c, map[string]any{
		"type":     "ticket_status_changed",
		"ticketID": ticket.ID,
		"status":   req.Status,
	})

	return api.OK(c, http.StatusOK, ticket)
}
