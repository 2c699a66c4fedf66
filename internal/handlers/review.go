package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *ReviewHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var reviews []models.Review
	if err := h.DB.Where("product_id = ?", productID).Order("id DESC").Find(&reviews).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return api.Err(c, http.StatusBadRequest, "rating must be between 1 and 5")
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "product not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	var existing models.Review
	result := h.DB.Where("product_id = ? AND user_id = ?", productID, userID).First(&existing)
	if result.Error == nil {
		return api.Err(c, http.StatusConflict, "you already reviewed this product")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	review := models.Review{
		ProductID: uint(productID),
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().Unix(),
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.publish(c, map[string]any{
		"type":      "review_created",
		"productID": productID,
		"userID":    userID,
		"rating":    req.Rating,
	})

	return api.OK(c, http.StatusCreated, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	reviewID, err := strconv.Atoi(c.Param("reviewID"))
	if err != nil || reviewID <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var review models.Review
	if err := h.DB.Where("id = ? AND user_id = ?", reviewID, userID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "review not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return c.NoContent(http.StatusNoContent)
}
