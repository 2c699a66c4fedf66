package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/audit"
	"github.com/lawravasco2207/phone-store-sub001/internal/cache"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/search"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
	"github.com/lawravasco2207/phone-store-sub001/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Cache    *cache.Cache
	ES       *elasticsearch.Client
	Audit    *audit.Logger
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p models.Product) {
	if err := search.IndexProduct(c.Request().Context(), h.ES, search.ProductIndex, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	cacheKey := "products:detail:" + c.Param("id")

	var product models.Product
	if h.Cache.GetJSON(ctx, cacheKey, &product) {
		return api.OK(c, http.StatusOK, product)
	}

	if err := h.DB.Preload("Categories").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "product not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.Cache.SetJSON(ctx, cacheKey, product)
	return api.OK(c, http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	category := c.QueryParam("category")

	offset, limit := util.Calculate(page, size)

	ctx := c.Request().Context()
	cacheKey := fmt.Sprintf("products:page:%d:%d:%s", page, limit, category)

	var cached map[string]any
	if h.Cache.GetJSON(ctx, cacheKey, &cached) {
		return api.OK(c, http.StatusOK, cached)
	}

	query := h.DB.Model(&models.Product{})
	if category != "" {
		query = query.
			Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories ON categories.id = pc.category_id").
			Where("categories.name = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	var items []models.Product
	if err := query.Order("products.id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	resp := map[string]any{
		"items": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}

	h.Cache.SetJSON(ctx, cacheKey, resp)
	return api.OK(c, http.StatusOK, resp)
}

func (h *ProductHandler) GetCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, categories)
}

// Price and Stock are pointers so a PATCH body that omits them leaves
// the stored values alone.
type productRequest struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *uint    `json:"stock"`
	Categories  []string `json:"categories"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}

	var price float64
	if req.Price != nil {
		price = *req.Price
	}
	if req.Name == "" || price < 0 {
		return api.Err(c, http.StatusBadRequest, "name is required and price must not be negative")
	}
	var stock uint
	if req.Stock != nil {
		stock = *req.Stock
	}

	prod := models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       stock,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return api.Err(c, http.StatusBadRequest, "could not create product")
	}
	if err := h.attachCategories(&prod, req.Categories); err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.Cache.InvalidateProducts(c.Request().Context())
	h.index(c, prod)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	if actorID, ok := token.UserID(c); ok {
		h.Audit.Record(c.Request().Context(), actorID, "product.create", "product", prod.ID, prod.Name)
	}

	return api.OK(c, http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "product not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	if req.Name != "" {
		prod.Name = req.Name
	}
	if req.Description != "" {
		prod.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return api.Err(c, http.StatusBadRequest, "price must not be negative")
		}
		prod.Price = *req.Price
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.SKU != "" {
		prod.SKU = req.SKU
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		return api.Err(c, http.StatusBadRequest, "could not update product")
	}
	if err := h.attachCategories(&prod, req.Categories); err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.Cache.InvalidateProducts(c.Request().Context())
	h.index(c, prod)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	if actorID, ok := token.UserID(c); ok {
		h.Audit.Record(c.Request().Context(), actorID, "product.update", "product", prod.ID, prod.Name)
	}

	return api.OK(c, http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.Cache.InvalidateProducts(c.Request().Context())
	if err := search.DeleteProduct(c.Request().Context(), h.ES, search.ProductIndex, uint(id)); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	if actorID, ok := token.UserID(c); ok {
		h.Audit.Record(c.Request().Context(), actorID, "product.delete", "product", uint(id), nil)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) attachCategories(prod *models.Product, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		var cat models.Category
		if err := h.DB.Where(models.Category{Name: name}).FirstOrCreate(&cat).Error; err != nil {
			return err
		}
		if err := h.DB.Model(prod).Association("Categories").Append(&cat); err != nil {
			return err
		}
	}
	return nil
}
