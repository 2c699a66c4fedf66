package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/search"
	"github.com/lawravasco2207/phone-store-sub001/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	DB    *gorm.DB
	Index string
}

func NewSearchHandler(es *elasticsearch.Client, db *gorm.DB, index string) *SearchHandler {
	return &SearchHandler{ES: es, DB: db, Index: index}
}

func (h *SearchHandler) Handler(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return api.Err(c, http.StatusBadRequest, "missing query")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	ctx := c.Request().Context()

	if h.ES != nil {
		total, products, err := search.Search(ctx, h.ES, h.Index, q, from, size)
		if err != nil {
			return api.Err(c, http.StatusInternalServerError, "search failed")
		}
		return api.OK(c, http.StatusOK, echo.Map{"total": total, "products": products})
	}

	// No ES configured: fall back to a case-insensitive pattern match
	// on the catalog. LOWER on both sides keeps postgres and sqlite in
	// agreement.
	pattern := "%" + q + "%"
	var total int64
	query := h.DB.Model(&models.Product{}).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	if err := query.Count(&total).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "search failed")
	}

	var products []models.Product
	if err := query.Order("id ASC").Offset(from).Limit(size).Find(&products).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "search failed")
	}
	return api.OK(c, http.StatusOK, echo.Map{"total": total, "products": products})
}
