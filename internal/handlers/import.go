package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/audit"
	"github.com/lawravasco2207/phone-store-sub001/internal/cache"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/ingest"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type ImportHandler struct {
	Ingest *ingest.Service
	Cache  *cache.Cache
	Audit  *audit.Logger
}

// ImportProducts accepts a multipart "file" field holding the CSV.
func (h *ImportHandler) ImportProducts(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return api.Err(c, http.StatusBadRequest, "missing file field")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return api.Err(c, http.StatusBadRequest, "cannot open upload")
	}
	defer f.Close()

	res, err := h.Ingest.ImportCSV(c.Request().Context(), f)
	if err != nil {
		return api.Err(c, http.StatusInternalServerError, "import failed")
	}

	h.Cache.InvalidateProducts(c.Request().Context())
	if actorID, ok := token.UserID(c); ok {
		h.Audit.Record(c.Request().Context(), actorID, "product.import", "import", 0, res)
	}

	return api.OK(c, http.StatusOK, res)
}
