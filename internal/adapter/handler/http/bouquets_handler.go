package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/provider"
)

// BouquetsHandler serves the cached upstream catalog
type BouquetsHandler struct {
	logger *zap.Logger
	panel  provider.SubscriberProvider
}

func NewBouquetsHandler(logger *zap.Logger, panel provider.SubscriberProvider) *BouquetsHandler {
	return &BouquetsHandler{
		logger: logger,
		panel:  panel,
	}
}

func (h *BouquetsHandler) List(c echo.Context) error {
	bouquets, err := h.panel.ListCatalog(c.Request().Context())
	if err != nil {
		h.logger.Warn("Bouquet catalog fetch failed", zap.Error(err))
		return errorJSON(c, apperrors.CodeUpstreamFailure, "Promax unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"bouquets": bouquets,
	})
}
