package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/provider"
	"github.com/jsiptv/mobipay/internal/usecase"
)

// LookupHandler serves the read-only account lookup used by the storefront
type LookupHandler struct {
	logger  *zap.Logger
	panel   provider.SubscriberProvider
	pricing *usecase.PricingService
}

func NewLookupHandler(logger *zap.Logger, panel provider.SubscriberProvider, pricing *usecase.PricingService) *LookupHandler {
	return &LookupHandler{
		logger:  logger,
		panel:   panel,
		pricing: pricing,
	}
}

func (h *LookupHandler) Lookup(c echo.Context) error {
	account := strings.TrimSpace(c.QueryParam("account"))
	accountType := strings.ToLower(c.QueryParam("type"))
	if accountType == "" {
		accountType = "auto"
	}

	if account == "" {
		return errorJSON(c, apperrors.CodeInvalidInput, "account is required")
	}
	switch accountType {
	case "mag", "m3u", "auto":
	default:
		return errorJSON(c, apperrors.CodeInvalidInput, "type must be one of: mag, m3u, auto")
	}

	subscriber, err := h.panel.Lookup(c.Request().Context(), account)
	if err != nil {
		h.logger.Warn("Lookup failed upstream",
			zap.String("account", account),
			zap.Error(err))
		return errorJSON(c, apperrors.CodeUpstreamFailure, "Promax unavailable")
	}
	if subscriber == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":  "not_found",
			"message": "Account not found",
		})
	}

	dueAmount, _ := h.pricing.ExpectedAmount(1)
	return c.JSON(http.StatusOK, echo.Map{
		"status":                "ok",
		"client":                subscriber,
		"due_amount":            dueAmount,
		"currency":              h.pricing.Currency(),
		"allowed_subscriptions": h.pricing.AllowedDurations(),
		"message":               "Account found. Due amount computed.",
	})
}
