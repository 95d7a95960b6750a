package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/provider"
	"github.com/jsiptv/mobipay/internal/usecase"
)

// SubscriptionHandler serves credentialed self-service renewal and line info
type SubscriptionHandler struct {
	logger  *zap.Logger
	panel   provider.SubscriberProvider
	pricing *usecase.PricingService
}

func NewSubscriptionHandler(logger *zap.Logger, panel provider.SubscriberProvider, pricing *usecase.PricingService) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:  logger,
		panel:   panel,
		pricing: pricing,
	}
}

type ExtendRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Sub      int    `json:"sub" validate:"required"`
}

func (h *SubscriptionHandler) Extend(c echo.Context) error {
	var req ExtendRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, "username and password are required")
	}

	if _, offered := h.pricing.ExpectedAmount(req.Sub); !offered {
		return errorJSON(c, apperrors.CodeInvalidSubscription, "sub must be one of the configured package durations")
	}

	result, err := h.panel.ExtendLine(c.Request().Context(), req.Username, req.Password, req.Sub)
	if err != nil {
		h.logger.Warn("Extend failed upstream",
			zap.String("username", req.Username),
			zap.Error(err))
		return errorJSON(c, apperrors.CodeUpstreamFailure, "Promax unavailable")
	}
	if !result.OK {
		message := result.Message
		if message == "" {
			message = "Promax rejected request"
		}
		return errorJSON(c, apperrors.CodeUpstreamFailure, message)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"upstream": result.Fields,
	})
}

type ClientInfoRequest struct {
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
	MAC      string `json:"mac"`
}

func (h *SubscriptionHandler) ClientInfo(c echo.Context) error {
	var req ClientInfoRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil || (req.Username == "" && req.MAC == "") {
		return errorJSON(c, apperrors.CodeInvalidInput, "password and either username or mac are required")
	}

	result, err := h.panel.LineInfo(c.Request().Context(), req.Username, req.Password, req.MAC)
	if err != nil {
		h.logger.Warn("Client info failed upstream",
			zap.String("username", req.Username),
			zap.Error(err))
		return errorJSON(c, apperrors.CodeUpstreamFailure, "Promax unavailable")
	}
	if !result.OK {
		message := result.Message
		if message == "" {
			message = "username not available"
		}
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":  "invalid",
			"message": message,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"client": result.Fields,
	})
}
