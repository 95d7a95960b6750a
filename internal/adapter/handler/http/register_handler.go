package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/provider"
	"github.com/jsiptv/mobipay/internal/usecase"
)

// RegisterHandler provisions trial lines for new customers
type RegisterHandler struct {
	logger       *zap.Logger
	registration *usecase.RegistrationService
}

func NewRegisterHandler(logger *zap.Logger, registration *usecase.RegistrationService) *RegisterHandler {
	return &RegisterHandler{
		logger:       logger,
		registration: registration,
	}
}

type RegisterRequest struct {
	AccountReference string `json:"account_reference"`
	Email            string `json:"email" validate:"required,email"`
	FullName         string `json:"fullname"`
	DeviceType       string `json:"device_type" validate:"required,oneof=m3u mag"`
	PackID           int64  `json:"pack_id" validate:"required"`
	TrialDays        int    `json:"trial_days" validate:"gte=0"`
}

func (h *RegisterHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, err.Error())
	}

	trial, err := h.registration.Register(c.Request().Context(), &provider.CreateTrialRequest{
		AccountReference: req.AccountReference,
		Email:            req.Email,
		FullName:         req.FullName,
		DeviceType:       req.DeviceType,
		PackID:           req.PackID,
		TrialDays:        req.TrialDays,
	})
	if err != nil {
		h.logger.Warn("Trial registration failed",
			zap.String("email", req.Email),
			zap.Error(err))
		return errorJSON(c, apperrors.CodeOf(err), messageOf(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":         "ok",
		"promax_user_id": trial.UserID,
		"username":       trial.Username,
		"password":       trial.Password,
	})
}
