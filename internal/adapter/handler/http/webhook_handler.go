package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/usecase"
)

// WebhookHandler receives signed payment notifications. Authentication happens
// in the HMAC middleware before this handler runs.
type WebhookHandler struct {
	logger       *zap.Logger
	provisioning *usecase.ProvisioningService
}

func NewWebhookHandler(logger *zap.Logger, provisioning *usecase.ProvisioningService) *WebhookHandler {
	return &WebhookHandler{
		logger:       logger,
		provisioning: provisioning,
	}
}

type PaymentCallbackRequest struct {
	TransactionID string  `json:"transaction_id" validate:"required"`
	Account       string  `json:"account" validate:"required"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency" validate:"required"`
	PaidFor       int     `json:"paid_for" validate:"required"`
	Timestamp     string  `json:"timestamp" validate:"required"`
}

type PaymentCallbackResponse struct {
	Status           string                 `json:"status"`
	Action           string                 `json:"action"`
	UpstreamResponse map[string]interface{} `json:"upstream_response"`
	ReceiptReference string                 `json:"receipt_reference,omitempty"`
}

func (h *WebhookHandler) HandleCallback(c echo.Context) error {
	var req PaymentCallbackRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, apperrors.CodeInvalidInput, "Missing required fields")
	}

	notice := &usecase.PaymentNotice{
		TransactionID: req.TransactionID,
		Account:       req.Account,
		Amount:        decimal.NewFromFloat(req.Amount),
		Currency:      req.Currency,
		PaidForMonths: req.PaidFor,
		Timestamp:     req.Timestamp,
	}

	result, err := h.provisioning.Process(c.Request().Context(), notice)
	if err != nil {
		code := apperrors.CodeOf(err)
		h.logger.Warn("Payment callback rejected",
			zap.String("transaction_id", req.TransactionID),
			zap.String("code", code),
			zap.Error(err))
		return errorJSON(c, code, messageOf(err))
	}

	return c.JSON(http.StatusOK, PaymentCallbackResponse{
		Status:           "ok",
		Action:           string(result.Action),
		UpstreamResponse: result.Upstream,
		ReceiptReference: result.ReceiptReference,
	})
}
