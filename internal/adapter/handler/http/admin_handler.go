package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/repository"
	"github.com/jsiptv/mobipay/internal/usecase"
)

// AdminHandler exposes ledger inspection and receipt re-sending. Routes are
// behind the admin JWT middleware.
type AdminHandler struct {
	logger   *zap.Logger
	ledger   repository.TransactionLedger
	clients  repository.ClientRegistry
	receipts usecase.ReceiptGenerator
	notifier usecase.Notifier
}

func NewAdminHandler(
	logger *zap.Logger,
	ledger repository.TransactionLedger,
	clients repository.ClientRegistry,
	receipts usecase.ReceiptGenerator,
	notifier usecase.Notifier,
) *AdminHandler {
	return &AdminHandler{
		logger:   logger,
		ledger:   ledger,
		clients:  clients,
		receipts: receipts,
		notifier: notifier,
	}
}

func (h *AdminHandler) GetTransaction(c echo.Context) error {
	id := c.Param("id")

	txn, err := h.ledger.Get(c.Request().Context(), id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTransactionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"status":  "not_found",
				"message": "Transaction not found",
			})
		}
		return errorJSON(c, apperrors.CodeInternal, "failed to load transaction")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      "ok",
		"transaction": txn,
	})
}

func (h *AdminHandler) ResendReceipt(c echo.Context) error {
	username := c.Param("username")

	client, err := h.clients.GetByUsername(c.Request().Context(), username)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":  "not_found",
			"message": "Client not found",
		})
	}

	txn, err := h.ledger.LastVerifiedByAccount(c.Request().Context(), username)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":  "not_found",
			"message": "No transaction found to resend",
		})
	}

	recipient := client.Email
	if recipient == "" {
		recipient = "customer@example.com"
	}

	var attachments []string
	if txn.ReceiptReference != "" {
		attachments = append(attachments, h.receipts.PathFor(txn.ReceiptReference))
	}
	h.notifier.Dispatch(recipient, "Your receipt", fmt.Sprintf("Receipt for %s", txn.ID), attachments)

	h.logger.Info("Receipt re-sent",
		zap.String("username", username),
		zap.String("transaction_id", txn.ID))

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
