package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jsiptv/mobipay/internal/domain/entity"
	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/provider"
	"github.com/jsiptv/mobipay/internal/domain/repository"
)

// ReceiptGenerator renders payment artifacts and returns an opaque reference
type ReceiptGenerator interface {
	GeneratePaymentReceipt(txn *entity.Transaction) (string, error)
	GenerateTrialConfirmation(email, username string) (string, error)
	PathFor(reference string) string
}

// Notifier dispatches a message without blocking or failing the caller
type Notifier interface {
	Dispatch(recipient, subject, body string, attachments []string)
}

// PaymentNotice is a validated payment notification from the processor
type PaymentNotice struct {
	TransactionID string
	Account       string
	Amount        decimal.Decimal
	Currency      string
	PaidForMonths int
	Timestamp     string
}

// ProvisionResult is what a successful workflow reports back
type ProvisionResult struct {
	Action           entity.ProvisionAction
	Upstream         map[string]interface{}
	ReceiptReference string
}

// ProvisioningService turns one verified payment into exactly one upstream
// provisioning action. Ordering is validate, reserve, price-check, lookup,
// provision, receipt/notify, commit; the reservation happens before the price
// check so already-seen ids never cost an upstream call.
type ProvisioningService struct {
	ledger   repository.TransactionLedger
	clients  repository.ClientRegistry
	panel    provider.SubscriberProvider
	pricing  *PricingService
	receipts ReceiptGenerator
	notifier Notifier
	logger   *zap.Logger
}

func NewProvisioningService(
	ledger repository.TransactionLedger,
	clients repository.ClientRegistry,
	panel provider.SubscriberProvider,
	pricing *PricingService,
	receipts ReceiptGenerator,
	notifier Notifier,
	logger *zap.Logger,
) *ProvisioningService {
	return &ProvisioningService{
		ledger:   ledger,
		clients:  clients,
		panel:    panel,
		pricing:  pricing,
		receipts: receipts,
		notifier: notifier,
		logger:   logger,
	}
}

// Process runs the provisioning workflow for one notification
func (s *ProvisioningService) Process(ctx context.Context, notice *PaymentNotice) (*ProvisionResult, error) {
	if err := s.validate(notice); err != nil {
		return nil, err
	}

	pending := &entity.Transaction{
		Account:       notice.Account,
		Amount:        notice.Amount,
		Currency:      notice.Currency,
		PaidForMonths: notice.PaidForMonths,
	}

	outcome, err := s.ledger.Reserve(ctx, notice.TransactionID, pending)
	if err != nil {
		return nil, apperrors.Wrap(err, "ledger reservation failed")
	}
	if outcome == repository.ReserveDuplicate {
		return nil, apperrors.NewAppError(apperrors.CodeDuplicateTxn, "Already processed", apperrors.ErrDuplicateTransaction)
	}

	result, err := s.provision(ctx, notice, pending)
	if err != nil {
		// No upstream mutation has been committed to the ledger, so the id is
		// returned to the unseen state and the processor's retry can
		// re-attempt with the same or a corrected payload.
		if releaseErr := s.ledger.Release(ctx, notice.TransactionID); releaseErr != nil {
			s.logger.Error("Failed to release reservation",
				zap.String("transaction_id", notice.TransactionID),
				zap.Error(releaseErr))
		}
		return nil, err
	}

	return result, nil
}

// provision holds the steps that run under an outstanding reservation; any
// error return makes Process release it.
func (s *ProvisioningService) provision(ctx context.Context, notice *PaymentNotice, pending *entity.Transaction) (*ProvisionResult, error) {
	expected, offered := s.pricing.ExpectedAmount(notice.PaidForMonths)
	if !offered {
		return nil, apperrors.NewAppError(apperrors.CodeInvalidSubscription,
			fmt.Sprintf("paid_for must be one of the configured package durations %v", s.pricing.AllowedDurations()), nil)
	}
	// The amount-mismatch message intentionally discloses the expected price
	// to help processor-side integration debugging.
	if !notice.Amount.Equal(expected) {
		return nil, apperrors.NewAppError(apperrors.CodeAmountMismatch,
			fmt.Sprintf("Amount must equal %s", expected.String()), nil)
	}

	subscriber, err := s.panel.Lookup(ctx, notice.Account)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeUpstreamFailure, "Promax unavailable", err)
	}

	var (
		action   entity.ProvisionAction
		upstream *provider.Result
	)
	if subscriber == nil {
		action = entity.ProvisionActionCreate
		upstream, err = s.panel.Create(ctx, notice.Account, notice.PaidForMonths)
	} else {
		action = entity.ProvisionActionRenew
		upstream, err = s.panel.Renew(ctx, subscriber.Username, notice.PaidForMonths)
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeUpstreamFailure, "Promax unavailable", err)
	}
	if !upstream.OK {
		message := upstream.Message
		if message == "" {
			message = "Promax rejected request"
		}
		return nil, apperrors.NewAppError(apperrors.CodeUpstreamFailure, message, apperrors.ErrUpstreamUnavailable)
	}

	// Renewal never implicitly re-enables; a disabled line gets an explicit
	// enable after a successful renew.
	if subscriber != nil && !subscriber.Enabled {
		enableResult, enableErr := s.panel.SetEnabled(ctx, subscriber.Username, true)
		if enableErr != nil {
			return nil, apperrors.NewAppError(apperrors.CodeUpstreamFailure, "Promax unavailable", enableErr)
		}
		if !enableResult.OK {
			return nil, apperrors.NewAppError(apperrors.CodeUpstreamFailure, "Promax rejected enable", apperrors.ErrUpstreamUnavailable)
		}
	}

	pending.Action = action
	pending.UpstreamResponse = upstream.Fields

	// Provisioning has succeeded; the receipt is best-effort from here. A
	// failed render commits without a reference rather than leaving the id
	// reserved, because a retry would provision a second time.
	reference, err := s.receipts.GeneratePaymentReceipt(pending)
	if err != nil {
		s.logger.Error("Receipt generation failed",
			zap.String("transaction_id", notice.TransactionID),
			zap.Error(err))
		reference = ""
	}
	pending.ReceiptReference = reference

	s.dispatchNotification(ctx, notice, reference)

	if err := s.ledger.Commit(ctx, notice.TransactionID, pending); err != nil {
		s.logger.Error("Ledger commit failed",
			zap.String("transaction_id", notice.TransactionID),
			zap.Error(err))
		return nil, apperrors.Wrap(err, "ledger commit failed")
	}

	s.logger.Info("Payment provisioned",
		zap.String("transaction_id", notice.TransactionID),
		zap.String("account", notice.Account),
		zap.String("action", string(action)),
		zap.Int("months", notice.PaidForMonths))

	return &ProvisionResult{
		Action:           action,
		Upstream:         upstream.Fields,
		ReceiptReference: reference,
	}, nil
}

// dispatchNotification is fire-and-forget: an already-paid, already-provisioned
// subscriber must never be undone by a notification glitch. The recipient
// comes from the client registry when registration captured one; lookup does
// not expose an address upstream.
func (s *ProvisioningService) dispatchNotification(ctx context.Context, notice *PaymentNotice, receiptRef string) {
	recipient := "customer@example.com"
	if client, err := s.clients.GetByUsername(ctx, notice.Account); err == nil && client.Email != "" {
		recipient = client.Email
	}

	var attachments []string
	if receiptRef != "" {
		attachments = append(attachments, s.receipts.PathFor(receiptRef))
	}
	body := fmt.Sprintf("Tx %s successful", notice.TransactionID)
	s.notifier.Dispatch(recipient, "Payment Receipt", body, attachments)
}

func (s *ProvisioningService) validate(notice *PaymentNotice) error {
	switch {
	case strings.TrimSpace(notice.TransactionID) == "":
		return apperrors.NewAppError(apperrors.CodeInvalidInput, "transaction_id is required", nil)
	case strings.TrimSpace(notice.Account) == "":
		return apperrors.NewAppError(apperrors.CodeInvalidInput, "account is required", nil)
	case strings.TrimSpace(notice.Currency) == "":
		return apperrors.NewAppError(apperrors.CodeInvalidInput, "currency is required", nil)
	case strings.TrimSpace(notice.Timestamp) == "":
		return apperrors.NewAppError(apperrors.CodeInvalidInput, "timestamp is required", nil)
	case notice.PaidForMonths == 0:
		return apperrors.NewAppError(apperrors.CodeInvalidInput, "paid_for is required", nil)
	}
	return nil
}
