package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jsiptv/mobipay/internal/domain/entity"
	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/provider"
	"github.com/jsiptv/mobipay/internal/domain/repository"
)

// RegistrationService provisions trial lines: creates the account upstream,
// renders a confirmation artifact, mails the credentials and records the
// client for later receipt re-sends.
type RegistrationService struct {
	panel    provider.SubscriberProvider
	clients  repository.ClientRegistry
	receipts ReceiptGenerator
	notifier Notifier
	logger   *zap.Logger
}

func NewRegistrationService(
	panel provider.SubscriberProvider,
	clients repository.ClientRegistry,
	receipts ReceiptGenerator,
	notifier Notifier,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		panel:    panel,
		clients:  clients,
		receipts: receipts,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *RegistrationService) Register(ctx context.Context, req *provider.CreateTrialRequest) (*entity.TrialCredentials, error) {
	trial, err := s.panel.CreateTrial(ctx, req)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeUpstreamFailure, "Promax unavailable", err)
	}

	reference, err := s.receipts.GenerateTrialConfirmation(req.Email, trial.Username)
	if err != nil {
		s.logger.Error("Trial confirmation generation failed",
			zap.String("username", trial.Username),
			zap.Error(err))
		reference = ""
	}

	var attachments []string
	if reference != "" {
		attachments = append(attachments, s.receipts.PathFor(reference))
	}
	body := fmt.Sprintf("Username: %s\nPassword: %s", trial.Username, trial.Password)
	s.notifier.Dispatch(req.Email, "Your trial credentials", body, attachments)

	client := &entity.Client{
		UserID:           trial.UserID,
		Username:         trial.Username,
		Email:            req.Email,
		AccountReference: req.AccountReference,
		RegisteredAt:     time.Now().UTC(),
	}
	if err := s.clients.Save(ctx, client); err != nil {
		s.logger.Error("Failed to record client",
			zap.String("username", trial.Username),
			zap.Error(err))
	}

	s.logger.Info("Trial registered",
		zap.String("username", trial.Username),
		zap.String("device_type", req.DeviceType))

	return trial, nil
}
