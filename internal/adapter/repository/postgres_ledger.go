package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jsiptv/mobipay/internal/domain/entity"
	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/repository"
)

// PostgresLedger is the durable ledger backend. Reservation relies on the
// transaction id primary key plus ON CONFLICT DO NOTHING, so concurrent
// deliveries race on a single insert instead of a read-then-write.
type PostgresLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPostgresLedger(db *gorm.DB, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{
		db:     db,
		logger: logger,
	}
}

func (l *PostgresLedger) Reserve(ctx context.Context, id string, txn *entity.Transaction) (repository.ReserveOutcome, error) {
	reserved := *txn
	reserved.ID = id
	reserved.Status = entity.TransactionStatusReserved
	reserved.CreatedAt = time.Now().UTC()

	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reserved)
	if result.Error != nil {
		return repository.ReserveDuplicate, fmt.Errorf("failed to reserve transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ReserveDuplicate, nil
	}

	return repository.ReserveProceed, nil
}

func (l *PostgresLedger) Commit(ctx context.Context, id string, txn *entity.Transaction) error {
	now := time.Now().UTC()
	final := *txn
	final.ID = id
	final.Status = entity.TransactionStatusVerified
	final.CompletedAt = &now

	result := l.db.WithContext(ctx).
		Model(&entity.Transaction{}).
		Where("id = ? AND status = ?", id, entity.TransactionStatusReserved).
		Updates(map[string]interface{}{
			"action":            final.Action,
			"upstream_response": final.UpstreamResponse,
			"receipt_reference": final.ReceiptReference,
			"status":            final.Status,
			"completed_at":      final.CompletedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to commit transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

func (l *PostgresLedger) Release(ctx context.Context, id string) error {
	result := l.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, entity.TransactionStatusReserved).
		Delete(&entity.Transaction{})
	if result.Error != nil {
		return fmt.Errorf("failed to release transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

func (l *PostgresLedger) Get(ctx context.Context, id string) (*entity.Transaction, error) {
	var txn entity.Transaction
	err := l.db.WithContext(ctx).First(&txn, "id = ?", id).Error
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

func (l *PostgresLedger) LastVerifiedByAccount(ctx context.Context, account string) (*entity.Transaction, error) {
	var txn entity.Transaction
	err := l.db.WithContext(ctx).
		Where("account = ? AND status = ?", account, entity.TransactionStatusVerified).
		Order("completed_at DESC").
		First(&txn).Error
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get last verified transaction: %w", err)
	}

	return &txn, nil
}
