package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jsiptv/mobipay/internal/domain/entity"
	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/repository"
)

// MemoryLedger is the volatile ledger backend. The mutex covers only the map
// bookkeeping; callers perform their network I/O outside of it. Entries do not
// survive a restart, which loses in-flight reservations (the postgres backend
// exists for deployments that need durability).
type MemoryLedger struct {
	mu   sync.Mutex
	txns map[string]*entity.Transaction
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		txns: make(map[string]*entity.Transaction),
	}
}

// Reserve claims the id with a single check-and-insert under the lock. A plain
// read-then-write here would let two concurrent deliveries of an unseen id
// both provision.
func (l *MemoryLedger) Reserve(ctx context.Context, id string, txn *entity.Transaction) (repository.ReserveOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.txns[id]; exists {
		return repository.ReserveDuplicate, nil
	}

	reserved := *txn
	reserved.ID = id
	reserved.Status = entity.TransactionStatusReserved
	reserved.CreatedAt = time.Now().UTC()
	l.txns[id] = &reserved

	return repository.ReserveProceed, nil
}

func (l *MemoryLedger) Commit(ctx context.Context, id string, txn *entity.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.txns[id]
	if !exists {
		return apperrors.ErrTransactionNotFound
	}
	if existing.Status != entity.TransactionStatusReserved {
		return apperrors.NewAppError(apperrors.CodeDuplicateTxn, "transaction already finalized", nil)
	}

	final := *txn
	final.ID = id
	final.Status = entity.TransactionStatusVerified
	final.CreatedAt = existing.CreatedAt
	now := time.Now().UTC()
	final.CompletedAt = &now
	l.txns[id] = &final

	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.txns[id]
	if !exists {
		return apperrors.ErrTransactionNotFound
	}
	// Verified entries are permanent; only an outstanding reservation can be
	// returned to the unseen state.
	if existing.Status != entity.TransactionStatusReserved {
		return apperrors.NewAppError(apperrors.CodeDuplicateTxn, "transaction already finalized", nil)
	}

	delete(l.txns, id)
	return nil
}

func (l *MemoryLedger) Get(ctx context.Context, id string) (*entity.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.txns[id]
	if !exists {
		return nil, apperrors.ErrTransactionNotFound
	}

	copied := *existing
	return &copied, nil
}

func (l *MemoryLedger) LastVerifiedByAccount(ctx context.Context, account string) (*entity.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var latest *entity.Transaction
	for _, txn := range l.txns {
		if txn.Account != account || txn.Status != entity.TransactionStatusVerified {
			continue
		}
		if latest == nil || (txn.CompletedAt != nil && latest.CompletedAt != nil && txn.CompletedAt.After(*latest.CompletedAt)) {
			latest = txn
		}
	}
	if latest == nil {
		return nil, apperrors.ErrTransactionNotFound
	}

	copied := *latest
	return &copied, nil
}
