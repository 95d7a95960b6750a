package repository

import (
	"context"

	"github.com/jsiptv/mobipay/internal/domain/entity"
)

// ReserveOutcome is the result of an idempotency reservation attempt
type ReserveOutcome int

const (
	// ReserveProceed means the id was unseen and is now claimed by this caller
	ReserveProceed ReserveOutcome = iota
	// ReserveDuplicate means the id is already reserved or verified
	ReserveDuplicate
)

// TransactionLedger is the idempotency record for payment notifications.
// Reserve must be atomic with respect to concurrent callers of the same id:
// of N concurrent first-time deliveries exactly one receives ReserveProceed.
// Implementations must not hold locks across network calls.
type TransactionLedger interface {
	// Reserve atomically claims the id. Both reserved and verified entries
	// yield ReserveDuplicate.
	Reserve(ctx context.Context, id string, txn *entity.Transaction) (ReserveOutcome, error)

	// Commit transitions a reserved entry to verified with its final record
	Commit(ctx context.Context, id string, txn *entity.Transaction) error

	// Release drops a reservation whose workflow failed before any upstream
	// mutation, so a processor retry can re-attempt.
	Release(ctx context.Context, id string) error

	// Get returns the entry for the id
	Get(ctx context.Context, id string) (*entity.Transaction, error)

	// LastVerifiedByAccount returns the most recent verified entry for an
	// account, if any.
	LastVerifiedByAccount(ctx context.Context, account string) (*entity.Transaction, error)
}

// ClientRegistry records provisioned clients and their contact details
type ClientRegistry interface {
	Save(ctx context.Context, client *entity.Client) error
	GetByUsername(ctx context.Context, username string) (*entity.Client, error)
}
