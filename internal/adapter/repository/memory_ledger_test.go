package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsiptv/mobipay/internal/domain/entity"
	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
	"github.com/jsiptv/mobipay/internal/domain/repository"
)

func sampleTxn(account string) *entity.Transaction {
	return &entity.Transaction{
		Account:       account,
		Amount:        decimal.RequireFromString("27.99"),
		Currency:      "USD",
		PaidForMonths: 3,
	}
}

func TestMemoryLedger_ReserveThenCommit(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	outcome, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	assert.Equal(t, repository.ReserveProceed, outcome)

	got, err := ledger.Get(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusReserved, got.Status)

	final := sampleTxn("alice")
	final.Action = entity.ProvisionActionRenew
	final.ReceiptReference = "txn-1.pdf"
	require.NoError(t, ledger.Commit(ctx, "txn-1", final))

	got, err = ledger.Get(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusVerified, got.Status)
	assert.Equal(t, entity.ProvisionActionRenew, got.Action)
	assert.Equal(t, "txn-1.pdf", got.ReceiptReference)
	require.NotNil(t, got.CompletedAt)
}

func TestMemoryLedger_ReserveDuplicate(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	outcome, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	require.Equal(t, repository.ReserveProceed, outcome)

	outcome, err = ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	assert.Equal(t, repository.ReserveDuplicate, outcome)
}

func TestMemoryLedger_ReserveAfterCommitIsDuplicate(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	require.NoError(t, ledger.Commit(ctx, "txn-1", sampleTxn("alice")))

	outcome, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	assert.Equal(t, repository.ReserveDuplicate, outcome)
}

func TestMemoryLedger_ReleaseReturnsIDToUnseen(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, "txn-1"))

	// A released id behaves as never seen, so a retry may claim it again.
	outcome, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	assert.Equal(t, repository.ReserveProceed, outcome)
}

func TestMemoryLedger_ReleaseRefusesVerified(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	require.NoError(t, ledger.Commit(ctx, "txn-1", sampleTxn("alice")))

	err = ledger.Release(ctx, "txn-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDuplicateTxn, apperrors.CodeOf(err))

	got, err := ledger.Get(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusVerified, got.Status)
}

func TestMemoryLedger_CommitUnknownID(t *testing.T) {
	ledger := NewMemoryLedger()
	err := ledger.Commit(context.Background(), "missing", sampleTxn("alice"))
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestMemoryLedger_GetUnknownID(t *testing.T) {
	ledger := NewMemoryLedger()
	_, err := ledger.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestMemoryLedger_ConcurrentReserveSingleWinner(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	outcomes := make([]repository.ReserveOutcome, workers)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			<-start
			outcome, err := ledger.Reserve(ctx, "txn-contended", sampleTxn("alice"))
			assert.NoError(t, err)
			outcomes[slot] = outcome
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, outcome := range outcomes {
		if outcome == repository.ReserveProceed {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent delivery may provision")
}

func TestMemoryLedger_LastVerifiedByAccount(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)
	require.NoError(t, ledger.Commit(ctx, "txn-1", sampleTxn("alice")))

	// Reserved entries for the same account must not be returned.
	_, err = ledger.Reserve(ctx, "txn-2", sampleTxn("alice"))
	require.NoError(t, err)

	got, err := ledger.LastVerifiedByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "txn-1", got.ID)

	_, err = ledger.LastVerifiedByAccount(ctx, "bob")
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestMemoryLedger_GetReturnsCopy(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "txn-1", sampleTxn("alice"))
	require.NoError(t, err)

	got, err := ledger.Get(ctx, "txn-1")
	require.NoError(t, err)
	got.Account = "mallory"

	again, err := ledger.Get(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Account)
}
