package settlement

import (
	"context"

	"github.com/Abdullahi2202/wealthpay/internal/audit"
)

// Tx is a settlement-scoped transaction. pgx.Tx satisfies it directly.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is everything the reconciler touches. All reads and writes
// happen inside the Tx so a failed settlement applies nothing.
type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	GetTransaction(ctx context.Context, tx Tx, id string) (*TransactionRecord, error)

	// UpdateTransactionStatus sets the status and appends note to the
	// existing note field; prior content is never replaced.
	UpdateTransactionStatus(ctx context.Context, tx Tx, id, status, note string) error

	GetTransfer(ctx context.Context, tx Tx, id string) (*TransferIntent, error)

	// FindLatestPendingTransferByAmount returns the most recently created
	// pending transfer with exactly this amount, or nil when none exists.
	FindLatestPendingTransferByAmount(ctx context.Context, tx Tx, amount int64) (*TransferIntent, error)

	// MarkTransfer transitions a pending transfer to a terminal status.
	// It fails if the transfer is no longer pending.
	MarkTransfer(ctx context.Context, tx Tx, id, status string) error

	// CreditWallet atomically adds amount to the user's balance.
	CreditWallet(ctx context.Context, tx Tx, userID string, amount int64) error

	GetUserEmail(ctx context.Context, tx Tx, userID string) (string, error)

	RecordAdminAction(ctx context.Context, tx Tx, entry audit.Entry) error
}
