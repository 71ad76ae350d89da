package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Abdullahi2202/wealthpay/internal/audit"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrMissingID     = errors.New("transaction id is required")
	ErrInvalidTarget = errors.New(`target status must be "completed" or "rejected"`)
)

// Notifier delivers the settlement outcome to the transfer's sender.
// Delivery is best-effort: a failure is logged, never surfaced.
type Notifier interface {
	SettlementOutcome(ctx context.Context, n Outcome) error
}

// Outcome describes a settled transfer for notification purposes.
type Outcome struct {
	Email         string
	SenderID      string
	TransferID    string
	TransactionID string
	Amount        int64
	Approved      bool
	Note          string
}

// SettleRequest asks for a pending transaction to be resolved to a
// terminal status by the acting admin.
type SettleRequest struct {
	TransactionID string
	TargetStatus  string
	ReasonNote    string
	ActorID       string
}

// SettleResult reports what the settlement applied.
type SettleResult struct {
	TransactionID  string `json:"transaction_id"`
	Status         string `json:"status"`
	Matched        bool   `json:"matched"`
	TransferID     string `json:"transfer_id,omitempty"`
	CreditedUserID string `json:"credited_user_id,omitempty"`
	Amount         int64  `json:"amount"`
}

// Service reconciles admin approve/reject decisions against the wallet
// ledger. All mutations for one settlement run inside a single repository
// transaction; the notification is enqueued only after commit.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Settle resolves the transaction to req.TargetStatus.
//
// Transfer matching prefers the explicit transfer_id reference. Rows
// created before the reference column existed fall back to the legacy
// heuristic: the most recently created pending transfer whose amount
// equals the transaction amount. When several pending transfers share
// the amount, the newest wins. Approving credits the recipient;
// rejecting refunds the sender. A transaction with no matching transfer
// resolves status-only with no ledger effect.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if req.TransactionID == "" {
		return nil, ErrMissingID
	}
	if req.TargetStatus != TxnCompleted && req.TargetStatus != TxnRejected {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTarget, req.TargetStatus)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txn, err := s.repo.GetTransaction(ctx, tx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	intent, err := s.matchTransfer(ctx, tx, txn)
	if err != nil {
		return nil, err
	}

	result := &SettleResult{
		TransactionID: txn.ID,
		Status:        req.TargetStatus,
		Amount:        txn.Amount,
	}

	var outcome *Outcome
	if intent != nil {
		transferStatus := TransferCompleted
		creditUser := intent.RecipientID
		if req.TargetStatus == TxnRejected {
			transferStatus = TransferRejected
			creditUser = intent.SenderID // refund
		}

		if err := s.repo.MarkTransfer(ctx, tx, intent.ID, transferStatus); err != nil {
			return nil, err
		}
		if err := s.repo.CreditWallet(ctx, tx, creditUser, txn.Amount); err != nil {
			return nil, err
		}

		result.Matched = true
		result.TransferID = intent.ID
		result.CreditedUserID = creditUser

		email, err := s.repo.GetUserEmail(ctx, tx, intent.SenderID)
		if err != nil {
			s.logger.Warn("sender email lookup failed",
				"transfer_id", intent.ID, "error", err)
		}
		outcome = &Outcome{
			Email:         email,
			SenderID:      intent.SenderID,
			TransferID:    intent.ID,
			TransactionID: txn.ID,
			Amount:        txn.Amount,
			Approved:      req.TargetStatus == TxnCompleted,
			Note:          req.ReasonNote,
		}
	}

	if err := s.repo.UpdateTransactionStatus(ctx, tx, txn.ID, req.TargetStatus, req.ReasonNote); err != nil {
		return nil, err
	}

	after := *txn
	after.Status = req.TargetStatus
	entry := audit.Entry{
		AdminID:     req.ActorID,
		Action:      "settlement." + req.TargetStatus,
		TargetTable: "transactions",
		TargetID:    txn.ID,
		Before:      audit.Snapshot(txn),
		After:       audit.Snapshot(&after),
	}
	if err := s.repo.RecordAdminAction(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}

	s.logger.Info("settlement applied",
		"transaction_id", txn.ID,
		"status", req.TargetStatus,
		"matched", result.Matched,
		"transfer_id", result.TransferID,
		"amount", txn.Amount,
		"actor", req.ActorID,
	)

	if outcome != nil {
		if err := s.notifier.SettlementOutcome(ctx, *outcome); err != nil {
			s.logger.Warn("settlement notification failed",
				"transfer_id", outcome.TransferID, "error", err)
		}
	}

	return result, nil
}

func (s *Service) matchTransfer(ctx context.Context, tx Tx, txn *TransactionRecord) (*TransferIntent, error) {
	if txn.TransferID != nil && *txn.TransferID != "" {
		intent, err := s.repo.GetTransfer(ctx, tx, *txn.TransferID)
		if err != nil {
			return nil, err
		}
		// A referenced transfer that already settled means this
		// transaction was resolved before; no ledger effect.
		if intent == nil || intent.Status != TransferPending {
			return nil, nil
		}
		return intent, nil
	}
	return s.repo.FindLatestPendingTransferByAmount(ctx, tx, txn.Amount)
}
