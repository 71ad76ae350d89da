package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abdullahi2202/wealthpay/internal/alerts"
	"github.com/Abdullahi2202/wealthpay/internal/audit"
	"github.com/Abdullahi2202/wealthpay/internal/settlement"
)

// Executor runs typed admin commands. Every execution is audited; the
// settlement commands additionally publish to the live admin feed.
type Executor struct {
	settle *settlement.Service
	audit  *audit.Recorder
	pool   *pgxpool.Pool
	feed   *Feed
}

func NewExecutor(settle *settlement.Service, rec *audit.Recorder, pool *pgxpool.Pool, feed *Feed) *Executor {
	return &Executor{settle: settle, audit: rec, pool: pool, feed: feed}
}

// Execute dispatches one command for the acting admin. The switch is
// exhaustive over the closed command set.
func (e *Executor) Execute(ctx context.Context, actorID string, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case *ApproveTransaction:
		return e.settleTransaction(ctx, actorID, c.TransactionID, settlement.TxnCompleted, c.Note)
	case *RejectTransaction:
		return e.settleTransaction(ctx, actorID, c.TransactionID, settlement.TxnRejected, c.Note)
	case *SuspendUser:
		return e.setUserActive(ctx, actorID, c.UserID, false)
	case *ActivateUser:
		return e.setUserActive(ctx, actorID, c.UserID, true)
	case *SetKYCStatus:
		return e.setKYCStatus(ctx, actorID, c.UserID, c.Status)
	case *AdjustWallet:
		return e.adjustWallet(ctx, actorID, c)
	default:
		return nil, fmt.Errorf("unhandled admin command %q", cmd.Name())
	}
}

func (e *Executor) settleTransaction(ctx context.Context, actorID, transactionID, target, note string) (any, error) {
	res, err := e.settle.Settle(ctx, settlement.SettleRequest{
		TransactionID: transactionID,
		TargetStatus:  target,
		ReasonNote:    note,
		ActorID:       actorID,
	})
	if err != nil {
		return nil, err
	}
	// The settlement service audits inside its own transaction.
	e.feed.Publish(Event{
		Type: "settlement",
		Data: res,
		At:   time.Now(),
	})
	return res, nil
}

func (e *Executor) setUserActive(ctx context.Context, actorID, userID string, active bool) (any, error) {
	var before bool
	err := e.pool.QueryRow(ctx,
		`SELECT COALESCE(is_active, TRUE) FROM users WHERE id = $1`, userID,
	).Scan(&before)
	if err != nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	if _, err := e.pool.Exec(ctx,
		`UPDATE users SET is_active = $1 WHERE id = $2`, active, userID,
	); err != nil {
		return nil, fmt.Errorf("update user active flag: %w", err)
	}

	action := "user.suspend"
	if active {
		action = "user.activate"
	}
	if err := e.audit.Record(ctx, audit.Entry{
		AdminID:     actorID,
		Action:      action,
		TargetTable: "users",
		TargetID:    userID,
		Before:      audit.Snapshot(map[string]bool{"is_active": before}),
		After:       audit.Snapshot(map[string]bool{"is_active": active}),
	}); err != nil {
		return nil, err
	}
	if !active {
		_ = alerts.EnqueueAdminAlert(actorID, "warning", fmt.Sprintf("user %s suspended", userID))
	}
	return map[string]any{"user_id": userID, "is_active": active}, nil
}

func (e *Executor) setKYCStatus(ctx context.Context, actorID, userID, status string) (any, error) {
	var before string
	err := e.pool.QueryRow(ctx,
		`SELECT COALESCE(kyc_status, 'unverified') FROM users WHERE id = $1`, userID,
	).Scan(&before)
	if err != nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	if _, err := e.pool.Exec(ctx,
		`UPDATE users SET kyc_status = $1 WHERE id = $2`, status, userID,
	); err != nil {
		return nil, fmt.Errorf("update kyc status: %w", err)
	}

	if err := e.audit.Record(ctx, audit.Entry{
		AdminID:     actorID,
		Action:      "user.set_kyc",
		TargetTable: "users",
		TargetID:    userID,
		Before:      audit.Snapshot(map[string]string{"kyc_status": before}),
		After:       audit.Snapshot(map[string]string{"kyc_status": status}),
	}); err != nil {
		return nil, err
	}
	return map[string]any{"user_id": userID, "kyc_status": status}, nil
}

func (e *Executor) adjustWallet(ctx context.Context, actorID string, c *AdjustWallet) (any, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin adjustment: %w", err)
	}
	defer tx.Rollback(ctx)

	var before int64
	if err := tx.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, c.UserID,
	).Scan(&before); err != nil {
		return nil, fmt.Errorf("wallet of %s not found", c.UserID)
	}

	txnType := "income"
	txnAmount := c.Delta
	if c.Delta > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2`,
			c.Delta, c.UserID,
		); err != nil {
			return nil, fmt.Errorf("credit wallet: %w", err)
		}
	} else {
		txnType = "expense"
		txnAmount = -c.Delta
		ct, err := tx.Exec(ctx,
			`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2 AND balance >= $3`,
			c.Delta, c.UserID, -c.Delta,
		)
		if err != nil {
			return nil, fmt.Errorf("debit wallet: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return nil, fmt.Errorf("insufficient balance for adjustment")
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, name, category, status, note, created_at)
		 VALUES ($1, $2, $3, $4, 'Admin adjustment', 'adjustment', 'completed', $5, $6)`,
		uuid.New().String(), c.UserID, txnAmount, txnType, c.Reason, time.Now(),
	); err != nil {
		return nil, fmt.Errorf("record adjustment transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit adjustment: %w", err)
	}

	if err := e.audit.Record(ctx, audit.Entry{
		AdminID:     actorID,
		Action:      "wallet.adjust",
		TargetTable: "wallets",
		TargetID:    c.UserID,
		Before:      audit.Snapshot(map[string]int64{"balance": before}),
		After:       audit.Snapshot(map[string]int64{"balance": before + c.Delta}),
	}); err != nil {
		return nil, err
	}
	_ = alerts.EnqueueAdminAlert(actorID, "info",
		fmt.Sprintf("wallet of %s adjusted by %d minor units: %s", c.UserID, c.Delta, c.Reason))
	return map[string]any{"user_id": c.UserID, "balance": before + c.Delta}, nil
}
