package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abdullahi2202/wealthpay/internal/audit"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement tx: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, tx Tx, id string) (*TransactionRecord, error) {
	var t TransactionRecord
	err := tx.(pgx.Tx).QueryRow(ctx,
		`SELECT id::text, user_id::text, amount, type, name, category, status, note, transfer_id::text, created_at, updated_at
         FROM transactions WHERE id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Name, &t.Category, &t.Status, &t.Note, &t.TransferID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch transaction %s: %w", id, err)
	}
	return &t, nil
}

func (r *PostgresRepository) UpdateTransactionStatus(ctx context.Context, tx Tx, id, status, note string) error {
	ct, err := tx.(pgx.Tx).Exec(ctx,
		`UPDATE transactions
         SET status = $1,
             note = CASE
                 WHEN $2 = '' THEN note
                 WHEN note = '' THEN $2
                 ELSE note || E'\n' || $2
             END,
             updated_at = NOW()
         WHERE id = $3`,
		status, note, id,
	)
	if err != nil {
		return fmt.Errorf("update transaction %s status: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetTransfer(ctx context.Context, tx Tx, id string) (*TransferIntent, error) {
	var t TransferIntent
	err := tx.(pgx.Tx).QueryRow(ctx,
		`SELECT id::text, sender_id::text, recipient_id::text, amount, status, created_at
         FROM transfers WHERE id = $1`, id,
	).Scan(&t.ID, &t.SenderID, &t.RecipientID, &t.Amount, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch transfer %s: %w", id, err)
	}
	return &t, nil
}

func (r *PostgresRepository) FindLatestPendingTransferByAmount(ctx context.Context, tx Tx, amount int64) (*TransferIntent, error) {
	var t TransferIntent
	err := tx.(pgx.Tx).QueryRow(ctx,
		`SELECT id::text, sender_id::text, recipient_id::text, amount, status, created_at
         FROM transfers
         WHERE status = 'pending' AND amount = $1
         ORDER BY created_at DESC
         LIMIT 1`, amount,
	).Scan(&t.ID, &t.SenderID, &t.RecipientID, &t.Amount, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("match pending transfer by amount %d: %w", amount, err)
	}
	return &t, nil
}

func (r *PostgresRepository) MarkTransfer(ctx context.Context, tx Tx, id, status string) error {
	ct, err := tx.(pgx.Tx).Exec(ctx,
		`UPDATE transfers SET status = $1 WHERE id = $2 AND status = 'pending'`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("mark transfer %s %s: %w", id, status, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("transfer %s is no longer pending", id)
	}
	return nil
}

func (r *PostgresRepository) CreditWallet(ctx context.Context, tx Tx, userID string, amount int64) error {
	ct, err := tx.(pgx.Tx).Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("credit wallet of %s: %w", userID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("wallet of %s not found", userID)
	}
	return nil
}

func (r *PostgresRepository) GetUserEmail(ctx context.Context, tx Tx, userID string) (string, error) {
	var email string
	err := tx.(pgx.Tx).QueryRow(ctx,
		`SELECT email FROM users WHERE id = $1`, userID,
	).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("fetch email of %s: %w", userID, err)
	}
	return email, nil
}

func (r *PostgresRepository) RecordAdminAction(ctx context.Context, tx Tx, entry audit.Entry) error {
	_, err := tx.(pgx.Tx).Exec(ctx,
		`INSERT INTO admin_activity_log (admin_id, action, target_table, target_id, before_state, after_state)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.AdminID, entry.Action, entry.TargetTable, entry.TargetID, entry.Before, entry.After,
	)
	if err != nil {
		return fmt.Errorf("record admin action: %w", err)
	}
	return nil
}
