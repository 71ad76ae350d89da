package wallet

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/db"
)

type SendRequest struct {
	RecipientEmail string `json:"recipient_email"`
	Amount         int64  `json:"amount"`
	Note           string `json:"note"`
}

// Send initiates a peer-to-peer transfer. The sender's wallet is debited
// immediately and the funds stay in limbo until an admin settles the
// transaction: approval credits the recipient, rejection refunds the
// sender. The transaction row carries the transfer id so settlement does
// not need the legacy amount-matching heuristic.
func Send(c echo.Context) error {
	senderID, ok := c.Get("user_id").(string)
	if !ok || senderID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}
	if req.RecipientEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient_email is required"})
	}

	ctx := context.Background()

	var recipientID string
	err := db.Conn.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND COALESCE(is_active, TRUE)`, req.RecipientEmail,
	).Scan(&recipientID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient not found"})
	}
	if recipientID == senderID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot send to yourself"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start transaction"})
	}
	defer tx.Rollback(ctx)

	// Guarded debit: no balance read, no race, never negative
	res, err := tx.Exec(ctx,
		`UPDATE wallets
		 SET balance = balance - $1, updated_at = NOW()
		 WHERE user_id = $2 AND balance >= $1 AND NOT COALESCE(frozen, FALSE)`,
		req.Amount, senderID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not debit wallet"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient balance or wallet frozen"})
	}

	transferID := uuid.New().String()
	now := time.Now()
	_, err = tx.Exec(ctx,
		`INSERT INTO transfers (id, sender_id, recipient_id, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, 'pending', $5)`,
		transferID, senderID, recipientID, req.Amount, now,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create transfer"})
	}

	transactionID := uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, name, category, status, note, transfer_id, created_at)
		 VALUES ($1, $2, $3, 'transfer', 'Money sent', 'transfer', 'pending', $4, $5, $6)`,
		transactionID, senderID, req.Amount, req.Note, transferID, now,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record transaction"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not finalize transfer"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transfer_id":    transferID,
		"transaction_id": transactionID,
		"amount":         req.Amount,
		"status":         "pending",
		"message":        "Transfer created and awaiting settlement",
	})
}
