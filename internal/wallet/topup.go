package wallet

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/alerts"
	"github.com/Abdullahi2202/wealthpay/internal/db"
)

type TopupRequest struct {
	Amount int64 `json:"amount" validate:"required,min=100"`
}

type TopupResponse struct {
	TopupID string `json:"topup_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TopupInit creates a new topup record (pending)
func TopupInit(c echo.Context) error {
	req := new(TopupRequest)
	if err := c.Bind(req); err != nil || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	userID := c.Get("user_id").(string)

	ctx := context.Background()
	topupID := uuid.New().String()

	_, err := db.Conn.Exec(ctx,
		`INSERT INTO topups (id, user_id, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		topupID, userID, req.Amount, "pending", time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create topup"})
	}

	// The card charge itself happens at the processor; we only hand out
	// the hosted payment URL and wait for the confirm callback.
	paymentURL := os.Getenv("PAYMENT_URL")
	if paymentURL == "" {
		paymentURL = "https://pay.wealthpay.dev/checkout/" + topupID
	}

	return c.JSON(http.StatusOK, TopupResponse{
		TopupID: topupID,
		Status:  "pending",
		Message: "Topup initialized. Complete payment at " + paymentURL,
	})
}

type ConfirmTopupRequest struct {
	TopupID   string `json:"topup_id"`
	Reference string `json:"reference"`
}

// ConfirmTopup marks the topup completed and credits the wallet.
// The status flip and the credit commit together.
func ConfirmTopup(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req ConfirmTopupRequest
	if err := c.Bind(&req); err != nil || req.TopupID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := context.Background()

	var amount int64
	err := db.Conn.QueryRow(ctx,
		`SELECT amount FROM topups WHERE id=$1 AND user_id=$2 AND status='pending'`,
		req.TopupID, userID,
	).Scan(&amount)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "topup not found or already processed"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start transaction"})
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx,
		`UPDATE topups SET status='completed', reference=$1 WHERE id=$2 AND status='pending'`,
		req.Reference, req.TopupID,
	)
	if err != nil || res.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "topup already processed"})
	}

	_, err = tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2`,
		amount, userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit wallet"})
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, name, category, status, created_at)
		 VALUES ($1, $2, $3, 'income', 'Wallet top-up', 'topup', 'completed', $4)`,
		uuid.New().String(), userID, amount, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record transaction"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not finalize topup"})
	}

	// Receipt is best-effort
	var email string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if email != "" {
		_ = alerts.EnqueueTopupReceipt(req.TopupID, userID, email, amount)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"topup_id": req.TopupID,
		"amount":   amount,
		"status":   "completed",
		"message":  "Topup confirmed and wallet credited",
	})
}
