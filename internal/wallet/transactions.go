package wallet

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/db"
)

// Transaction model for responses
type Transaction struct {
	ID         string    `json:"id"`
	Amount     int64     `json:"amount"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	Note       string    `json:"note,omitempty"`
	TransferID *string   `json:"transfer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GetUserTransactions returns all transactions for the authenticated user
func GetUserTransactions(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized or invalid user"})
	}

	rows, err := db.Conn.Query(
		context.Background(),
		`SELECT id, amount, type, name, category, status, note, transfer_id::text, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		uid,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &t.Name, &t.Category, &t.Status, &t.Note, &t.TransferID, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, txs)
}
