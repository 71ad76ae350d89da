package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/db"
)

type AdminUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	KYCStatus string    `json:"kyc_status"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, name, email, role, COALESCE(is_active, TRUE), COALESCE(kyc_status, 'unverified'), created_at
         FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.KYCStatus, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type AdminWallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	Frozen    bool      `json:"frozen"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/wallets
func ListWallets(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT user_id, balance, COALESCE(frozen, FALSE), created_at FROM wallets ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch wallets"})
	}
	defer rows.Close()

	var wallets []AdminWallet
	for rows.Next() {
		var w AdminWallet
		if err := rows.Scan(&w.UserID, &w.Balance, &w.Frozen, &w.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read wallet record"})
		}
		wallets = append(wallets, w)
	}
	return c.JSON(http.StatusOK, echo.Map{"wallets": wallets})
}

type AdminTransaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	Note       string    `json:"note,omitempty"`
	TransferID *string   `json:"transfer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GET /admin/transactions
func ListTransactions(c echo.Context) error {
	query := `SELECT id, user_id, type, amount, status, note, transfer_id::text, created_at
	          FROM transactions ORDER BY created_at DESC`
	args := []interface{}{}
	if status := c.QueryParam("status"); status != "" {
		query = `SELECT id, user_id, type, amount, status, note, transfer_id::text, created_at
		         FROM transactions WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, status)
	}

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []AdminTransaction
	for rows.Next() {
		var t AdminTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Note, &t.TransferID, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read transaction record"})
		}
		txs = append(txs, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// GET /admin/transactions/user/:id
func ListUserTransactions(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user ID is required"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, type, amount, status, note, transfer_id::text, created_at
		 FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch user transactions"})
	}
	defer rows.Close()

	var txs []AdminTransaction
	for rows.Next() {
		var t AdminTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Note, &t.TransferID, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read transaction record"})
		}
		txs = append(txs, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

type AdminTransfer struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// GET /admin/transfers/pending
func ListPendingTransfers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, sender_id, recipient_id, amount, status, created_at
		 FROM transfers WHERE status = 'pending' ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transfers"})
	}
	defer rows.Close()

	var transfers []AdminTransfer
	for rows.Next() {
		var t AdminTransfer
		if err := rows.Scan(&t.ID, &t.SenderID, &t.RecipientID, &t.Amount, &t.Status, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read transfer record"})
		}
		transfers = append(transfers, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"pending_transfers": transfers})
}

// GET /admin/topups/pending
func ListPendingTopups(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, amount, status, created_at
		 FROM topups WHERE status = 'pending' ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch topups"})
	}
	defer rows.Close()

	var topups []map[string]interface{}
	for rows.Next() {
		var id, userID, status string
		var amount int64
		var createdAt time.Time
		if err := rows.Scan(&id, &userID, &amount, &status, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read topup record"})
		}
		topups = append(topups, map[string]interface{}{
			"id": id, "user_id": userID, "amount": amount,
			"status": status, "created_at": createdAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"pending_topups": topups})
}

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, wallets, transactions, pendingTransfers int
	var totalBalance int64

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&wallets)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&transactions)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transfers WHERE status = 'pending'`).Scan(&pendingTransfers)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM wallets`).Scan(&totalBalance)

	return c.JSON(http.StatusOK, echo.Map{
		"users":             users,
		"wallets":           wallets,
		"transactions":      transactions,
		"pending_transfers": pendingTransfers,
		"total_balance":     totalBalance,
	})
}
