package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/db"
)

// Balance returns the authenticated user's wallet balance
func Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var balance int64
	var frozen bool
	err := db.Conn.QueryRow(context.Background(),
		`SELECT balance, COALESCE(frozen, FALSE) FROM wallets WHERE user_id=$1`, userID).
		Scan(&balance, &frozen)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id": userID,
		"balance": balance,
		"frozen":  frozen,
	})
}
