package user

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/db"
)

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// PATCH /user/profile
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name)
		WHERE id = $2
	`
	_, err := db.Conn.Exec(c.Request().Context(), query, req.Name, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "profile updated successfully",
	})
}

// GET /user/:id/profile - public, exposes only non-sensitive fields
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user ID is required"})
	}

	var name string
	var verified bool
	err := db.Conn.QueryRow(context.Background(),
		`SELECT name, COALESCE(kyc_status, 'unverified') = 'verified' FROM users WHERE id = $1`, userID,
	).Scan(&name, &verified)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":       userID,
		"name":     name,
		"verified": verified,
	})
}

// SubmitKYC moves the user's verification status to pending for admin review
func SubmitKYC(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res, err := db.Conn.Exec(c.Request().Context(),
		`UPDATE users SET kyc_status = 'pending' WHERE id = $1 AND COALESCE(kyc_status, 'unverified') IN ('unverified', 'rejected')`,
		userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to submit verification"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "verification already submitted or completed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification submitted", "kyc_status": "pending"})
}
