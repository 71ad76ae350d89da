package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Abdullahi2202/wealthpay/internal/audit"
	"github.com/Abdullahi2202/wealthpay/internal/settlement"
)

// Handler exposes the admin REST surface over the command executor.
type Handler struct {
	exec  *Executor
	audit *audit.Recorder
}

func NewHandler(exec *Executor, rec *audit.Recorder) *Handler {
	return &Handler{exec: exec, audit: rec}
}

// GET /admin/activity - recent audit trail, newest first
func (h *Handler) ListActivity(c echo.Context) error {
	entries, err := h.audit.List(c.Request().Context(), 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch activity log"})
	}
	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"admin_id":     e.AdminID,
			"action":       e.Action,
			"target_table": e.TargetTable,
			"target_id":    e.TargetID,
			"before":       e.Before,
			"after":        e.After,
			"created_at":   e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": out})
}

type settleRequest struct {
	Note string `json:"note"`
}

// POST /admin/transactions/:id/approve
func (h *Handler) ApproveTransaction(c echo.Context) error {
	return h.settle(c, true)
}

// POST /admin/transactions/:id/reject
func (h *Handler) RejectTransaction(c echo.Context) error {
	return h.settle(c, false)
}

func (h *Handler) settle(c echo.Context, approve bool) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	transactionID := c.Param("id")
	if transactionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transaction id is required"})
	}

	var req settleRequest
	_ = c.Bind(&req) // note is optional; an empty body is fine

	var cmd Command
	if approve {
		cmd = &ApproveTransaction{TransactionID: transactionID, Note: req.Note}
	} else {
		cmd = &RejectTransaction{TransactionID: transactionID, Note: req.Note}
	}

	res, err := h.exec.Execute(c.Request().Context(), adminID, cmd)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "result": res})
}

// POST /admin/commands - generic envelope for the full command set
func (h *Handler) ExecuteCommand(c echo.Context) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var env Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	cmd, err := DecodeCommand(env)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	res, err := h.exec.Execute(c.Request().Context(), adminID, cmd)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "result": res})
}

func settlementError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, settlement.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, settlement.ErrMissingID), errors.Is(err, settlement.ErrInvalidTarget):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}
