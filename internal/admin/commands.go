package admin

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abdullahi2202/wealthpay/internal/user"
)

// Admin actions form a closed set of typed commands. Each variant carries
// its own payload and validates it before execution; there is no generic
// action string flowing past this point.

var ErrUnknownAction = errors.New("unknown admin action")

type Command interface {
	Name() string
	Validate() error
}

type ApproveTransaction struct {
	TransactionID string `json:"transaction_id"`
	Note          string `json:"note,omitempty"`
}

func (ApproveTransaction) Name() string { return "transaction.approve" }
func (c ApproveTransaction) Validate() error {
	if c.TransactionID == "" {
		return errors.New("transaction_id is required")
	}
	return nil
}

type RejectTransaction struct {
	TransactionID string `json:"transaction_id"`
	Note          string `json:"note,omitempty"`
}

func (RejectTransaction) Name() string { return "transaction.reject" }
func (c RejectTransaction) Validate() error {
	if c.TransactionID == "" {
		return errors.New("transaction_id is required")
	}
	return nil
}

type SuspendUser struct {
	UserID string `json:"user_id"`
}

func (SuspendUser) Name() string { return "user.suspend" }
func (c SuspendUser) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type ActivateUser struct {
	UserID string `json:"user_id"`
}

func (ActivateUser) Name() string { return "user.activate" }
func (c ActivateUser) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type SetKYCStatus struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func (SetKYCStatus) Name() string { return "user.set_kyc" }
func (c SetKYCStatus) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	if !user.ValidKYCStatus(c.Status) {
		return fmt.Errorf("invalid kyc status %q", c.Status)
	}
	return nil
}

type AdjustWallet struct {
	UserID string `json:"user_id"`
	Delta  int64  `json:"delta"` // minor units, negative to debit
	Reason string `json:"reason"`
}

func (AdjustWallet) Name() string { return "wallet.adjust" }
func (c AdjustWallet) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	if c.Delta == 0 {
		return errors.New("delta must be non-zero")
	}
	if c.Reason == "" {
		return errors.New("reason is required")
	}
	return nil
}

// Envelope is the wire form of a generic admin command request.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeCommand maps an envelope onto its typed command.
func DecodeCommand(env Envelope) (Command, error) {
	var cmd Command
	switch env.Action {
	case ApproveTransaction{}.Name():
		cmd = &ApproveTransaction{}
	case RejectTransaction{}.Name():
		cmd = &RejectTransaction{}
	case SuspendUser{}.Name():
		cmd = &SuspendUser{}
	case ActivateUser{}.Name():
		cmd = &ActivateUser{}
	case SetKYCStatus{}.Name():
		cmd = &SetKYCStatus{}
	case AdjustWallet{}.Name():
		cmd = &AdjustWallet{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, cmd); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Action, err)
		}
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", env.Action, err)
	}
	return cmd, nil
}
