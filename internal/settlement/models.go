package settlement

import "time"

// Transfer statuses. A transfer leaves pending exactly once and never
// returns to it.
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferRejected  = "rejected"
)

// Transaction statuses visible to users and admins.
const (
	TxnPending   = "pending"
	TxnCompleted = "completed"
	TxnFailed    = "failed"
	TxnCancelled = "cancelled"
	TxnRejected  = "rejected"
)

// TransferIntent is a peer-to-peer money movement awaiting settlement.
// Amounts are in minor currency units.
type TransferIntent struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionRecord is the user-facing ledger entry. TransferID is the
// explicit link to the paired transfer; legacy rows have none and are
// matched by the amount heuristic instead.
type TransactionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	Note       string    `json:"note"`
	TransferID *string   `json:"transfer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
