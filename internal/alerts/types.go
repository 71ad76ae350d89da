package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail     = "email:welcome"
	TaskTransferApproved = "email:transfer_approved"
	TaskTransferRejected = "email:transfer_rejected"
	TaskTopupReceipt     = "email:topup_receipt"
	TaskAdminAlert       = "email:admin_alert"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Settlement outcome payload (sent to the transfer's sender)
type SettlementPayload struct {
	TransferID    string        `json:"transfer_id"`
	TransactionID string        `json:"transaction_id"`
	SenderID      string        `json:"sender_id"`
	Email         string        `json:"email"`
	Amount        int64         `json:"amount"`
	Note          string        `json:"note,omitempty"`
	Envelope      EmailEnvelope `json:"envelope"`
	SentAt        time.Time     `json:"sent_at"`
}

// Top-up receipt payload
type TopupReceiptPayload struct {
	TopupID  string        `json:"topup_id"`
	UserID   string        `json:"user_id"`
	Email    string        `json:"email"`
	Amount   int64         `json:"amount"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Admin alert payload
type AdminAlertPayload struct {
	AdminID  string        `json:"admin_id"`
	Severity string        `json:"severity"` // info|warning|critical
	Message  string        `json:"message"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
