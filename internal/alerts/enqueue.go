package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to WealthPay, %s!", name)
	body := fmt.Sprintf("Hi %s, your WealthPay wallet is ready.\n\nOpen WealthPay: %s", name, base)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueTransferApproved notifies the sender that their transfer settled
func EnqueueTransferApproved(transferID, transactionID, senderID, email string, amount int64) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "Your transfer has been approved",
		Body:    fmt.Sprintf("Transfer %s for %s was approved and delivered to the recipient.", transferID, formatAmount(amount)),
	}
	payload := SettlementPayload{TransferID: transferID, TransactionID: transactionID, SenderID: senderID, Email: email, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskTransferApproved, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueTransferRejected notifies the sender that their transfer was
// rejected and the amount refunded to their wallet
func EnqueueTransferRejected(transferID, transactionID, senderID, email string, amount int64, note string) error {
	body := fmt.Sprintf("Transfer %s for %s was rejected. The amount has been returned to your wallet.", transferID, formatAmount(amount))
	if note != "" {
		body += "\n\nReason: " + note
	}
	env := EmailEnvelope{To: email, Subject: "Your transfer was rejected", Body: body}
	payload := SettlementPayload{TransferID: transferID, TransactionID: transactionID, SenderID: senderID, Email: email, Amount: amount, Note: note, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskTransferRejected, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueTopupReceipt sends a receipt after a confirmed top-up
func EnqueueTopupReceipt(topupID, userID, email string, amount int64) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "Top-up received",
		Body:    fmt.Sprintf("Your wallet was topped up with %s. Reference %s.", formatAmount(amount), topupID),
	}
	payload := TopupReceiptPayload{TopupID: topupID, UserID: userID, Email: email, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskTopupReceipt, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueAdminAlert sends an alert to admins
func EnqueueAdminAlert(adminID, severity, message string) error {
	env := EmailEnvelope{To: "ops@wealthpay.local", Subject: "Admin Alert", Body: message}
	payload := AdminAlertPayload{AdminID: adminID, Severity: severity, Message: message, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskAdminAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
