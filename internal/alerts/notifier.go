package alerts

import (
	"context"
	"fmt"

	"github.com/Abdullahi2202/wealthpay/internal/settlement"
)

// SettlementNotifier adapts the alerts queue to the reconciler's Notifier
// contract. Each outcome produces one email task and one in-app
// notification row for the sender.
type SettlementNotifier struct{}

func NewSettlementNotifier() *SettlementNotifier {
	return &SettlementNotifier{}
}

func (n *SettlementNotifier) SettlementOutcome(ctx context.Context, o settlement.Outcome) error {
	title := "Transfer approved"
	ntype := "transfer_approved"
	body := fmt.Sprintf("Your transfer of %s was approved.", formatAmount(o.Amount))
	if !o.Approved {
		title = "Transfer rejected"
		ntype = "transfer_rejected"
		body = fmt.Sprintf("Your transfer of %s was rejected and refunded.", formatAmount(o.Amount))
		if o.Note != "" {
			body += " Reason: " + o.Note
		}
	}

	// In-app notification first; it has no external dependency.
	ref := o.TransferID
	if err := CreateNotification(ctx, o.SenderID, ntype, title, body, &ref, nil); err != nil {
		return fmt.Errorf("in-app notification: %w", err)
	}

	if o.Approved {
		return EnqueueTransferApproved(o.TransferID, o.TransactionID, o.SenderID, o.Email, o.Amount)
	}
	return EnqueueTransferRejected(o.TransferID, o.TransactionID, o.SenderID, o.Email, o.Amount, o.Note)
}
