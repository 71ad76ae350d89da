package admin

import (
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, action, payload string) (Command, error) {
	t.Helper()
	env := Envelope{Action: action, Payload: json.RawMessage(payload)}
	return DecodeCommand(env)
}

func TestDecodeApproveTransaction(t *testing.T) {
	cmd, err := decode(t, "transaction.approve", `{"transaction_id":"tx-1","note":"looks good"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ap, ok := cmd.(*ApproveTransaction)
	if !ok {
		t.Fatalf("expected *ApproveTransaction, got %T", cmd)
	}
	if ap.TransactionID != "tx-1" || ap.Note != "looks good" {
		t.Errorf("unexpected fields: %+v", ap)
	}
}

func TestDecodeRejectRequiresTransactionID(t *testing.T) {
	_, err := decode(t, "transaction.reject", `{"note":"fraud"}`)
	if err == nil {
		t.Fatal("expected validation error for missing transaction_id")
	}
}

func TestDecodeSetKYCStatus(t *testing.T) {
	cmd, err := decode(t, "user.set_kyc", `{"user_id":"u-1","status":"verified"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := cmd.(*SetKYCStatus); !ok {
		t.Fatalf("expected *SetKYCStatus, got %T", cmd)
	}
}

func TestDecodeSetKYCStatusRejectsBadStatus(t *testing.T) {
	_, err := decode(t, "user.set_kyc", `{"user_id":"u-1","status":"approved-ish"}`)
	if err == nil {
		t.Fatal("expected validation error for unknown kyc status")
	}
}

func TestDecodeAdjustWalletRejectsZeroAmount(t *testing.T) {
	_, err := decode(t, "wallet.adjust", `{"user_id":"u-1","delta":0,"reason":"test"}`)
	if err == nil {
		t.Fatal("expected validation error for zero amount")
	}
}

func TestDecodeAdjustWalletRequiresReason(t *testing.T) {
	_, err := decode(t, "wallet.adjust", `{"user_id":"u-1","delta":500}`)
	if err == nil {
		t.Fatal("expected validation error for missing reason")
	}
}

func TestDecodeUnknownAction(t *testing.T) {
	_, err := decode(t, "delete_everything", `{}`)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := decode(t, "user.suspend", `{"user_id":`)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestCommandNames(t *testing.T) {
	cases := []struct {
		cmd  Command
		want string
	}{
		{ApproveTransaction{}, "transaction.approve"},
		{RejectTransaction{}, "transaction.reject"},
		{SuspendUser{}, "user.suspend"},
		{ActivateUser{}, "user.activate"},
		{SetKYCStatus{}, "user.set_kyc"},
		{AdjustWallet{}, "wallet.adjust"},
	}
	for _, tc := range cases {
		if got := tc.cmd.Name(); got != tc.want {
			t.Errorf("Name() = %q, want %q", got, tc.want)
		}
	}
}
