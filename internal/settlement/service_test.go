package settlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Abdullahi2202/wealthpay/internal/audit"
)

// fakeTx tracks commit/rollback state. The fake repository applies writes
// eagerly, so tests assert on commit/rollback calls rather than staging.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	if t.rolledBack {
		return errors.New("tx already rolled back")
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeRepo struct {
	transactions map[string]*TransactionRecord
	transfers    map[string]*TransferIntent
	balances     map[string]int64
	emails       map[string]string
	auditEntries []audit.Entry

	lastTx *fakeTx

	creditErr error
	markErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		transactions: make(map[string]*TransactionRecord),
		transfers:    make(map[string]*TransferIntent),
		balances:     make(map[string]int64),
		emails:       make(map[string]string),
	}
}

func (r *fakeRepo) Begin(context.Context) (Tx, error) {
	r.lastTx = &fakeTx{}
	return r.lastTx, nil
}

func (r *fakeRepo) GetTransaction(_ context.Context, _ Tx, id string) (*TransactionRecord, error) {
	t, ok := r.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRepo) UpdateTransactionStatus(_ context.Context, _ Tx, id, status, note string) error {
	t, ok := r.transactions[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	if note != "" {
		if t.Note == "" {
			t.Note = note
		} else {
			t.Note = t.Note + "\n" + note
		}
	}
	return nil
}

func (r *fakeRepo) GetTransfer(_ context.Context, _ Tx, id string) (*TransferIntent, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRepo) FindLatestPendingTransferByAmount(_ context.Context, _ Tx, amount int64) (*TransferIntent, error) {
	var best *TransferIntent
	for _, t := range r.transfers {
		if t.Status != TransferPending || t.Amount != amount {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeRepo) MarkTransfer(_ context.Context, _ Tx, id, status string) error {
	if r.markErr != nil {
		return r.markErr
	}
	t, ok := r.transfers[id]
	if !ok || t.Status != TransferPending {
		return errors.New("transfer is no longer pending")
	}
	t.Status = status
	return nil
}

func (r *fakeRepo) CreditWallet(_ context.Context, _ Tx, userID string, amount int64) error {
	if r.creditErr != nil {
		return r.creditErr
	}
	if _, ok := r.balances[userID]; !ok {
		return errors.New("wallet not found")
	}
	r.balances[userID] += amount
	return nil
}

func (r *fakeRepo) GetUserEmail(_ context.Context, _ Tx, userID string) (string, error) {
	return r.emails[userID], nil
}

func (r *fakeRepo) RecordAdminAction(_ context.Context, _ Tx, entry audit.Entry) error {
	r.auditEntries = append(r.auditEntries, entry)
	return nil
}

type fakeNotifier struct {
	outcomes []Outcome
	err      error
}

func (n *fakeNotifier) SettlementOutcome(_ context.Context, o Outcome) error {
	n.outcomes = append(n.outcomes, o)
	return n.err
}

func newTestService(t *testing.T, repo *fakeRepo, n *fakeNotifier) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, n, logger)
}

func seedTransfer(r *fakeRepo, id, sender, recipient string, amount int64, createdAt time.Time) {
	r.transfers[id] = &TransferIntent{
		ID: id, SenderID: sender, RecipientID: recipient,
		Amount: amount, Status: TransferPending, CreatedAt: createdAt,
	}
}

func seedTransaction(r *fakeRepo, id, user string, amount int64) {
	r.transactions[id] = &TransactionRecord{
		ID: id, UserID: user, Amount: amount,
		Type: "transfer", Status: TxnPending, CreatedAt: time.Now(),
	}
}

func TestSettleApproveCreditsRecipient(t *testing.T) {
	repo := newFakeRepo()
	seedTransaction(repo, "T1", "A", 5000)
	seedTransfer(repo, "X1", "A", "B", 5000, time.Now())
	repo.balances["A"] = 0
	repo.balances["B"] = 1000
	repo.emails["A"] = "a@example.com"
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n)

	res, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	if !res.Matched || res.TransferID != "X1" {
		t.Errorf("result = %+v, want matched transfer X1", res)
	}
	if got := repo.transfers["X1"].Status; got != TransferCompleted {
		t.Errorf("transfer status = %q, want %q", got, TransferCompleted)
	}
	if got := repo.balances["B"]; got != 6000 {
		t.Errorf("recipient balance = %d, want 6000", got)
	}
	if got := repo.balances["A"]; got != 0 {
		t.Errorf("sender balance = %d, want 0", got)
	}
	if got := repo.transactions["T1"].Status; got != TxnCompleted {
		t.Errorf("transaction status = %q, want %q", got, TxnCompleted)
	}
	if !repo.lastTx.committed {
		t.Error("settlement was not committed")
	}
	if len(n.outcomes) != 1 || !n.outcomes[0].Approved || n.outcomes[0].Email != "a@example.com" {
		t.Errorf("outcomes = %+v, want one approved notice to sender", n.outcomes)
	}
	if len(repo.auditEntries) != 1 || repo.auditEntries[0].Action != "settlement.completed" {
		t.Errorf("audit entries = %+v, want one settlement.completed", repo.auditEntries)
	}
}

func TestSettleRejectRefundsSender(t *testing.T) {
	repo := newFakeRepo()
	seedTransaction(repo, "T1", "A", 5000)
	seedTransfer(repo, "X1", "A", "B", 5000, time.Now())
	repo.balances["A"] = 100
	repo.balances["B"] = 0
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n)

	res, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnRejected, ReasonNote: "suspected fraud", ActorID: "admin1",
	})
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	if res.CreditedUserID != "A" {
		t.Errorf("credited user = %q, want sender A", res.CreditedUserID)
	}
	if got := repo.transfers["X1"].Status; got != TransferRejected {
		t.Errorf("transfer status = %q, want %q", got, TransferRejected)
	}
	if got := repo.balances["A"]; got != 5100 {
		t.Errorf("sender balance = %d, want 5100 (refund)", got)
	}
	if got := repo.balances["B"]; got != 0 {
		t.Errorf("recipient balance = %d, want 0", got)
	}
	if got := repo.transactions["T1"].Note; got != "suspected fraud" {
		t.Errorf("note = %q, want reason appended", got)
	}
	if len(n.outcomes) != 1 || n.outcomes[0].Approved {
		t.Errorf("outcomes = %+v, want one rejected notice", n.outcomes)
	}
}

func TestSettleNoteAppendsNeverReplaces(t *testing.T) {
	repo := newFakeRepo()
	seedTransaction(repo, "T1", "A", 5000)
	repo.transactions["T1"].Note = "original note"
	svc := newTestService(t, repo, &fakeNotifier{})

	if _, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnRejected, ReasonNote: "admin reason", ActorID: "admin1",
	}); err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	want := "original note\nadmin reason"
	if got := repo.transactions["T1"].Note; got != want {
		t.Errorf("note = %q, want %q", got, want)
	}
}

func TestSettleNoMatchingTransfer(t *testing.T) {
	repo := newFakeRepo()
	seedTransaction(repo, "T1", "A", 5000)
	repo.balances["A"] = 100
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n)

	res, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	if res.Matched {
		t.Error("result.Matched = true, want false")
	}
	if got := repo.transactions["T1"].Status; got != TxnCompleted {
		t.Errorf("transaction status = %q, want %q", got, TxnCompleted)
	}
	if got := repo.balances["A"]; got != 100 {
		t.Errorf("balance changed to %d on a status-only resolve", got)
	}
	if len(n.outcomes) != 0 {
		t.Errorf("outcomes = %+v, want none", n.outcomes)
	}
}

func TestSettleUnknownTransaction(t *testing.T) {
	repo := newFakeRepo()
	seedTransfer(repo, "X1", "A", "B", 5000, time.Now())
	repo.balances["B"] = 0
	svc := newTestService(t, repo, &fakeNotifier{})

	_, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "missing", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Settle() error = %v, want ErrNotFound", err)
	}
	if repo.transfers["X1"].Status != TransferPending {
		t.Error("transfer mutated on NotFound")
	}
	if repo.balances["B"] != 0 {
		t.Error("balance mutated on NotFound")
	}
	if repo.lastTx == nil || repo.lastTx.committed {
		t.Error("tx must begin and roll back, not commit")
	}
}

func TestSettleValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeNotifier{})

	if _, err := svc.Settle(context.Background(), SettleRequest{TargetStatus: TxnCompleted}); !errors.Is(err, ErrMissingID) {
		t.Errorf("missing id error = %v, want ErrMissingID", err)
	}
	if _, err := svc.Settle(context.Background(), SettleRequest{TransactionID: "T1", TargetStatus: "archived"}); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("bad target error = %v, want ErrInvalidTarget", err)
	}
	if repo.lastTx != nil {
		t.Error("validation failures must not begin a transaction")
	}
}

func TestSettleNewestPendingWins(t *testing.T) {
	// Two pending transfers of equal amount: the heuristic must match the
	// most recently created one. This pins the documented tie-break.
	repo := newFakeRepo()
	now := time.Now()
	seedTransfer(repo, "X1", "A", "B", 5000, now.Add(-time.Hour))
	seedTransfer(repo, "X2", "C", "D", 5000, now)
	seedTransaction(repo, "T1", "C", 5000)
	repo.balances["B"] = 0
	repo.balances["D"] = 0
	svc := newTestService(t, repo, &fakeNotifier{})

	res, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	if res.TransferID != "X2" {
		t.Fatalf("matched transfer = %s, want X2 (newest)", res.TransferID)
	}
	if repo.transfers["X1"].Status != TransferPending {
		t.Error("older transfer X1 must stay pending")
	}
	if repo.balances["D"] != 5000 || repo.balances["B"] != 0 {
		t.Errorf("balances B=%d D=%d, want only D credited", repo.balances["B"], repo.balances["D"])
	}
}

func TestSettleExplicitReferencePreferred(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	seedTransfer(repo, "X1", "A", "B", 5000, now.Add(-time.Hour))
	seedTransfer(repo, "X2", "C", "D", 5000, now)
	seedTransaction(repo, "T1", "A", 5000)
	ref := "X1"
	repo.transactions["T1"].TransferID = &ref
	repo.balances["B"] = 0
	repo.balances["D"] = 0
	svc := newTestService(t, repo, &fakeNotifier{})

	res, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	// The explicit reference beats the newest-wins heuristic.
	if res.TransferID != "X1" {
		t.Fatalf("matched transfer = %s, want referenced X1", res.TransferID)
	}
	if repo.balances["B"] != 5000 {
		t.Errorf("referenced recipient balance = %d, want 5000", repo.balances["B"])
	}
}

func TestSettleReferencedTransferAlreadySettled(t *testing.T) {
	repo := newFakeRepo()
	seedTransfer(repo, "X1", "A", "B", 5000, time.Now())
	repo.transfers["X1"].Status = TransferCompleted
	seedTransaction(repo, "T1", "A", 5000)
	ref := "X1"
	repo.transactions["T1"].TransferID = &ref
	repo.balances["B"] = 5000
	svc := newTestService(t, repo, &fakeNotifier{})

	res, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	if res.Matched {
		t.Error("settled reference must resolve status-only")
	}
	if repo.balances["B"] != 5000 {
		t.Errorf("balance = %d, want unchanged 5000", repo.balances["B"])
	}
}

func TestSettleTwiceDoubleAppliesWithSiblingAmounts(t *testing.T) {
	// Known defect of the legacy heuristic, kept under test: when a second
	// pending transfer shares the amount, settling the same transaction
	// twice credits twice. Rows with an explicit transfer reference are
	// immune (see TestSettleReferencedTransferAlreadySettled).
	repo := newFakeRepo()
	now := time.Now()
	seedTransfer(repo, "X1", "A", "B", 5000, now.Add(-time.Hour))
	seedTransfer(repo, "X2", "A", "B", 5000, now)
	seedTransaction(repo, "T1", "A", 5000)
	repo.balances["B"] = 0
	svc := newTestService(t, repo, &fakeNotifier{})

	for i := 0; i < 2; i++ {
		if _, err := svc.Settle(context.Background(), SettleRequest{
			TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
		}); err != nil {
			t.Fatalf("Settle() call %d error: %v", i+1, err)
		}
	}
	if repo.balances["B"] != 10000 {
		t.Errorf("recipient balance = %d; the documented double-apply yields 10000", repo.balances["B"])
	}
}

func TestSettleStoreErrorRollsBack(t *testing.T) {
	repo := newFakeRepo()
	seedTransaction(repo, "T1", "A", 5000)
	seedTransfer(repo, "X1", "A", "B", 5000, time.Now())
	repo.balances["B"] = 0
	repo.creditErr = errors.New("constraint violation")
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n)

	_, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	})
	if err == nil {
		t.Fatal("Settle() succeeded despite credit failure")
	}
	if repo.lastTx.committed {
		t.Error("tx committed despite failure")
	}
	if !repo.lastTx.rolledBack {
		t.Error("tx not rolled back on failure")
	}
	if len(n.outcomes) != 0 {
		t.Error("notification dispatched for a failed settlement")
	}
}

func TestSettleNotifierFailureDoesNotFailSettlement(t *testing.T) {
	repo := newFakeRepo()
	seedTransaction(repo, "T1", "A", 5000)
	seedTransfer(repo, "X1", "A", "B", 5000, time.Now())
	repo.balances["B"] = 0
	n := &fakeNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, repo, n)

	if _, err := svc.Settle(context.Background(), SettleRequest{
		TransactionID: "T1", TargetStatus: TxnCompleted, ActorID: "admin1",
	}); err != nil {
		t.Fatalf("Settle() error: %v, notification failures must not surface", err)
	}
	if repo.balances["B"] != 5000 {
		t.Errorf("balance = %d, want 5000", repo.balances["B"])
	}
}
