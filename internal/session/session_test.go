package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// fakeStore echoes the payload back as canonical, optionally failing or
// blocking to exercise the save discipline.
type fakeStore struct {
	mu       sync.Mutex
	calls    int
	failWith error
	block    chan struct{}
	last     SavePayload
}

func (f *fakeStore) Persist(ctx context.Context, payload SavePayload) (Snapshot, error) {
	f.mu.Lock()
	f.calls++
	f.last = payload
	block := f.block
	failWith := f.failWith
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if failWith != nil {
		return Snapshot{}, failWith
	}

	snap := PayloadSnapshot(payload)
	return snap.Recompute()
}

func TestSessionApplySetsDirty(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)

	if sess.Dirty() {
		t.Fatal("fresh session must not be dirty")
	}

	_, err := sess.Apply(func(s Snapshot) (Snapshot, error) {
		return EditProductLineField(s, s.ProductLines[0].ID, LineFieldQuantity, "11")
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !sess.Dirty() {
		t.Error("session must be dirty after an accepted edit")
	}
}

func TestSessionRejectedEditLeavesStateAlone(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)

	_, err := sess.Apply(func(s Snapshot) (Snapshot, error) {
		return EditProductLineField(s, s.ProductLines[0].ID, LineFieldQuantity, "0")
	})
	if err == nil {
		t.Fatal("expected rejection")
	}
	if sess.Dirty() {
		t.Error("rejected edit must not set the dirty flag")
	}
	if got := sess.Working().ProductLines[0].Quantity; got != 10 {
		t.Errorf("working quantity = %d, want 10", got)
	}
}

func TestSessionCancelRestoresCanonical(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)

	if _, err := sess.Apply(func(s Snapshot) (Snapshot, error) {
		return EditPercentage(s, PctFieldWithholding, "10")
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	restored := sess.Cancel()
	if sess.Dirty() {
		t.Error("cancel must clear the dirty flag")
	}
	if !restored.Percentages.Withholding.Equal(snap.Percentages.Withholding) {
		t.Errorf("withholding = %s after cancel, want %s",
			restored.Percentages.Withholding, snap.Percentages.Withholding)
	}
}

func TestSessionSaveReplacesCanonical(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)
	store := &fakeStore{}

	if _, err := sess.Apply(func(s Snapshot) (Snapshot, error) {
		return EditProductLineField(s, s.ProductLines[0].ID, LineFieldUnitPrice, "1100")
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	canonical, err := sess.Save(context.Background(), store)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if sess.Dirty() {
		t.Error("save must clear the dirty flag")
	}
	if !canonical.ProductLines[0].UnitPrice.Equal(dec("1100")) {
		t.Errorf("canonical unit_price = %s, want 1100", canonical.ProductLines[0].UnitPrice)
	}

	// Cancel now rolls back to the NEW canonical, not the original.
	restored := sess.Cancel()
	if !restored.ProductLines[0].UnitPrice.Equal(dec("1100")) {
		t.Error("cancel after save must restore the saved state")
	}
}

func TestSessionSavePayloadIsComplete(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)
	store := &fakeStore{}

	if _, err := sess.Save(context.Background(), store); err != nil {
		t.Fatalf("save: %v", err)
	}

	p := store.last
	if len(p.ProductLines) != len(snap.ProductLines) || len(p.ItemLines) != len(snap.ItemLines) {
		t.Fatal("payload must carry every line")
	}
	if !p.Breakdown.TotalValue.Equal(snap.Breakdown.TotalValue) {
		t.Errorf("payload total_value = %s, want %s", p.Breakdown.TotalValue, snap.Breakdown.TotalValue)
	}
	if !p.ProductLines[0].PartialValue.Equal(snap.ProductLines[0].Totals.PartialValue) {
		t.Error("payload lines must carry derived fields")
	}
}

func TestSessionSaveFailureKeepsWorkingSnapshot(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)
	store := &fakeStore{failWith: fmt.Errorf("connection reset")}

	if _, err := sess.Apply(func(s Snapshot) (Snapshot, error) {
		return EditProductLineField(s, s.ProductLines[0].ID, LineFieldQuantity, "15")
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := sess.Save(context.Background(), store); err == nil {
		t.Fatal("expected save failure")
	}
	if !sess.Dirty() {
		t.Error("failed save must keep the session dirty")
	}
	if got := sess.Working().ProductLines[0].Quantity; got != 15 {
		t.Errorf("working quantity = %d after failed save, want 15", got)
	}

	// The user can retry once the store recovers.
	store.failWith = nil
	if _, err := sess.Save(context.Background(), store); err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if sess.Dirty() {
		t.Error("retried save must clear the dirty flag")
	}
}

func TestSessionConcurrentSaveRejected(t *testing.T) {
	snap := testSnapshot(t)
	sess := New(snap)
	store := &fakeStore{block: make(chan struct{})}

	firstDone := make(chan error, 1)
	go func() {
		_, err := sess.Save(context.Background(), store)
		firstDone <- err
	}()

	// Wait for the first save to reach the store.
	for {
		store.mu.Lock()
		started := store.calls > 0
		store.mu.Unlock()
		if started {
			break
		}
	}

	if _, err := sess.Save(context.Background(), store); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("second save error = %v, want ErrSaveInFlight", err)
	}

	close(store.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first save: %v", err)
	}

	// With the first save settled, saving works again.
	store.block = nil
	if _, err := sess.Save(context.Background(), store); err != nil {
		t.Fatalf("save after settle: %v", err)
	}
}

func TestManagerAcquireAndDrop(t *testing.T) {
	m := NewManager()
	snap := testSnapshot(t)
	id := snap.QuotationID

	loads := 0
	load := func() (Snapshot, error) {
		loads++
		return snap, nil
	}

	first, err := m.Acquire(id, load)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	second, err := m.Acquire(id, load)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if first != second {
		t.Error("acquire must return the same session per quotation")
	}
	if loads != 1 {
		t.Errorf("canonical loaded %d times, want 1", loads)
	}

	m.Drop(id)
	if _, err := m.Acquire(id, load); err != nil {
		t.Fatalf("acquire after drop: %v", err)
	}
	if loads != 2 {
		t.Errorf("canonical loaded %d times after drop, want 2", loads)
	}
}

func TestManagerLoadFailure(t *testing.T) {
	m := NewManager()
	wantErr := fmt.Errorf("quotation not found")

	_, err := m.Acquire(uuid.New(), func() (Snapshot, error) {
		return Snapshot{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}
