package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wealthwise/wealthwise/internal/store"
)

const path = "users/u1/transactions"

// collect subscribes and funnels every delivery into channels the test can
// wait on.
func collect(t *testing.T, s *Store, p string) (snapshots chan []store.Document, errs chan error, release store.Unsubscribe) {
	t.Helper()
	snapshots = make(chan []store.Document, 16)
	errs = make(chan error, 1)
	release, err := s.Subscribe(p,
		func(docs []store.Document) { snapshots <- docs },
		func(err error) { errs <- err },
	)
	if err != nil {
		t.Fatalf("subscribe %s: %v", p, err)
	}
	return snapshots, errs, release
}

func waitSnapshot(t *testing.T, snapshots chan []store.Document) []store.Document {
	t.Helper()
	select {
	case docs := <-snapshots:
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribeDeliversCurrentSnapshotFirst(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Create(ctx, path, map[string]any{"name": "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshots, _, release := collect(t, s, path)
	defer release()

	docs := waitSnapshot(t, snapshots)
	if len(docs) != 1 || docs[0].Fields["name"] != "a" {
		t.Errorf("initial snapshot = %+v", docs)
	}
}

func TestCreatePreservesInsertionOrder(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	snapshots, _, release := collect(t, s, path)
	defer release()
	waitSnapshot(t, snapshots) // empty initial

	names := []string{"a", "b", "c"}
	for _, n := range names {
		if _, err := s.Create(ctx, path, map[string]any{"name": n}); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	var docs []store.Document
	for range names {
		docs = waitSnapshot(t, snapshots)
	}
	if len(docs) != 3 {
		t.Fatalf("final snapshot has %d docs", len(docs))
	}
	for i, n := range names {
		if docs[i].Fields["name"] != n {
			t.Errorf("docs[%d].name = %v, want %s", i, docs[i].Fields["name"], n)
		}
	}
}

func TestCreateRejectsDocumentPath(t *testing.T) {
	s := New()
	defer s.Close()
	if _, err := s.Create(context.Background(), "users/u1/transactions/t1", nil); err == nil {
		t.Fatal("expected error creating under a document path")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, path, map[string]any{"name": "a", "amount": 5.0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	docPath := path + "/" + id
	if err := s.Update(ctx, docPath, map[string]any{"amount": 9.0}); err != nil {
		t.Fatalf("update: %v", err)
	}

	snapshots, _, release := collect(t, s, docPath)
	defer release()

	docs := waitSnapshot(t, snapshots)
	if len(docs) != 1 {
		t.Fatalf("snapshot has %d docs", len(docs))
	}
	if docs[0].Fields["name"] != "a" {
		t.Errorf("merge dropped existing field: %+v", docs[0].Fields)
	}
	if docs[0].Fields["amount"] != 9.0 {
		t.Errorf("amount = %v, want 9", docs[0].Fields["amount"])
	}
}

func TestUpdateCreatesMissingDocument(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Update(ctx, "users/u1", map[string]any{"email": "a@b.c"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	snapshots, _, release := collect(t, s, "users/u1")
	defer release()

	docs := waitSnapshot(t, snapshots)
	if len(docs) != 1 || docs[0].Fields["email"] != "a@b.c" {
		t.Errorf("snapshot = %+v", docs)
	}
}

func TestDeleteAbsentDocumentIsNoOp(t *testing.T) {
	s := New()
	defer s.Close()
	if err := s.Delete(context.Background(), path+"/missing"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestDeleteNotifiesCollectionSubscriber(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, path, map[string]any{"name": "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshots, _, release := collect(t, s, path)
	defer release()
	waitSnapshot(t, snapshots)

	if err := s.Delete(ctx, path+"/"+id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	docs := waitSnapshot(t, snapshots)
	if len(docs) != 0 {
		t.Errorf("snapshot after delete = %+v", docs)
	}
}

func TestBatchUpdateOneSnapshotPerPath(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	billsPath := "users/u1/bills"
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Create(ctx, billsPath, map[string]any{"isPaid": true})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}

	snapshots, _, release := collect(t, s, billsPath)
	defer release()
	waitSnapshot(t, snapshots)

	ops := make([]store.WriteOp, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, store.WriteOp{Path: billsPath + "/" + id, Fields: map[string]any{"isPaid": false}})
	}
	if err := s.BatchUpdate(ctx, ops); err != nil {
		t.Fatalf("batch update: %v", err)
	}

	// Every delivered snapshot must already reflect the whole batch.
	docs := waitSnapshot(t, snapshots)
	for _, d := range docs {
		if d.Fields["isPaid"] != false {
			t.Errorf("doc %s still paid after batch", d.ID)
		}
	}
}

func TestFailTerminatesSubscription(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	snapshots, errs, release := collect(t, s, path)
	defer release()
	waitSnapshot(t, snapshots)

	s.Fail(path, errors.New("backend unavailable"))

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}

	// Mutations after the failure must not reach the failed subscriber.
	if _, err := s.Create(ctx, path, map[string]any{"name": "late"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	select {
	case docs := <-snapshots:
		t.Errorf("snapshot delivered after failure: %+v", docs)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDeliveries(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	snapshots, _, release := collect(t, s, path)
	waitSnapshot(t, snapshots)
	release()

	if _, err := s.Create(ctx, path, map[string]any{"name": "after"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	select {
	case docs := <-snapshots:
		t.Errorf("snapshot delivered after release: %+v", docs)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeAfterCloseFails(t *testing.T) {
	s := New()
	s.Close()
	if _, err := s.Subscribe(path, func([]store.Document) {}, nil); err == nil {
		t.Fatal("expected error subscribing to a closed store")
	}
}

func TestSnapshotsAreIsolatedCopies(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Create(ctx, path, map[string]any{"name": "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshots, _, release := collect(t, s, path)
	defer release()

	docs := waitSnapshot(t, snapshots)
	docs[0].Fields["name"] = "mutated"

	snapshots2, _, release2 := collect(t, s, path)
	defer release2()
	docs2 := waitSnapshot(t, snapshots2)
	if docs2[0].Fields["name"] != "a" {
		t.Error("subscriber mutation leaked into the store")
	}
}
