// Package memory provides the in-process implementation of the store
// boundary. It keeps collections in insertion order and pushes full
// snapshots to subscribers, which makes it both the local development
// backend and the substrate the binding tests run against.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wealthwise/wealthwise/internal/store"
)

type document struct {
	id     string
	fields map[string]any
}

type event struct {
	docs []store.Document
	err  error
}

// subscriber owns a mailbox goroutine so deliveries for one subscription
// happen in emission order without holding the store lock during callbacks.
type subscriber struct {
	path       string
	onSnapshot store.SnapshotHandler
	onError    store.ErrorHandler

	mu      sync.Mutex
	pending []event
	failed  bool
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *subscriber) push(ev event) {
	s.mu.Lock()
	if s.failed {
		s.mu.Unlock()
		return
	}
	if ev.err != nil {
		s.failed = true
	}
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}

			if ev.err != nil {
				if s.onError != nil {
					s.onError(ev.err)
				}
				return
			}
			s.onSnapshot(ev.docs)
		}
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// Store is an in-memory realtime document store safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]*document
	subscribers map[*subscriber]struct{}
	closed      bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string][]*document),
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Subscribe implements store.Store. The current snapshot is delivered
// immediately, before any snapshot caused by later mutations.
func (s *Store) Subscribe(path string, onSnapshot store.SnapshotHandler, onError store.ErrorHandler) (store.Unsubscribe, error) {
	if !store.Valid(path) {
		return nil, fmt.Errorf("subscribe: invalid path %q", path)
	}

	sub := &subscriber{
		path:       path,
		onSnapshot: onSnapshot,
		onError:    onError,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("subscribe: store is closed")
	}
	s.subscribers[sub] = struct{}{}
	sub.push(event{docs: s.snapshotLocked(path)})
	s.mu.Unlock()

	go sub.run()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, sub)
		s.mu.Unlock()
		sub.stop()
	}, nil
}

// Create implements store.Store. Documents append in insertion order.
func (s *Store) Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !store.Valid(collectionPath) || store.IsDocPath(collectionPath) {
		return "", fmt.Errorf("create: invalid collection path %q", collectionPath)
	}

	doc := &document{id: uuid.New().String(), fields: copyFields(fields)}

	s.mu.Lock()
	s.collections[collectionPath] = append(s.collections[collectionPath], doc)
	s.notifyLocked(collectionPath, doc.id)
	s.mu.Unlock()

	return doc.id, nil
}

// Update implements store.Store with merge semantics: existing fields not
// named in the update survive, and updating a missing document creates it.
func (s *Store) Update(ctx context.Context, docPath string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !store.Valid(docPath) || !store.IsDocPath(docPath) {
		return fmt.Errorf("update: invalid document path %q", docPath)
	}

	s.mu.Lock()
	s.applyUpdateLocked(docPath, fields)
	s.mu.Unlock()
	return nil
}

// Delete implements store.Store. Deleting an absent document is a no-op.
func (s *Store) Delete(ctx context.Context, docPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !store.Valid(docPath) || !store.IsDocPath(docPath) {
		return fmt.Errorf("delete: invalid document path %q", docPath)
	}

	collection, id := store.SplitDocPath(docPath)

	s.mu.Lock()
	docs := s.collections[collection]
	for i, d := range docs {
		if d.id == id {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			s.notifyLocked(collection, id)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// BatchUpdate implements store.Store. All writes apply atomically with
// respect to observers: each affected path gets one snapshot reflecting the
// whole batch.
func (s *Store) BatchUpdate(ctx context.Context, ops []store.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, op := range ops {
		if !store.Valid(op.Path) || !store.IsDocPath(op.Path) {
			return fmt.Errorf("batch update: invalid document path %q", op.Path)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]map[string]struct{})
	for _, op := range ops {
		collection, id := store.SplitDocPath(op.Path)
		s.mergeLocked(collection, id, op.Fields)
		if touched[collection] == nil {
			touched[collection] = make(map[string]struct{})
		}
		touched[collection][id] = struct{}{}
	}
	for collection, ids := range touched {
		for id := range ids {
			s.notifyLocked(collection, id)
		}
	}
	return nil
}

// Fail simulates a store-side subscription failure for every subscriber of
// the given path. Used by tests and by hosted adapters relaying errors.
func (s *Store) Fail(path string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subscribers {
		if sub.path == path {
			sub.push(event{err: err})
		}
	}
}

// Close stops accepting subscriptions and releases every subscriber.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	subs := make([]*subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.subscribers = make(map[*subscriber]struct{})
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

func (s *Store) applyUpdateLocked(docPath string, fields map[string]any) {
	collection, id := store.SplitDocPath(docPath)
	s.mergeLocked(collection, id, fields)
	s.notifyLocked(collection, id)
}

func (s *Store) mergeLocked(collection, id string, fields map[string]any) {
	for _, d := range s.collections[collection] {
		if d.id == id {
			for k, v := range fields {
				d.fields[k] = v
			}
			return
		}
	}
	s.collections[collection] = append(s.collections[collection], &document{id: id, fields: copyFields(fields)})
}

// notifyLocked pushes fresh snapshots to every subscriber watching either
// the collection or the touched document.
func (s *Store) notifyLocked(collection, id string) {
	docPath := collection + "/" + id
	for sub := range s.subscribers {
		switch sub.path {
		case collection:
			sub.push(event{docs: s.snapshotLocked(collection)})
		case docPath:
			sub.push(event{docs: s.snapshotLocked(docPath)})
		}
	}
}

// snapshotLocked builds a read-only copy of the documents matching a path.
func (s *Store) snapshotLocked(path string) []store.Document {
	if store.IsDocPath(path) {
		collection, id := store.SplitDocPath(path)
		for _, d := range s.collections[collection] {
			if d.id == id {
				return []store.Document{{ID: d.id, Fields: copyFields(d.fields)}}
			}
		}
		return nil
	}

	docs := s.collections[path]
	out := make([]store.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, store.Document{ID: d.id, Fields: copyFields(d.fields)})
	}
	return out
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
