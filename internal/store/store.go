// Package store defines the document-store boundary every other component
// reads through. The store is the single source of truth: writes go in via
// Create/Update/Delete, and every observer learns about the result through
// the push-based Subscribe stream, never through a mutation's return value.
package store

import (
	"context"
	"strings"
)

// Document is one stored record: its identifier plus a flat field map.
type Document struct {
	ID     string
	Fields map[string]any
}

// WriteOp is a single merge-update inside a batch.
type WriteOp struct {
	Path   string
	Fields map[string]any
}

// SnapshotHandler receives the full current snapshot for a subscribed path.
// For a collection path the slice holds every document in insertion order;
// for a document path it holds zero or one documents.
type SnapshotHandler func(docs []Document)

// ErrorHandler receives a subscription failure. After an error the stream
// delivers no further snapshots.
type ErrorHandler func(err error)

// Unsubscribe releases a subscription. After it returns the store will
// start no new deliveries for that subscription; a delivery already in
// flight may still complete, which is why consumers guard with their own
// generation check.
type Unsubscribe func()

// Store is the boundary to the realtime document database. Implementations
// must deliver snapshots for one subscription in emission order and must
// deliver the current snapshot immediately upon Subscribe.
type Store interface {
	Subscribe(path string, onSnapshot SnapshotHandler, onError ErrorHandler) (Unsubscribe, error)
	Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error)
	Update(ctx context.Context, docPath string, fields map[string]any) error
	Delete(ctx context.Context, docPath string) error
	BatchUpdate(ctx context.Context, ops []WriteOp) error
}

// Entity kinds stored under each user namespace.
const (
	KindTransactions = "transactions"
	KindBudgets      = "budgets"
	KindBills        = "bills"
	KindGoals        = "goals"
)

// Paths are hierarchical strings scoped per user:
//
//	users/{identity}/{entityKind}       collection
//	users/{identity}/{entityKind}/{id}  document

// CollectionPath builds the collection path for one entity kind under a
// user namespace.
func CollectionPath(identity, kind string) string {
	return "users/" + identity + "/" + kind
}

// DocPath builds the path of a single document.
func DocPath(identity, kind, id string) string {
	return CollectionPath(identity, kind) + "/" + id
}

// ProfilePath builds the path of the per-user profile document, which lives
// directly under the users collection.
func ProfilePath(identity string) string {
	return "users/" + identity
}

// Valid reports whether a path is well formed and fully resolved. A path
// built before the identity is known carries an empty segment and must not
// reach the store.
func Valid(path string) bool {
	if path == "" {
		return false
	}
	segments := strings.Split(path, "/")
	if len(segments) < 2 || len(segments) > 4 || segments[0] != "users" {
		return false
	}
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return true
}

// IsDocPath reports whether a valid path addresses a single document rather
// than a collection. The two-segment profile path is a document path.
func IsDocPath(path string) bool {
	n := len(strings.Split(path, "/"))
	return n == 2 || n == 4
}

// SplitDocPath separates a document path into its collection path and
// document ID. The profile path has the users root as its collection.
func SplitDocPath(path string) (collection, id string) {
	i := strings.LastIndex(path, "/")
	return path[:i], path[i+1:]
}
