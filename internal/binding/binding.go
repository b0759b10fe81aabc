// Package binding implements the live query layer: a binding ties a store
// path to an always-current in-memory snapshot. Consumers never poll; the
// store pushes every change and the binding republishes it. The principal
// correctness property is release discipline: rebinding or closing must
// guarantee the previous subscription can no longer touch state.
package binding

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/store"
)

// State is the lifecycle position of a binding.
type State int

const (
	// StateIdle means no valid path is bound; the snapshot is empty.
	StateIdle State = iota
	// StateLoading means a subscription is live but nothing has arrived.
	StateLoading
	// StateReady means at least one snapshot has been delivered.
	StateReady
	// StateError is sticky: the store reported a failure. The last good
	// snapshot is retained.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Collection binds a collection path to an ordered document snapshot.
type Collection struct {
	st       store.Store
	log      zerolog.Logger
	onChange func()

	mu      sync.Mutex
	state   State
	docs    []store.Document
	err     error
	gen     uint64
	release store.Unsubscribe
}

// NewCollection creates an unbound collection binding. onChange, if not
// nil, fires after every state or snapshot transition.
func NewCollection(st store.Store, log zerolog.Logger, onChange func()) *Collection {
	return &Collection{st: st, log: log, onChange: onChange, state: StateIdle}
}

// Bind points the binding at a path. The previous subscription is released
// first and its generation retired, so a late callback from the old path
// can never alter the new path's state. An unresolved path (empty identity
// segment) short-circuits to idle with empty data.
func (c *Collection) Bind(path string) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.releaseLocked()

	if !store.Valid(path) {
		c.state = StateIdle
		c.docs = nil
		c.err = nil
		c.mu.Unlock()
		c.notify()
		return
	}

	c.state = StateLoading
	c.docs = nil
	c.err = nil
	c.mu.Unlock()

	release, err := c.st.Subscribe(path,
		func(docs []store.Document) { c.deliver(gen, docs) },
		func(err error) { c.fail(gen, err) },
	)

	c.mu.Lock()
	if gen != c.gen {
		// Superseded while subscribing; drop the new subscription too.
		c.mu.Unlock()
		if release != nil {
			release()
		}
		return
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.mu.Unlock()
		c.log.Error().Err(err).Str("path", path).Msg("Subscription failed")
		c.notify()
		return
	}
	c.release = release
	c.mu.Unlock()
}

// Close releases the active subscription and returns the binding to idle.
func (c *Collection) Close() {
	c.mu.Lock()
	c.gen++
	c.releaseLocked()
	c.state = StateIdle
	c.docs = nil
	c.err = nil
	c.mu.Unlock()
}

// Snapshot returns the current documents and lifecycle state. After an
// error the documents are the last good snapshot.
func (c *Collection) Snapshot() ([]store.Document, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs, c.state, c.err
}

// Loading reports whether the binding has not yet delivered data.
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateLoading
}

func (c *Collection) deliver(gen uint64, docs []store.Document) {
	c.mu.Lock()
	if gen != c.gen || c.state == StateError {
		c.mu.Unlock()
		return
	}
	c.docs = docs
	c.state = StateReady
	c.mu.Unlock()
	c.notify()
}

func (c *Collection) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	c.err = err
	c.mu.Unlock()
	c.log.Error().Err(err).Msg("Subscription error")
	c.notify()
}

// releaseLocked must run with c.mu held; the disposer itself is invoked
// here because store release never re-enters the binding.
func (c *Collection) releaseLocked() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

func (c *Collection) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Doc binds a single-document path to an optional document.
type Doc struct {
	inner *Collection
}

// NewDoc creates an unbound single-document binding.
func NewDoc(st store.Store, log zerolog.Logger, onChange func()) *Doc {
	return &Doc{inner: NewCollection(st, log, onChange)}
}

// Bind points the binding at a document path, with the same release and
// short-circuit semantics as Collection.Bind.
func (d *Doc) Bind(path string) {
	d.inner.Bind(path)
}

// Close releases the active subscription.
func (d *Doc) Close() {
	d.inner.Close()
}

// Snapshot returns the document if it exists. found is false both while
// idle and when the bound document does not exist; state distinguishes the
// two.
func (d *Doc) Snapshot() (doc store.Document, found bool, state State, err error) {
	docs, state, err := d.inner.Snapshot()
	if len(docs) > 0 {
		return docs[0], true, state, err
	}
	return store.Document{}, false, state, err
}

// Loading reports whether the binding has not yet delivered data.
func (d *Doc) Loading() bool {
	return d.inner.Loading()
}
