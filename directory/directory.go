package directory

import (
	"sort"
	"sync"

	"github.com/kektsukuba/stars/common"
)

// Directory is the in-memory map of currently registered nodes. It
// maintains the dual invariant that the name-to-entry map and the
// key-to-name map are both injective at any instant. It is the sole
// synchronization point of the server: one RWMutex protects membership,
// while each NodeEntry owns its own write mutex for socket I/O, so the
// Directory's lock is never held across a network call.
type Directory struct {
	mu     sync.RWMutex
	byName map[string]*NodeEntry
	byKey  map[uint16]string
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{
		byName: make(map[string]*NodeEntry),
		byKey:  make(map[uint16]string),
	}
}

// Lookup returns the entry registered under name, if any. The Directory
// lock is released before this function returns; callers must not assume
// the entry remains registered by the time they act on it.
func (d *Directory) Lookup(name string) (*NodeEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byName[name]
	return e, ok
}

// HasKey reports whether key is currently assigned to a registered node.
// This only covers registered nodes; the Acceptor Loop additionally
// tracks keys assigned to connections still mid-handshake.
func (d *Directory) HasKey(key uint16) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byKey[key]
	return ok
}

// Insert registers a brand-new entry. It fails with a NameInUse error if
// the name is already registered; call Collide first to honor the
// reconnection policy before inserting.
func (d *Directory) Insert(e *NodeEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byName[e.Name]; exists {
		return common.NewError(common.NameInUse, e.Name, "already registered")
	}

	d.byName[e.Name] = e
	d.byKey[e.Key] = e.Name
	return nil
}

// Collide resolves a name collision under the reconnection policy
// (spec.md §4.2). If no entry is currently registered under name, it
// returns (nil, true) and makes no change -- the caller may Insert
// freely. If one is registered and reconnectAllowed is true, it is
// evicted from the Directory here and returned so the caller can close
// its socket outside the Directory's lock, which in turn causes that
// node's own Handler to observe the closed socket and terminate
// normally. If one is registered and reconnectAllowed is false, (nil,
// false) is returned and nothing changes -- the caller should reject
// with NameInUse.
func (d *Directory) Collide(name string, reconnectAllowed bool) (evicted *NodeEntry, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, exists := d.byName[name]
	if !exists {
		return nil, true
	}
	if !reconnectAllowed {
		return nil, false
	}

	delete(d.byName, name)
	delete(d.byKey, existing.Key)
	return existing, true
}

// RemoveIfCurrent removes name from the Directory only if it is still
// mapped to e. This lets a terminating handler clean up after itself
// idempotently, without clobbering a different registration that has
// since reused the same name (for example after a reconnect eviction).
func (d *Directory) RemoveIfCurrent(name string, e *NodeEntry) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, exists := d.byName[name]
	if !exists || current != e {
		return false
	}

	delete(d.byName, name)
	delete(d.byKey, e.Key)
	return true
}

// Snapshot returns every currently registered entry. Used for System
// events, '>' broadcasts and Acceptor shutdown; the Directory lock is
// held only long enough to copy the slice.
func (d *Directory) Snapshot() []*NodeEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*NodeEntry, 0, len(d.byName))
	for _, e := range d.byName {
		out = append(out, e)
	}
	return out
}

// Names returns the sorted set of registered node names, as returned by
// the listnodes built-in.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.byName))
	for name := range d.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
