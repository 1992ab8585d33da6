package signaling

import "sync"

// Registry maps each user to the single live connection handle that receives
// their events.
//
// A second identify for the same user supersedes the first mapping. The
// superseded handle keeps its owner so a late disconnect of it can be
// recognized as stale and ignored.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]string // userID -> handle
	owners  map[string]string // handle -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]string),
		owners:  make(map[string]string),
	}
}

// Bind associates userID with handle, replacing any previous handle for the
// user. Re-identifying a handle as a different user releases the old user's
// binding if it still pointed at this handle.
func (r *Registry) Bind(userID, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.owners[handle]; ok && prev != userID && r.handles[prev] == handle {
		delete(r.handles, prev)
	}
	r.handles[userID] = handle
	r.owners[handle] = userID
}

// Resolve returns the live handle for userID.
func (r *Registry) Resolve(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.handles[userID]
	return handle, ok
}

// Owner returns the user that last identified on handle, even if a newer
// connection has since superseded it.
func (r *Registry) Owner(handle string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.owners[handle]
	return userID, ok
}

// Unbind forgets handle. The owner's binding is removed only if it still
// points at handle; removed reports whether that happened.
func (r *Registry) Unbind(handle string) (userID string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[handle]
	if !ok {
		return "", false
	}
	delete(r.owners, handle)

	if r.handles[userID] != handle {
		return userID, false
	}
	delete(r.handles, userID)
	return userID, true
}

// Len returns the number of users with a live binding.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
