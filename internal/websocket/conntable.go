package websocket

import "sync"

// conn is one live client connection, whatever the transport.
type conn interface {
	// emit queues an event for the client. A nil payload sends the event
	// without arguments.
	emit(event string, payload any) bool
	close()
}

// ConnTable maps connection handles to live connections for both transports.
// It implements signaling.Emitter.
type ConnTable struct {
	mu    sync.RWMutex
	conns map[string]conn
}

func NewConnTable() *ConnTable {
	return &ConnTable{conns: make(map[string]conn)}
}

func (t *ConnTable) add(handle string, c conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[handle] = c
}

func (t *ConnTable) remove(handle string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, handle)
}

func (t *ConnTable) get(handle string) (conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.conns[handle]
	return c, ok
}

// EmitTo sends an event to the connection with the given handle.
func (t *ConnTable) EmitTo(handle, event string, payload any) bool {
	c, ok := t.get(handle)
	if !ok {
		return false
	}
	return c.emit(event, payload)
}

// Len returns the number of open connections.
func (t *ConnTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

// CloseAll closes every open connection.
func (t *ConnTable) CloseAll() {
	t.mu.RLock()
	conns := make([]conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}
