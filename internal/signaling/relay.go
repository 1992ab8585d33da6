package signaling

import (
	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/metrics"
)

// Emitter delivers an event to one live connection. A nil payload emits the
// event without arguments. It reports whether the connection accepted it.
type Emitter interface {
	EmitTo(handle, event string, payload any) bool
}

// Relay forwards events to the session a user is bound to.
//
// Delivery is fire-and-forget: an unreachable user means the event is
// dropped. Events for one handle are handed to the Emitter in call order.
type Relay struct {
	registry *Registry
	emitter  Emitter
	metrics  *metrics.Metrics
}

func NewRelay(registry *Registry, emitter Emitter, m *metrics.Metrics) *Relay {
	return &Relay{
		registry: registry,
		emitter:  emitter,
		metrics:  m,
	}
}

// Relay delivers event to userID's session and reports whether it was handed
// to a live connection.
func (r *Relay) Relay(userID, event string, payload any) bool {
	handle, ok := r.registry.Resolve(userID)
	if !ok {
		logger.Tracef("relay: drop %s for offline user %s", event, userID)
		r.metrics.RelayDropped(event)
		return false
	}
	if !r.emitter.EmitTo(handle, event, payload) {
		logger.Debugf("relay: handle %s for user %s is gone; dropped %s", handle, userID, event)
		r.metrics.RelayDropped(event)
		return false
	}
	logger.Tracef("relay: %s -> user %s (handle %s)", event, userID, handle)
	return true
}

