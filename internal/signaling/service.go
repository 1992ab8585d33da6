package signaling

import (
	"time"

	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/metrics"
	"github.com/rajankumarrkr/sukoon/internal/wire"
)

// MissedCallNotifier records and delivers missed-call notifications. It must
// not block the caller.
type MissedCallNotifier interface {
	NotifyMissed(recipientID, callerID, callerName string, callType CallType)
}

// Options configures a Service.
type Options struct {
	// CallTimeout is how long an attempt rings before it is missed.
	CallTimeout time.Duration
	// Scheduler drives call timeouts; defaults to RealScheduler.
	Scheduler Scheduler
	Metrics   *metrics.Metrics
}

// Stats is a point-in-time view of the realtime state.
type Stats struct {
	Sessions     int `json:"sessions"`
	PendingCalls int `json:"pendingCalls"`
}

// Service handles inbound realtime events. Every method takes the handle of
// the connection the event arrived on and is safe to call concurrently.
type Service struct {
	registry *Registry
	relay    *Relay
	ledger   *Ledger
	notifier MissedCallNotifier
	metrics  *metrics.Metrics
}

// NewService wires the registry, relay and notifier into a call-aware
// service.
func NewService(registry *Registry, relay *Relay, notifier MissedCallNotifier, opts Options) *Service {
	s := &Service{
		registry: registry,
		relay:    relay,
		notifier: notifier,
		metrics:  opts.Metrics,
	}
	s.ledger = NewLedger(opts.Scheduler, opts.CallTimeout, s.onExpire)
	return s
}

// Identify binds the connection to userID. Repeating it is harmless.
func (s *Service) Identify(handle, userID string) bool {
	if userID == "" {
		return false
	}
	s.registry.Bind(userID, handle)
	s.metrics.SetSessions(s.registry.Len())
	logger.Infof("User %s associated with connection %s", userID, handle)
	return true
}

// Disconnect releases the connection's binding unless a newer connection for
// the same user has replaced it. Pending calls are left to their timers.
func (s *Service) Disconnect(handle string) {
	userID, removed := s.registry.Unbind(handle)
	s.metrics.SetSessions(s.registry.Len())
	switch {
	case userID == "":
		logger.Debugf("Unidentified connection %s disconnected", handle)
	case removed:
		logger.Infof("User %s disconnected (connection %s)", userID, handle)
	default:
		logger.Debugf("Superseded connection %s of user %s disconnected", handle, userID)
	}
}

// SendMessage relays a chat message verbatim.
func (s *Service) SendMessage(handle string, p wire.SendMessagePayload) {
	if p.RecipientID == "" {
		return
	}
	s.relay.Relay(p.RecipientID, wire.EventReceiveMessage, p.Message)
}

// CallUser rings the target and opens a pending attempt. The attempt is
// opened even when the target is offline so that the timeout still records a
// missed call.
func (s *Service) CallUser(handle string, p wire.CallUserPayload) {
	if p.UserToCall == "" || p.From == "" {
		return
	}
	callType := ParseCallType(p.CallType)

	// The attempt must exist before the recipient can see the ring, or an
	// immediate answer would miss it.
	attempt, superseded := s.ledger.Open(p.From, p.Name, p.UserToCall, callType)
	if superseded != nil {
		logger.Debugf("Call %s to %s replaced pending call %s from %s",
			attempt.ID, p.UserToCall, superseded.ID, superseded.CallerID)
	}
	s.metrics.SetPendingCalls(s.ledger.Len())
	logger.Infof("Call %s: %s -> %s (%s)", attempt.ID, p.From, p.UserToCall, callType)

	s.relay.Relay(p.UserToCall, wire.EventIncomingCall, wire.IncomingCallPayload{
		Signal:   p.SignalData,
		From:     p.From,
		Name:     p.Name,
		CallType: string(callType),
	})
}

// AnswerCall forwards the answer signal to the caller and settles the attempt.
func (s *Service) AnswerCall(handle string, p wire.AnswerCallPayload) {
	if p.To == "" {
		return
	}
	d := s.close(TerminalAnswer, handle, p.To)
	s.relay.Relay(d.RelayTo, wire.EventCallAccepted, p.Signal)
}

// RejectCall tells the caller and records a missed call for the recipient.
func (s *Service) RejectCall(handle string, p wire.PeerPayload) {
	if p.To == "" {
		return
	}
	d := s.close(TerminalReject, handle, p.To)
	s.relay.Relay(d.RelayTo, wire.EventCallRejected, nil)
	s.notify(d)
}

// EndCall hangs up or cancels a call.
func (s *Service) EndCall(handle string, p wire.PeerPayload) {
	if p.To == "" {
		return
	}
	d := s.close(TerminalEnd, handle, p.To)
	s.relay.Relay(d.RelayTo, wire.EventCallEnded, nil)
	s.notify(d)
}

// IceCandidate forwards a trickled ICE candidate to the other party.
func (s *Service) IceCandidate(handle string, p wire.IceCandidatePayload) {
	if p.To == "" {
		return
	}
	from, _ := s.registry.Owner(handle)
	s.relay.Relay(p.To, wire.EventIceCandidate, wire.IceCandidateRelayPayload{
		Candidate: p.Candidate,
		From:      from,
	})
}

// Stats reports the number of bound users and pending calls.
func (s *Service) Stats() Stats {
	return Stats{
		Sessions:     s.registry.Len(),
		PendingCalls: s.ledger.Len(),
	}
}

// Pending returns the attempt currently ringing recipientID.
func (s *Service) Pending(recipientID string) (Attempt, bool) {
	return s.ledger.Pending(recipientID)
}

func (s *Service) close(kind Terminal, handle, to string) Decision {
	actor, _ := s.registry.Owner(handle)
	d := s.ledger.Close(kind, actor, to)
	s.settled(d)
	return d
}

func (s *Service) settled(d Decision) {
	if !d.Matched {
		return
	}
	s.metrics.CallResolved(d.Kind.String())
	s.metrics.SetPendingCalls(s.ledger.Len())
	logger.Infof("Call %s %s (%s -> %s)", d.Attempt.ID, d.Kind, d.Attempt.CallerID, d.Attempt.RecipientID)
}

func (s *Service) notify(d Decision) {
	if !d.Notify || s.notifier == nil {
		return
	}
	a := d.Attempt
	s.notifier.NotifyMissed(a.RecipientID, a.CallerID, a.CallerName, a.CallType)
}

func (s *Service) onExpire(d Decision) {
	s.settled(d)
	s.notify(d)
	s.relay.Relay(d.RelayTo, wire.EventCallEnded, nil)
}
