package signaling

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rajankumarrkr/sukoon/internal/metrics"
	"github.com/rajankumarrkr/sukoon/internal/wire"
)

type serviceHarness struct {
	svc      *Service
	sched    *fakeScheduler
	emitter  *fakeEmitter
	notifier *fakeNotifier
	registry *Registry
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	registry := NewRegistry()
	emitter := &fakeEmitter{dead: map[string]bool{}}
	notifier := &fakeNotifier{}
	sched := newFakeScheduler()
	m := metrics.New(prometheus.NewRegistry())

	relay := NewRelay(registry, emitter, m)
	svc := NewService(registry, relay, notifier, Options{
		CallTimeout: 30 * time.Second,
		Scheduler:   sched,
		Metrics:     m,
	})
	return &serviceHarness{
		svc:      svc,
		sched:    sched,
		emitter:  emitter,
		notifier: notifier,
		registry: registry,
	}
}

func TestService_VideoCallTimesOut(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{
		UserToCall: "b1",
		SignalData: map[string]any{"type": "offer"},
		From:       "a1",
		Name:       "Alice",
		CallType:   "video",
	})

	got := h.emitter.to("sb")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventIncomingCall, got[0].Event)
	incoming := got[0].Payload.(wire.IncomingCallPayload)
	require.Equal(t, "video", incoming.CallType)
	require.Equal(t, "a1", incoming.From)
	require.Equal(t, "Alice", incoming.Name)
	require.Equal(t, map[string]any{"type": "offer"}, incoming.Signal)

	h.sched.Advance(30 * time.Second)

	_, pending := h.svc.Pending("b1")
	require.False(t, pending)
	require.Equal(t, []missed{{"b1", "a1", "Alice", CallVideo}}, h.notifier.all())

	got = h.emitter.to("sb")
	require.Len(t, got, 2)
	require.Equal(t, wire.EventCallEnded, got[1].Event)
	require.Nil(t, got[1].Payload)
	require.Empty(t, h.emitter.to("sa"))
}

func TestService_AnswerWithinWindow(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice", CallType: "audio"})
	h.sched.Advance(5 * time.Second)

	signal := map[string]any{"type": "answer", "sdp": "S"}
	h.svc.AnswerCall("sb", wire.AnswerCallPayload{Signal: signal, To: "a1"})

	got := h.emitter.to("sa")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventCallAccepted, got[0].Event)
	require.Equal(t, signal, got[0].Payload)

	_, pending := h.svc.Pending("b1")
	require.False(t, pending)

	h.sched.Advance(time.Minute)
	require.Empty(t, h.notifier.all())
}

func TestService_RejectRecordsMissedCall(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})
	h.svc.RejectCall("sb", wire.PeerPayload{To: "a1"})

	got := h.emitter.to("sa")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventCallRejected, got[0].Event)
	require.Equal(t, []missed{{"b1", "a1", "Alice", CallAudio}}, h.notifier.all())

	// Late timer and duplicate reject do nothing more.
	h.sched.Advance(time.Minute)
	h.svc.RejectCall("sb", wire.PeerPayload{To: "a1"})
	require.Len(t, h.notifier.all(), 1)
}

func TestService_CallerCancels(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})
	h.svc.EndCall("sa", wire.PeerPayload{To: "b1"})

	got := h.emitter.to("sb")
	require.Len(t, got, 2)
	require.Equal(t, wire.EventCallEnded, got[1].Event)
	require.Empty(t, h.notifier.all())
	require.Equal(t, 0, h.svc.Stats().PendingCalls)
}

func TestService_RecipientEndsWhileRinging(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})
	h.svc.EndCall("sb", wire.PeerPayload{To: "a1"})

	got := h.emitter.to("sa")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventCallEnded, got[0].Event)
	require.Equal(t, []missed{{"b1", "a1", "Alice", CallAudio}}, h.notifier.all())
}

func TestService_HangUpAfterAnswer(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})
	h.svc.AnswerCall("sb", wire.AnswerCallPayload{Signal: "S", To: "a1"})
	h.svc.EndCall("sb", wire.PeerPayload{To: "a1"})

	got := h.emitter.to("sa")
	require.Len(t, got, 2)
	require.Equal(t, wire.EventCallEnded, got[1].Event)
	require.Empty(t, h.notifier.all())
}

func TestService_OfflineRecipientStillTimesOut(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})
	require.Equal(t, 1, h.svc.Stats().PendingCalls)

	h.sched.Advance(30 * time.Second)
	require.Equal(t, []missed{{"b1", "a1", "Alice", CallAudio}}, h.notifier.all())
	require.Empty(t, h.emitter.events)
}

func TestService_DisconnectKeepsPendingCall(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})
	h.svc.Disconnect("sb")
	require.Equal(t, Stats{Sessions: 1, PendingCalls: 1}, h.svc.Stats())

	h.sched.Advance(30 * time.Second)
	require.Len(t, h.notifier.all(), 1)
}

func TestService_StaleDisconnectKeepsNewSession(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("old", "b1")
	h.svc.Identify("new", "b1")
	h.svc.Disconnect("old")

	h.svc.SendMessage("sa", wire.SendMessagePayload{RecipientID: "b1", Message: map[string]any{"text": "hi"}})

	got := h.emitter.to("new")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventReceiveMessage, got[0].Event)
	require.Equal(t, map[string]any{"text": "hi"}, got[0].Payload)
	require.Empty(t, h.emitter.to("old"))
}

func TestService_SendMessageToOffline(t *testing.T) {
	h := newServiceHarness(t)
	require.NotPanics(t, func() {
		h.svc.SendMessage("sa", wire.SendMessagePayload{RecipientID: "ghost", Message: "hi"})
	})
	require.Empty(t, h.emitter.events)
}

func TestService_IceCandidateCarriesSender(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sa", "a1")
	h.svc.Identify("sb", "b1")

	h.svc.IceCandidate("sa", wire.IceCandidatePayload{To: "b1", Candidate: "cand"})

	got := h.emitter.to("sb")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventIceCandidate, got[0].Event)
	require.Equal(t, wire.IceCandidateRelayPayload{Candidate: "cand", From: "a1"}, got[0].Payload)
}

func TestService_IdentifyRejectsEmpty(t *testing.T) {
	h := newServiceHarness(t)
	require.False(t, h.svc.Identify("sa", ""))
	require.Equal(t, 0, h.svc.Stats().Sessions)
}

func TestService_DeadConnectionDropsEvent(t *testing.T) {
	h := newServiceHarness(t)
	h.svc.Identify("sb", "b1")
	h.emitter.dead["sb"] = true

	h.svc.SendMessage("sa", wire.SendMessagePayload{RecipientID: "b1", Message: "hi"})
	require.Empty(t, h.emitter.events)
}

// answeringEmitter answers a ring as soon as it reaches the recipient's
// connection, before CallUser returns.
type answeringEmitter struct {
	fakeEmitter
	svc *Service
}

func (e *answeringEmitter) EmitTo(handle, event string, payload any) bool {
	ok := e.fakeEmitter.EmitTo(handle, event, payload)
	if handle == "sb" && event == wire.EventIncomingCall {
		e.svc.AnswerCall("sb", wire.AnswerCallPayload{Signal: "S", To: "a1"})
	}
	return ok
}

func TestService_ImmediateAnswerSettlesCall(t *testing.T) {
	registry := NewRegistry()
	emitter := &answeringEmitter{fakeEmitter: fakeEmitter{dead: map[string]bool{}}}
	notifier := &fakeNotifier{}
	sched := newFakeScheduler()
	svc := NewService(registry, NewRelay(registry, emitter, nil), notifier, Options{
		CallTimeout: 30 * time.Second,
		Scheduler:   sched,
	})
	emitter.svc = svc

	svc.Identify("sa", "a1")
	svc.Identify("sb", "b1")
	svc.CallUser("sa", wire.CallUserPayload{UserToCall: "b1", From: "a1", Name: "Alice"})

	_, pending := svc.Pending("b1")
	require.False(t, pending)

	got := emitter.to("sa")
	require.Len(t, got, 1)
	require.Equal(t, wire.EventCallAccepted, got[0].Event)

	sched.Advance(30 * time.Second)
	require.Empty(t, notifier.all())
}
