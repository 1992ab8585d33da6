package signaling

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CallType is the media kind of a call.
type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

// ParseCallType normalizes a client-supplied call type; anything other than
// video is treated as audio.
func ParseCallType(raw string) CallType {
	if strings.EqualFold(strings.TrimSpace(raw), string(CallVideo)) {
		return CallVideo
	}
	return CallAudio
}

// Attempt is a pending call invitation.
type Attempt struct {
	// ID identifies this attempt; a newer attempt to the same recipient gets
	// a new ID even when the caller is the same.
	ID          string
	RecipientID string
	CallerID    string
	CallerName  string
	CallType    CallType
	CreatedAt   time.Time
}

type pendingAttempt struct {
	Attempt
	timer Timer
}

// Ledger holds at most one pending attempt per recipient, each with its own
// ring timeout.
//
// Removal from the ledger is the single point at which an attempt resolves:
// whichever of answer, reject, end or timeout removes it acts on it, and all
// later events for the same attempt see a miss.
type Ledger struct {
	sched    Scheduler
	timeout  time.Duration
	onExpire func(Decision)

	mu      sync.Mutex
	entries map[string]*pendingAttempt // recipientID -> attempt
}

// NewLedger creates a ledger whose attempts expire after timeout. onExpire is
// called, outside the ledger lock, with the decision for each expired
// attempt.
func NewLedger(sched Scheduler, timeout time.Duration, onExpire func(Decision)) *Ledger {
	if sched == nil {
		sched = RealScheduler{}
	}
	return &Ledger{
		sched:    sched,
		timeout:  timeout,
		onExpire: onExpire,
		entries:  make(map[string]*pendingAttempt),
	}
}

// Open records a new attempt for recipientID and arms its timeout. A pending
// attempt for the same recipient is replaced and its timer stopped; the
// replaced attempt is returned.
func (l *Ledger) Open(callerID, callerName, recipientID string, callType CallType) (Attempt, *Attempt) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var superseded *Attempt
	if prev, ok := l.entries[recipientID]; ok {
		prev.timer.Stop()
		a := prev.Attempt
		superseded = &a
	}

	attempt := Attempt{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		CallerID:    callerID,
		CallerName:  callerName,
		CallType:    callType,
		CreatedAt:   l.sched.Now(),
	}
	id := attempt.ID
	l.entries[recipientID] = &pendingAttempt{
		Attempt: attempt,
		timer:   l.sched.AfterFunc(l.timeout, func() { l.expire(recipientID, id) }),
	}
	return attempt, superseded
}

// Close applies an answer, reject or end event. actorID is the user that sent
// the event ("" when unknown) and to is the party it addresses.
func (l *Ledger) Close(kind Terminal, actorID, to string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.match(kind, actorID, to)
	if entry == nil {
		return decide(kind, nil, to)
	}

	entry.timer.Stop()
	delete(l.entries, entry.RecipientID)
	return decide(kind, &entry.Attempt, to)
}

// match locates the attempt a terminal event refers to. Callers hold l.mu.
//
// Answer and reject are addressed to the caller, so the attempt is the one
// keyed by the acting recipient. End may come from either side: the caller
// addresses the recipient (found by key) and the recipient addresses the
// caller (found by caller id). When the actor is unknown the first match by
// creation time wins.
func (l *Ledger) match(kind Terminal, actorID, to string) *pendingAttempt {
	switch kind {
	case TerminalAnswer, TerminalReject:
		if actorID != "" {
			if e, ok := l.entries[actorID]; ok && e.CallerID == to {
				return e
			}
			return nil
		}
		return l.oldestFrom(to)

	case TerminalEnd:
		if e, ok := l.entries[to]; ok && (actorID == "" || e.CallerID == actorID) {
			return e
		}
		if actorID != "" {
			if e, ok := l.entries[actorID]; ok && e.CallerID == to {
				return e
			}
			return nil
		}
		return l.oldestFrom(to)
	}
	return nil
}

func (l *Ledger) oldestFrom(callerID string) *pendingAttempt {
	var found *pendingAttempt
	for _, e := range l.entries {
		if e.CallerID != callerID {
			continue
		}
		if found == nil || e.CreatedAt.Before(found.CreatedAt) ||
			(e.CreatedAt.Equal(found.CreatedAt) && e.RecipientID < found.RecipientID) {
			found = e
		}
	}
	return found
}

// expire is the timer callback for one attempt. It is a no-op when the
// attempt was already resolved or replaced.
func (l *Ledger) expire(recipientID, attemptID string) {
	l.mu.Lock()
	entry, ok := l.entries[recipientID]
	if !ok || entry.ID != attemptID {
		l.mu.Unlock()
		return
	}
	delete(l.entries, recipientID)
	d := decide(TerminalTimeout, &entry.Attempt, recipientID)
	l.mu.Unlock()

	if l.onExpire != nil {
		l.onExpire(d)
	}
}

// Pending returns the attempt waiting on recipientID.
func (l *Ledger) Pending(recipientID string) (Attempt, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[recipientID]
	if !ok {
		return Attempt{}, false
	}
	return e.Attempt, true
}

// Len returns the number of pending attempts.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
