package signaling

import (
	"sort"
	"sync"
	"time"
)

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler runs timers only when Advance moves its clock past them.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(s.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// fireAll runs every armed callback, including stopped ones, to exercise
// stale-timer handling.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	all := append([]*fakeTimer(nil), s.timers...)
	s.mu.Unlock()
	for _, t := range all {
		t.f()
	}
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type emitted struct {
	Handle  string
	Event   string
	Payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
	dead   map[string]bool
}

func (e *fakeEmitter) EmitTo(handle, event string, payload any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead[handle] {
		return false
	}
	e.events = append(e.events, emitted{Handle: handle, Event: event, Payload: payload})
	return true
}

func (e *fakeEmitter) to(handle string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emitted
	for _, ev := range e.events {
		if ev.Handle == handle {
			out = append(out, ev)
		}
	}
	return out
}

type missed struct {
	Recipient string
	Caller    string
	Name      string
	Type      CallType
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []missed
}

func (n *fakeNotifier) NotifyMissed(recipientID, callerID, callerName string, callType CallType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, missed{recipientID, callerID, callerName, callType})
}

func (n *fakeNotifier) all() []missed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]missed(nil), n.calls...)
}
