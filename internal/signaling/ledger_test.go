package signaling

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLedger() (*Ledger, *fakeScheduler, *[]Decision) {
	sched := newFakeScheduler()
	var expired []Decision
	l := NewLedger(sched, 30*time.Second, func(d Decision) {
		expired = append(expired, d)
	})
	return l, sched, &expired
}

func TestParseCallType(t *testing.T) {
	require.Equal(t, CallVideo, ParseCallType("video"))
	require.Equal(t, CallVideo, ParseCallType(" Video "))
	require.Equal(t, CallAudio, ParseCallType("audio"))
	require.Equal(t, CallAudio, ParseCallType(""))
	require.Equal(t, CallAudio, ParseCallType("hologram"))
}

func TestLedger_OpenAndTimeout(t *testing.T) {
	l, sched, expired := newTestLedger()

	a, superseded := l.Open("a1", "Alice", "b1", CallVideo)
	require.Nil(t, superseded)
	require.NotEmpty(t, a.ID)

	p, ok := l.Pending("b1")
	require.True(t, ok)
	require.Equal(t, a, p)

	sched.Advance(29 * time.Second)
	require.Empty(t, *expired)

	sched.Advance(time.Second)
	require.Len(t, *expired, 1)
	d := (*expired)[0]
	require.Equal(t, TerminalTimeout, d.Kind)
	require.True(t, d.Notify)
	require.Equal(t, "b1", d.RelayTo)
	require.Equal(t, "a1", d.Attempt.CallerID)
	require.Equal(t, 0, l.Len())
}

func TestLedger_AnswerCancelsTimer(t *testing.T) {
	l, sched, expired := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)

	d := l.Close(TerminalAnswer, "b1", "a1")
	require.True(t, d.Matched)
	require.False(t, d.Notify)
	require.Equal(t, "a1", d.RelayTo)
	require.Equal(t, 0, sched.active())

	sched.Advance(time.Minute)
	require.Empty(t, *expired)
}

func TestLedger_SingleResolution(t *testing.T) {
	l, sched, expired := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)

	first := l.Close(TerminalReject, "b1", "a1")
	require.True(t, first.Matched)

	second := l.Close(TerminalEnd, "b1", "a1")
	require.False(t, second.Matched)
	require.False(t, second.Notify)

	// A timer callback that raced past Stop must not resolve again.
	sched.fireAll()
	require.Empty(t, *expired)
}

func TestLedger_SupersedeIgnoresStaleTimer(t *testing.T) {
	l, sched, expired := newTestLedger()

	first, _ := l.Open("a1", "Alice", "b1", CallAudio)
	sched.Advance(20 * time.Second)
	second, superseded := l.Open("c1", "Carol", "b1", CallVideo)
	require.NotNil(t, superseded)
	require.Equal(t, first.ID, superseded.ID)
	require.NotEqual(t, first.ID, second.ID)

	// Fire the old callback regardless of Stop.
	sched.fireAll()
	require.Len(t, *expired, 1)
	require.Equal(t, second.ID, (*expired)[0].Attempt.ID)
	require.Equal(t, "c1", (*expired)[0].Attempt.CallerID)
}

func TestLedger_SameCallerRedialGetsFreshTimer(t *testing.T) {
	l, sched, expired := newTestLedger()

	l.Open("a1", "Alice", "b1", CallAudio)
	sched.Advance(25 * time.Second)
	second, _ := l.Open("a1", "Alice", "b1", CallAudio)

	// The first attempt's deadline passes without effect.
	sched.Advance(10 * time.Second)
	require.Empty(t, *expired)

	sched.Advance(20 * time.Second)
	require.Len(t, *expired, 1)
	require.Equal(t, second.ID, (*expired)[0].Attempt.ID)
}

func TestLedger_EndByCaller(t *testing.T) {
	l, _, _ := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)

	d := l.Close(TerminalEnd, "a1", "b1")
	require.True(t, d.Matched)
	require.False(t, d.Notify)
	require.Equal(t, "b1", d.RelayTo)
}

func TestLedger_EndByRecipient(t *testing.T) {
	l, _, _ := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)

	d := l.Close(TerminalEnd, "b1", "a1")
	require.True(t, d.Matched)
	require.True(t, d.Notify)
	require.Equal(t, "b1", d.Attempt.RecipientID)
	require.Equal(t, "a1", d.RelayTo)
}

func TestLedger_EndUnknownActor(t *testing.T) {
	l, _, _ := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)

	// Found by key.
	d := l.Close(TerminalEnd, "", "b1")
	require.True(t, d.Matched)
	require.False(t, d.Notify)

	// Found by caller.
	l.Open("a1", "Alice", "b1", CallAudio)
	d = l.Close(TerminalEnd, "", "a1")
	require.True(t, d.Matched)
	require.True(t, d.Notify)
}

func TestLedger_ActorScopesMatch(t *testing.T) {
	l, _, _ := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)
	l.Open("a1", "Alice", "c1", CallAudio)

	// c1 rejecting only touches its own attempt.
	d := l.Close(TerminalReject, "c1", "a1")
	require.True(t, d.Matched)
	require.Equal(t, "c1", d.Attempt.RecipientID)

	_, ok := l.Pending("b1")
	require.True(t, ok)

	// A third party cannot answer someone else's call.
	d = l.Close(TerminalAnswer, "x1", "a1")
	require.False(t, d.Matched)
	require.Equal(t, 1, l.Len())
}

func TestLedger_UnknownActorPicksOldest(t *testing.T) {
	l, sched, _ := newTestLedger()
	l.Open("a1", "Alice", "c1", CallAudio)
	sched.Advance(time.Second)
	l.Open("a1", "Alice", "b1", CallAudio)

	d := l.Close(TerminalAnswer, "", "a1")
	require.True(t, d.Matched)
	require.Equal(t, "c1", d.Attempt.RecipientID)
}

func TestLedger_ConcurrentTerminals(t *testing.T) {
	l, sched, expired := newTestLedger()
	l.Open("a1", "Alice", "b1", CallAudio)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matched int
	)
	kinds := []Terminal{TerminalAnswer, TerminalReject, TerminalEnd, TerminalAnswer, TerminalReject}
	for _, k := range kinds {
		wg.Add(1)
		go func(k Terminal) {
			defer wg.Done()
			if l.Close(k, "b1", "a1").Matched {
				mu.Lock()
				matched++
				mu.Unlock()
			}
		}(k)
	}
	wg.Wait()
	sched.fireAll()

	require.Equal(t, 1, matched)
	require.Empty(t, *expired)
}
