package signaling

import "fmt"

// Terminal identifies the event that closes a pending call attempt.
type Terminal int

const (
	TerminalAnswer Terminal = iota + 1
	TerminalReject
	TerminalEnd
	TerminalTimeout
)

// String returns the outcome label used in logs and metrics.
func (t Terminal) String() string {
	switch t {
	case TerminalAnswer:
		return "answered"
	case TerminalReject:
		return "rejected"
	case TerminalEnd:
		return "ended"
	case TerminalTimeout:
		return "timed_out"
	default:
		return fmt.Sprintf("terminal(%d)", int(t))
	}
}

// Decision is the outcome of applying a terminal event to the ledger.
type Decision struct {
	Kind Terminal
	// Matched reports whether a pending attempt was found and removed.
	Matched bool
	// Attempt is the removed attempt; zero when Matched is false.
	Attempt Attempt
	// Notify requests a missed-call record for Attempt.RecipientID from
	// Attempt.CallerID.
	Notify bool
	// RelayTo is the user the terminal event is forwarded to. It is set even
	// when nothing matched.
	RelayTo string
}

// decide is the call lifecycle policy. It is pure: matched is the attempt the
// ledger located for the event (nil on a miss) and to is the party the event
// was addressed to.
//
//   - answer:  remove, no notification.
//   - reject:  remove, missed call for the recipient.
//   - end:     remove; a missed call is recorded when the attempt was found
//     through its caller (its key differs from to), none when found by key.
//   - timeout: remove, missed call for the recipient, relay to the recipient.
func decide(kind Terminal, matched *Attempt, to string) Decision {
	d := Decision{Kind: kind, RelayTo: to}
	if matched == nil {
		return d
	}

	d.Matched = true
	d.Attempt = *matched

	switch kind {
	case TerminalAnswer:
	case TerminalReject:
		d.Notify = true
	case TerminalEnd:
		d.Notify = matched.RecipientID != to
	case TerminalTimeout:
		d.Notify = true
		d.RelayTo = matched.RecipientID
	}
	return d
}
