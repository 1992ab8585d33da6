package wire

import "encoding/json"

// Inbound realtime event names.
const (
	EventJoin         = "join"
	EventSendMessage  = "send_message"
	EventCallUser     = "call_user"
	EventAnswerCall   = "answer_call"
	EventRejectCall   = "reject_call"
	EventEndCall      = "end_call"
	EventIceCandidate = "ice_candidate"
)

// Outbound realtime event names.
const (
	EventReceiveMessage = "receive_message"
	EventIncomingCall   = "incoming_call"
	EventCallAccepted   = "call_accepted"
	EventCallRejected   = "call_rejected"
	EventCallEnded      = "call_ended"
	EventNotification   = "notification"
	EventError          = "error"
)

// JoinPayload is the object form of "join". Clients may also send the bare
// user id string.
type JoinPayload struct {
	// UserID is the identity the connection claims.
	UserID string `json:"userId"`
}

// SendMessagePayload is the "send_message" body. Message is forwarded to the
// recipient verbatim as "receive_message".
type SendMessagePayload struct {
	RecipientID string `json:"recipientId"`
	Message     any    `json:"message"`
}

// CallUserPayload is the "call_user" body sent by the caller.
type CallUserPayload struct {
	// UserToCall is the recipient user id.
	UserToCall string `json:"userToCall"`
	// SignalData is the caller's opaque WebRTC offer.
	SignalData any `json:"signalData"`
	// From is the caller user id.
	From string `json:"from"`
	// Name is the caller's display name.
	Name string `json:"name"`
	// CallType is "audio" or "video".
	CallType string `json:"callType"`
}

// IncomingCallPayload is the "incoming_call" body delivered to the recipient.
type IncomingCallPayload struct {
	Signal   any    `json:"signal"`
	From     string `json:"from"`
	Name     string `json:"name"`
	CallType string `json:"callType"`
}

// AnswerCallPayload is the "answer_call" body. To addresses the original
// caller; Signal is relayed to them unmodified as "call_accepted".
type AnswerCallPayload struct {
	Signal any    `json:"signal"`
	To     string `json:"to"`
}

// PeerPayload is the body of "reject_call" and "end_call".
type PeerPayload struct {
	// To is the other party of the call.
	To string `json:"to"`
}

// IceCandidatePayload is the inbound "ice_candidate" body.
type IceCandidatePayload struct {
	To        string `json:"to"`
	Candidate any    `json:"candidate"`
}

// IceCandidateRelayPayload is the outbound "ice_candidate" body.
type IceCandidateRelayPayload struct {
	Candidate any    `json:"candidate"`
	From      string `json:"from"`
}

// Frame is the envelope used on the plain WebSocket endpoint, where there is
// no Socket.IO event framing.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ResultAck is the ACK sent when a client emits with an ack callback.
type ResultAck struct {
	// Result is "success" or "error".
	Result string `json:"result"`
	// Message is an optional error annotation.
	Message string `json:"message,omitempty"`
}
