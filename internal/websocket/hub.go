package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rajankumarrkr/sukoon/internal/crypto"
	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/wire"
)

// Signaler is the realtime service the transports dispatch into.
// *signaling.Service implements it.
type Signaler interface {
	Identify(handle, userID string) bool
	Disconnect(handle string)
	SendMessage(handle string, p wire.SendMessagePayload)
	CallUser(handle string, p wire.CallUserPayload)
	AnswerCall(handle string, p wire.AnswerCallPayload)
	RejectCall(handle string, p wire.PeerPayload)
	EndCall(handle string, p wire.PeerPayload)
	IceCandidate(handle string, p wire.IceCandidatePayload)
}

// TokenVerifier validates bearer tokens. *crypto.JWTManager implements it.
type TokenVerifier interface {
	VerifyToken(token string) (*crypto.TokenClaims, error)
}

var (
	errMissingToken = errors.New("missing authentication token")
	errInvalidToken = errors.New("invalid authentication token")
	errForbidden    = errors.New("identity does not match token")
	errMissingUser  = errors.New("missing userId")
)

// Hub is shared by the Socket.IO and plain WebSocket transports: it owns the
// connection table and routes decoded events to the Signaler.
type Hub struct {
	svc         Signaler
	conns       *ConnTable
	verifier    TokenVerifier
	requireAuth bool

	// subjects holds the token subject per handle when auth is required.
	subjects sync.Map
}

// HubOptions configures handshake authentication.
type HubOptions struct {
	// Verifier checks handshake tokens. Required when RequireAuth is set.
	Verifier    TokenVerifier
	RequireAuth bool
}

func NewHub(svc Signaler, conns *ConnTable, opts HubOptions) *Hub {
	return &Hub{
		svc:         svc,
		conns:       conns,
		verifier:    opts.Verifier,
		requireAuth: opts.RequireAuth,
	}
}

// authenticate checks the handshake token. It returns the token subject, or
// "" when auth is not required.
func (h *Hub) authenticate(token string) (string, error) {
	if !h.requireAuth {
		return "", nil
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", errMissingToken
	}
	if h.verifier == nil {
		return "", errInvalidToken
	}
	claims, err := h.verifier.VerifyToken(token)
	if err != nil {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

func (h *Hub) connect(handle, subject string, c conn) {
	h.conns.add(handle, c)
	if subject != "" {
		h.subjects.Store(handle, subject)
	}
	logger.Debugf("Realtime connection %s opened (%d open)", handle, h.conns.Len())
}

func (h *Hub) disconnect(handle, reason string) {
	h.conns.remove(handle)
	h.subjects.Delete(handle)
	h.svc.Disconnect(handle)
	logger.Debugf("Realtime connection %s closed: %s", handle, reason)
}

func (h *Hub) subject(handle string) string {
	v, ok := h.subjects.Load(handle)
	if !ok {
		return ""
	}
	return v.(string)
}

// eventHandler handles one decoded inbound event for a connection.
type eventHandler func(h *Hub, handle string, raw any) error

var dispatchTable = map[string]eventHandler{
	wire.EventJoin: handleJoin,
	wire.EventSendMessage: onTyped(func(h *Hub, handle string, p wire.SendMessagePayload) error {
		h.svc.SendMessage(handle, p)
		return nil
	}),
	wire.EventCallUser: onTyped(func(h *Hub, handle string, p wire.CallUserPayload) error {
		if sub := h.subject(handle); sub != "" && p.From != sub {
			return errForbidden
		}
		h.svc.CallUser(handle, p)
		return nil
	}),
	wire.EventAnswerCall: onTyped(func(h *Hub, handle string, p wire.AnswerCallPayload) error {
		h.svc.AnswerCall(handle, p)
		return nil
	}),
	wire.EventRejectCall: onTyped(func(h *Hub, handle string, p wire.PeerPayload) error {
		h.svc.RejectCall(handle, p)
		return nil
	}),
	wire.EventEndCall: onTyped(func(h *Hub, handle string, p wire.PeerPayload) error {
		h.svc.EndCall(handle, p)
		return nil
	}),
	wire.EventIceCandidate: onTyped(func(h *Hub, handle string, p wire.IceCandidatePayload) error {
		h.svc.IceCandidate(handle, p)
		return nil
	}),
}

// Events lists the inbound event names the hub handles.
func Events() []string {
	out := make([]string, 0, len(dispatchTable))
	for name := range dispatchTable {
		out = append(out, name)
	}
	return out
}

func onTyped[Req any](fn func(h *Hub, handle string, req Req) error) eventHandler {
	return func(h *Hub, handle string, raw any) error {
		var req Req
		if err := decodeAny(raw, &req); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return fn(h, handle, req)
	}
}

func handleJoin(h *Hub, handle string, raw any) error {
	userID, err := parseJoin(raw)
	if err != nil {
		return err
	}
	if sub := h.subject(handle); sub != "" && userID != sub {
		return errForbidden
	}
	h.svc.Identify(handle, userID)
	return nil
}

// dispatch routes one inbound event. Unknown events are ignored.
func (h *Hub) dispatch(handle, event string, raw any, ack func(...any)) {
	handler, ok := dispatchTable[event]
	if !ok {
		logger.Tracef("Ignoring unknown event %q on %s", event, handle)
		return
	}

	err := handler(h, handle, raw)
	if err != nil {
		logger.Warnf("Event %s on %s rejected: %v", event, handle, err)
	}

	if ack != nil {
		if err != nil {
			ack(wire.ResultAck{Result: "error", Message: err.Error()})
		} else {
			ack(wire.ResultAck{Result: "success"})
		}
		return
	}
	if err != nil {
		h.conns.EmitTo(handle, wire.EventError, map[string]string{"message": err.Error()})
	}
}

// parseJoin accepts either a bare user id string or {"userId": "..."}.
func parseJoin(raw any) (string, error) {
	var v any
	if err := decodeAny(raw, &v); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	var userID string
	switch t := v.(type) {
	case string:
		userID = t
	case map[string]any:
		userID, _ = t["userId"].(string)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errMissingUser
	}
	return userID, nil
}

func decodeAny(input any, out any) error {
	if raw, ok := input.(json.RawMessage); ok {
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		return json.Unmarshal(raw, out)
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
