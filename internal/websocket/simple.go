package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/wire"
	pkgtypes "github.com/rajankumarrkr/sukoon/pkg/types"
)

const (
	// SimplePath is where the plain WebSocket endpoint is mounted.
	SimplePath = "/ws"

	sendQueueSize = 64
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameSize  = 1 << 20
)

// SimpleServer serves the plain WebSocket transport. Frames are JSON objects
// {"event": name, "data": payload} in both directions.
type SimpleServer struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewSimpleServer creates a plain WebSocket endpoint that dispatches into hub.
// allowOrigin reports whether a browser origin may connect; nil allows all.
func NewSimpleServer(hub *Hub, allowOrigin func(origin string) bool) *SimpleServer {
	return &SimpleServer{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowOrigin == nil {
					return true
				}
				return allowOrigin(origin)
			},
		},
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn: c,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *wsConn) emit(event string, payload any) bool {
	frame := wire.Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Warnf("ws: encode %s: %v", event, err)
			return false
		}
		frame.Data = data
	}
	msg, err := json.Marshal(frame)
	if err != nil {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		logger.Warnf("ws: send queue full; dropping %s", event)
		return false
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writeLoop is the only writer on the connection, so frames reach the client
// in the order they were queued.
func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (s *SimpleServer) HandleWebSocket(c *gin.Context) {
	subject, err := s.hub.authenticate(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, pkgtypes.ErrorResponse{Error: err.Error()})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	handle := "ws-" + pkgtypes.NewID()
	conn := newWSConn(ws)
	s.hub.connect(handle, subject, conn)
	go conn.writeLoop()

	reason := s.readLoop(handle, conn)
	conn.close()
	s.hub.disconnect(handle, reason)
}

func (s *SimpleServer) readLoop(handle string, conn *wsConn) string {
	ws := conn.conn
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("WebSocket %s read error: %v", handle, err)
			}
			return "transport close"
		}

		var frame wire.Frame
		if err := json.Unmarshal(msg, &frame); err != nil || frame.Event == "" {
			conn.emit(wire.EventError, map[string]string{"message": "malformed frame"})
			continue
		}
		s.hub.dispatch(handle, frame.Event, frame.Data, nil)
	}
}
