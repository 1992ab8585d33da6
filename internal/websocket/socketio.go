package websocket

import (
	"time"

	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/wire"
)

const (
	// SocketIOPath is where the Socket.IO endpoint is mounted.
	SocketIOPath = "/socket.io/"

	// socketIOPingInterval controls how quickly a vanished client is
	// detected and its binding released.
	socketIOPingInterval = 5 * time.Second
	socketIOPingTimeout  = 15 * time.Second
)

// SocketIOServer serves the Socket.IO transport.
type SocketIOServer struct {
	hub    *Hub
	server *socket.Server
}

// NewSocketIOServer creates a Socket.IO server that dispatches into hub.
// origins lists the browser origins allowed to connect.
func NewSocketIOServer(hub *Hub, origins []string) *SocketIOServer {
	opts := socket.DefaultServerOptions()

	var origin any = "*"
	switch len(origins) {
	case 0:
	case 1:
		origin = origins[0]
	default:
		origin = origins
	}
	opts.SetCors(&sockettypes.Cors{
		Origin:      origin,
		Credentials: true,
	})
	opts.SetPingInterval(socketIOPingInterval)
	opts.SetPingTimeout(socketIOPingTimeout)
	opts.SetPath(SocketIOPath)

	s := &SocketIOServer{
		hub:    hub,
		server: socket.NewServer(nil, opts),
	}
	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})
	return s
}

type socketIOConn struct {
	client *socket.Socket
}

func (c socketIOConn) emit(event string, payload any) bool {
	if payload == nil {
		c.client.Emit(event)
	} else {
		c.client.Emit(event, payload)
	}
	return true
}

func (c socketIOConn) close() {
	c.client.Disconnect(true)
}

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	handle := string(client.Id())
	logger.Infof("Socket.IO connection (socket ID: %s)", handle)

	var auth struct {
		Token string `json:"token"`
	}
	_ = decodeAny(client.Handshake().Auth, &auth)
	subject, err := s.hub.authenticate(auth.Token)
	if err != nil {
		logger.Warnf("Socket.IO handshake rejected (socket %s): %v", handle, err)
		client.Emit(wire.EventError, map[string]string{"message": err.Error()})
		client.Disconnect(true)
		return
	}

	s.hub.connect(handle, subject, socketIOConn{client: client})

	for _, event := range Events() {
		event := event
		client.On(event, func(data ...any) {
			raw, ack := getFirstAnyWithAck(data)
			s.hub.dispatch(handle, event, raw, ack)
		})
	}

	client.On("disconnect", func(data ...any) {
		reason := ""
		if len(data) > 0 {
			if r, ok := data[0].(string); ok {
				reason = r
			}
		}
		s.hub.disconnect(handle, reason)
	})
}

// getFirstAnyWithAck returns the first event argument and the trailing ack
// callback, if the client sent one.
func getFirstAnyWithAck(data []any) (any, func(...any)) {
	var ack func(...any)
	if len(data) == 0 {
		return nil, nil
	}
	if cb, ok := data[len(data)-1].(func(...any)); ok {
		ack = cb
		data = data[:len(data)-1]
	} else if cb, ok := data[len(data)-1].(socket.Ack); ok {
		ack = func(args ...any) {
			cb(args, nil)
		}
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ack
	}
	return data[0], ack
}

// Handler returns the gin handler serving the Socket.IO endpoint.
func (s *SocketIOServer) Handler() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)
	return func(c *gin.Context) {
		logger.Tracef("Socket.IO request: %s %s", c.Request.Method, c.Request.URL.Path)
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts down the Socket.IO server.
func (s *SocketIOServer) Close() error {
	s.server.Close(nil)
	return nil
}
