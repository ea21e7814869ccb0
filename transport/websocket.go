// file: gate/transport/websocket.go

// Package transport binds the connection handler to concrete network
// faces: WebSocket over TCP and WebTransport over QUIC.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rskv-p/gate/gateway"
	"github.com/rskv-p/gate/pkg/x_log"
)

// Browser clients connect cross-origin by design; the token is the gate.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSServer accepts WebSocket clients and runs one handler per connection.
type WSServer struct {
	newHandler func() *gateway.Handler
	log        zerolog.Logger

	srv *http.Server
	ln  net.Listener
}

func NewWSServer(newHandler func() *gateway.Handler) *WSServer {
	return &WSServer{
		newHandler: newHandler,
		log:        x_log.Logger().With().Str("comp", "ws").Logger(),
	}
}

// Listen binds the TCP listener. Split from Serve so the caller learns the
// effective port (host:0 picks a free one) before any client can connect.
func (s *WSServer) Listen(host string, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("bind websocket listener: %w", err)
	}
	s.ln = ln
	s.log.Info().Str("addr", ln.Addr().String()).Msg("websocket listening")
	return nil
}

// Port returns the bound port. Valid only after Listen.
func (s *WSServer) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Serve runs the HTTP server until Shutdown. Cancelling ctx tears down
// every live connection loop via the per-request context.
func (s *WSServer) Serve(ctx context.Context) error {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS(ctx))

	s.srv = &http.Server{
		Handler: r,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	err := s.srv.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting and waits for live connections up to the
// context deadline, then cuts the rest.
func (s *WSServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return s.srv.Close()
	}
	return nil
}

func (s *WSServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *WSServer) handleWS(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
			return
		}
		s.log.Debug().Str("remote", r.RemoteAddr).Msg("client connected")

		h := s.newHandler()
		if err := h.Run(ctx, &wsConn{conn: conn}); err != nil && !isExpectedClose(err) {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("connection ended")
			return
		}
		s.log.Debug().Str("remote", r.RemoteAddr).Msg("client disconnected")
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, net.ErrClosed)
}

// wsConn adapts a gorilla connection to the handler's framed stream. The
// protocol is binary-only; text and control frames are skipped, not errors.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *wsConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
