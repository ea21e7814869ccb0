// file: gate/transport/webtransport.go
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
	"github.com/rs/zerolog"

	"github.com/rskv-p/gate/codec"
	"github.com/rskv-p/gate/gateway"
	"github.com/rskv-p/gate/pkg/x_log"
)

// maxStreamFrame caps one request stream; matches the codec's field limit.
const maxStreamFrame = 1 << 24

// WTServer accepts WebTransport sessions over QUIC. Each session speaks
// the same frame protocol as WebSocket, mapped onto QUIC primitives: a
// bidirectional stream carries one inbound frame and its direct reply,
// datagrams carry small frames both ways, and oversized outbound frames
// fall back to a unidirectional stream.
type WTServer struct {
	newHandler func() *gateway.Handler
	log        zerolog.Logger

	srv *webtransport.Server
}

func NewWTServer(newHandler func() *gateway.Handler) *WTServer {
	return &WTServer{
		newHandler: newHandler,
		log:        x_log.Logger().With().Str("comp", "wt").Logger(),
	}
}

// Serve listens on host:port until Shutdown.
func (s *WTServer) Serve(ctx context.Context, host string, port int, tlsConf *tls.Config) error {
	mux := http.NewServeMux()
	s.srv = &webtransport.Server{
		H3: http3.Server{
			Addr:      fmt.Sprintf("%s:%d", host, port),
			TLSConfig: tlsConf,
			Handler:   mux,
		},
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux.HandleFunc("/wt", func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.srv.Upgrade(w, r)
		if err != nil {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("session upgrade failed")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		go s.handleSession(ctx, sess)
	})

	s.log.Info().Str("addr", s.srv.H3.Addr).Msg("webtransport listening")
	return s.srv.ListenAndServe()
}

// Shutdown stops the QUIC listener and closes every live session.
func (s *WTServer) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

// inboundFrame is one fully-read request stream handed to the session
// loop, which owns all handler dispatch.
type inboundFrame struct {
	data []byte
	str  webtransport.Stream
}

func (s *WTServer) handleSession(ctx context.Context, sess *webtransport.Session) {
	log := s.log.With().Str("remote", sess.RemoteAddr().String()).Logger()
	log.Debug().Msg("session opened")

	h := s.newHandler()
	defer h.Close()
	defer sess.CloseWithError(0, "")

	streams := make(chan inboundFrame)
	datagrams := make(chan []byte)

	go func() {
		for {
			str, err := sess.AcceptStream(ctx)
			if err != nil {
				return
			}
			// Reads happen off-loop so a stalled client stream cannot
			// starve the session.
			go func() {
				data, err := io.ReadAll(io.LimitReader(str, maxStreamFrame))
				if err != nil {
					str.CancelRead(0)
					return
				}
				select {
				case streams <- inboundFrame{data: data, str: str}:
				case <-ctx.Done():
				case <-sess.Context().Done():
				}
			}()
		}
	}()

	go func() {
		for {
			data, err := sess.ReceiveDatagram(ctx)
			if err != nil {
				return
			}
			select {
			case datagrams <- data:
			case <-ctx.Done():
			case <-sess.Context().Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("session closed on shutdown")
			return

		case <-sess.Context().Done():
			log.Debug().Msg("session closed by peer")
			return

		case f := <-streams:
			if resp := h.HandleFrame(f.data); resp != nil {
				if _, err := f.str.Write(codec.EncodeServer(resp)); err != nil {
					log.Debug().Err(err).Msg("stream reply failed")
				}
			}
			_ = f.str.Close()

		case data := <-datagrams:
			if resp := h.HandleFrame(data); resp != nil {
				s.sendOutbound(ctx, sess, log, resp)
			}

		case m := <-h.Deliveries():
			if resp, ok := h.MatchDelivery(m); ok {
				s.sendOutbound(ctx, sess, log, resp)
			}

		case resp := <-h.Async():
			s.sendOutbound(ctx, sess, log, resp)
		}
	}
}

// sendOutbound pushes a server frame to the client: datagram when it
// fits, a one-shot unidirectional stream when it does not.
func (s *WTServer) sendOutbound(ctx context.Context, sess *webtransport.Session, log zerolog.Logger, msg codec.ServerMessage) {
	data := codec.EncodeServer(msg)
	if err := sess.SendDatagram(data); err == nil {
		return
	}

	str, err := sess.OpenUniStreamSync(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("outbound frame dropped")
		return
	}
	if _, err := str.Write(data); err != nil {
		log.Debug().Err(err).Msg("outbound stream write failed")
	}
	_ = str.Close()
}
