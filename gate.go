// file: gate/gate.go

// Package gate supervises the messaging gateway: it owns the shared token
// validator and bus connection, binds the transport faces, and runs them
// until shutdown.
package gate

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rskv-p/gate/auth"
	"github.com/rskv-p/gate/bridge"
	"github.com/rskv-p/gate/config"
	"github.com/rskv-p/gate/gateway"
	"github.com/rskv-p/gate/pkg/x_log"
	"github.com/rskv-p/gate/transport"
)

// shutdownTimeout bounds the graceful-drain window before live
// connections are cut.
const shutdownTimeout = 5 * time.Second

// Gateway wires the shared pieces to the per-connection handlers. One
// instance serves every client; handlers are created per connection.
type Gateway struct {
	cfg       *config.Config
	validator *auth.Validator
	bridge    *bridge.Bridge
	ws        *transport.WSServer
	wt        *transport.WTServer
	tlsConf   *tls.Config
	log       zerolog.Logger
}

// New validates the config's dependencies up front: the bus must be
// reachable and the WebSocket port bindable, or startup fails.
func New(cfg *config.Config) (*Gateway, error) {
	g := &Gateway{
		cfg:       cfg,
		validator: auth.NewValidator(cfg.JWTSecret),
		log:       x_log.Logger().With().Str("comp", "gate").Logger(),
	}

	br, err := bridge.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	g.bridge = br

	g.ws = transport.NewWSServer(g.newHandler)
	if err := g.ws.Listen(cfg.Host, cfg.WSPort); err != nil {
		br.Close()
		return nil, err
	}

	if cfg.WTEnabled() {
		tlsConf, err := transport.LoadTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		if err != nil {
			br.Close()
			return nil, err
		}
		g.tlsConf = tlsConf
		g.wt = transport.NewWTServer(g.newHandler)
	}

	return g, nil
}

func (g *Gateway) newHandler() *gateway.Handler {
	return gateway.NewHandler(g.validator, g.bridge)
}

// WSPort returns the bound WebSocket port; useful with port 0.
func (g *Gateway) WSPort() int {
	return g.ws.Port()
}

// Run serves until ctx is cancelled or a transport fails, then drains
// connections within the shutdown window and closes the bus connection.
func (g *Gateway) Run(ctx context.Context) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- g.ws.Serve(serveCtx) }()
	if g.wt != nil {
		go func() {
			err := g.wt.Serve(serveCtx, g.cfg.Host, g.cfg.WTPort, g.tlsConf)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errCh <- err
		}()
	}

	g.log.Info().
		Int("ws_port", g.WSPort()).
		Bool("wt_enabled", g.wt != nil).
		Msg("gateway running")

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	cancel()
	if err := g.shutdown(); serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func (g *Gateway) shutdown() error {
	g.log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if e := g.ws.Shutdown(sctx); e != nil {
		err = e
	}
	if g.wt != nil {
		if e := g.wt.Shutdown(); e != nil && err == nil {
			err = e
		}
	}
	g.bridge.Close()
	g.log.Info().Msg("gateway stopped")
	return err
}
