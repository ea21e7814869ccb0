// file: gate/gateway/handler.go

// Package gateway implements the transport-agnostic half of a client
// connection: the auth-gated dispatch state machine and the fan-in of bus
// deliveries into the single outbound stream.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rskv-p/gate/auth"
	"github.com/rskv-p/gate/bridge"
	"github.com/rskv-p/gate/codec"
	"github.com/rskv-p/gate/pkg/x_log"
)

// FanInCapacity bounds the per-connection delivery queue. Subscriptions
// that outrun it shed messages at the bridge (never the bus).
const FanInCapacity = 256

// asyncCapacity bounds responses produced off-loop (request/reply tasks).
const asyncCapacity = 64

// Conn is the duplex framed stream a transport adapter hands to Run.
// WriteMessage is only ever called from the handler's loop goroutine.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Handler owns everything one client connection is allowed to touch: its
// session, its subscription handles, and its fan-in queue. The validator
// and bridge are shared, read-only. All dispatch methods must be called
// from a single goroutine; only Async and Deliveries cross goroutines.
type Handler struct {
	validator *auth.Validator
	bridge    *bridge.Bridge
	log       zerolog.Logger

	session    *auth.Session
	subs       map[uint64]*bridge.Subscription
	deliveries chan bridge.Message
	async      chan codec.ServerMessage

	done      chan struct{}
	closeOnce sync.Once
}

func NewHandler(validator *auth.Validator, br *bridge.Bridge) *Handler {
	return &Handler{
		validator:  validator,
		bridge:     br,
		log:        x_log.Logger().With().Str("comp", "handler").Logger(),
		subs:       make(map[uint64]*bridge.Subscription),
		deliveries: make(chan bridge.Message, FanInCapacity),
		async:      make(chan codec.ServerMessage, asyncCapacity),
		done:       make(chan struct{}),
	}
}

// Authenticated reports whether an Auth frame has succeeded.
func (h *Handler) Authenticated() bool {
	return h.session != nil
}

// SessionID returns the current session id, or "" before auth.
func (h *Handler) SessionID() string {
	if h.session == nil {
		return ""
	}
	return h.session.ID
}

// Deliveries exposes the fan-in queue for adapters that run their own
// select loop.
func (h *Handler) Deliveries() <-chan bridge.Message {
	return h.deliveries
}

// Async exposes responses produced outside the dispatch loop (request
// tasks racing their own timeouts).
func (h *Handler) Async() <-chan codec.ServerMessage {
	return h.async
}

//---------------------
// Inbound dispatch
//---------------------

// HandleFrame decodes and dispatches one inbound frame. The returned
// message, if any, must be written back to the client. Request frames
// return nil immediately; their outcome arrives via Async.
func (h *Handler) HandleFrame(data []byte) codec.ServerMessage {
	msg, err := codec.DecodeClient(data)
	if err != nil {
		h.log.Warn().Err(err).Msg("undecodable frame")
		return codec.Error{Code: codec.CodeInvalidMessage, Message: "Invalid message format"}
	}

	if codec.RequiresAuth(msg) && !h.Authenticated() {
		return codec.Error{Code: codec.CodeUnauthorized, Message: "Not authenticated"}
	}

	switch m := msg.(type) {
	case codec.Auth:
		return h.handleAuth(m.Token)
	case codec.Subscribe:
		return h.handleSubscribe(m.Subject, m.ID)
	case codec.Unsubscribe:
		return h.handleUnsubscribe(m.ID)
	case codec.Publish:
		return h.handlePublish(m.Subject, m.Payload)
	case codec.Request:
		return h.handleRequest(m)
	case codec.Ping:
		return codec.Pong{}
	}
	return nil
}

func (h *Handler) handleAuth(token string) codec.ServerMessage {
	claims, err := h.validator.Validate(token)
	if err != nil {
		h.log.Warn().Err(err).Msg("authentication failed")
		return codec.AuthError{Reason: err.Error()}
	}

	// A repeated Auth replaces the session; the old session's
	// subscriptions must not outlive it.
	if h.session != nil {
		h.cancelAllSubscriptions()
	}

	h.session = auth.NewSession(claims)
	h.log.Info().
		Str("user", h.session.UserID).
		Str("session", h.session.ID).
		Msg("authenticated")
	return codec.AuthOk{SessionID: h.session.ID}
}

func (h *Handler) handleSubscribe(subject string, id uint64) codec.ServerMessage {
	if !h.session.Claims.CanPerform(auth.PermissionSubscribe, subject) {
		return codec.SubscribeError{ID: id, Reason: "Permission denied"}
	}

	sub, err := h.bridge.Subscribe(subject, h.deliveries)
	if err != nil {
		h.log.Error().Err(err).Str("subject", subject).Msg("bus subscribe failed")
		return codec.SubscribeError{ID: id, Reason: err.Error()}
	}

	// Last wins on a duplicate id; the replaced handle must not leak.
	if old, ok := h.subs[id]; ok {
		old.Cancel()
	}
	h.subs[id] = sub
	h.session.AddSubscription(id, subject)

	h.log.Debug().
		Str("user", h.session.UserID).
		Str("subject", subject).
		Uint64("id", id).
		Msg("subscribed")
	return codec.SubscribeOk{ID: id}
}

func (h *Handler) handleUnsubscribe(id uint64) codec.ServerMessage {
	if sub, ok := h.subs[id]; ok {
		sub.Cancel()
		delete(h.subs, id)
		h.session.RemoveSubscription(id)
		h.log.Debug().Uint64("id", id).Msg("unsubscribed")
	}
	// Silent either way; a missing id is not an error.
	return nil
}

func (h *Handler) handlePublish(subject string, payload []byte) codec.ServerMessage {
	if !h.session.Claims.CanPerform(auth.PermissionPublish, subject) {
		return codec.Error{Code: codec.CodeForbidden, Message: "Permission denied"}
	}

	if err := h.bridge.Publish(subject, payload); err != nil {
		h.log.Error().Err(err).Str("subject", subject).Msg("bus publish failed")
		return codec.Error{Code: codec.CodeInternalError, Message: err.Error()}
	}
	// One-way; success emits nothing.
	return nil
}

func (h *Handler) handleRequest(m codec.Request) codec.ServerMessage {
	if !h.session.Claims.CanPerform(auth.PermissionRequest, m.Subject) {
		return codec.RequestError{RequestID: m.RequestID, Reason: "Permission denied"}
	}

	// A slow request must not block later frames or deliveries: it runs
	// in its own goroutine and reports through the async channel.
	go func() {
		timeout := time.Duration(m.TimeoutMS) * time.Millisecond
		payload, err := h.bridge.Request(m.Subject, m.Payload, timeout)

		var resp codec.ServerMessage
		if err != nil {
			resp = codec.RequestError{RequestID: m.RequestID, Reason: err.Error()}
		} else {
			resp = codec.Response{RequestID: m.RequestID, Payload: payload}
		}

		select {
		case h.async <- resp:
		case <-h.done:
		}
	}()
	return nil
}

//---------------------
// Outbound fan-in
//---------------------

// MatchDelivery resolves a bus delivery to the subscription that owns it:
// exact subject equality first, then pattern matching against each stored
// subject. Deliveries with no live owner (a race with Unsubscribe, or a
// spurious wakeup) are dropped by returning false.
func (h *Handler) MatchDelivery(m bridge.Message) (codec.ServerMessage, bool) {
	if h.session == nil {
		return nil, false
	}

	var matched uint64
	found := false
	h.session.EachSubscription(func(id uint64, subject string) bool {
		if subject == m.Subject {
			matched, found = id, true
			return false
		}
		return true
	})
	if !found {
		h.session.EachSubscription(func(id uint64, subject string) bool {
			if auth.MatchSubject(subject, m.Subject) {
				matched, found = id, true
				return false
			}
			return true
		})
	}
	if !found {
		return nil, false
	}

	return codec.Message{
		SubscriptionID: matched,
		Subject:        m.Subject,
		Payload:        m.Payload,
	}, true
}

//---------------------
// Lifecycle
//---------------------

// Close cancels every subscription handle and drops the session. It is
// idempotent and must run on every exit path.
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.cancelAllSubscriptions()
		if h.session != nil {
			h.log.Info().Str("session", h.session.ID).Msg("session cleaned up")
			h.session = nil
		}
	})
}

func (h *Handler) cancelAllSubscriptions() {
	for id, sub := range h.subs {
		sub.Cancel()
		delete(h.subs, id)
		if h.session != nil {
			h.session.RemoveSubscription(id)
		}
	}
}

//---------------------
// Duplex loop
//---------------------

// Run drives a duplex framed connection to completion: it is the
// serialization point for every outbound frame. Used by the WebSocket
// adapter; the WebTransport adapter runs its own loop over the same
// handler surface.
func (h *Handler) Run(ctx context.Context, conn Conn) error {
	defer h.Close()
	defer conn.Close()

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-h.done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			return err

		case data := <-frames:
			if resp := h.HandleFrame(data); resp != nil {
				if err := conn.WriteMessage(codec.EncodeServer(resp)); err != nil {
					return err
				}
			}

		case m := <-h.deliveries:
			if resp, ok := h.MatchDelivery(m); ok {
				if err := conn.WriteMessage(codec.EncodeServer(resp)); err != nil {
					return err
				}
			}

		case resp := <-h.async:
			if err := conn.WriteMessage(codec.EncodeServer(resp)); err != nil {
				return err
			}
		}
	}
}
