// file: gate/bridge/bridge.go

// Package bridge is the gateway's façade over the NATS bus: publish,
// subject subscriptions feeding a caller-owned sink, and request/reply
// with a per-call timeout.
package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/rskv-p/gate/pkg/x_log"
)

// ErrRequestTimeout covers both a request that ran out its deadline and a
// subject with no responders; clients distinguish it from other failures
// by the reason text.
var ErrRequestTimeout = errors.New("request timed out: no responders")

// Message is one bus delivery.
type Message struct {
	Subject string
	Payload []byte
}

// Bridge wraps one NATS connection shared read-only by every gateway
// connection.
type Bridge struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// Connect dials the bus. The supervisor treats a failure here as fatal.
func Connect(url string) (*Bridge, error) {
	log := x_log.Logger().With().Str("comp", "bridge").Logger()

	nc, err := nats.Connect(url,
		nats.Name("gate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("bus disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("bus reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to bus at %s: %w", url, err)
	}

	log.Info().Str("url", url).Msg("connected to bus")
	return &Bridge{nc: nc, log: log}, nil
}

// Publish sends a payload to a subject. Success means the bus accepted the
// message, not that anyone received it.
func (b *Bridge) Publish(subject string, payload []byte) error {
	if err := b.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe forwards every delivery on subject into sink. A full sink
// drops the delivery and logs: the gateway sheds load for a slow client
// rather than stalling the bus. Cancel the returned handle to stop.
func (b *Bridge) Subscribe(subject string, sink chan<- Message) (*Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		select {
		case sink <- Message{Subject: m.Subject, Payload: m.Data}:
		default:
			b.log.Warn().Str("subject", m.Subject).Msg("fan-in queue full, dropping delivery")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return &Subscription{subject: subject, sub: sub, log: b.log}, nil
}

// Request issues a request/reply call bounded by timeout.
func (b *Bridge) Request(subject string, payload []byte, timeout time.Duration) ([]byte, error) {
	resp, err := b.nc.Request(subject, payload, timeout)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders) {
			return nil, ErrRequestTimeout
		}
		return nil, fmt.Errorf("request to %s: %w", subject, err)
	}
	return resp.Data, nil
}

// Close drains the connection so in-flight deliveries finish first.
func (b *Bridge) Close() {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}

// IsConnected reports the underlying connection state.
func (b *Bridge) IsConnected() bool {
	return b.nc.IsConnected()
}

//---------------------
// Subscription
//---------------------

// Subscription is the cancellable ownership token for one bus-side
// subscription. The connection handler holds exactly one per table entry.
type Subscription struct {
	subject string
	sub     *nats.Subscription
	log     zerolog.Logger
	once    sync.Once
}

// Subject returns the subject pattern this subscription was created with.
func (s *Subscription) Subject() string {
	return s.subject
}

// Cancel terminates the bus-side subscription. Idempotent.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			s.log.Debug().Err(err).Str("subject", s.subject).Msg("unsubscribe failed")
		}
	})
}
