// file: gate/servs/s_echo/main.go

// s_echo is a demo bus peer for exercising the gateway: it answers
// requests on demo.echo and emits a heartbeat on demo.events so a
// connected client has something to subscribe to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rskv-p/gate/config"
	"github.com/rskv-p/gate/pkg/x_log"
)

func main() {
	url := config.GetEnvStr("NATS_URL", config.DefaultNATSURL)

	nc, err := nats.Connect(url, nats.Name("s_echo"))
	if err != nil {
		x_log.Error().Err(err).Str("url", url).Msg("bus connect failed")
		os.Exit(1)
	}
	defer nc.Close()

	_, err = nc.Subscribe("demo.echo", func(m *nats.Msg) {
		_ = m.Respond(append([]byte("echo:"), m.Data...))
	})
	if err != nil {
		x_log.Error().Err(err).Msg("subscribe failed")
		os.Exit(1)
	}
	x_log.Info().Str("url", url).Msg("echo responder on demo.echo")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			seq++
			payload := fmt.Sprintf(`{"seq":%d,"ts":%q}`, seq, t.Format(time.RFC3339))
			if err := nc.Publish("demo.events", []byte(payload)); err != nil {
				x_log.Warn().Err(err).Msg("heartbeat publish failed")
			}
		}
	}
}
