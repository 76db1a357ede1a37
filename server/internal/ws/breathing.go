package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wristcalm/wristcalm/server/internal/breathing"
	"github.com/wristcalm/wristcalm/server/internal/metrics"
)

// Breather streams one guided breathing exercise per WebSocket connection.
// Each step is sent as {"event":"step","data":Step}; after the last step a
// {"event":"complete"} message is sent and the connection is closed.
type Breather struct {
	script  func() []breathing.Step
	player  *breathing.Player
	metrics *metrics.Registry
	active  atomic.Int64
}

// NewBreather creates a Breather. script is called once per connection so
// config reloads apply to the next exercise.
func NewBreather(script func() []breathing.Step, player *breathing.Player, reg *metrics.Registry) *Breather {
	return &Breather{script: script, player: player, metrics: reg}
}

// Active returns the number of exercises currently streaming.
func (b *Breather) Active() int {
	return int(b.active.Load())
}

// ServeHTTP upgrades the connection and plays the exercise. The exercise is
// aborted as soon as the client disconnects.
func (b *Breather) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	b.active.Add(1)
	defer b.active.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine: any read error means the client went away.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = b.player.Run(ctx, b.script(), func(s breathing.Step) error {
		return writeJSON(conn, Message{Event: EventStep, Data: s})
	})
	if err != nil {
		b.metrics.ObserveBreathing(metrics.OutcomeAborted)
		if !errors.Is(err, context.Canceled) {
			slog.Debug("ws: breathing stream ended early", "err", err)
		}
		return
	}

	b.metrics.ObserveBreathing(metrics.OutcomeCompleted)
	writeJSON(conn, Message{Event: EventComplete}) //nolint:errcheck
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "exercise complete"))
}

func writeJSON(conn *websocket.Conn, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
