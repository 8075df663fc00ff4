// Package main - status.go
//
// Status publishing: every tick and every lifecycle transition produces
// an AgentSnapshot that is fanned out to subscribers.
//
// Publishers:
//   - LogPublisher: writes transitions to the log
//   - StatusHub: pushes snapshot JSON to /ws/status websocket clients
//   - FanoutPublisher: composes publishers
//
// The hub holds the last snapshot and replays it to new subscribers so
// a dashboard shows state immediately on connect.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// StatusPublisher receives state snapshots from the policy engine.
// Publish is called from the engine goroutine and must not block.
type StatusPublisher interface {
	Publish(snapshot AgentSnapshot)
}

// LogPublisher logs lifecycle transitions
type LogPublisher struct {
	mu   sync.Mutex
	last string
}

// NewLogPublisher creates a log publisher
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish logs the snapshot when the lifecycle changed
func (lp *LogPublisher) Publish(s AgentSnapshot) {
	lp.mu.Lock()
	changed := s.Lifecycle != lp.last
	lp.last = s.Lifecycle
	lp.mu.Unlock()

	if changed {
		LogInfo("Status: %s fuel=%d%% (%s) shields=%v %s",
			s.Lifecycle, s.FuelPercent, s.FuelSource, s.ShieldsActive, s.StatusLabel)
	} else {
		LogDebug("Status: %s fuel=%d%% %s", s.Lifecycle, s.FuelPercent, s.StatusLabel)
	}
}

// FanoutPublisher forwards snapshots to every registered publisher
type FanoutPublisher []StatusPublisher

// Publish forwards the snapshot to all publishers
func (fp FanoutPublisher) Publish(s AgentSnapshot) {
	for _, p := range fp {
		if p != nil {
			p.Publish(s)
		}
	}
}

// StatusHub serves /ws/status and broadcasts snapshots to subscribers
type StatusHub struct {
	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
	last        AgentSnapshot
	hasLast     bool

	server *http.Server
}

// NewStatusHub creates an empty hub
func NewStatusHub() *StatusHub {
	return &StatusHub{
		subscribers: make(map[*websocket.Conn]struct{}),
	}
}

// Publish broadcasts the snapshot to all connected subscribers.
// Slow or broken subscribers are dropped.
func (sh *StatusHub) Publish(s AgentSnapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		LogError("Snapshot marshal failed: %v", err)
		return
	}

	sh.mu.Lock()
	sh.last = s
	sh.hasLast = true
	conns := make([]*websocket.Conn, 0, len(sh.subscribers))
	for c := range sh.subscribers {
		conns = append(conns, c)
	}
	sh.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			LogDebug("Dropping status subscriber: %v", err)
			sh.remove(c)
		}
	}
}

// Listen serves the websocket endpoint until the hub is closed
func (sh *StatusHub) Listen(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/status", sh.handleSubscriber)

	sh.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	LogInfo("Status hub listening on %s", addr)
	err := sh.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (sh *StatusHub) handleSubscriber(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // local dashboards connect cross-origin
	})
	if err != nil {
		LogWarn("Status subscriber accept failed: %v", err)
		return
	}

	sh.mu.Lock()
	sh.subscribers[conn] = struct{}{}
	last, hasLast := sh.last, sh.hasLast
	sh.mu.Unlock()

	LogInfo("Status subscriber connected (%s)", r.RemoteAddr)

	if hasLast {
		if data, err := json.Marshal(last); err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			_ = conn.Write(ctx, websocket.MessageText, data)
			cancel()
		}
	}

	// Block reading until the client goes away; inbound messages are
	// ignored.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			break
		}
	}

	sh.remove(conn)
	LogInfo("Status subscriber disconnected (%s)", r.RemoteAddr)
}

func (sh *StatusHub) remove(conn *websocket.Conn) {
	sh.mu.Lock()
	_, ok := sh.subscribers[conn]
	delete(sh.subscribers, conn)
	sh.mu.Unlock()

	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

// Close shuts the hub down and disconnects all subscribers
func (sh *StatusHub) Close() {
	sh.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(sh.subscribers))
	for c := range sh.subscribers {
		conns = append(conns, c)
	}
	sh.subscribers = make(map[*websocket.Conn]struct{})
	sh.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "shutting down")
	}

	if sh.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = sh.server.Shutdown(ctx)
	}
}
