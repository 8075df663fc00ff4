package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotIsValueCopy(t *testing.T) {
	state := AgentState{
		Lifecycle:   StatePatrolling,
		FuelPercent: 64,
		StatusLabel: "patrolling",
	}

	snap := state.Snapshot()
	state.Lifecycle = StateRefueling
	state.FuelPercent = 12

	assert.Equal(t, "patrolling", snap.Lifecycle)
	assert.Equal(t, 64, snap.FuelPercent)
	assert.True(t, snap.Running)
}

func TestSnapshotRunningSemantics(t *testing.T) {
	for _, st := range []LifecycleState{StateIdle, StateStopped} {
		state := AgentState{Lifecycle: st}
		assert.False(t, state.Snapshot().Running, st.String())
	}
	for _, st := range []LifecycleState{StateJoining, StateBalancedMode, StateHandlingDeath} {
		state := AgentState{Lifecycle: st}
		assert.True(t, state.Snapshot().Running, st.String())
	}
}

func TestFanoutPublisher(t *testing.T) {
	a := &recordPublisher{}
	b := &recordPublisher{}
	fanout := FanoutPublisher{a, nil, b}

	state := AgentState{Lifecycle: StateSafeMode, FuelPercent: 90}
	fanout.Publish(state.Snapshot())

	require.Len(t, a.snaps, 1)
	require.Len(t, b.snaps, 1)
	assert.Equal(t, "safe_mode", a.snaps[0].Lifecycle)
}

func TestStatusHubBroadcastAndReplay(t *testing.T) {
	hub := NewStatusHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.handleSubscriber))
	defer srv.Close()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.subscribers) == 1
	}, 2*time.Second, 10*time.Millisecond)

	state := AgentState{Lifecycle: StatePatrolling, FuelPercent: 42}
	hub.Publish(state.Snapshot())

	var snap AgentSnapshot
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "patrolling", snap.Lifecycle)
	assert.Equal(t, 42, snap.FuelPercent)

	// A late subscriber gets the last snapshot replayed on connect
	late, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer late.Close(websocket.StatusNormalClosure, "")

	_, data, err = late.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "patrolling", snap.Lifecycle)
}

func TestLogPublisherTracksTransitions(t *testing.T) {
	lp := NewLogPublisher()

	state := AgentState{Lifecycle: StateJoining}
	lp.Publish(state.Snapshot())
	assert.Equal(t, "joining", lp.last)

	state.Lifecycle = StatePatrolling
	lp.Publish(state.Snapshot())
	assert.Equal(t, "patrolling", lp.last)
}
