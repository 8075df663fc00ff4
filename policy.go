// Package main - policy.go
//
// This file implements the PolicyEngine: the agent's lifecycle state
// machine and the tick loop that drives it.
//
// State Machine States:
//   - Idle: not started
//   - Joining: waiting until the actuator reports being in a map
//   - ConfiguringLoadout: toggling in-game aids after joining
//   - Patrolling: entry state, immediately resolved by thresholds
//   - Refueling: fuel at or below the refuel threshold, collecting nodes
//   - SafeMode: fuel at or above the safe threshold
//   - BalancedMode: fuel between the thresholds
//   - PersistentSearch: no fuel visible, bounded exploration
//   - HandlingDeath: death detected, re-entering via the overview map
//   - Reconnecting: actuator lost, re-establishing the session
//   - Stopped: terminal until an explicit restart
//
// Tick shape: capture frame and page text, check death, then act for
// the current state. Death preempts everything else within the same
// tick. A shield activation is an action, not a state: fuel at or
// below the shield threshold raises shields and the threshold logic
// continues unchanged.
//
// Error policy: per-action failures are logged and the tick continues
// on the last good state. Repeated capture failures or a dead actuator
// escalate to Reconnecting; reconnection failing all retries is fatal
// and parks the engine in Stopped.
package main

import (
	"image"
	"sync/atomic"
	"time"
)

// Game key bindings
const (
	keyShield      = "1"
	keyRadar       = "r"
	keyOverviewMap = "m"
	keyQuitToMap   = "q"
	keyAutoBot     = "b"
	keyAutoMine    = "n"
)

const (
	maxTransientFailures = 3
	reconnectMaxAttempts = 3
	reconnectBackoff     = 2 * time.Second

	refuelBatchSize = 2

	keySettleDelay   = 300 * time.Millisecond
	clickSettleDelay = 500 * time.Millisecond
	mapSettleDelay   = 800 * time.Millisecond
)

// PolicyEngine owns AgentState and drives the perception-action loop.
// Single writer: all state mutation happens on the RunLoop goroutine.
type PolicyEngine struct {
	actuator  Actuator
	sampler   *FuelSampler
	detector  *ObjectDetector
	death     *DeathDetector
	search    *PersistentSearch
	publisher StatusPublisher
	stats     *Statistics

	settings Settings
	state    AgentState

	stopRequested   atomic.Bool
	pendingSettings atomic.Pointer[Settings]
	sleep           func(time.Duration)

	transientFailures int
	searchExhaustions int
}

// NewPolicyEngine creates an engine in Idle
func NewPolicyEngine(actuator Actuator, sampler *FuelSampler, detector *ObjectDetector, death *DeathDetector, search *PersistentSearch, publisher StatusPublisher, stats *Statistics, settings Settings) *PolicyEngine {
	return &PolicyEngine{
		actuator:  actuator,
		sampler:   sampler,
		detector:  detector,
		death:     death,
		search:    search,
		publisher: publisher,
		stats:     stats,
		settings:  settings,
		sleep:     time.Sleep,
		state: AgentState{
			Lifecycle:   StateIdle,
			FuelPercent: defaultFuelPercent,
			StatusLabel: "idle",
		},
	}
}

// Start requests the engine to begin a run. No-op while already running.
func (pe *PolicyEngine) Start() {
	st := pe.state.Lifecycle
	if st != StateIdle && st != StateStopped {
		LogWarn("Start ignored, engine is %s", st)
		return
	}
	pe.stopRequested.Store(false)
	pe.transientFailures = 0
	pe.searchExhaustions = 0
	pe.setState(StateIdle)
	pe.setState(StateJoining)
}

// UpdateSettings hands new settings to the engine. Applied at the next
// tick boundary to preserve the single-writer rule.
func (pe *PolicyEngine) UpdateSettings(s Settings) {
	pe.pendingSettings.Store(&s)
}

// RequestStop asks the loop to stop. Observed at the next tick boundary;
// no further actions are issued after that, apart from the graceful
// exit-to-map press.
func (pe *PolicyEngine) RequestStop() {
	pe.stopRequested.Store(true)
}

// Snapshot returns a value copy of the current state for observers
func (pe *PolicyEngine) Snapshot() AgentSnapshot {
	return pe.snapshot()
}

// RunLoop runs ticks until the process exits. Idle and Stopped ticks
// are no-ops, so the loop doubles as the restart vehicle.
func (pe *PolicyEngine) RunLoop() {
	LogInfo("Policy engine loop started (tick %v)", pe.settings.TickInterval)
	for {
		pe.Tick()
		pe.sleep(pe.settings.TickInterval)
	}
}

// Tick executes one perception-action cycle
func (pe *PolicyEngine) Tick() {
	timer := NewTimer("tick")
	defer timer.Stop()

	if pending := pe.pendingSettings.Swap(nil); pending != nil {
		LogInfo("Applying updated settings (refuel=%d shield=%d safe=%d)",
			pending.RefuelThreshold, pending.ShieldThreshold, pending.SafeThreshold)
		pe.settings = *pending
		pe.search.UpdateSettings(*pending)
	}

	if pe.stopRequested.Load() {
		if pe.state.Lifecycle != StateStopped {
			pe.shutdown()
		}
		return
	}

	switch pe.state.Lifecycle {
	case StateIdle, StateStopped:
		return
	case StateReconnecting:
		pe.reconnect()
		pe.publish()
		return
	}

	if !pe.actuator.IsAlive() {
		LogWarn("Actuator not responding")
		pe.setState(StateReconnecting)
		return
	}

	img, text, ok := pe.capture()
	if !ok {
		pe.publish()
		return
	}

	// Death preempts all threshold logic within the same tick
	if pe.state.Lifecycle != StateHandlingDeath && pe.death.IsDead(img, text) {
		LogInfo("Death detected while %s", pe.state.Lifecycle)
		pe.stats.AddDeath()
		pe.setState(StateHandlingDeath)
		return
	}

	switch pe.state.Lifecycle {
	case StateJoining:
		if pe.actuator.InGame() {
			pe.setState(StateConfiguringLoadout)
		} else {
			pe.state.StatusLabel = "waiting for map"
		}

	case StateConfiguringLoadout:
		pe.configureLoadout()
		pe.setState(StatePatrolling)

	case StateHandlingDeath:
		pe.handleDeath()
		pe.setState(StateConfiguringLoadout)

	case StatePersistentSearch:
		pe.runPersistentSearch()

	default: // Patrolling, Refueling, SafeMode, BalancedMode
		pe.applyThresholds(img)
	}

	pe.publish()
}

// capture grabs a frame and the visible page text. A capture failure is
// transient: the tick continues on last good state until the failure
// count escalates to Reconnecting.
func (pe *PolicyEngine) capture() (img *image.RGBA, text string, ok bool) {
	frame, err := pe.actuator.Screenshot()
	if err != nil {
		pe.transientFailures++
		LogWarn("Screenshot failed (%d/%d): %v", pe.transientFailures, maxTransientFailures, err)
		if pe.transientFailures >= maxTransientFailures {
			pe.setState(StateReconnecting)
		}
		return nil, "", false
	}
	pe.transientFailures = 0

	text, err = pe.actuator.VisibleText()
	if err != nil {
		LogDebug("Visible text unavailable: %v", err)
		text = ""
	}
	return frame, text, true
}

// applyThresholds samples fuel and resolves the operating mode.
// Shield activation happens here as a side action.
func (pe *PolicyEngine) applyThresholds(img *image.RGBA) {
	reading := pe.sampler.Sample(img)
	pe.state.FuelPercent = reading.Percent
	pe.state.FuelSource = reading.Source

	s := pe.settings
	if reading.Percent <= s.ShieldThreshold && !pe.state.ShieldsActive {
		LogInfo("Fuel at %d%%, raising shields", reading.Percent)
		pe.pressKey(keyShield)
		pe.state.ShieldsActive = true
	}

	switch {
	case reading.Percent <= s.RefuelThreshold:
		pe.setState(StateRefueling)
		pe.state.StatusLabel = "collecting fuel"
		pe.refuel(img)

	case reading.Percent >= s.SafeThreshold:
		pe.setState(StateSafeMode)
		pe.state.StatusLabel = "fuel safe"
		pe.state.ShieldsActive = false

	default:
		pe.setState(StateBalancedMode)
		pe.state.StatusLabel = "patrolling"
	}
}

// refuel clicks ranked fuel nodes, re-sampling after every batch, and
// hands over to PersistentSearch when nothing is visible
func (pe *PolicyEngine) refuel(img *image.RGBA) {
	nodes := pe.detector.Detect(img, ObjectFuel)
	if len(nodes) == 0 {
		pe.setState(StatePersistentSearch)
		pe.state.StatusLabel = "searching for fuel"
		return
	}

	collected := 0
	for _, node := range nodes {
		target := node.ClickTarget()
		pe.click(target)
		collected++

		if collected%refuelBatchSize == 0 {
			if pe.sampleNow() >= pe.settings.SafeThreshold {
				break
			}
		}
	}
	pe.stats.AddCollections(collected)
	LogInfo("Collected %d fuel nodes (fuel now %d%%)", collected, pe.state.FuelPercent)
}

// runPersistentSearch delegates to the search strategy. On double
// exhaustion (before and after a teleport) the agent reports degraded
// but keeps running.
func (pe *PolicyEngine) runPersistentSearch() {
	pe.stats.AddSearchRun()

	found := pe.search.Run(pe.settings.MaxSearchAttempts)
	pe.state.SearchAttempts = pe.search.Attempts()
	pe.stats.AddCollections(pe.search.Collected())
	if found {
		pe.searchExhaustions = 0
		pe.setState(StateBalancedMode)
		pe.state.StatusLabel = "patrolling"
		return
	}

	pe.teleportToFuelArea()

	found = pe.search.Run(pe.settings.MaxSearchAttempts)
	pe.state.SearchAttempts = pe.search.Attempts()
	pe.stats.AddCollections(pe.search.Collected())
	if found {
		pe.searchExhaustions = 0
		pe.setState(StateBalancedMode)
		pe.state.StatusLabel = "patrolling"
		return
	}

	pe.searchExhaustions++
	LogWarn("Search exhausted twice (%d times total), continuing degraded", pe.searchExhaustions)
	pe.setState(StateBalancedMode)
	pe.state.StatusLabel = "degraded: no fuel found"
}

// teleportToFuelArea opens the overview map, clicks the densest fuel
// cluster (or a random inland point when none is visible), and lands
func (pe *PolicyEngine) teleportToFuelArea() {
	LogInfo("Teleporting via overview map")
	pe.pressKey(keyOverviewMap)
	if pe.settings.PreferredMap != "" {
		pe.pressKey(pe.settings.PreferredMap)
	}
	pe.sleep(mapSettleDelay)

	target := Point{X: defaultScreenW / 2, Y: defaultScreenH / 2}
	if img, err := pe.actuator.Screenshot(); err == nil {
		w, h := screenSize(img)
		target = Point{X: w / 2, Y: h / 2}
		if dots := pe.detector.Detect(img, ObjectFuel); len(dots) > 0 {
			target = dots[0].ClickTarget()
		}
	}

	pe.click(target)
	pe.sleep(mapSettleDelay)
	pe.pressKey(keyOverviewMap)
	pe.stats.AddTeleport()
}

// configureLoadout toggles the in-game aids after entering a map
func (pe *PolicyEngine) configureLoadout() {
	LogInfo("Configuring loadout")
	pe.pressKey(keyAutoBot)
	pe.pressKey(keyAutoMine)
	pe.state.ShieldsActive = false
	pe.state.StatusLabel = "loadout configured"
}

// handleDeath quits to the overview map and teleports back toward fuel
func (pe *PolicyEngine) handleDeath() {
	LogInfo("Handling death: re-entering via overview map")
	pe.pressKey(keyQuitToMap)
	pe.sleep(mapSettleDelay)
	pe.teleportToFuelArea()
	pe.state.ShieldsActive = false
	pe.state.FuelPercent = defaultFuelPercent
}

// reconnect retries the actuator session with linear backoff. All
// retries failing is fatal: the engine parks in Stopped.
func (pe *PolicyEngine) reconnect() {
	for attempt := 1; attempt <= reconnectMaxAttempts; attempt++ {
		if pe.stopRequested.Load() {
			return
		}
		LogInfo("Reconnect attempt %d/%d", attempt, reconnectMaxAttempts)
		if err := pe.actuator.Reconnect(); err != nil {
			LogWarn("Reconnect failed: %v", err)
			pe.sleep(reconnectBackoff * time.Duration(attempt))
			continue
		}
		pe.transientFailures = 0
		pe.state.StatusLabel = "reconnected"
		pe.setState(StateJoining)
		return
	}

	LogError("Actuator unavailable after %d reconnect attempts", reconnectMaxAttempts)
	pe.state.StatusLabel = "actuator unavailable"
	pe.setState(StateStopped)
}

// shutdown performs the graceful stop: exit to map, release the
// actuator, park in Stopped
func (pe *PolicyEngine) shutdown() {
	LogInfo("Stop observed, shutting down")
	pe.pressKey(keyQuitToMap)
	pe.actuator.Close()
	pe.state.StatusLabel = "stopped"
	pe.setState(StateStopped)
}

func (pe *PolicyEngine) sampleNow() int {
	img, err := pe.actuator.Screenshot()
	if err != nil {
		return pe.sampler.Last()
	}
	reading := pe.sampler.Sample(img)
	pe.state.FuelPercent = reading.Percent
	pe.state.FuelSource = reading.Source
	return reading.Percent
}

func (pe *PolicyEngine) click(p Point) {
	if err := pe.actuator.Click(p.X, p.Y); err != nil {
		LogWarn("Click at (%d,%d) failed: %v", p.X, p.Y, err)
		return
	}
	pe.state.Position = p
	pe.sleep(clickSettleDelay)
}

func (pe *PolicyEngine) pressKey(key string) {
	if err := pe.actuator.PressKey(key); err != nil {
		LogWarn("Key %q failed: %v", key, err)
		return
	}
	pe.sleep(keySettleDelay)
}

// setState transitions the lifecycle state, logging and publishing on
// every change
func (pe *PolicyEngine) setState(next LifecycleState) {
	if pe.state.Lifecycle == next {
		return
	}
	LogInfo("Lifecycle %s -> %s", pe.state.Lifecycle, next)
	pe.state.Lifecycle = next
	pe.publish()
}

func (pe *PolicyEngine) snapshot() AgentSnapshot {
	snap := pe.state.Snapshot()
	snap.Settings = pe.settings
	collections, _, _, _, uptime := pe.stats.GetStats()
	snap.Collections = collections
	snap.Uptime = uptime
	return snap
}

func (pe *PolicyEngine) publish() {
	if pe.publisher != nil {
		pe.publisher.Publish(pe.snapshot())
	}
}
