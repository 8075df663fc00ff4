// Package main - tray.go
//
// This file implements the system tray UI for controlling the agent.
// Uses getlantern/systray library for cross-platform tray menu support.
//
// Menu Structure:
//   TankPit Agent
//   ├─ Status: lifecycle | fuel | uptime (read-only)
//   ├─ Start (begin a run)
//   ├─ Stop (graceful stop at the next tick)
//   ├─ Thresholds
//   │  ├─ Refuel Threshold (radio, 0-100% in 10% increments)
//   │  ├─ Shield Threshold
//   │  └─ Safe Threshold
//   ├─ Statistics (read-only)
//   └─ Quit (graceful shutdown)
//
// Concurrency Model:
// One goroutine per clickable item (systray's channel-per-item model).
// Threshold changes persist to data.json immediately and are handed to
// the policy engine, which applies them at the next tick boundary.
//
// The tray is also a StatusPublisher: published snapshots update the
// status line, rate-limited so the menu does not flicker.
package main

import (
	"fmt"
	"time"

	"github.com/getlantern/systray"
)

// thresholdKind selects which threshold a menu entry adjusts
type thresholdKind int

const (
	thresholdRefuel thresholdKind = iota
	thresholdShield
	thresholdSafe
)

// TrayApp manages the system tray application and user interface
type TrayApp struct {
	bot *Bot

	statusItem *systray.MenuItem
	statsItem  *systray.MenuItem
	startItem  *systray.MenuItem
	stopItem   *systray.MenuItem
	quitItem   *systray.MenuItem

	// Threshold submenu items (0-100% in 10% increments: 11 options)
	refuelItems [11]*systray.MenuItem
	shieldItems [11]*systray.MenuItem
	safeItems   [11]*systray.MenuItem

	statusRate *RateLimiter
}

// NewTrayApp creates a new tray application
func NewTrayApp(bot *Bot) *TrayApp {
	return &TrayApp{
		bot:        bot,
		statusRate: NewRateLimiter(2 * time.Second),
	}
}

// Run starts the tray application (blocking)
func (t *TrayApp) Run() {
	LogInfo("Starting system tray application")
	systray.Run(t.onReady, func() {
		LogInfo("System tray exiting")
		if t.bot != nil {
			t.bot.Shutdown()
		}
	})
	LogInfo("System tray Run() returned")
}

// onReady is called when the tray is ready
func (t *TrayApp) onReady() {
	systray.SetTitle("TankPit Agent")
	systray.SetTooltip("Autonomous TankPit agent")

	t.statusItem = systray.AddMenuItem("Status: starting...", "Current agent status")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.startItem = systray.AddMenuItem("Start", "Start the agent")
	t.stopItem = systray.AddMenuItem("Stop", "Stop the agent at the next tick")

	systray.AddSeparator()

	settings := t.bot.Settings()
	thresholds := systray.AddMenuItem("Thresholds", "Configure fuel thresholds")
	refuelMenu := thresholds.AddSubMenuItem("Refuel Threshold", "Collect fuel at or below this level")
	shieldMenu := thresholds.AddSubMenuItem("Shield Threshold", "Raise shields at or below this level")
	safeMenu := thresholds.AddSubMenuItem("Safe Threshold", "Fuel level considered safe")

	for i := 0; i <= 10; i++ {
		pct := i * 10
		label := fmt.Sprintf("%d%%", pct)
		t.refuelItems[i] = refuelMenu.AddSubMenuItemCheckbox(label, "", pct == settings.RefuelThreshold)
		t.shieldItems[i] = shieldMenu.AddSubMenuItemCheckbox(label, "", pct == settings.ShieldThreshold)
		t.safeItems[i] = safeMenu.AddSubMenuItemCheckbox(label, "", pct == settings.SafeThreshold)
	}

	systray.AddSeparator()

	t.statsItem = systray.AddMenuItem("Collections: 0 | Uptime: 0s", "Run statistics")
	t.statsItem.Disable()

	systray.AddSeparator()

	t.quitItem = systray.AddMenuItem("Quit", "Shut down the agent")

	t.handleEvents()
	LogInfo("Tray menu ready")
}

// handleEvents spawns one goroutine per clickable item
func (t *TrayApp) handleEvents() {
	SafeGo(func() {
		for range t.startItem.ClickedCh {
			LogInfo("Tray: start requested")
			t.bot.StartAgent()
		}
	})

	SafeGo(func() {
		for range t.stopItem.ClickedCh {
			LogInfo("Tray: stop requested")
			t.bot.StopAgent()
		}
	})

	SafeGo(func() {
		<-t.quitItem.ClickedCh
		LogInfo("Tray: quit requested")
		systray.Quit()
	})

	for i := 0; i <= 10; i++ {
		pct := i * 10
		idx := i

		item := t.refuelItems[i]
		SafeGo(func() {
			for range item.ClickedCh {
				t.selectThreshold(thresholdRefuel, idx, pct)
			}
		})

		item2 := t.shieldItems[i]
		SafeGo(func() {
			for range item2.ClickedCh {
				t.selectThreshold(thresholdShield, idx, pct)
			}
		})

		item3 := t.safeItems[i]
		SafeGo(func() {
			for range item3.ClickedCh {
				t.selectThreshold(thresholdSafe, idx, pct)
			}
		})
	}
}

// selectThreshold applies a threshold choice: radio checkmarks, engine
// handoff, persistence
func (t *TrayApp) selectThreshold(kind thresholdKind, idx, pct int) {
	var items *[11]*systray.MenuItem
	switch kind {
	case thresholdRefuel:
		items = &t.refuelItems
	case thresholdShield:
		items = &t.shieldItems
	case thresholdSafe:
		items = &t.safeItems
	}

	for i, item := range items {
		if i == idx {
			item.Check()
		} else {
			item.Uncheck()
		}
	}

	t.bot.UpdateThreshold(kind, pct)
}

// Publish implements StatusPublisher: updates the status line from
// engine snapshots, rate-limited
func (t *TrayApp) Publish(s AgentSnapshot) {
	if t.statusItem == nil || !t.statusRate.Allow() {
		return
	}
	t.statusItem.SetTitle(fmt.Sprintf("Status: %s | Fuel %d%% | %s", s.Lifecycle, s.FuelPercent, s.StatusLabel))
	t.statsItem.SetTitle(fmt.Sprintf("Collections: %d | Uptime: %s", s.Collections, s.Uptime))
}
