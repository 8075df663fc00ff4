// Package main implements an autonomous agent for the TankPit browser
// tank game.
//
// Architecture Overview:
// The agent is a perception-action control loop. Each tick it captures
// the rendered screen, classifies visual state (fuel level, collectible
// objects, death), and chooses the next physical action. The program
// consists of four concurrent components:
//
//   1. Browser Goroutine: starts the chromedp session and navigates to
//      the game, restoring the saved cookies.
//
//   2. Policy Engine Goroutine: the tick loop. Owns all agent state;
//      everyone else sees value-copy snapshots.
//
//   3. Status Hub Goroutine: serves /ws/status and pushes snapshot JSON
//      to dashboard subscribers.
//
//   4. System Tray Goroutines: start/stop, threshold presets, quit.
//
// Startup Sequence:
//   00:00s - Logger, config, data.json loading
//   00:00s - System tray UI creation
//   00:00s - Browser starts asynchronously (background navigation)
//   00:00s - Policy engine loop starts (Idle until the tray starts it)
//   00:01s+ - First active tick once the agent is started and in a map
//
// Key Design Decisions:
//   - All chromedp operations have timeout protection to prevent hanging
//   - Browser failure does not crash the program (engine reconnects)
//   - Agent state has a single writer; snapshots are published copies
//   - Threshold changes are persisted immediately and applied at the
//     next tick boundary
//   - Graceful shutdown with signal handling (SIGINT/SIGTERM)
package main

import (
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/getlantern/systray"
)

// Actuator is the physical interface to the game. Implemented by the
// chromedp Browser and by the robotgo NativeActuator.
//
// Methods:
//   - Screenshot: capture the current frame (errors are transient)
//   - Click/PressKey: issue input
//   - VisibleText: page text for death banner detection (may be empty)
//   - IsAlive: whether the session still answers
//   - InGame: whether a map is active
//   - Reconnect: tear down and rebuild the session
//   - Close: release the session
type Actuator interface {
	Screenshot() (*image.RGBA, error)
	Click(x, y int) error
	PressKey(key string) error
	VisibleText() (string, error)
	IsAlive() bool
	InGame() bool
	Reconnect() error
	Close()
}

// Bot wires all subsystems together and manages their lifecycle.
type Bot struct {
	settings Settings
	data     *PersistentData
	stats    *Statistics

	browser  *Browser // nil when the native actuator is selected
	actuator Actuator
	sampler  *FuelSampler
	detector *ObjectDetector
	death    *DeathDetector
	search   *PersistentSearch
	engine   *PolicyEngine
	hub      *StatusHub
	tray     *TrayApp

	settingsMu   sync.Mutex
	shutdownOnce sync.Once
}

// NewBot creates and initializes all components. The browser is not
// started here; it starts asynchronously from StartLoops.
func NewBot() *Bot {
	LogInfo("Initializing agent components...")

	data, err := LoadData()
	if err != nil {
		LogError("Failed to load data: %v, using defaults", err)
		data = NewPersistentData()
	}

	settings := LoadSettings()

	bot := &Bot{
		settings: settings,
		data:     data,
		stats:    NewStatistics(),
		sampler:  NewFuelSampler(),
		detector: NewObjectDetector(),
		death:    NewDeathDetector(),
		hub:      NewStatusHub(),
	}

	switch settings.ActuatorKind {
	case "native":
		LogInfo("Using native actuator")
		bot.actuator = NewNativeActuator()
	default:
		LogInfo("Using browser actuator (%s)", settings.GameURL)
		bot.browser = NewBrowser(settings.GameURL)
		bot.actuator = bot.browser
	}

	bot.search = NewPersistentSearch(bot.actuator, bot.sampler, bot.detector, settings)
	bot.tray = NewTrayApp(bot)

	publisher := FanoutPublisher{NewLogPublisher(), bot.hub, bot.tray}
	bot.engine = NewPolicyEngine(bot.actuator, bot.sampler, bot.detector, bot.death, bot.search, publisher, bot.stats, settings)

	LogInfo("Agent components initialized")
	return bot
}

// StartLoops launches the browser, the policy engine loop, and the
// status hub. Called when the tray is ready.
func (b *Bot) StartLoops() {
	if b.browser != nil {
		LogInfo("Starting browser asynchronously...")
		SafeGo(func() {
			if err := b.browser.Start(b.data.Cookies); err != nil {
				LogError("Failed to start browser: %v", err)
			} else {
				LogInfo("Browser is now ready")
			}
		})
	}

	SafeGo(func() {
		if err := b.hub.Listen(b.settings.StatusAddr); err != nil {
			LogError("Status hub failed: %v", err)
		}
	})

	SafeGo(func() {
		b.engine.RunLoop()
	})
}

// StartAgent begins a run (tray Start)
func (b *Bot) StartAgent() {
	b.engine.Start()
}

// StopAgent requests a graceful stop (tray Stop)
func (b *Bot) StopAgent() {
	b.engine.RequestStop()
}

// Settings returns the current settings
func (b *Bot) Settings() Settings {
	b.settingsMu.Lock()
	defer b.settingsMu.Unlock()
	return b.settings
}

// UpdateThreshold applies a tray threshold choice: persisted now,
// handed to the engine for the next tick
func (b *Bot) UpdateThreshold(kind thresholdKind, pct int) {
	b.settingsMu.Lock()
	switch kind {
	case thresholdRefuel:
		b.settings.RefuelThreshold = pct
	case thresholdShield:
		b.settings.ShieldThreshold = pct
	case thresholdSafe:
		b.settings.SafeThreshold = pct
	}
	b.settings = sanitizeSettings(b.settings)
	updated := b.settings
	b.settingsMu.Unlock()

	LogInfo("Thresholds updated: refuel=%d shield=%d safe=%d",
		updated.RefuelThreshold, updated.ShieldThreshold, updated.SafeThreshold)

	b.engine.UpdateSettings(updated)
	b.data.Settings = updated
	if err := SaveData(b.data); err != nil {
		LogError("Failed to save settings: %v", err)
	}
}

// SaveState persists settings and browser cookies to data.json
func (b *Bot) SaveState() {
	LogInfo("Saving agent state...")

	if b.browser != nil {
		cookies, err := b.browser.GetCookies()
		if err != nil {
			LogWarn("Failed to get cookies: %v", err)
		} else {
			b.data.Cookies = cookies
		}
	}
	b.data.Settings = b.Settings()

	if err := SaveData(b.data); err != nil {
		LogError("Failed to save data: %v", err)
	}
}

// Shutdown stops everything exactly once: state save, engine stop,
// status hub teardown
func (b *Bot) Shutdown() {
	b.shutdownOnce.Do(func() {
		LogInfo("Shutting down...")
		b.SaveState()
		b.engine.RequestStop()
		b.hub.Close()
	})
}

// Run starts the agent application and blocks until the tray exits
func (b *Bot) Run() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		LogInfo("Signal received: %v, shutting down gracefully...", sig)
		b.Shutdown()
		systray.Quit()
	}()

	// Tray blocks here; StartLoops runs once the tray is ready
	SafeGo(func() {
		b.StartLoops()
	})
	b.tray.Run()

	b.Shutdown()
}

// main is the application entry point
func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			LogError("PANIC in main: %v", r)
			CloseLogger()
			os.Exit(2)
		}
	}()

	settingsProbe := LoadSettings()
	InitLogger(settingsProbe.Debug)
	defer func() {
		LogInfo("=== TankPit Agent Shutdown ===")
		CloseLogger()
	}()

	LogInfo("=== TankPit Agent Started ===")

	bot := NewBot()
	bot.Run()
	LogInfo("Agent Run() returned normally")
}
