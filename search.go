// Package main - search.go
//
// Persistent fuel search: what the agent does when the screen shows no
// collectibles. Alternates radar refreshes, short proximity moves, and
// periodic screen-edge exploration, re-scanning after every move, for a
// bounded number of attempts.
//
// Movement pattern:
//   - Every third attempt explores toward a random screen edge
//   - Other attempts make a small proximity move, radius 5-12px off center
//   - All click targets are clamped at least 50px away from screen edges
package main

import (
	"image"
	"math"
	"math/rand"
	"time"
)

const (
	edgeClickMargin    = 50
	proximityMinRadius = 5.0
	proximityMaxRadius = 12.0
	edgeAttemptEvery   = 3

	searchSettleDelay = 400 * time.Millisecond

	// Fallback screen size when no frame is available
	defaultScreenW = 800
	defaultScreenH = 600
)

// PersistentSearch explores the map for fuel when none is visible.
// Owned by the policy engine goroutine.
type PersistentSearch struct {
	actuator Actuator
	sampler  *FuelSampler
	detector *ObjectDetector
	settings Settings

	rng   *rand.Rand
	sleep func(time.Duration)

	attempts  int
	collected int
}

// NewPersistentSearch creates a search strategy bound to an actuator
func NewPersistentSearch(actuator Actuator, sampler *FuelSampler, detector *ObjectDetector, settings Settings) *PersistentSearch {
	return &PersistentSearch{
		actuator: actuator,
		sampler:  sampler,
		detector: detector,
		settings: settings,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    time.Sleep,
	}
}

// UpdateSettings swaps the settings in. Must be called from the goroutine
// that runs the search.
func (ps *PersistentSearch) UpdateSettings(s Settings) {
	ps.settings = s
}

// Attempts returns how many attempts the last run used
func (ps *PersistentSearch) Attempts() int {
	return ps.attempts
}

// Collected returns how many objects the last run collected
func (ps *PersistentSearch) Collected() int {
	return ps.collected
}

// Run searches for fuel for at most maxAttempts attempts. Returns true
// only once the fuel level reaches the safe threshold; collections that
// leave the level below it keep the run going, and exhausting the
// attempt budget returns false.
func (ps *PersistentSearch) Run(maxAttempts int) bool {
	ps.attempts = 0
	ps.collected = 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ps.attempts = attempt
		LogDebug("Search attempt %d/%d", attempt, maxAttempts)

		ps.pressKey(keyRadar)
		ps.sleep(searchSettleDelay)

		img, err := ps.actuator.Screenshot()
		if err != nil {
			LogWarn("Search screenshot failed: %v", err)
			continue
		}

		fuel := ps.detector.Detect(img, ObjectFuel)
		equipment := ps.detector.Detect(img, ObjectEquipment)

		if len(fuel) > 0 || len(equipment) > 0 {
			ps.collect(fuel, equipment)
			if ps.sampleFuel() >= ps.settings.SafeThreshold {
				LogInfo("Fuel safe after collecting %d objects on attempt %d", ps.collected, attempt)
				return true
			}
			continue
		}

		w, h := screenSize(img)
		if attempt%edgeAttemptEvery == 0 {
			ps.exploreEdge(w, h)
		} else {
			ps.proximityMove(w, h)
		}

		if ps.sampleFuel() >= ps.settings.SafeThreshold {
			return true
		}
	}

	LogInfo("Search exhausted after %d attempts", ps.attempts)
	return false
}

// collect clicks detected objects in ranked order, fuel first,
// re-checking the fuel level between fuel collections
func (ps *PersistentSearch) collect(fuel, equipment []DetectedObject) {
	for _, node := range fuel {
		ps.click(node.ClickTarget())
		ps.collected++
		if ps.sampleFuel() >= ps.settings.SafeThreshold {
			return
		}
	}
	for _, drop := range equipment {
		ps.click(drop.ClickTarget())
		ps.collected++
	}
}

// exploreEdge clicks toward a random screen edge, clamped inside the margin
func (ps *PersistentSearch) exploreEdge(w, h int) {
	var target Point
	switch ps.rng.Intn(4) {
	case 0: // top
		target = Point{X: ps.randBetween(edgeClickMargin, w-edgeClickMargin), Y: edgeClickMargin}
	case 1: // bottom
		target = Point{X: ps.randBetween(edgeClickMargin, w-edgeClickMargin), Y: h - edgeClickMargin}
	case 2: // left
		target = Point{X: edgeClickMargin, Y: ps.randBetween(edgeClickMargin, h-edgeClickMargin)}
	default: // right
		target = Point{X: w - edgeClickMargin, Y: ps.randBetween(edgeClickMargin, h-edgeClickMargin)}
	}
	LogDebug("Edge exploration toward (%d,%d)", target.X, target.Y)
	ps.click(target)
}

// proximityMove clicks a short random distance from screen center
func (ps *PersistentSearch) proximityMove(w, h int) {
	angle := ps.rng.Float64() * 2 * math.Pi
	radius := proximityMinRadius + ps.rng.Float64()*(proximityMaxRadius-proximityMinRadius)

	target := Point{
		X: w/2 + int(radius*math.Cos(angle)),
		Y: h/2 + int(radius*math.Sin(angle)),
	}
	target.X = Clamp(target.X, edgeClickMargin, w-edgeClickMargin)
	target.Y = Clamp(target.Y, edgeClickMargin, h-edgeClickMargin)

	LogDebug("Proximity move to (%d,%d)", target.X, target.Y)
	ps.click(target)
}

func (ps *PersistentSearch) randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + ps.rng.Intn(hi-lo+1)
}

func (ps *PersistentSearch) sampleFuel() int {
	img, err := ps.actuator.Screenshot()
	if err != nil {
		return ps.sampler.Last()
	}
	return ps.sampler.Sample(img).Percent
}

func (ps *PersistentSearch) click(p Point) {
	if err := ps.actuator.Click(p.X, p.Y); err != nil {
		LogWarn("Search click at (%d,%d) failed: %v", p.X, p.Y, err)
	}
	ps.sleep(searchSettleDelay)
}

func (ps *PersistentSearch) pressKey(key string) {
	if err := ps.actuator.PressKey(key); err != nil {
		LogWarn("Search key %q failed: %v", key, err)
	}
}

// screenSize derives the playfield size from a frame
func screenSize(img *image.RGBA) (int, int) {
	if img == nil {
		return defaultScreenW, defaultScreenH
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
