// Package main - data.go
//
// This file defines core data structures used throughout the agent.
// It provides geometric primitives, perception results, configuration,
// lifecycle state, and runtime statistics.
//
// Major Data Categories:
//
// 1. Geometric Types:
//    - Point: 2D screen coordinates
//    - Bounds: Rectangles with center/size/containment operations
//
// 2. Perception Results:
//    - FuelReading: fuel percentage plus the sampling tier that produced it
//    - DetectedObject: ranked collectible (fuel node or equipment drop)
//
// 3. Lifecycle:
//    - LifecycleState: the policy engine's state machine enumeration
//    - AgentState: single-writer mutable state, published as AgentSnapshot copies
//
// 4. Configuration and Statistics:
//    - Settings: thresholds and behavior knobs (loaded in config.go)
//    - Statistics: collection/search/teleport/death counters, uptime
//
// Thread Safety:
// AgentState is owned by the policy engine goroutine; everyone else sees
// value-copy AgentSnapshot structs. Statistics uses RWMutex.
//
// Clustering Algorithm:
// clusterPoints implements a two-pass approach:
//   1. Sort by X coordinate and cluster within X distance threshold
//   2. Within each X cluster, sort by Y and cluster within Y threshold
// This produces bounding boxes around spatially close points (gauge edge pixels).
package main

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Point represents a 2D coordinate in screen space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPoint creates a new Point
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Distance calculates Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Bounds represents a rectangular area
type Bounds struct {
	X int // Top-left X coordinate
	Y int // Top-left Y coordinate
	W int // Width
	H int // Height
}

// NewBounds creates a new Bounds
func NewBounds(x, y, w, h int) Bounds {
	return Bounds{X: x, Y: y, W: w, H: h}
}

// Center returns the center point of the bounds
func (b Bounds) Center() Point {
	return Point{
		X: b.X + b.W/2,
		Y: b.Y + b.H/2,
	}
}

// Size returns the area of the bounds
func (b Bounds) Size() int {
	return b.W * b.H
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W &&
		p.Y >= b.Y && p.Y <= b.Y+b.H
}

// Shrink insets the bounds by the given amount on every side.
// Collapses to an empty rectangle rather than inverting.
func (b Bounds) Shrink(amount int) Bounds {
	if b.W <= 2*amount || b.H <= 2*amount {
		return Bounds{X: b.Center().X, Y: b.Center().Y}
	}
	return Bounds{
		X: b.X + amount,
		Y: b.Y + amount,
		W: b.W - 2*amount,
		H: b.H - 2*amount,
	}
}

// AspectRatio returns width over height (0 for degenerate rectangles).
func (b Bounds) AspectRatio() float64 {
	if b.H == 0 {
		return 0
	}
	return float64(b.W) / float64(b.H)
}

// clusterPoints clusters nearby points into bounding boxes.
// First clusters by X axis, then by Y axis within each X cluster.
// Points must not be assumed sorted; sorting happens here.
func clusterPoints(points []Point, distanceX, distanceY int) []Bounds {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	// Cluster by X axis
	var xClusters [][]Point
	currentCluster := []Point{sorted[0]}

	for i := 1; i < len(sorted); i++ {
		if sorted[i].X-sorted[i-1].X <= distanceX {
			currentCluster = append(currentCluster, sorted[i])
		} else {
			xClusters = append(xClusters, currentCluster)
			currentCluster = []Point{sorted[i]}
		}
	}
	xClusters = append(xClusters, currentCluster)

	// Cluster each X cluster by Y axis
	var result []Bounds
	for _, xCluster := range xClusters {
		sort.Slice(xCluster, func(i, j int) bool {
			return xCluster[i].Y < xCluster[j].Y
		})

		yCluster := []Point{xCluster[0]}
		for i := 1; i < len(xCluster); i++ {
			if xCluster[i].Y-xCluster[i-1].Y <= distanceY {
				yCluster = append(yCluster, xCluster[i])
			} else {
				result = append(result, pointsToBounds(yCluster))
				yCluster = []Point{xCluster[i]}
			}
		}
		result = append(result, pointsToBounds(yCluster))
	}

	return result
}

// pointsToBounds converts a slice of points to bounds
func pointsToBounds(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y

	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return Bounds{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// FuelSource identifies which sampling tier produced a fuel reading
type FuelSource int

const (
	SourcePrimaryBar         FuelSource = iota // Isolated gauge rectangle, measured directly
	SourceFallbackHistogram                    // Horizontal line-scan over the gauge region
	SourceFallbackBrightness                   // Mean brightness of the gauge region
	SourceDefault                              // No frame available, last-known or default value
)

// String returns human-readable source name
func (fs FuelSource) String() string {
	switch fs {
	case SourcePrimaryBar:
		return "primary_bar"
	case SourceFallbackHistogram:
		return "fallback_histogram"
	case SourceFallbackBrightness:
		return "fallback_brightness"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// FuelReading is one fuel gauge measurement
type FuelReading struct {
	Percent   int        `json:"percent"`
	Source    FuelSource `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
}

// ObjectKind classifies a detected collectible
type ObjectKind int

const (
	ObjectFuel      ObjectKind = iota // Yellow/golden fuel nodes
	ObjectEquipment                   // Brown/gray equipment drops
)

// String returns human-readable kind name
func (ok ObjectKind) String() string {
	switch ok {
	case ObjectFuel:
		return "fuel"
	case ObjectEquipment:
		return "equipment"
	default:
		return "unknown"
	}
}

// DetectedObject is a ranked collectible candidate on screen
type DetectedObject struct {
	Kind           ObjectKind
	Bounds         Bounds
	AreaPx         int     // Blob pixel count after morphology
	EstimatedValue float64 // Ranking score: area weighted by mean brightness
}

// ClickTarget returns the coordinates to click to collect the object
func (d *DetectedObject) ClickTarget() Point {
	return d.Bounds.Center()
}

// LifecycleState represents the policy engine state machine
type LifecycleState int

const (
	StateIdle               LifecycleState = iota // Not started
	StateJoining                                  // Waiting to enter a map
	StateConfiguringLoadout                       // Toggling in-game aids after joining
	StatePatrolling                               // Entry state before thresholds resolve
	StateRefueling                                // Fuel at or below refuel threshold
	StateSafeMode                                 // Fuel at or above safe threshold
	StateBalancedMode                             // Fuel between thresholds
	StatePersistentSearch                         // No fuel on screen, exploring
	StateHandlingDeath                            // Death detected, re-entering via map
	StateReconnecting                             // Actuator lost, re-establishing
	StateStopped                                  // Terminal until explicit restart
)

// String returns human-readable state name
func (ls LifecycleState) String() string {
	switch ls {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateConfiguringLoadout:
		return "configuring_loadout"
	case StatePatrolling:
		return "patrolling"
	case StateRefueling:
		return "refueling"
	case StateSafeMode:
		return "safe_mode"
	case StateBalancedMode:
		return "balanced_mode"
	case StatePersistentSearch:
		return "persistent_search"
	case StateHandlingDeath:
		return "handling_death"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Settings holds agent configuration. Loaded by config.go (viper),
// defaults match the game's practical thresholds.
type Settings struct {
	RefuelThreshold   int           `json:"refuel_threshold" mapstructure:"refuel_threshold"`
	ShieldThreshold   int           `json:"shield_threshold" mapstructure:"shield_threshold"`
	SafeThreshold     int           `json:"safe_threshold" mapstructure:"safe_threshold"`
	PreferredMap      string        `json:"preferred_map" mapstructure:"preferred_map"`
	MaxSearchAttempts int           `json:"max_search_attempts" mapstructure:"max_search_attempts"`
	TickInterval      time.Duration `json:"tick_interval" mapstructure:"tick_interval"`
	ActuatorKind      string        `json:"actuator" mapstructure:"actuator"`
	StatusAddr        string        `json:"status_addr" mapstructure:"status_addr"`
	GameURL           string        `json:"game_url" mapstructure:"game_url"`
	Debug             bool          `json:"debug" mapstructure:"debug"`
}

// NewSettings creates default settings
func NewSettings() Settings {
	return Settings{
		RefuelThreshold:   25,
		ShieldThreshold:   10,
		SafeThreshold:     85,
		PreferredMap:      "",
		MaxSearchAttempts: 9,
		TickInterval:      1500 * time.Millisecond,
		ActuatorKind:      "browser",
		StatusAddr:        ":8090",
		GameURL:           "https://www.tankpit.com",
		Debug:             false,
	}
}

// AgentState is the mutable agent state. Single writer: the policy engine
// goroutine. Other goroutines must only receive Snapshot() copies.
type AgentState struct {
	Lifecycle      LifecycleState
	FuelPercent    int
	FuelSource     FuelSource
	ShieldsActive  bool
	Position       Point
	StatusLabel    string
	SearchAttempts int
}

// AgentSnapshot is an immutable value copy of AgentState, serialized to
// status subscribers and the tray.
type AgentSnapshot struct {
	Running        bool      `json:"running"`
	Lifecycle      string    `json:"lifecycle"`
	FuelPercent    int       `json:"current_fuel"`
	FuelSource     string    `json:"fuel_source"`
	ShieldsActive  bool      `json:"shields_active"`
	Position       Point     `json:"position"`
	StatusLabel    string    `json:"status"`
	SearchAttempts int       `json:"search_attempts"`
	Collections    int       `json:"collections"`
	Uptime         string    `json:"uptime"`
	Settings       Settings  `json:"settings"`
	Timestamp      time.Time `json:"timestamp"`
}

// Snapshot returns an immutable value copy of the state
func (s *AgentState) Snapshot() AgentSnapshot {
	running := s.Lifecycle != StateIdle && s.Lifecycle != StateStopped
	return AgentSnapshot{
		Running:        running,
		Lifecycle:      s.Lifecycle.String(),
		FuelPercent:    s.FuelPercent,
		FuelSource:     s.FuelSource.String(),
		ShieldsActive:  s.ShieldsActive,
		Position:       s.Position,
		StatusLabel:    s.StatusLabel,
		SearchAttempts: s.SearchAttempts,
		Timestamp:      time.Now(),
	}
}

// Statistics holds runtime statistics
type Statistics struct {
	StartTime   time.Time
	Collections int
	SearchRuns  int
	Teleports   int
	Deaths      int
	mu          sync.RWMutex
}

// NewStatistics creates new statistics
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// AddCollections records collected objects
func (s *Statistics) AddCollections(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Collections += n
}

// AddSearchRun records a persistent search run
func (s *Statistics) AddSearchRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchRuns++
}

// AddTeleport records a map-level teleport
func (s *Statistics) AddTeleport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Teleports++
}

// AddDeath records a detected death
func (s *Statistics) AddDeath() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deaths++
}

// GetStats returns formatted statistics
func (s *Statistics) GetStats() (collections, searches, teleports, deaths int, uptime string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collections = s.Collections
	searches = s.SearchRuns
	teleports = s.Teleports
	deaths = s.Deaths
	uptime = FormatDuration(time.Since(s.StartTime))
	return
}
