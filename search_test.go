package main

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearch(fa *fakeActuator, settings Settings) *PersistentSearch {
	ps := NewPersistentSearch(fa, NewFuelSampler(), NewObjectDetector(), settings)
	ps.sleep = func(time.Duration) {}
	ps.rng = rand.New(rand.NewSource(1))
	return ps
}

// dimFrame is a featureless playfield: nothing to detect, fuel reads
// well below the safe threshold, and it does not look like a death fade.
func dimFrame() *image.RGBA {
	return uniformFrame(400, 300, color.RGBA{40, 40, 40, 255})
}

func TestSearchCollectsVisibleFuel(t *testing.T) {
	// A fuel node is visible; collecting it brings the gauge above the
	// safe threshold (the follow-up frame reads as full).
	frame := dimFrame()
	fillRect(frame, 150, 120, 12, 12, yellowFuel)
	full := uniformFrame(400, 300, color.RGBA{255, 255, 255, 255})

	fa := newFakeActuator(frame, full)
	ps := newTestSearch(fa, NewSettings())

	require.True(t, ps.Run(3))
	assert.Equal(t, 1, ps.Attempts())
	assert.Equal(t, 1, ps.Collected())
	assert.Equal(t, 1, fa.keyCount(keyRadar))
	require.NotEmpty(t, fa.clicks)
	assert.Equal(t, Point{X: 156, Y: 126}, fa.clicks[0])
}

func TestSearchCollectionBelowSafeIsNotSuccess(t *testing.T) {
	// Only an equipment drop is visible and the fuel level stays well
	// below the safe threshold: the run must exhaust its attempts
	// instead of reporting success, so the caller still escalates.
	frame := dimFrame()
	fillRect(frame, 150, 120, 14, 14, brownEquipment)

	fa := newFakeActuator(frame)
	ps := newTestSearch(fa, NewSettings())

	require.False(t, ps.Run(3))
	assert.Equal(t, 3, ps.Attempts())
	assert.Equal(t, 3, ps.Collected())
	require.NotEmpty(t, fa.clicks)
	assert.Equal(t, Point{X: 157, Y: 127}, fa.clicks[0])
}

func TestSearchExhaustsAttemptBudget(t *testing.T) {
	fa := newFakeActuator(dimFrame())
	ps := newTestSearch(fa, NewSettings())

	require.False(t, ps.Run(4))
	assert.Equal(t, 4, ps.Attempts())
	assert.Zero(t, ps.Collected())
	assert.Equal(t, 4, fa.keyCount(keyRadar))

	// One movement click per empty attempt, all clamped inside the
	// screen-edge margin
	require.Len(t, fa.clicks, 4)
	for _, click := range fa.clicks {
		assert.GreaterOrEqual(t, click.X, edgeClickMargin)
		assert.LessOrEqual(t, click.X, 400-edgeClickMargin)
		assert.GreaterOrEqual(t, click.Y, edgeClickMargin)
		assert.LessOrEqual(t, click.Y, 300-edgeClickMargin)
	}
}

func TestSearchStopsWhenFuelReachesSafe(t *testing.T) {
	// First frame: nothing visible. Second frame (after the move): a
	// bright screen that reads above the safe threshold.
	fa := newFakeActuator(dimFrame(), uniformFrame(400, 300, color.RGBA{255, 255, 255, 255}))
	ps := newTestSearch(fa, NewSettings())

	require.True(t, ps.Run(5))
	assert.Equal(t, 1, ps.Attempts())
	assert.Zero(t, ps.Collected())
}

func TestSearchSurvivesCaptureFailures(t *testing.T) {
	fa := newFakeActuator()
	ps := newTestSearch(fa, NewSettings())

	require.False(t, ps.Run(3))
	assert.Equal(t, 3, ps.Attempts())
	assert.Equal(t, 3, fa.keyCount(keyRadar))
	assert.Empty(t, fa.clicks)
}
