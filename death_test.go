package main

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeathPhraseDetection(t *testing.T) {
	dd := NewDeathDetector()
	bright := uniformFrame(100, 100, color.RGBA{128, 128, 128, 255})

	cases := []struct {
		text string
		dead bool
	}{
		{"You have been DESTROYED by PlayerOne", true},
		{"Your tank was destroyed", true},
		{"Click here to respawn", true},
		{"GAME OVER", true},
		{"Fuel: 72% | Armor: 100%", false},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.dead, dd.IsDead(bright, tc.text), "text=%q", tc.text)
	}
}

func TestDeathFadeDetection(t *testing.T) {
	dd := NewDeathDetector()

	// The death fade drops the whole frame to near-black
	dark := uniformFrame(100, 100, color.RGBA{20, 20, 20, 255})
	assert.True(t, dd.IsDead(dark, ""))

	dim := uniformFrame(100, 100, color.RGBA{40, 40, 40, 255})
	assert.False(t, dd.IsDead(dim, ""))
}

func TestDeathMissingInputs(t *testing.T) {
	dd := NewDeathDetector()

	assert.False(t, dd.IsDead(nil, ""))
	assert.True(t, dd.IsDead(nil, "you died"))
}

func TestMeanLuma(t *testing.T) {
	assert.Equal(t, 128, meanLuma(uniformFrame(10, 10, color.RGBA{128, 128, 128, 255})))
	assert.Equal(t, 0, meanLuma(uniformFrame(10, 10, color.RGBA{0, 0, 0, 255})))
}
