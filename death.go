// Package main - death.go
//
// Death detection: the game announces destruction with a text banner,
// and the arena fades to near-black while the respawn prompt is up.
// Either signal alone is treated as death.
package main

import (
	"image"
	"strings"
)

// deathBrightnessMax: a frame darker than this (mean luma) means the
// death fade-out is on screen
const deathBrightnessMax = 30

var deathPhrases = []string{
	"you have been destroyed",
	"your tank was destroyed",
	"you were destroyed",
	"you died",
	"respawn",
	"game over",
}

// DeathDetector decides whether the tank is dead from the visible page
// text and the captured frame.
type DeathDetector struct{}

// NewDeathDetector creates a new death detector
func NewDeathDetector() *DeathDetector {
	return &DeathDetector{}
}

// IsDead reports death when the page text contains a death phrase or
// the frame has faded to near-black. Either input may be missing.
func (dd *DeathDetector) IsDead(img *image.RGBA, visibleText string) bool {
	if visibleText != "" {
		lower := strings.ToLower(visibleText)
		for _, phrase := range deathPhrases {
			if strings.Contains(lower, phrase) {
				LogDebug("Death phrase matched: %q", phrase)
				return true
			}
		}
	}

	if img != nil {
		brightness := meanLuma(img)
		if brightness < deathBrightnessMax {
			LogDebug("Near-black frame (brightness %d), treating as death", brightness)
			return true
		}
	}

	return false
}

// meanLuma returns the mean luma of the whole frame (0-255)
func meanLuma(img *image.RGBA) int {
	b := img.Bounds()
	sum, n := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += grayAt(img, x, y)
			n++
		}
	}
	if n == 0 {
		return 255
	}
	return sum / n
}
