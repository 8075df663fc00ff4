// Package main - native.go
//
// OS-level Actuator backed by robotgo: screen capture and input through
// the operating system instead of CDP injection. Used when the game runs
// in a browser window the agent cannot attach to (actuator: native in
// the config).
//
// Limitations compared to the browser actuator:
//   - No page text, so death detection relies on the frame fade alone
//   - No session or cookie management; reconnect is a no-op
//   - The game window must be focused and frontmost
package main

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/go-vgo/robotgo"
)

// NativeActuator drives the game through OS-level capture and input
type NativeActuator struct{}

// NewNativeActuator creates a native actuator
func NewNativeActuator() *NativeActuator {
	return &NativeActuator{}
}

// Screenshot captures the primary screen as RGBA
func (na *NativeActuator) Screenshot() (*image.RGBA, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("native capture: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("native capture returned no image")
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba, nil
}

// Click moves the cursor and left-clicks
func (na *NativeActuator) Click(x, y int) error {
	robotgo.Move(x, y)
	robotgo.Click()
	return nil
}

// PressKey taps a key. Key names are lowercased to match robotgo's
// keycode table.
func (na *NativeActuator) PressKey(key string) error {
	return robotgo.KeyTap(strings.ToLower(key))
}

// VisibleText is unavailable at the OS level
func (na *NativeActuator) VisibleText() (string, error) {
	return "", nil
}

// IsAlive always holds: the OS input layer does not disappear
func (na *NativeActuator) IsAlive() bool {
	return true
}

// InGame cannot be verified natively; assume the operator started the
// agent with the game on screen
func (na *NativeActuator) InGame() bool {
	return true
}

// Reconnect is a no-op for the native actuator
func (na *NativeActuator) Reconnect() error {
	return nil
}

// Close is a no-op for the native actuator
func (na *NativeActuator) Close() {}
