package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings := LoadSettings()
	assert.Equal(t, NewSettings(), settings)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	t.Setenv("TANKPIT_REFUEL_THRESHOLD", "30")
	t.Setenv("TANKPIT_DEBUG", "true")
	t.Setenv("TANKPIT_ACTUATOR", "native")

	settings := LoadSettings()
	assert.Equal(t, 30, settings.RefuelThreshold)
	assert.True(t, settings.Debug)
	assert.Equal(t, "native", settings.ActuatorKind)
}

func TestSanitizeSettingsClampsRanges(t *testing.T) {
	s := NewSettings()
	s.RefuelThreshold = 250
	s.SafeThreshold = 300

	s = sanitizeSettings(s)
	assert.Equal(t, 100, s.RefuelThreshold)
	assert.Equal(t, NewSettings().SafeThreshold, s.SafeThreshold)
}

func TestSanitizeSettingsThresholdOrdering(t *testing.T) {
	// Shield above refuel is a configuration error: both revert
	s := NewSettings()
	s.ShieldThreshold = 50
	s.RefuelThreshold = 20

	s = sanitizeSettings(s)
	assert.Equal(t, NewSettings().ShieldThreshold, s.ShieldThreshold)
	assert.Equal(t, NewSettings().RefuelThreshold, s.RefuelThreshold)

	// Safe must stay strictly above refuel
	s = NewSettings()
	s.SafeThreshold = 20
	s = sanitizeSettings(s)
	assert.Equal(t, NewSettings().SafeThreshold, s.SafeThreshold)
}

func TestSanitizeSettingsFallbacks(t *testing.T) {
	s := NewSettings()
	s.MaxSearchAttempts = 0
	s.TickInterval = -time.Second
	s.ActuatorKind = "hologram"
	s.GameURL = ""

	s = sanitizeSettings(s)
	assert.Equal(t, NewSettings().MaxSearchAttempts, s.MaxSearchAttempts)
	assert.Equal(t, NewSettings().TickInterval, s.TickInterval)
	assert.Equal(t, "browser", s.ActuatorKind)
	assert.Equal(t, NewSettings().GameURL, s.GameURL)
}
