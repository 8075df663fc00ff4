// Package main - config.go
//
// Settings loading via viper: config.yaml in the working directory,
// overridable per-key through TANKPIT_* environment variables
// (e.g. TANKPIT_REFUEL_THRESHOLD=30). Missing file means defaults.
package main

import (
	"strings"

	"github.com/spf13/viper"
)

// LoadSettings reads config.yaml and the environment into Settings
func LoadSettings() Settings {
	defaults := NewSettings()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TANKPIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("refuel_threshold", defaults.RefuelThreshold)
	v.SetDefault("shield_threshold", defaults.ShieldThreshold)
	v.SetDefault("safe_threshold", defaults.SafeThreshold)
	v.SetDefault("preferred_map", defaults.PreferredMap)
	v.SetDefault("max_search_attempts", defaults.MaxSearchAttempts)
	v.SetDefault("tick_interval", defaults.TickInterval)
	v.SetDefault("actuator", defaults.ActuatorKind)
	v.SetDefault("status_addr", defaults.StatusAddr)
	v.SetDefault("game_url", defaults.GameURL)
	v.SetDefault("debug", defaults.Debug)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			LogInfo("No config file found, using defaults")
		} else {
			LogWarn("Config file unreadable, using defaults: %v", err)
		}
	} else {
		LogInfo("Config loaded from %s", v.ConfigFileUsed())
	}

	settings := Settings{
		RefuelThreshold:   v.GetInt("refuel_threshold"),
		ShieldThreshold:   v.GetInt("shield_threshold"),
		SafeThreshold:     v.GetInt("safe_threshold"),
		PreferredMap:      v.GetString("preferred_map"),
		MaxSearchAttempts: v.GetInt("max_search_attempts"),
		TickInterval:      v.GetDuration("tick_interval"),
		ActuatorKind:      strings.ToLower(v.GetString("actuator")),
		StatusAddr:        v.GetString("status_addr"),
		GameURL:           v.GetString("game_url"),
		Debug:             v.GetBool("debug"),
	}

	return sanitizeSettings(settings)
}

// sanitizeSettings clamps nonsense values back into working ranges
func sanitizeSettings(s Settings) Settings {
	defaults := NewSettings()

	s.RefuelThreshold = Clamp(s.RefuelThreshold, 0, 100)
	s.ShieldThreshold = Clamp(s.ShieldThreshold, 0, 100)
	s.SafeThreshold = Clamp(s.SafeThreshold, 0, 100)

	// Thresholds must be ordered shield <= refuel < safe
	if s.ShieldThreshold > s.RefuelThreshold {
		LogWarn("Shield threshold %d above refuel threshold %d, using defaults", s.ShieldThreshold, s.RefuelThreshold)
		s.ShieldThreshold = defaults.ShieldThreshold
		s.RefuelThreshold = defaults.RefuelThreshold
	}
	if s.SafeThreshold <= s.RefuelThreshold {
		LogWarn("Safe threshold %d not above refuel threshold %d, using default", s.SafeThreshold, s.RefuelThreshold)
		s.SafeThreshold = defaults.SafeThreshold
	}

	if s.MaxSearchAttempts < 1 {
		s.MaxSearchAttempts = defaults.MaxSearchAttempts
	}
	if s.TickInterval <= 0 {
		s.TickInterval = defaults.TickInterval
	}
	if s.ActuatorKind != "browser" && s.ActuatorKind != "native" {
		LogWarn("Unknown actuator %q, using browser", s.ActuatorKind)
		s.ActuatorKind = "browser"
	}
	if s.GameURL == "" {
		s.GameURL = defaults.GameURL
	}

	return s
}
