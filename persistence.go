// Package main - persistence.go
//
// This file implements data persistence for the browser session and the
// last-used settings. Uses JSON format for human-readable storage.
//
// Persistent Data:
//   - Browser Cookies: session cookies from the game site so the agent
//     stays logged in across restarts
//   - Settings: the thresholds the agent last ran with, for inspection
//     (viper config and env remain the source of truth on startup)
//
// Save Triggers:
//   - Graceful shutdown (tray quit, signal handler)
//
// Load Behavior:
//   - If data.json exists: Load cookies and settings
//   - If file doesn't exist: empty cookies, default settings
//   - If file is corrupted: Log error, use defaults
//
// Error Handling:
// Load errors are logged but do not prevent startup. The agent falls
// back to defaults and continues running.
package main

import (
	"encoding/json"
	"os"
)

const dataFile = "data.json"

// CookieData represents a browser cookie
type CookieData struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// PersistentData holds all data that should be saved across runs
type PersistentData struct {
	Settings Settings     `json:"settings"`
	Cookies  []CookieData `json:"cookies"`
}

// NewPersistentData creates a new persistent data structure
func NewPersistentData() *PersistentData {
	return &PersistentData{
		Settings: NewSettings(),
		Cookies:  make([]CookieData, 0),
	}
}

// SaveData saves settings and cookies to data.json
func SaveData(data *PersistentData) error {
	file, err := os.Create(dataFile)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return err
	}

	LogInfo("Data saved to %s", dataFile)
	return nil
}

// LoadData loads settings and cookies from data.json. Falls back to
// defaults when the file is missing or corrupted.
func LoadData() (*PersistentData, error) {
	if _, err := os.Stat(dataFile); os.IsNotExist(err) {
		LogInfo("No existing data file, starting fresh")
		return NewPersistentData(), nil
	}

	file, err := os.Open(dataFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data PersistentData
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		LogError("Failed to decode data file: %v", err)
		return NewPersistentData(), nil
	}

	LogInfo("Data loaded from %s (%d cookies)", dataFile, len(data.Cookies))
	return &data, nil
}
