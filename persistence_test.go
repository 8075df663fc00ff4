package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(orig))
	})
}

func TestPersistenceRoundTrip(t *testing.T) {
	chTempDir(t)

	data := NewPersistentData()
	data.Settings.RefuelThreshold = 40
	data.Cookies = []CookieData{{
		Name:   "session",
		Value:  "abc123",
		Domain: "www.tankpit.com",
		Path:   "/",
	}}

	require.NoError(t, SaveData(data))

	loaded, err := LoadData()
	require.NoError(t, err)
	assert.Equal(t, 40, loaded.Settings.RefuelThreshold)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "session", loaded.Cookies[0].Name)
	assert.Equal(t, "abc123", loaded.Cookies[0].Value)
}

func TestLoadDataMissingFile(t *testing.T) {
	chTempDir(t)

	data, err := LoadData()
	require.NoError(t, err)
	assert.Equal(t, NewSettings(), data.Settings)
	assert.Empty(t, data.Cookies)
}

func TestLoadDataCorruptFile(t *testing.T) {
	chTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", dataFile), []byte("{not json"), 0o644))

	data, err := LoadData()
	require.NoError(t, err)
	assert.Equal(t, NewSettings(), data.Settings)
}
