package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TARGET_URL", "PROFILE_DIR", "STORAGE_STATE", "HEADLESS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, DefaultTargetURL, cfg.TargetURL)
	assert.Equal(t, DefaultProfileDir, cfg.ProfileDir)
	assert.Empty(t, cfg.StorageState)
	assert.False(t, cfg.Headless, "default mode is visible")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TARGET_URL", "https://github.com/someone?tab=repositories")
	t.Setenv("HEADLESS", "true")
	t.Setenv("PROFILE_DIR", "/tmp/profile")

	cfg := Load()

	assert.Equal(t, "https://github.com/someone?tab=repositories", cfg.TargetURL)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "/tmp/profile", cfg.ProfileDir)
}

func TestGetEnvBoolInvalid(t *testing.T) {
	t.Setenv("HEADLESS", "not-a-bool")

	cfg := Load()
	assert.False(t, cfg.Headless)
}
