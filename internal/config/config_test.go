package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, "bistro", cfg.AppName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.Auth.Required)
	assert.Equal(t, "dev-user", cfg.Auth.DevUser)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadProductionRequiresAuth(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_REQUIRED", "")

	cfg := Load()
	assert.True(t, cfg.Auth.Required)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Config{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, Config{}.Location())
}

func TestMenuConfigDefaultsWithoutFile(t *testing.T) {
	holder, err := NewMenuConfigHolder(Config{MenuConfigPath: ""})
	require.NoError(t, err)
	assert.Equal(t, "Just Good Food", holder.Label("just_good_food"))
	assert.Equal(t, "unknown_option", holder.Label("unknown_option"))
}

func TestMenuConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yml")
	content := "menu:\n  optionLabels:\n    grill_sandwiches: Grill & Toast\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewMenuConfigHolder(Config{MenuConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "Grill & Toast", holder.Label("grill_sandwiches"))
	assert.Equal(t, "Smuts Leibspeise", holder.Label("smuts_leibspeise"))
}
