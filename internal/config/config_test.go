package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.CacheBreakerTimeout)
	assert.Equal(t, 10000, cfg.SimIterations)
	assert.Equal(t, 6, cfg.PlayoffTeams)
	assert.False(t, cfg.EnableBackgroundJobs)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("SIM_ITERATIONS", "2500")
	t.Setenv("PLAYOFF_TEAMS", "4")
	t.Setenv("CURRENT_SEASON", "2023")
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("ENABLE_BACKGROUND_JOBS", "true")
	t.Setenv("REFRESH_SCHEDULE", "@every 10m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2500, cfg.SimIterations)
	assert.Equal(t, 4, cfg.PlayoffTeams)
	assert.Equal(t, 2023, cfg.CurrentSeason)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.EnableBackgroundJobs)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			SimIterations:         1000,
			SimMaxIterations:      5000,
			SimWorkers:            2,
			PlayoffTeams:          6,
			MatchupIterations:     1000,
			CacheBreakerThreshold: 3,
			RefreshSchedule:       "0 */5 * * * *",
			EnableBackgroundJobs:  true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero iterations", func(c *Config) { c.SimIterations = 0 }, "SIM_ITERATIONS"},
		{"max below default", func(c *Config) { c.SimMaxIterations = 10 }, "SIM_MAX_ITERATIONS"},
		{"no workers", func(c *Config) { c.SimWorkers = 0 }, "SIM_WORKERS"},
		{"negative playoff teams", func(c *Config) { c.PlayoffTeams = -1 }, "PLAYOFF_TEAMS"},
		{"bad schedule", func(c *Config) { c.RefreshSchedule = "whenever" }, "REFRESH_SCHEDULE"},
		{"bad schedule ignored when jobs disabled", func(c *Config) {
			c.RefreshSchedule = "whenever"
			c.EnableBackgroundJobs = false
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
