package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateDriver(t *testing.T) {
	cfg := &BaseConfig{Persistence: PersistenceConfig{Driver: "postgres"}}
	require.NoError(t, cfg.Validate())

	cfg.Persistence.Driver = "mysql"
	require.Error(t, cfg.Validate())
}

func TestTrackerLocation(t *testing.T) {
	loc, err := TrackerConfig{}.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)

	_, err = TrackerConfig{Timezone: "Not/AZone"}.Location()
	require.Error(t, err)

	cfg := &BaseConfig{Persistence: PersistenceConfig{Driver: "sqlite"}, Tracker: TrackerConfig{Timezone: "Not/AZone"}}
	require.Error(t, cfg.Validate())
}
