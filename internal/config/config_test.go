package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
  mode: debug
jwt:
  secret: test
  expire_hours: 24
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.Simulation.MinDeposit)
	assert.Equal(t, 0.15, cfg.Simulation.MonthlyRateMin)
	assert.Equal(t, 0.21, cfg.Simulation.MonthlyRateMax)
	assert.Equal(t, 12, cfg.Simulation.PlanMonths)
	assert.Equal(t, 300, cfg.Simulation.TradeCountMin)
	assert.Equal(t, 400, cfg.Simulation.TradeCountMax)
	assert.Equal(t, 0.80, cfg.Simulation.LockedRatio)
	assert.Equal(t, "0 0 * * *", cfg.Scheduler.DailyCron)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
simulation:
  min_deposit: 250
  monthly_rate_min: 0.10
  monthly_rate_max: 0.12
  trade_count_min: 50
  trade_count_max: 75
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.Simulation.MinDeposit)
	assert.Equal(t, 0.10, cfg.Simulation.MonthlyRateMin)
	assert.Equal(t, 0.12, cfg.Simulation.MonthlyRateMax)
	assert.Equal(t, 50, cfg.Simulation.TradeCountMin)
	assert.Equal(t, 75, cfg.Simulation.TradeCountMax)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
jwt:
  secret: from-file
`)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadRejectsInvalidBands(t *testing.T) {
	path := writeConfig(t, `
simulation:
  monthly_rate_min: 0.21
  monthly_rate_max: 0.15
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSimulationConfigValidate(t *testing.T) {
	valid := SimulationConfig{
		MinDeposit:     100,
		MonthlyRateMin: 0.15,
		MonthlyRateMax: 0.21,
		TradeCountMin:  300,
		TradeCountMax:  400,
		WinRateMin:     0.6,
		WinRateMax:     0.85,
		LockedRatio:    0.8,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.WinRateMax = 1.2
	assert.Error(t, bad.Validate())

	bad = valid
	bad.LockedRatio = 1.0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.TradeCountMin = 0
	assert.Error(t, bad.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "app",
		Password: "secret",
		DBName:   "cryptosim",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=app password=secret dbname=cryptosim sslmode=disable",
		db.DSN())
}
