package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Mode:           "backtest",
		Symbol:         "BTCUSDT",
		Timeframe:      "5m",
		From:           "2024-01-01",
		To:             "2024-06-30",
		TrendMode:      "pullback",
		Profile:        "current",
		InitialCapital: 10000,
		Commission:     1,
		Slippage:       0.001,
		OutputDir:      "out",
		ExportFormats:  []string{"csv", "json"},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Unknown mode", func(c *Config) { c.Mode = "live" }},
		{"Missing symbol", func(c *Config) { c.Symbol = "" }},
		{"Unsupported timeframe", func(c *Config) { c.Timeframe = "2m" }},
		{"Bad date format", func(c *Config) { c.From = "01.01.2024" }},
		{"From after to", func(c *Config) { c.From = "2024-12-01" }},
		{"Unknown trend mode", func(c *Config) { c.TrendMode = "sideways" }},
		{"Zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"Negative commission", func(c *Config) { c.Commission = -1 }},
		{"Slippage not a fraction", func(c *Config) { c.Slippage = 1.5 }},
		{"Unknown export format", func(c *Config) { c.ExportFormats = []string{"xml"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfigDates(t *testing.T) {
	c := validConfig()
	from, err := c.FromTime()
	require.NoError(t, err)
	to, err := c.ToTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.True(t, from.Before(to))
}
