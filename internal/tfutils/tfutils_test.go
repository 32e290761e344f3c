package tfutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeframe(t *testing.T) {
	d, err := ParseTimeframe("5m")
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	_, err = ParseTimeframe("2m")
	assert.Error(t, err)
}

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range GetSupportedTimeframes() {
		assert.True(t, IsValidTimeframe(tf), tf)
	}
	assert.False(t, IsValidTimeframe("7m"))
	assert.False(t, IsValidTimeframe(""))
}

func TestGetTimeframeDuration(t *testing.T) {
	assert.Equal(t, 24*time.Hour, GetTimeframeDuration("1d"))
	assert.Equal(t, time.Duration(0), GetTimeframeDuration("1w"))
}
