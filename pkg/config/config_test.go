package config_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/mavmon/pkg/config"
	"github.com/anggasct/mavmon/pkg/utils"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.TickRate)
	assert.Equal(t, int64(86400), cfg.DayLength)
	assert.Equal(t, 1, cfg.CrossingTicks)
	assert.Equal(t, 4, cfg.StarvationThreshold)
	assert.Equal(t, config.FaultAbort, cfg.FaultMode)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mavmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`tick_rate: 1000
crossing_ticks: 2
fault_mode: graceful
summary: true
log:
  level: debug
  format: json
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.TickRate)
	assert.Equal(t, 2, cfg.CrossingTicks)
	assert.Equal(t, config.FaultGraceful, cfg.FaultMode)
	assert.True(t, cfg.Summary)
	assert.Equal(t, int64(86400), cfg.DayLength, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.StarvationThreshold)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "tick_rate: 1\nspeed: 9\n",
		"zero tick rate": "tick_rate: 0\n",
		"bad fault mode": "fault_mode: ignore\n",
		"bad level":      "log:\n  level: loud\n",
		"bad format":     "log:\n  format: xml\n",
		"zero crossing":  "crossing_ticks: 0\n",
		"zero threshold": "starvation_threshold: 0\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := config.Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrConfig))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.True(t, errors.Is(err, utils.ErrConfig))
	})
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "info"
	cfg.Log.Format = "logfmt"

	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())

	logger.Debug("hidden")
	logger.Info("shown", "train", 4)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "train=4")
}
