package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/pose"
)

const sample = `
[development]
port = 9090
log_level = "debug"
exercise = "Push-Up"

[development.thresholds]
min_average_visibility = 0.6
crunch_variant = "toe_touch"

[development.thresholds.squat]
enter = 100.0
cooldown = "1s"

[development.thresholds.curl]
side = "Left"
confirm = 1

[development.thresholds.jumping_jack]
overhead = false

[production]
host = "0.0.0.0"
log_format_json = true
logs_path = "/var/log/repcount"
estimator = ["python3", "pose.py", "--camera", "0"]
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repcount.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Run("development", func(t *testing.T) {
		cfg, err := Load(path, "dev")
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
		assert.Equal(t, "debug", cfg.LogLevel)

		kind, err := cfg.InitialExercise()
		require.NoError(t, err)
		assert.Equal(t, exercise.KindPushup, kind)

		th, err := cfg.Thresholds()
		require.NoError(t, err)

		def := exercise.DefaultThresholds()
		assert.Equal(t, 100.0, th.Squat.Enter)
		assert.Equal(t, def.Squat.Exit, th.Squat.Exit)
		assert.Equal(t, time.Second, th.Squat.Cooldown)
		assert.Equal(t, 0.6, th.MinAverageVisibility)
		assert.Equal(t, def.MinJointVisibility, th.MinJointVisibility)
		assert.Equal(t, exercise.CrunchToeTouch, th.Crunch.Variant)
		assert.Equal(t, pose.Left, th.Curl.Side)
		assert.Equal(t, 1, th.Curl.Confirm)
		assert.False(t, th.JumpingJack.Overhead)
		assert.Equal(t, def.Pushup, th.Pushup)
	})

	t.Run("production", func(t *testing.T) {
		cfg, err := Load(path, "production")
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
		assert.True(t, cfg.LogFormatJSON)
		assert.Equal(t, "/var/log/repcount", cfg.LogsPath)
		assert.Equal(t, []string{"python3", "pose.py", "--camera", "0"}, cfg.Estimator)

		th, err := cfg.Thresholds()
		require.NoError(t, err)
		assert.Equal(t, exercise.DefaultThresholds(), th)
	})

	t.Run("unknown env", func(t *testing.T) {
		_, err := Load(path, "staging")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "dev")
		assert.Error(t, err)
	})
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse(`
[development.thresholds.squat]
cooldown = "soon"
`, "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soon")
}

func TestThresholds_RejectsMissingBand(t *testing.T) {
	cfg, err := Parse(`
[development.thresholds.pushup]
enter = 165.0
`, "dev")
	require.NoError(t, err)

	_, err = cfg.Thresholds()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pushup")
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{Duration: 800 * time.Millisecond}
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "800ms", string(text))
}
