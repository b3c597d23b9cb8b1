package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"DEBUG":   log.DebugLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"trace":   log.TraceLevel,
		"":        log.InfoLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, GetLevel(in), "level %q", in)
	}
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, Output(LoggerSetupParams{}))

	dir := t.TempDir()
	w := Output(LoggerSetupParams{LogFileName: filepath.Join(dir, "repcount")})
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok, "expected a rotating file writer, got %T", w)
	assert.Equal(t, filepath.Join(dir, "repcount.log"), lj.Filename)

	_, err := lj.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, lj.Close())

	data, err := os.ReadFile(filepath.Join(dir, "repcount.log"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
