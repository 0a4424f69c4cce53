package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	cfg := &Config{
		Level:      "DEBUG",
		Filename:   logFile,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
		Compress:   false,
	}

	l, err := InitLogger(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, l)
	assert.Same(t, l, Log)

	Log.Info("Test log message")
	Sync()

	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}

func TestInitLoggerConsoleOnly(t *testing.T) {
	l, err := InitLogger(&Config{Level: "WARN"})
	assert.NoError(t, err)
	assert.NotNil(t, l)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:    "INVALID",
		Filename: filepath.Join(t.TempDir(), "test_invalid.log"),
	}

	_, err := InitLogger(cfg)
	assert.Error(t, err)
}
