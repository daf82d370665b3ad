package logger_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug": logger.LevelDebug,
		"TRACE": logger.LevelDebug,
		" info": logger.LevelInfo,
		"Warn":  logger.LevelWarn,
		"ERROR": logger.LevelError,
		"fatal": logger.LevelFatal,
	}
	for in, want := range cases {
		got, err := logger.ParseLogLevel(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logger.ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)
	defer logger.SetLogLevel("INFO")

	logger.SetLogLevel("WARN")
	assert.Equal(t, logger.LevelWarn, logger.GetLogLevel())

	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	logger.Errorf("shown %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
	assert.Contains(t, out, "[ERROR] shown 3")
}

func TestSetLogLevel_UnknownFallsBackToInfo(t *testing.T) {
	defer logger.SetLogLevel("INFO")
	logger.SetLogLevel("DEBUG")
	logger.SetLogLevel("nope")
	assert.Equal(t, logger.LevelInfo, logger.GetLogLevel())
}
