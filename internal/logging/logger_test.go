package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name          string
		level         LogLevel
		expectedLevel slog.Level
	}{
		{name: "Debug level", level: LevelDebug, expectedLevel: slog.LevelDebug},
		{name: "Info level", level: LevelInfo, expectedLevel: slog.LevelInfo},
		{name: "Warn level", level: LevelWarn, expectedLevel: slog.LevelWarn},
		{name: "Error level", level: LevelError, expectedLevel: slog.LevelError},
		{name: "Upper case", level: LogLevel("DEBUG"), expectedLevel: slog.LevelDebug},
		{name: "Empty defaults to Info", level: LogLevel(""), expectedLevel: slog.LevelInfo},
		{name: "Invalid level defaults to Info", level: LogLevel("invalid"), expectedLevel: slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedLevel, ParseLevel(tc.level))
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
		slog.SetDefault(originalLogger)
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelDebug)

	tests := []struct {
		name    string
		logFunc func(string, ...any)
		level   string
		message string
	}{
		{name: "Debug logging", logFunc: Debug, level: "DEBUG", message: "debug message"},
		{name: "Info logging", logFunc: Info, level: "INFO", message: "info message"},
		{name: "Warn logging", logFunc: Warn, level: "WARN", message: "warn message"},
		{name: "Error logging", logFunc: Error, level: "ERROR", message: "error message"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			tc.logFunc(tc.message, "key", "value")

			output := buf.String()
			assert.Contains(t, output, "level="+tc.level)
			assert.Contains(t, output, tc.message)
			assert.Contains(t, output, "key=value")
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
		slog.SetDefault(originalLogger)
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelWarn)

	Info("should not appear")
	assert.Empty(t, buf.String())

	Warn("rate limited")
	assert.True(t, strings.Contains(buf.String(), "rate limited"))
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty string", input: "", expected: "<not set>"},
		{name: "Short string", input: "abc", expected: "<set>"},
		{name: "Exactly 4 characters", input: "abcd", expected: "<set>"},
		{name: "Token-like string", input: "ghp_2Dn5j8fk39Dkf0s", expected: "ghp_...***"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskSensitive(tc.input))
		})
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	w, f, err := OpenLogFile("gitbugger", dir)
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.True(t, strings.HasPrefix(filepath.Base(f.Name()), "gitbugger-"))
}

func TestSubmissionLogger(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
		slog.SetDefault(originalLogger)
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelInfo)

	log := Submission("abc-123")
	log.Info("first attempt", "attempt", 1)
	log.Debug("filtered out")

	output := buf.String()
	assert.Contains(t, output, "submission_id=abc-123")
	assert.Contains(t, output, "attempt=1")
	assert.NotContains(t, output, "filtered out")
}
