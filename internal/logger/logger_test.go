package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	reset()
	InitLogger(level, format)
	defer reset()

	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("test info message") },
			contains: []string{"test info message"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func() { Debug("test debug message") },
			contains: []string{"test debug message", "level=DEBUG"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func() { Debug("test debug message") },
			excludes: []string{"test debug message"},
		},
		{
			name:     "warn log with fields",
			level:    "warn",
			logFn:    func() { Warn("difficulty file missing", Fields{"file": "Expert.dat", "attempt": 2}) },
			contains: []string{"difficulty file missing", "level=WARN", "file=Expert.dat", "attempt=2"},
		},
		{
			name:     "error log hides info",
			level:    "error",
			logFn:    func() { Info("quiet"); Errorf("failed %s", "loudly") },
			contains: []string{"failed loudly", "level=ERROR"},
			excludes: []string{"quiet"},
		},
		{
			name:     "success log",
			level:    "info",
			logFn:    func() { Success("history written") },
			contains: []string{"history written", "status=success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, output, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, output, notWant)
			}
		})
	}
}

func TestGetLogger_InitializesIfNil(t *testing.T) {
	reset()
	assert.NotPanics(t, func() {
		lg := GetLogger()
		assert.NotNil(t, lg)
	})
}

func TestJSONFormat(t *testing.T) {
	output := captureOutput(t, "info", FormatJSON, func() {
		Info("test json message", Fields{"hash": "ABC", "count": 3})
	})
	assert.Contains(t, output, `"msg":"test json message"`)
	assert.Contains(t, output, `"hash":"ABC"`)
	assert.Contains(t, output, `"count":3`)
}

func TestSetLevel(t *testing.T) {
	output := captureOutput(t, "info", FormatText, func() {
		Debug("hidden")
		SetLevel("debug")
		Debug("visible")
	})
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible")
}

func TestMergeFields(t *testing.T) {
	attrs := mergeFields(Fields{"key1": "value1"}, Fields{"key1": "new value", "key2": 123})
	result := make(map[string]interface{})
	for i := 0; i < len(attrs); i += 2 {
		result[attrs[i].(string)] = attrs[i+1]
	}
	assert.Equal(t, map[string]interface{}{"key1": "new value", "key2": 123}, result)
	assert.Nil(t, mergeFields())
}
