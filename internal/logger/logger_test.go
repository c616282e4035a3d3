package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		envLevel   string
		envFormat  string
		wantLevel  logrus.Level
		expectJSON bool
	}{
		{name: "production defaults", wantLevel: logrus.InfoLevel, expectJSON: true},
		{name: "development defaults", opts: Options{Development: true}, wantLevel: logrus.DebugLevel},
		{name: "explicit json in development", opts: Options{Level: "warn", Format: "JSON", Development: true}, wantLevel: logrus.WarnLevel, expectJSON: true},
		{name: "explicit text in production", opts: Options{Format: "text"}, wantLevel: logrus.InfoLevel},
		{name: "env level and format", envLevel: "trace", envFormat: "text", wantLevel: logrus.TraceLevel},
		{name: "options win over env", opts: Options{Level: "error"}, envLevel: "trace", wantLevel: logrus.ErrorLevel, expectJSON: true},
		{name: "invalid level", opts: Options{Level: "loud"}, wantLevel: logrus.InfoLevel, expectJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envLevel)
			t.Setenv("LOG_FORMAT", tt.envFormat)
			tt.opts.Output = &bytes.Buffer{}

			log := New(tt.opts)
			assert.Equal(t, tt.wantLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestComponent(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	Component(log, "projection").WithField("season", 2024).Info("Season projection stored")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "projection", line["component"])
	assert.Equal(t, float64(2024), line["season"])
	assert.Equal(t, "Season projection stored", line["msg"])
}
