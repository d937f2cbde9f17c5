package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"WARN":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", "", true)
	log.WithField("port", 3000).Info("starting")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "starting", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(3000), entry["port"])
}

func TestNew_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "debug", "text", false)
	log.Debug("query executed")

	assert.Contains(t, buf.String(), "query executed")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "warn", "json", false)
	log.Info("hidden")
	assert.Empty(t, buf.String())
}
