package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "info", level: "info"},
		{name: "debug", level: "debug"},
		{name: "warn", level: "warn"},
		{name: "warning alias", level: "WARNING"},
		{name: "error", level: "error"},
		{name: "invalid level", level: "invalid", wantErr: true},
		{name: "empty level", level: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewWithWriter_Production(t *testing.T) {
	t.Setenv("GO_ENV", "production")

	var buf bytes.Buffer
	logger, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	WithComponent(logger, "route_guard").Info("decision", "path", "/tickets")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, ServiceName, record["service"])
	assert.Equal(t, "route_guard", record["component"])
	assert.Equal(t, "/tickets", record["path"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	t.Setenv("GO_ENV", "development")

	var buf bytes.Buffer
	logger, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	WithRequest(logger, "req-1", "GET", "/org").Warn("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "request_id=req-1")
}
