package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewWithOutput_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf)

	log.WithComponent("store").Info("Store loaded")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Store loaded", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "store", entry["component"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithOutput_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("chatty", &buf)

	log.Debug("hidden")
	assert.Zero(t, buf.Len())
	log.Info("shown")
	assert.NotZero(t, buf.Len())
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "u1")
	log.HTTPRequest(ctx, "GET", "/api/v1/therapists", "test", "127.0.0.1", 404, 3, nil)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "warning", entry["level"])
	assert.EqualValues(t, 404, entry["status_code"])
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf)

	log.Audit("u1", "restore", "backup", false, map[string]interface{}{"slots": []string{"therapists"}})

	entry := decodeLine(t, &buf)
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, "restore", entry["action"])
	assert.Equal(t, "warning", entry["level"])
}
