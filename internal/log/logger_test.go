package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewHandlerRejectsUnknownFormat(t *testing.T) {
	_, err := NewHandler("xml", slog.LevelInfo, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMiddlewareTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentHTTP, Output: &buf})
	require.NoError(t, err)

	h := Middleware(logger, func(*http.Request) string { return "req_abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			LogError(r.Context(), "boom", errors.New("disk full"), OpCreate, NewFields().WithTransaction("tx-1"))
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "boom", rec["msg"])
	assert.Equal(t, "req_abc", rec[FieldRequestID])
	assert.Equal(t, ComponentHTTP, rec[FieldComponent])
	assert.Equal(t, "disk full", rec[FieldError])
	assert.Equal(t, OpCreate, rec[FieldOperation])
	assert.Equal(t, "tx-1", rec[FieldTxID])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}
