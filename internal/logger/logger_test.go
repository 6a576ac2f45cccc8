package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	InitializeWriter(&buf, level, "json")
	t.Cleanup(func() { Initialize("info", "text") })
	return &buf
}

func TestContextHelpersAddRequestID(t *testing.T) {
	buf := capture(t, "info")
	ctx := WithRequestID(context.Background(), "req-123")

	InfoContext(ctx, "Book borrowed", "loanID", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Book borrowed", record["msg"])
	assert.Equal(t, "req-123", record["request_id"])
	assert.Equal(t, float64(7), record["loanID"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")

	Info("dropped")
	EnterMethod("borrowService.Borrow")
	assert.Zero(t, buf.Len())

	DatabaseResult("update_availability", 0, errors.New("boom"))
	assert.Contains(t, buf.String(), `"rows_affected":0`)
	assert.Contains(t, buf.String(), "Database call failed")
}

func TestRequestIDAbsent(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

func TestScopedLoggers(t *testing.T) {
	buf := capture(t, "info")

	WithService("notification").Info("Overdue notices delivered")
	WithMethod("jobs.ReportOverdueLoans").Info("Job completed")

	out := buf.String()
	assert.Contains(t, out, `"service":"notification"`)
	assert.Contains(t, out, `"method":"jobs.ReportOverdueLoans"`)
}
