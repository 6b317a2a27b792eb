package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dormhub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDIsAttached(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("info", "json", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	ctx := ContextWithRequestID(context.Background(), "req-123")
	InfoContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-123", rec["request_id"])
	assert.Equal(t, "dormhub-backend", rec["service"])
	assert.Equal(t, "v", rec["k"])
}

func TestExpectedErrorsStayQuiet(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("info", "text", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	ExitMethodWithError("escrowRepository.Finalize", domain.ErrAlreadyFinalized)
	assert.Empty(t, buf.String())

	ExitMethodWithError("escrowRepository.Finalize", errors.New("connection reset"))
	assert.Contains(t, buf.String(), "connection reset")
}
