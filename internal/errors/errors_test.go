package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("search: %w", Network(context.DeadlineExceeded))

	assert.True(t, Is(err, ErrNetwork))
	assert.False(t, Is(err, ErrUnexpected))
	assert.False(t, Is(err, ErrServerResponse))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAppError_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b *AppError
		want bool
	}{
		{"network ignores cause", Network(context.Canceled), Network(nil), true},
		{"server same status and message", ServerResponse(400, "bad"), ServerResponse(400, "bad"), true},
		{"server different status", ServerResponse(400, "bad"), ServerResponse(500, "bad"), false},
		{"server different message", ServerResponse(400, "bad"), ServerResponse(400, "worse"), false},
		{"different kinds", Network(nil), Unexpected(nil), false},
		{"nil vs value", nil, Network(nil), false},
		{"both nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	server := ServerResponse(403, "quota exceeded")
	wrapped := fmt.Errorf("get volume: %w", server)
	assert.Same(t, server, From(wrapped))

	plain := New("boom")
	got := From(plain)
	require.NotNil(t, got)
	assert.Equal(t, KindUnexpected, got.Kind)
	assert.Same(t, plain, got.Cause())
	assert.Contains(t, got.Error(), "boom")
}

func TestAppError_Messages(t *testing.T) {
	assert.Equal(t, "network error", Network(nil).Error())
	assert.Equal(t, "response error: not found (status 404)", ServerResponse(404, "not found").Error())
	assert.Equal(t, "unexpected error: bad json", Unexpectedf("bad %s", "json").Error())
}
