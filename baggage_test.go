package movetrace

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaggageHelpers(t *testing.T) {
	ctx := context.Background()
	var err error

	ctx, err = SetBaggage(ctx, "key", "value")
	require.NoError(t, err)
	assert.Equal(t, "value", GetBaggage(ctx, "key"))

	_, err = SetBaggage(ctx, "bad key", "value")
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "4f1c2a9e-8d7b-4c3e-9a1f-0b2c3d4e5f60")
	assert.Equal(t, "4f1c2a9e-8d7b-4c3e-9a1f-0b2c3d4e5f60", RequestID(ctx))

	// Empty ids leave the context untouched
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"abc-123", true},
		{"3f2b1c9e-8a7d-4e6f-9b0a-1c2d3e4f5a6b", true},
		{"with.dots_and~tilde", true},
		{"has space", false},
		{"semi;colon", false},
		{"quote\"", false},
		{strings.Repeat("a", MaxRequestIDLen), true},
		{strings.Repeat("a", MaxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidRequestID(tt.id), "%q", tt.id)
	}
}
