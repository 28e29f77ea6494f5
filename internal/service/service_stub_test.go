//go:build !windows

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStubRunPassesThroughError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	s := New(zap.NewNop(), func(ctx context.Context) error {
		called = true
		assert.NoError(t, ctx.Err())
		return boom
	})

	assert.False(t, IsWindowsService())
	assert.ErrorIs(t, s.Run(), boom)
	assert.True(t, called)
}
