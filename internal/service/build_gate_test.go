package service

import (
	"context"
	"testing"
	"time"

	"studycollab_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBuildGate(t *testing.T) {
	gate := NewLocalBuildGate()
	ctx := context.Background()

	lease, err := gate.Acquire(ctx, "u1", time.Minute)
	require.NoError(t, err)

	_, err = gate.Acquire(ctx, "u1", time.Minute)
	assert.ErrorIs(t, err, util.ErrBuildInProgress)

	other, err := gate.Acquire(ctx, "u2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := gate.Acquire(ctx, "u1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
