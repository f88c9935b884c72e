package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
)

func newTestRegistry(t *testing.T) (*Registry, *[]*spyBackend) {
	t.Helper()
	var created []*spyBackend
	drivers := driver.NewRegistry(zap.NewNop())
	drivers.Register(model.DriverAtol, func(settings string, logger *zap.Logger) (driver.Backend, error) {
		spy := newSpy()
		created = append(created, spy)
		return spy, nil
	})
	return NewRegistry(drivers, zap.NewNop()), &created
}

func TestRegistryReusesLiveSession(t *testing.T) {
	r, created := newTestRegistry(t)

	first, isNew, err := r.Create("till-1", model.DriverAtol, "")
	require.NoError(t, err)
	assert.True(t, isNew)

	again, isNew, err := r.Create("till-1", model.DriverAtol, "")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Same(t, first, again)
	assert.Len(t, *created, 1)

	_, _, err = r.Create("till-1", model.DriverPosiflex, "")
	assert.ErrorIs(t, err, ErrSessionConflict)
}

func TestRegistryReplacesFinishedSession(t *testing.T) {
	r, created := newTestRegistry(t)
	s, _, err := r.Create("till-1", model.DriverAtol, "")
	require.NoError(t, err)
	require.True(t, s.Execute(context.Background(), nil, true).IsSuccess())

	replaced, isNew, err := r.Create("till-1", model.DriverAtol, "")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotSame(t, s, replaced)
	assert.Len(t, *created, 2)
}

func TestRegistryLookupAndDispose(t *testing.T) {
	r, created := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Lookup("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s, _, err := r.Create("b", model.DriverAtol, "")
	require.NoError(t, err)
	require.True(t, s.Execute(ctx, nil, false).IsSuccess())
	_, _, err = r.Create("a", model.DriverAtol, "")
	require.NoError(t, err)

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, model.StatusInitialized, infos[1].Status)

	require.NoError(t, r.Dispose(ctx, "b"))
	assert.Equal(t, model.StatusFinished, (*created)[0].Status())
	assert.ErrorIs(t, r.Dispose(ctx, "b"), ErrSessionNotFound)

	r.DisposeAll(ctx)
	assert.Empty(t, r.List())
}

func TestRegistryUnknownDriver(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, _, err := r.Create("x", model.DriverShtrih, "")
	assert.EqualError(t, err, `no driver registered for "shtrih"`)
}
