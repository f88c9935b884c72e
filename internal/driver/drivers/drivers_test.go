package drivers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
)

func TestRegisterDefaults(t *testing.T) {
	registry := driver.NewRegistry(zap.NewNop())
	RegisterDefaults(registry, Options{})

	assert.Equal(t, []model.DriverKind{
		model.DriverAtol, model.DriverPosiflex, model.DriverPrintServer, model.DriverShtrih,
	}, registry.Kinds())

	for _, kind := range model.DriverKinds() {
		backend, err := registry.Create(kind, "")
		require.NoError(t, err, kind)
		assert.Equal(t, kind, backend.Kind())
		assert.Equal(t, model.StatusNotInitialized, backend.Status())
	}
}

func TestDefaultAtolHasNoSDK(t *testing.T) {
	registry := driver.NewRegistry(zap.NewNop())
	RegisterDefaults(registry, Options{})

	backend, err := registry.Create(model.DriverAtol, "")
	require.NoError(t, err)

	err = backend.Open(context.Background())
	require.ErrorIs(t, err, driver.ErrInitFailure)
	assert.Contains(t, err.Error(), "native SDK not available")
}
