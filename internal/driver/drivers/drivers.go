// Package drivers registers every backend with a driver.Registry.
package drivers

import (
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/driver/atol"
	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/printserver"
	"github.com/Softbalance/equipment/internal/driver/shtrih"
	"github.com/Softbalance/equipment/internal/model"
)

// Options carries the collaborators of the built-in backends. Nil fields
// fall back to defaults.
type Options struct {
	// AtolDevice creates native SDK handles. Defaults to the "none"
	// provider, which fails every open.
	AtolDevice atol.DeviceProvider
	// Classic creates classic driver handles. Defaults to the wire
	// implementation.
	Classic shtrih.ClassicProvider
	// Locator finds USB printers.
	Locator escpos.Locator
	// Settling overrides the raw printer delays.
	Settling *escpos.SettlingPolicy
	Relay    printserver.ClientConfig
}

// RegisterDefaults registers the atol, posiflex, shtrih and printserver
// backends.
func RegisterDefaults(registry *driver.Registry, opts Options) {
	if opts.AtolDevice == nil {
		opts.AtolDevice, _ = atol.Provider(atol.ProviderNone)
	}
	if opts.Classic == nil {
		opts.Classic = shtrih.Provider(nil)
	}
	if opts.Relay == (printserver.ClientConfig{}) {
		opts.Relay = printserver.DefaultClientConfig()
	}

	registry.Register(model.DriverAtol, atol.Factory(opts.AtolDevice))
	registry.Register(model.DriverPosiflex, escpos.Factory(escpos.Options{
		Locator:  opts.Locator,
		Settling: opts.Settling,
	}))
	registry.Register(model.DriverShtrih, shtrih.Factory(opts.Classic))
	registry.Register(model.DriverPrintServer, printserver.Factory(opts.Relay))
}
