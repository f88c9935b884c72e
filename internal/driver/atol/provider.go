package atol

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrSDKUnavailable is returned by Create when no native SDK is linked.
var ErrSDKUnavailable = errors.New("native SDK not available")

const (
	ProviderNone     = "none"
	ProviderEmulator = "emulator"
)

// Provider returns the device provider named by name. An empty name is
// ProviderNone, which fails every open with ErrSDKUnavailable.
func Provider(name string) (DeviceProvider, error) {
	switch name {
	case "", ProviderNone:
		return func() FiscalDevice { return unavailable{} }, nil
	case ProviderEmulator:
		return func() FiscalDevice { return NewEmulator() }, nil
	default:
		return nil, fmt.Errorf("unknown atol provider %q", name)
	}
}

// CatalogDefaults reads the default settings document from a device made by
// provider. Without a usable device it falls back to the factory document.
func CatalogDefaults(provider DeviceProvider, logger *zap.Logger) string {
	settings, err := New("", provider, logger).DefaultSettings()
	if err != nil {
		logger.Info("Using factory atol settings", zap.Error(err))
		return DefaultEmulatorSettings
	}
	return settings
}

type unavailable struct{}

func (unavailable) Create() error { return ErrSDKUnavailable }
func (unavailable) Destroy() error { return nil }

func (unavailable) SetProperty(Property, any) int { return resultUnavailable }
func (unavailable) IntProperty(Property) int { return 0 }
func (unavailable) StringProperty(Property) string { return "" }
func (unavailable) BoolProperty(Property) bool { return false }
func (unavailable) Call(Method) int { return resultUnavailable }
func (unavailable) ResultCode() int { return resultUnavailable }
func (unavailable) ResultDescription() string { return ErrSDKUnavailable.Error() }
func (unavailable) BadParamDescription() string { return "" }
