// Package catalog describes the device types, models and drivers served by
// the relay server and maps filled settings values to backend settings.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Softbalance/equipment/internal/model"
)

var (
	ErrUnknownDriver = errors.New("unknown driver")
	ErrUnknownType   = errors.New("unknown device type")
)

// Device type ids.
const (
	TypeFiscalRegister = 1
	TypeReceiptPrinter = 2
)

// DriverSpec binds a backend kind to its settings form.
type DriverSpec struct {
	Kind model.DriverKind
	Name string
	// Form returns the presenters with default values.
	Form func() model.SettingsResponse
	// Assemble turns filled values into the backend settings string.
	Assemble func(values model.SettingsValues) string
}

// Catalog is the static description of supported equipment.
type Catalog struct {
	types   []model.DeviceType
	models  map[int][]model.DeviceModel
	drivers map[model.DriverKind]DriverSpec
}

// New builds the catalog of the built-in backends. atolDefaults is the
// native SDK settings document offered as the atol default.
func New(atolDefaults string) *Catalog {
	c := &Catalog{
		types: []model.DeviceType{
			{ID: TypeFiscalRegister, Name: "Fiscal register"},
			{ID: TypeReceiptPrinter, Name: "Receipt printer"},
		},
		models: map[int][]model.DeviceModel{
			TypeFiscalRegister: {
				{ID: "atol-fprint", Name: "Atol FPrint", SupportDriverCodes: []string{string(model.DriverAtol)}},
				{ID: "shtrih-m", Name: "Shtrih-M", SupportDriverCodes: []string{string(model.DriverShtrih)}},
			},
			TypeReceiptPrinter: {
				{ID: "posiflex-pp", Name: "Posiflex PP", SupportDriverCodes: []string{string(model.DriverPosiflex)}},
				{ID: "atol-rp", Name: "Atol RP", SupportDriverCodes: []string{string(model.DriverPosiflex)}},
			},
		},
		drivers: make(map[model.DriverKind]DriverSpec),
	}
	c.Register(atolSpec(atolDefaults))
	c.Register(posiflexSpec())
	c.Register(shtrihSpec())
	return c
}

// Register adds or replaces a driver.
func (c *Catalog) Register(spec DriverSpec) {
	c.drivers[spec.Kind] = spec
}

func (c *Catalog) DeviceTypes() []model.DeviceType {
	return slices.Clone(c.types)
}

// Models returns the models of typeID and the drivers serving them.
func (c *Catalog) Models(typeID int) ([]model.DeviceModel, []model.DeviceDriver, error) {
	models, ok := c.models[typeID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownType, typeID)
	}

	var drivers []model.DeviceDriver
	seen := map[string]bool{}
	for _, m := range models {
		for _, code := range m.SupportDriverCodes {
			spec, ok := c.drivers[model.DriverKind(code)]
			if !ok || seen[code] {
				continue
			}
			seen[code] = true
			drivers = append(drivers, model.DeviceDriver{ID: code, Name: spec.Name})
		}
	}
	return slices.Clone(models), drivers, nil
}

// Form returns the default presenters of driverID.
func (c *Catalog) Form(driverID string) (model.SettingsResponse, error) {
	spec, ok := c.drivers[model.DriverKind(driverID)]
	if !ok {
		return model.SettingsResponse{}, fmt.Errorf("%w: %s", ErrUnknownDriver, driverID)
	}
	form := spec.Form()
	form.DriverID = driverID
	form.Set(model.CodeSuccess, "")
	return form, nil
}

// Fill returns the presenters of values.DriverID carrying values.
func (c *Catalog) Fill(values model.SettingsValues) (model.SettingsResponse, error) {
	form, err := c.Form(values.DriverID)
	if err != nil {
		return form, err
	}
	form.ModelID = values.ModelID
	for i := range form.BoolSettings {
		s := &form.BoolSettings[i]
		if v, ok := lookup(values.BoolValues, s.ID); ok {
			s.Value = &v
		}
	}
	for i := range form.StringSettings {
		s := &form.StringSettings[i]
		if v, ok := lookup(values.StringValues, s.ID); ok {
			s.Value = &v
		}
	}
	for i := range form.ListSettings {
		s := &form.ListSettings[i]
		if v, ok := lookup(values.ListValues, s.ID); ok {
			s.Value = &v
		}
	}
	return form, nil
}

// Resolve decodes a blob into the backend kind and settings string.
func (c *Catalog) Resolve(blob string) (model.DriverKind, string, error) {
	values, err := Unpack(blob)
	if err != nil {
		return "", "", err
	}
	return c.Assemble(values)
}

// Assemble maps filled values to the backend kind and settings string.
func (c *Catalog) Assemble(values model.SettingsValues) (model.DriverKind, string, error) {
	spec, ok := c.drivers[model.DriverKind(values.DriverID)]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownDriver, values.DriverID)
	}
	return spec.Kind, spec.Assemble(values), nil
}

func lookup[T any](values []model.TypedValue[T], id string) (T, bool) {
	for _, v := range values {
		if v.ID == id {
			return v.Value, true
		}
	}
	var zero T
	return zero, false
}
