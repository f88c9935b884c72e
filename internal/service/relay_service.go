// internal/service/relay_service.go
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/catalog"
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// RelayService answers the print server protocol.
type RelayService struct {
	catalog    *catalog.Catalog
	drivers    *driver.Registry
	executions *ExecutionService
	version    string
	audit      *utils.AuditLogger
	logger     *utils.ServiceLogger
}

// NewRelayService creates a new relay service instance
func NewRelayService(
	catalog *catalog.Catalog,
	drivers *driver.Registry,
	executions *ExecutionService,
	version string,
	logger *zap.Logger,
) *RelayService {
	return &RelayService{
		catalog:    catalog,
		drivers:    drivers,
		executions: executions,
		version:    version,
		audit:      utils.NewAuditLogger(logger),
		logger:     utils.NewServiceLogger(logger, "relay-service"),
	}
}

func success() model.BaseResponse {
	return model.BaseResponse{ResultCode: model.CodeSuccess}
}

func failure(code model.ResponseCode, err error) model.BaseResponse {
	return model.BaseResponse{ResultCode: code, ResultInfo: err.Error()}
}

// codeFor maps catalog errors to response codes.
func codeFor(err error) model.ResponseCode {
	switch {
	case errors.Is(err, catalog.ErrUnknownDriver),
		errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, catalog.ErrBadBlob):
		return model.CodeWrongParameters
	default:
		return model.CodeInternalError
	}
}

func (s *RelayService) Hi() model.MessageResponse {
	return model.MessageResponse{BaseResponse: success(), Value: "hi"}
}

func (s *RelayService) Version() model.VersionResponse {
	return model.VersionResponse{BaseResponse: success(), Version: s.version}
}

func (s *RelayService) DeviceTypes() model.DevicesResponse {
	return model.DevicesResponse{BaseResponse: success(), DeviceTypes: s.catalog.DeviceTypes()}
}

func (s *RelayService) Models(typeID int) model.ModelsResponse {
	models, drivers, err := s.catalog.Models(typeID)
	if err != nil {
		return model.ModelsResponse{BaseResponse: failure(codeFor(err), err)}
	}
	return model.ModelsResponse{BaseResponse: success(), Models: models, Drivers: drivers}
}

// DeviceSettings returns the default form of driverID.
func (s *RelayService) DeviceSettings(driverID string) model.SettingsResponse {
	form, err := s.catalog.Form(driverID)
	if err != nil {
		return model.SettingsResponse{BaseResponse: failure(codeFor(err), err)}
	}
	return form
}

// ExtractDeviceSettings returns the form of a blob filled with its values.
func (s *RelayService) ExtractDeviceSettings(blob string) model.SettingsResponse {
	values, err := catalog.Unpack(blob)
	if err != nil {
		return model.SettingsResponse{BaseResponse: failure(codeFor(err), err)}
	}
	form, err := s.catalog.Fill(values)
	if err != nil {
		return model.SettingsResponse{BaseResponse: failure(codeFor(err), err)}
	}
	return form
}

// CompressSettings packs values into a blob after checking the driver.
func (s *RelayService) CompressSettings(values model.SettingsValues, clientIP string) model.CompressedSettingsResponse {
	if _, _, err := s.catalog.Assemble(values); err != nil {
		return model.CompressedSettingsResponse{BaseResponse: failure(codeFor(err), err)}
	}
	blob, err := catalog.Pack(values)
	if err != nil {
		return model.CompressedSettingsResponse{BaseResponse: failure(model.CodeInternalError, err)}
	}
	s.audit.LogSettingsPacked(values.DriverID, values.ModelID, clientIP)
	return model.CompressedSettingsResponse{BaseResponse: success(), Value: blob}
}

// Taxes opens the backend of the blob, reads its tax table and finishes it.
func (s *RelayService) Taxes(ctx context.Context, blob string) model.TaxesResponse {
	kind, settings, err := s.catalog.Resolve(blob)
	if err != nil {
		return model.TaxesResponse{BaseResponse: failure(codeFor(err), err)}
	}
	backend, err := s.drivers.Create(kind, settings)
	if err != nil {
		return model.TaxesResponse{BaseResponse: failure(model.CodeWrongParameters, err)}
	}
	resp, err := engine.New(backend, s.logger.Logger).GetTaxes(ctx, true)
	if err != nil {
		s.logger.Debug("Taxes not supported", zap.String("driver", string(kind)))
	}
	return resp
}

// Execute runs a relay batch.
func (s *RelayService) Execute(ctx context.Context, req model.TasksRequest, correlationID string) model.EquipmentResponse {
	return s.executions.ExecuteRelay(ctx, req, correlationID)
}
