// internal/handler/relay_handler.go
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/middleware"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/service"
	"github.com/Softbalance/equipment/internal/utils"
)

// RelayHandler serves the print server protocol. Every answer is HTTP 200;
// failures travel in resultCode/resultInfo as the clients expect.
type RelayHandler struct {
	relay  *service.RelayService
	logger *utils.ServiceLogger
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(relay *service.RelayService, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{
		relay:  relay,
		logger: utils.NewServiceLogger(logger, "relay-handler"),
	}
}

// RegisterRoutes registers the relay routes at the root of router
func (h *RelayHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/hi", h.Hi)
	router.POST("/version", h.Version)
	router.POST("/supportDeviceType", h.DeviceTypes)
	router.POST("/supportModels", h.Models)
	router.POST("/deviceSetting", h.DeviceSettings)
	router.POST("/deviceSettingZip", h.CompressSettings)
	router.POST("/taxes", h.Taxes)
	router.POST("/execute", h.Execute)
}

func wrongParameters(info string) model.BaseResponse {
	return model.BaseResponse{ResultCode: model.CodeWrongParameters, ResultInfo: info}
}

// Hi answers the connectivity probe
// @Summary Connectivity probe
// @Tags Relay
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Router /hi [post]
func (h *RelayHandler) Hi(c *gin.Context) {
	c.JSON(http.StatusOK, h.relay.Hi())
}

// Version reports the server version
// @Summary Server version
// @Tags Relay
// @Produce json
// @Success 200 {object} model.VersionResponse
// @Router /version [post]
func (h *RelayHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.relay.Version())
}

// DeviceTypes lists the supported device classes
// @Summary Supported device types
// @Tags Relay
// @Produce json
// @Success 200 {object} model.DevicesResponse
// @Router /supportDeviceType [post]
func (h *RelayHandler) DeviceTypes(c *gin.Context) {
	c.JSON(http.StatusOK, h.relay.DeviceTypes())
}

// Models lists the models of a device type
// @Summary Supported models
// @Tags Relay
// @Accept x-www-form-urlencoded
// @Produce json
// @Param typeId formData int true "Device type"
// @Success 200 {object} model.ModelsResponse
// @Router /supportModels [post]
func (h *RelayHandler) Models(c *gin.Context) {
	typeID, err := strconv.Atoi(c.PostForm("typeId"))
	if err != nil {
		c.JSON(http.StatusOK, model.ModelsResponse{BaseResponse: wrongParameters("typeId must be a number")})
		return
	}
	c.JSON(http.StatusOK, h.relay.Models(typeID))
}

// DeviceSettings returns the settings form of a driver, filled from
// settingZip when given
// @Summary Device settings form
// @Tags Relay
// @Accept x-www-form-urlencoded
// @Produce json
// @Param driverId formData string false "Driver id"
// @Param settingZip formData string false "Compressed settings"
// @Success 200 {object} model.SettingsResponse
// @Router /deviceSetting [post]
func (h *RelayHandler) DeviceSettings(c *gin.Context) {
	if blob := c.PostForm("settingZip"); blob != "" {
		c.JSON(http.StatusOK, h.relay.ExtractDeviceSettings(blob))
		return
	}
	driverID := c.PostForm("driverId")
	if driverID == "" {
		c.JSON(http.StatusOK, model.SettingsResponse{BaseResponse: model.BaseResponse{
			ResultCode: model.CodeMissedParameters,
			ResultInfo: "driverId or settingZip is required",
		}})
		return
	}
	c.JSON(http.StatusOK, h.relay.DeviceSettings(driverID))
}

// CompressSettings packs filled settings into a blob
// @Summary Compress settings
// @Tags Relay
// @Accept json
// @Produce json
// @Param request body model.SettingsValues true "Filled settings"
// @Success 200 {object} model.CompressedSettingsResponse
// @Router /deviceSettingZip [post]
func (h *RelayHandler) CompressSettings(c *gin.Context) {
	var values model.SettingsValues
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusOK, model.CompressedSettingsResponse{BaseResponse: wrongParameters(err.Error())})
		return
	}
	c.JSON(http.StatusOK, h.relay.CompressSettings(values, c.ClientIP()))
}

// Taxes reads the tax table of the configured device
// @Summary Device taxes
// @Tags Relay
// @Accept json
// @Produce json
// @Param request body model.SettingsRequest true "Compressed settings"
// @Success 200 {object} model.TaxesResponse
// @Router /taxes [post]
func (h *RelayHandler) Taxes(c *gin.Context) {
	var req model.SettingsRequest
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, model.TaxesResponse{BaseResponse: wrongParameters(err.Error())})
			return
		}
	} else {
		req.Settings = c.PostForm("settings")
	}
	c.JSON(http.StatusOK, h.relay.Taxes(c.Request.Context(), req.Settings))
}

// Execute runs a task batch
// @Summary Execute tasks
// @Tags Relay
// @Accept json
// @Produce json
// @Param request body model.TasksRequest true "Tasks and compressed settings"
// @Success 200 {object} model.EquipmentResponse
// @Router /execute [post]
func (h *RelayHandler) Execute(c *gin.Context) {
	var req model.TasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid execute request", zap.Error(err))
		c.JSON(http.StatusOK, model.EquipmentResponse{BaseResponse: wrongParameters(err.Error())})
		return
	}
	c.JSON(http.StatusOK, h.relay.Execute(c.Request.Context(), req, middleware.GetRequestID(c)))
}
