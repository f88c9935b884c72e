// internal/handler/discovery_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/service"
	"github.com/Softbalance/equipment/internal/utils"
)

// DiscoveryHandler handles device discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/discovery/scan", h.ScanDevices)
	router.GET("/discovery/scanners", h.ListScanners)
	router.GET("/devices/usb", h.ListUSBPrinters)
}

// ScanDevices scans for available devices
// @Summary Scan for devices
// @Description Scan USB, serial ports and configured networks for printers, fiscal registers and print servers
// @Tags Discovery
// @Produce json
// @Param type query string false "Scan type" Enums(all, serial, usb, tcp) default(all)
// @Param timeout query string false "Scan timeout" default(30s)
// @Success 200 {object} utils.APIResponse{data=object{devices_found=int,devices=[]discovery.DiscoveredDevice}} "Device scan completed"
// @Failure 400 {object} utils.APIResponse "Unsupported scan type"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanDevices(c *gin.Context) {
	timeout, err := time.ParseDuration(c.DefaultQuery("timeout", "30s"))
	if err != nil || timeout <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid timeout", err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	req := &service.ScanRequest{ScanType: c.DefaultQuery("type", "all")}
	devices, err := h.discoveryService.ScanDevices(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnsupportedScanType) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Failed to scan devices", zap.Error(err))
		utils.ErrorResponse(c, status, "Failed to scan devices", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device scan completed", gin.H{
		"devices_found": len(devices),
		"devices":       devices,
	})
}

// ListScanners lists the scanners available on this host
// @Summary Available scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string}
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) ListScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", h.discoveryService.AvailableScanners())
}

// ListUSBPrinters lists attached USB printers of known vendors
// @Summary USB printers
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]discovery.DiscoveredDevice}
// @Failure 503 {object} utils.APIResponse "USB scanning unavailable"
// @Router /devices/usb [get]
func (h *DiscoveryHandler) ListUSBPrinters(c *gin.Context) {
	devices, err := h.discoveryService.USBPrinters(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Failed to list USB devices", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "USB devices retrieved", devices)
}
