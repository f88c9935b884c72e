// internal/handler/session_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/middleware"
	"github.com/Softbalance/equipment/internal/service"
	"github.com/Softbalance/equipment/internal/utils"
)

// SessionHandler handles named session requests
type SessionHandler struct {
	sessions *service.SessionService
	logger   *utils.ServiceLogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   utils.NewServiceLogger(logger, "session-handler"),
	}
}

// RegisterRoutes registers session routes
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)

		session := sessions.Group("/:name")
		{
			session.GET("", h.GetSession)
			session.DELETE("", h.DisposeSession)
			session.POST("/execute", h.Execute)
			session.GET("/serial", h.GetSerial)
			session.GET("/session-state", h.GetSessionState)
			session.POST("/open-shift", h.OpenShift)
			session.GET("/ofd-status", h.GetOfdStatus)
			session.GET("/taxes", h.GetTaxes)
		}
	}
}

// CreateSession opens or reuses a named session
// @Summary Create session
// @Description Create a named backend kept open between batches. An existing live session with the same driver is returned as is.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body service.CreateSessionRequest true "Session"
// @Success 201 {object} utils.APIResponse{data=engine.SessionInfo} "Session created"
// @Success 200 {object} utils.APIResponse{data=engine.SessionInfo} "Session exists"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Session exists with another driver"
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	info, created, err := h.sessions.Create(&req, c.ClientIP())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		utils.ErrorResponse(c, status, "Failed to create session", err)
		return
	}

	if created {
		utils.SuccessResponse(c, http.StatusCreated, "Session created", info)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Session exists", info)
}

// ListSessions lists the live sessions
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]engine.SessionInfo}
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved", h.sessions.List())
}

// GetSession describes one session
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Success 200 {object} utils.APIResponse{data=engine.SessionInfo}
// @Failure 404 {object} utils.APIResponse
// @Router /sessions/{name} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	info, err := h.sessions.Get(c.Param("name"))
	if err != nil {
		utils.ErrorResponse(c, statusFor(err), "Session not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Session retrieved", info)
}

// DisposeSession finishes and removes a session
// @Summary Dispose session
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /sessions/{name} [delete]
func (h *SessionHandler) DisposeSession(c *gin.Context) {
	if err := h.sessions.Dispose(c.Request.Context(), c.Param("name"), c.ClientIP()); err != nil {
		utils.ErrorResponse(c, statusFor(err), "Failed to dispose session", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Session disposed", nil)
}

// Execute runs a task batch on the session
// @Summary Execute tasks on a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param name path string true "Session name"
// @Param request body service.SessionExecuteRequest true "Tasks"
// @Success 200 {object} model.EquipmentResponse
// @Failure 404 {object} utils.APIResponse
// @Router /sessions/{name}/execute [post]
func (h *SessionHandler) Execute(c *gin.Context) {
	var req service.SessionExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.sessions.Execute(c.Request.Context(), c.Param("name"), &req, middleware.GetRequestID(c))
	if err != nil {
		utils.ErrorResponse(c, statusFor(err), "Failed to execute tasks", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// auxiliary answers an auxiliary operation. finish is read from the
// finishAfterExecute query flag.
func auxiliary[T any](c *gin.Context, call func(ctx context.Context, name string, finish bool) (T, error)) {
	finish, _ := strconv.ParseBool(c.DefaultQuery("finishAfterExecute", "false"))
	resp, err := call(c.Request.Context(), c.Param("name"), finish)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, driver.ErrMethodNotSupported):
		c.JSON(http.StatusNotImplemented, resp)
	default:
		utils.ErrorResponse(c, statusFor(err), "Operation failed", err)
	}
}

// GetSerial reads the device serial number
// @Summary Device serial number
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Param finishAfterExecute query bool false "Finish the session afterwards"
// @Success 200 {object} model.SerialResponse
// @Failure 501 {object} model.SerialResponse "Not supported by the driver"
// @Router /sessions/{name}/serial [get]
func (h *SessionHandler) GetSerial(c *gin.Context) {
	auxiliary(c, h.sessions.GetSerial)
}

// GetSessionState reads the fiscal shift state
// @Summary Shift state
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Param finishAfterExecute query bool false "Finish the session afterwards"
// @Success 200 {object} model.SessionStateResponse
// @Failure 501 {object} model.SessionStateResponse "Not supported by the driver"
// @Router /sessions/{name}/session-state [get]
func (h *SessionHandler) GetSessionState(c *gin.Context) {
	auxiliary(c, h.sessions.GetSessionState)
}

// OpenShift opens a fiscal shift
// @Summary Open shift
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Param finishAfterExecute query bool false "Finish the session afterwards"
// @Success 200 {object} model.OpenShiftResponse
// @Failure 501 {object} model.OpenShiftResponse "Not supported by the driver"
// @Router /sessions/{name}/open-shift [post]
func (h *SessionHandler) OpenShift(c *gin.Context) {
	auxiliary(c, h.sessions.OpenShift)
}

// GetOfdStatus reads the fiscal data operator exchange state
// @Summary OFD status
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Param finishAfterExecute query bool false "Finish the session afterwards"
// @Success 200 {object} model.OfdStatusResponse
// @Failure 501 {object} model.OfdStatusResponse "Not supported by the driver"
// @Router /sessions/{name}/ofd-status [get]
func (h *SessionHandler) GetOfdStatus(c *gin.Context) {
	auxiliary(c, h.sessions.GetOfdStatus)
}

// GetTaxes reads the device tax table
// @Summary Taxes
// @Tags Sessions
// @Produce json
// @Param name path string true "Session name"
// @Param finishAfterExecute query bool false "Finish the session afterwards"
// @Success 200 {object} model.TaxesResponse
// @Failure 501 {object} model.TaxesResponse "Not supported by the driver"
// @Router /sessions/{name}/taxes [get]
func (h *SessionHandler) GetTaxes(c *gin.Context) {
	auxiliary(c, h.sessions.GetTaxes)
}
