package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/service"
	"github.com/Softbalance/equipment/internal/utils"
)

// ExecutionHandler serves the execution history
type ExecutionHandler struct {
	executions *service.ExecutionService
	logger     *utils.ServiceLogger
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executions *service.ExecutionService, logger *zap.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executions: executions,
		logger:     utils.NewServiceLogger(logger, "execution-handler"),
	}
}

// RegisterRoutes registers history routes
func (h *ExecutionHandler) RegisterRoutes(router *gin.RouterGroup) {
	executions := router.Group("/executions")
	{
		executions.GET("", h.ListExecutions)
		executions.GET("/stats", h.GetStats)
		executions.GET("/:id", h.GetExecution)
	}
}

func parseFilter(c *gin.Context) model.ExecutionFilter {
	filter := model.ExecutionFilter{
		Driver:      model.DriverKind(c.Query("driver")),
		SessionName: c.Query("session"),
		Limit:       50,
	}
	filter.OnlyFailed, _ = strconv.ParseBool(c.Query("failed"))
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}

// ListExecutions lists history newest first
// @Summary List executions
// @Tags Executions
// @Produce json
// @Param driver query string false "Filter by driver" Enums(atol, posiflex, shtrih, printserver)
// @Param session query string false "Filter by session name"
// @Param failed query bool false "Only failed batches"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} utils.APIResponse{data=utils.Page{items=[]model.ExecutionRecord}}
// @Failure 500 {object} utils.APIResponse
// @Router /executions [get]
func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	filter := parseFilter(c)
	records, total, err := h.executions.ListExecutions(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list executions", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list executions", err)
		return
	}
	if records == nil {
		records = []*model.ExecutionRecord{}
	}
	utils.PagedResponse(c, "Executions retrieved", records, total, filter.Limit, filter.Offset)
}

// GetStats aggregates history
// @Summary Execution statistics
// @Tags Executions
// @Produce json
// @Param driver query string false "Filter by driver"
// @Param session query string false "Filter by session name"
// @Success 200 {object} utils.APIResponse{data=model.ExecutionStats}
// @Router /executions/stats [get]
func (h *ExecutionHandler) GetStats(c *gin.Context) {
	stats, err := h.executions.Stats(c.Request.Context(), parseFilter(c))
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get statistics", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved", stats)
}

// GetExecution returns one record
// @Summary Get execution
// @Tags Executions
// @Produce json
// @Param id path string true "Execution id"
// @Success 200 {object} utils.APIResponse{data=model.ExecutionRecord}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /executions/{id} [get]
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid execution id", err)
		return
	}
	record, err := h.executions.GetExecution(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponse(c, statusFor(err), "Execution not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Execution retrieved", record)
}
