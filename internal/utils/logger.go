// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/model"
)

// NewLogger builds the root logger from the logging section. Output is
// stdout, stderr or a file path rotated by lumberjack; format is json or
// console.
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
		level = parsed
	}

	sink, err := logSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	core := zapcore.NewCore(logEncoder(cfg.Format), sink, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("app", "equipment")),
	), nil
}

func logEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeCaller = zapcore.ShortCallerEncoder

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	ec.EncodeTime = zapcore.RFC3339TimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

func logSink(cfg *config.LoggingConfig) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	path := cfg.Output
	if path == "" {
		path = "./logs/equipment.log"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}), nil
}

// DeviceLogger wraps zap.Logger with backend-specific functionality
type DeviceLogger struct {
	*zap.Logger
	kind    model.DriverKind
	session string
}

// NewDeviceLogger creates a backend-specific logger
func NewDeviceLogger(baseLogger *zap.Logger, kind model.DriverKind, session string) *DeviceLogger {
	logger := baseLogger.With(
		zap.String("driver", string(kind)),
		zap.String("component", "device"),
	)
	if session != "" {
		logger = logger.With(zap.String("session", session))
	}

	return &DeviceLogger{
		Logger:  logger,
		kind:    kind,
		session: session,
	}
}

// LogTask logs a task outcome
func (dl *DeviceLogger) LogTask(taskType model.TaskType, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("task_type", string(taskType)),
		zap.Duration("duration", duration),
		zap.Bool("success", err == nil),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		dl.Warn("Device task failed", fields...)
	} else {
		dl.Debug("Device task completed", fields...)
	}
}

// LogUnsupported logs a task type the backend does not handle
func (dl *DeviceLogger) LogUnsupported(taskType model.TaskType) {
	dl.Warn("Operation is not supported by the driver",
		zap.String("task_type", string(taskType)),
	)
}

// LogConnection logs connection events
func (dl *DeviceLogger) LogConnection(action string, success bool, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.Bool("success", success),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		dl.Error("Device connection event", fields...)
	} else {
		dl.Info("Device connection event", fields...)
	}
}

// OperationLogger provides structured logging for executions
type OperationLogger struct {
	logger      *zap.Logger
	operationID string
	startTime   time.Time
}

// NewOperationLogger creates an operation-specific logger
func NewOperationLogger(baseLogger *zap.Logger, operationType, operationID string) *OperationLogger {
	logger := baseLogger.With(
		zap.String("operation_type", operationType),
		zap.String("operation_id", operationID),
		zap.String("component", "operation"),
	)

	return &OperationLogger{
		logger:      logger,
		operationID: operationID,
		startTime:   time.Now(),
	}
}

func (ol *OperationLogger) Start(fields ...zap.Field) {
	ol.logger.Info("Operation started", append(fields, zap.Time("start_time", ol.startTime))...)
}

// Success logs a batch whose result is SUCCESS.
func (ol *OperationLogger) Success(fields ...zap.Field) {
	ol.logger.Info("Operation completed successfully", ol.outcome(true, fields)...)
}

// Failure logs a completed batch whose result is not SUCCESS. Device
// failures are expected traffic and stay at warn level.
func (ol *OperationLogger) Failure(resultCode, resultInfo string, fields ...zap.Field) {
	fields = append(fields, zap.String("result_code", resultCode), zap.String("result_info", resultInfo))
	ol.logger.Warn("Operation failed", ol.outcome(false, fields)...)
}

// Error logs an operation that could not run at all.
func (ol *OperationLogger) Error(err error, fields ...zap.Field) {
	ol.logger.Error("Operation failed", ol.outcome(false, append(fields, zap.Error(err)))...)
}

func (ol *OperationLogger) outcome(success bool, fields []zap.Field) []zap.Field {
	return append(fields, zap.Duration("duration", ol.Elapsed()), zap.Bool("success", success))
}

// Elapsed returns the time since Start.
func (ol *OperationLogger) Elapsed() time.Duration {
	return time.Since(ol.startTime)
}

// ServiceLogger provides service-level logging functionality
type ServiceLogger struct {
	*zap.Logger
	serviceName string
}

// NewServiceLogger creates a service-specific logger
func NewServiceLogger(baseLogger *zap.Logger, serviceName string) *ServiceLogger {
	logger := baseLogger.With(
		zap.String("service", serviceName),
		zap.String("component", "service"),
	)

	return &ServiceLogger{
		Logger:      logger,
		serviceName: serviceName,
	}
}

// LogServiceStart logs service startup. Secrets must not be passed in
// fields.
func (sl *ServiceLogger) LogServiceStart(version string, fields ...zap.Field) {
	sl.Info("Service starting", append([]zap.Field{zap.String("version", version)}, fields...)...)
}

// LogServiceStop logs service shutdown
func (sl *ServiceLogger) LogServiceStop(reason string) {
	sl.Info("Service stopping",
		zap.String("reason", reason),
	)
}

// LogAPIRequest logs HTTP API requests
func (sl *ServiceLogger) LogAPIRequest(method, path, userAgent, clientIP string, statusCode int, duration time.Duration) {
	level := zapcore.InfoLevel
	if statusCode >= 400 {
		level = zapcore.WarnLevel
	}
	if statusCode >= 500 {
		level = zapcore.ErrorLevel
	}

	if ce := sl.Check(level, "API request"); ce != nil {
		ce.Write(
			zap.String("method", method),
			zap.String("path", path),
			zap.String("user_agent", userAgent),
			zap.String("client_ip", clientIP),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		)
	}
}

// LogDatabaseQuery logs a history query at debug level, or at error level
// when it failed.
func (sl *ServiceLogger) LogDatabaseQuery(query string, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("query", query),
		zap.Duration("duration", duration),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		sl.Error("Database query failed", fields...)
	} else {
		sl.Debug("Database query executed", fields...)
	}
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates an audit-specific logger
func NewAuditLogger(baseLogger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		logger: baseLogger.With(zap.String("component", "audit")),
	}
}

// LogSessionCreated logs creation of a named backend session
func (al *AuditLogger) LogSessionCreated(name string, kind model.DriverKind, clientIP string) {
	al.logger.Info("Session created",
		zap.String("session", name),
		zap.String("driver", string(kind)),
		zap.String("client_ip", clientIP),
		zap.String("action", "create_session"),
	)
}

// LogSessionDisposed logs disposal of a named backend session
func (al *AuditLogger) LogSessionDisposed(name, clientIP string) {
	al.logger.Info("Session disposed",
		zap.String("session", name),
		zap.String("client_ip", clientIP),
		zap.String("action", "dispose_session"),
	)
}

// LogSettingsPacked logs creation of a compressed settings blob
func (al *AuditLogger) LogSettingsPacked(driverID, modelID, clientIP string) {
	al.logger.Info("Device settings packed",
		zap.String("driver_id", driverID),
		zap.String("model_id", modelID),
		zap.String("client_ip", clientIP),
		zap.String("action", "pack_settings"),
	)
}

// SecurityLogger provides security-related logging
type SecurityLogger struct {
	logger *zap.Logger
}

// NewSecurityLogger creates a security-specific logger
func NewSecurityLogger(baseLogger *zap.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: baseLogger.With(zap.String("component", "security")),
	}
}

// LogRateLimitViolation logs rate limit violations
func (sl *SecurityLogger) LogRateLimitViolation(clientIP, endpoint string, limit float64, burst int) {
	sl.logger.Warn("Rate limit violation",
		zap.String("client_ip", clientIP),
		zap.String("endpoint", endpoint),
		zap.Float64("limit", limit),
		zap.Int("burst", burst),
		zap.String("action", "rate_limit_violation"),
	)
}

// LoggerWithRequestID adds request ID to logger
func LoggerWithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}

// CloseLogger flushes buffered entries
func CloseLogger(logger *zap.Logger) error {
	return logger.Sync()
}
