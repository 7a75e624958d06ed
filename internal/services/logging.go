package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceLogger{
		logger: logger.With("service", service),
	}
}

// Logger returns the underlying slog.Logger
func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// ===== OPERATION LOGGING =====

// LogOperation logs the outcome of an operation at a level matching the error class
func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, userID, resourceID uint, resourceType string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err) || IsBusinessRule(err) || IsConflict(err):
			level = slog.LevelWarn
			status = "rejected"
		case IsUnauthorized(err) || IsForbidden(err):
			level = slog.LevelWarn
			status = "denied"
		case IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if ve, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(ve)))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// ===== AUDIT LOGGING =====

type AuditEventType string

const (
	AuditEventCreate AuditEventType = "create"
	AuditEventUpdate AuditEventType = "update"
	AuditEventDelete AuditEventType = "delete"
)

type AuditEvent struct {
	Type         AuditEventType         `json:"type"`
	ActorID      uint                   `json:"actor_id"`
	ResourceID   uint                   `json:"resource_id"`
	ResourceType string                 `json:"resource_type"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// LogAudit records an admin mutation
func (l *ServiceLogger) LogAudit(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_event", string(event.Type)),
		slog.Uint64("actor_id", uint64(event.ActorID)),
		slog.Uint64("resource_id", uint64(event.ResourceID)),
		slog.String("resource_type", event.ResourceType),
	}
	for key, value := range event.Metadata {
		attrs = append(attrs, slog.Any("meta_"+key, value))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("Audit: %s %s", event.Type, event.ResourceType), attrs...)
}

// ===== SECURITY LOGGING =====

type SecurityEventType string

const (
	SecurityEventLoginFailed   SecurityEventType = "login_failed"
	SecurityEventInactiveLogin SecurityEventType = "inactive_login"
	SecurityEventInvalidToken  SecurityEventType = "invalid_token"
	SecurityEventRevokedToken  SecurityEventType = "revoked_token"
)

// LogSecurity records an authentication failure without any secret material
func (l *ServiceLogger) LogSecurity(ctx context.Context, eventType SecurityEventType, description string, args ...any) {
	allArgs := append([]any{"security_event", string(eventType)}, args...)
	l.logger.WarnContext(ctx, "Security: "+description, allArgs...)
}

// ===== OPERATION TRACKING =====

// ContextualLogger times one operation and logs its result
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    uint
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, userID uint) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID uint, resourceType string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.userID, resourceID, resourceType, time.Since(cl.startTime), err)
}
