package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/infonest-auth/internal/events"
)

// AuthEventRecorder counts auth events, typically into metrics.
type AuthEventRecorder interface {
	RecordAuthEvent(event, reason string)
}

// AuditService records authentication events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   AuthEventRecorder
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder AuthEventRecorder) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{dispatcher: dispatcher, logger: logger, recorder: recorder}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleEvent)
	a.dispatcher.Subscribe(events.EventRegistrationFailed, a.handleEvent)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleEvent)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleEvent)
}

func (a *AuditService) handleEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Type)),
		zap.String("subject", event.Subject),
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", string(event.Role)))
	}
	if event.RemoteAddr != "" {
		fields = append(fields, zap.String("remote_addr", event.RemoteAddr))
	}

	if event.Reason != "" {
		a.logger.Warn("auth audit", append(fields, zap.String("reason", event.Reason))...)
	} else {
		a.logger.Info("auth audit", fields...)
	}

	if a.recorder != nil {
		a.recorder.RecordAuthEvent(string(event.Type), event.Reason)
	}
	return nil
}
