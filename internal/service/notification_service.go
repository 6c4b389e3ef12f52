package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/naturebeauty/storefront-api/internal/events"
)

// NotificationService records auth events for audit.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(n.handleAccountEvent,
		events.EventAccountRegistered,
		events.EventAccountSignedIn,
		events.EventPasswordResetRequested)
	n.dispatcher.Subscribe(n.handleResetRolledBack, events.EventPasswordResetRolledBack)
	n.dispatcher.Subscribe(n.handlePasswordChanged, events.EventPasswordChanged)
	n.dispatcher.Subscribe(n.handleExternalLogin, events.EventExternalLogin)
}

func (n *NotificationService) handleAccountEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("account_id", event.AccountID), zap.String("event_id", event.ID))
	return nil
}

func (n *NotificationService) handleResetRolledBack(_ context.Context, event events.Event) error {
	n.logger.Warn(string(event.Type), zap.String("account_id", event.AccountID), zap.String("event_id", event.ID))
	return nil
}

func (n *NotificationService) handlePasswordChanged(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("account_id", event.AccountID), zap.String("event_id", event.ID)}
	if p, ok := event.Payload.(events.PasswordChangedPayload); ok {
		fields = append(fields, zap.String("reason", p.Reason))
	}
	n.logger.Info(string(event.Type), fields...)
	return nil
}

func (n *NotificationService) handleExternalLogin(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("account_id", event.AccountID), zap.String("event_id", event.ID)}
	if p, ok := event.Payload.(events.ExternalLoginPayload); ok {
		fields = append(fields,
			zap.String("provider", p.Provider),
			zap.Bool("created", p.Created),
			zap.String("lookup_by", p.LookupBy))
	}
	n.logger.Info(string(event.Type), fields...)
	return nil
}
