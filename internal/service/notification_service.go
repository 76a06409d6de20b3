package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/assistencia-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       events.Sink
}

// NewNotificationService creates the service. A nil sink only logs.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink events.Sink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventItemAdded, n.handleItemAdded)
	n.dispatcher.Subscribe(events.EventItemTransitioned, n.handleItemTransitioned)
	n.dispatcher.Subscribe(events.EventReconciliationDue, n.handleReconciliationDue)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleItemAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("ItemAdded", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleItemTransitioned(ctx context.Context, event events.Event) error {
	n.logger.Info("ItemTransitioned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleReconciliationDue(ctx context.Context, event events.Event) error {
	n.logger.Warn("StockReconciliationDue", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.sink == nil {
		return nil
	}
	if err := n.sink.Send(ctx, event); err != nil {
		n.logger.Warn("event not forwarded",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
