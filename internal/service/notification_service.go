package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/events"
)

// NotificationService hands escalations and denials to the support desk.
// Handlers only enqueue; delivery happens on the notification worker.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	queue      chan events.Event
}

// NewNotificationService creates the service with a delivery queue of the
// given size.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, queueSize int) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		queue:      make(chan events.Event, queueSize),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.enqueue)
	n.dispatcher.Subscribe(events.EventTicketDenied, n.enqueue)
}

// Deliveries exposes the queue drained by the worker.
func (n *NotificationService) Deliveries() <-chan events.Event {
	return n.queue
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event) error {
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("notification queue full, dropping event",
			zap.String("run_id", event.RunID), zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Deliver sends one queued event to the configured channels.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.EventTicketEscalated:
		n.logger.Info("TicketEscalated", zap.String("run_id", event.RunID),
			zap.String("requester_id", event.RequesterID), zap.Any("payload", event.Payload))
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTicketDenied:
		n.logger.Info("TicketDenied", zap.String("run_id", event.RunID),
			zap.String("requester_id", event.RequesterID), zap.Any("payload", event.Payload))
		n.sendWebhookNotificationStub(ctx, event)
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("run_id", event.RunID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("run_id", event.RunID),
		zap.String("event_type", string(event.Type)))
}
