package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/events"
	"github.com/spec-kit/ticket-copilot/internal/service"
)

func TestNotificationWorkerDeliversQueuedEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	svc := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	wg := StartNotificationWorker(ctx, svc)

	err := dispatcher.Publish(ctx, events.Event{
		ID:          "evt-1",
		Type:        events.EventTicketEscalated,
		RunID:       "run-1",
		RequesterID: "E004",
		Timestamp:   time.Now(),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("TicketEscalated").Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestNotificationWorkerIgnoresProcessedEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	svc := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartNotificationWorker(ctx, svc)

	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketProcessed, RunID: "run-2"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketDenied, RunID: "run-3"}))

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("TicketDenied").Len() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, logs.FilterMessage("TicketProcessed").Len())
}

func TestStartNotificationWorkerWithoutService(t *testing.T) {
	wg := StartNotificationWorker(context.Background(), nil)
	wg.Wait()
}
