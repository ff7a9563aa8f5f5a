package worker

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-copilot/internal/service"
)

// StartNotificationWorker registers notification handlers and drains the
// delivery queue until ctx is done. Wait on the returned group for shutdown.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) *sync.WaitGroup {
	var wg sync.WaitGroup
	if notificationService == nil {
		return &wg
	}
	notificationService.RegisterHandlers()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-notificationService.Deliveries():
				notificationService.Deliver(ctx, event)
			}
		}
	}()
	return &wg
}
