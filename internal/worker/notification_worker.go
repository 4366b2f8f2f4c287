package worker

import (
	"github.com/spec-kit/ticket-canvas/internal/events"
)

// HandlerRegistrar subscribes its handlers on a dispatcher.
type HandlerRegistrar interface {
	RegisterHandlers(dispatcher events.Dispatcher)
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(dispatcher events.Dispatcher, registrars ...HandlerRegistrar) {
	if dispatcher == nil {
		return
	}
	for _, r := range registrars {
		if r != nil {
			r.RegisterHandlers(dispatcher)
		}
	}
}
