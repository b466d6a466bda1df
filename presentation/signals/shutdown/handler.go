package shutdown

import (
	"context"
	"os"
	"sync"

	"multitun/application/logging"
	palSignal "multitun/infrastructure/PAL/signal"
	"multitun/presentation/signals"
)

// Handler turns the platform's shutdown signals into context cancellation.
type Handler struct {
	signalProvider palSignal.Provider
	notifier       signals.Notifier
	logger         logging.Logger
	once           sync.Once
}

func NewHandler(
	signalProvider palSignal.Provider,
	notifier signals.Notifier,
	logger logging.Logger,
) *Handler {
	return &Handler{
		signalProvider: signalProvider,
		notifier:       notifier,
		logger:         logger,
	}
}

// Watch derives a context that is cancelled on the first shutdown signal.
// Only the first call subscribes; later calls return a plain child of parent.
func (h *Handler) Watch(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	h.once.Do(func() {
		// os/signal sends without blocking, so the channel needs room for one signal.
		signalChan := make(chan os.Signal, 1)
		h.notifier.Notify(signalChan, h.signalProvider.ShutdownSignals()...)
		go func() {
			defer h.notifier.Stop(signalChan)
			select {
			case sig := <-signalChan:
				h.logger.Printf("%s received, shutting down", sig)
				cancel()
			case <-ctx.Done():
			}
		}()
	})
	return ctx, cancel
}
