package events

import (
	"context"
	"errors"
	"fmt"
)

// Dispatcher delivers events synchronously to in-process handlers.
type Dispatcher struct {
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// Publish runs every handler and joins their failures.
func (d *Dispatcher) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, h := range d.handlers {
		if err := h.HandleEvent(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("handle %s: %w", e.Kind, err))
		}
	}
	return errors.Join(errs...)
}
