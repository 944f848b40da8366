package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/google/uuid"
)

// Publisher delivers domain events. Publishing happens after the state change
// is stored; a failed publish never undoes it.
type Publisher interface {
	Publish(ctx context.Context, event *model.Event) error
}

type Handler interface {
	HandleEvent(ctx context.Context, event *model.Event) error
}

type HandlerFunc func(ctx context.Context, event *model.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *model.Event) error {
	return f(ctx, event)
}

func New(eventType model.EventType, actorID int64) *model.Event {
	return &model.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
	}
}

// Dispatcher publishes in-process by calling every subscribed handler in
// order. It is used when no broker is configured.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Publish(ctx context.Context, event *model.Event) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers...)
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes event and logs instead of returning a failure, for callers
// whose own operation has already succeeded.
func Emit(ctx context.Context, pub Publisher, log *logger.Logger, event *model.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.WithContext(ctx).Error("Failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
	}
}

type nopPublisher struct{}

func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, *model.Event) error {
	return nil
}
