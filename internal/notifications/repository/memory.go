package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	notificationserrors "carpool/internal/notifications/errors"
	"carpool/pkg/model"
)

type eventKey struct {
	eventID string
	userID  int64
}

type memoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[int64]*model.Notification
	order         []int64
	events        map[eventKey]struct{}
	nextID        int64
}

func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{
		notifications: make(map[int64]*model.Notification),
		events:        make(map[eventKey]struct{}),
	}
}

func (r *memoryNotificationRepository) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := eventKey{eventID: n.EventID, userID: n.UserID}
	if n.EventID != "" {
		if _, ok := r.events[key]; ok {
			return fmt.Errorf("%w: %s", notificationserrors.ErrDuplicate, n.EventID)
		}
	}

	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now().UTC()

	stored := *n
	r.notifications[n.ID] = &stored
	r.order = append(r.order, n.ID)
	if n.EventID != "" {
		r.events[key] = struct{}{}
	}
	return nil
}

func (r *memoryNotificationRepository) FindByUser(_ context.Context, userID int64, query model.NotificationQuery) ([]*model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Notification{}
	skipped := int64(0)
	for i := len(r.order) - 1; i >= 0; i-- {
		n := r.notifications[r.order[i]]
		if n.UserID != userID || (query.UnreadOnly && n.Read) {
			continue
		}
		if skipped < query.Offset {
			skipped++
			continue
		}
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryNotificationRepository) MarkRead(_ context.Context, userID, id int64) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("%w: %d", notificationserrors.ErrNotFound, id)
	}
	n.Read = true
	out := *n
	return &out, nil
}

func (r *memoryNotificationRepository) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}
