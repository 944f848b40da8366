package repository

import (
	"context"
	"sync"
	"time"

	"carpool/pkg/model"
)

type memoryMessageRepository struct {
	mu        sync.RWMutex
	byBooking map[int64][]*model.Message
	nextID    int64
}

func NewMemoryMessageRepository() MessageRepository {
	return &memoryMessageRepository{
		byBooking: make(map[int64][]*model.Message),
	}
}

func (r *memoryMessageRepository) Create(_ context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	message.ID = r.nextID
	message.CreatedAt = time.Now().UTC()

	stored := *message
	r.byBooking[message.BookingID] = append(r.byBooking[message.BookingID], &stored)
	return nil
}

func (r *memoryMessageRepository) FindByBooking(_ context.Context, bookingID int64) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thread := r.byBooking[bookingID]
	out := make([]*model.Message, 0, len(thread))
	for _, m := range thread {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}
