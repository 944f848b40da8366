package repository

import (
	"context"

	"carpool/pkg/model"
)

const (
	CollectionName = "Messages"
	SequenceName   = "messages"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	// FindByBooking returns the thread oldest first.
	FindByBooking(ctx context.Context, bookingID int64) ([]*model.Message, error)
}
