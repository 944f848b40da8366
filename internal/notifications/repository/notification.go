package repository

import (
	"context"

	"carpool/pkg/model"
)

const (
	CollectionName = "Notifications"
	SequenceName   = "notifications"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// FindByUser returns newest first.
	FindByUser(ctx context.Context, userID int64, query model.NotificationQuery) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}
