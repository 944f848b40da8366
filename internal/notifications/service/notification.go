package service

import (
	"context"
	"errors"
	"fmt"

	notificationserrors "carpool/internal/notifications/errors"
	"carpool/internal/notifications/repository"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
)

type NotificationService interface {
	// HandleEvent makes it usable as an events.Handler, in process or behind
	// the Kafka consumer.
	HandleEvent(ctx context.Context, event *model.Event) error

	List(ctx context.Context, userID int64, query model.NotificationQuery) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	log  *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log *logger.Logger) NotificationService {
	return &notificationService{
		repo: repo,
		log:  log,
	}
}

type template struct {
	title string
	body  func(e *model.Event) string
}

var templates = map[model.EventType]template{
	model.EventBookingCreated: {
		title: "New booking request",
		body: func(e *model.Event) string {
			return fmt.Sprintf("A passenger asked for %d seat(s) on trip #%d.", e.Seats, e.TripID)
		},
	},
	model.EventBookingConfirmed: {
		title: "Booking confirmed",
		body: func(e *model.Event) string {
			return fmt.Sprintf("Your booking #%d on trip #%d was confirmed.", e.BookingID, e.TripID)
		},
	},
	model.EventBookingRejected: {
		title: "Booking rejected",
		body: func(e *model.Event) string {
			return fmt.Sprintf("Your booking #%d on trip #%d was rejected.", e.BookingID, e.TripID)
		},
	},
	model.EventBookingCancelled: {
		title: "Booking cancelled",
		body: func(e *model.Event) string {
			return fmt.Sprintf("Booking #%d on trip #%d was cancelled by the passenger.", e.BookingID, e.TripID)
		},
	},
	model.EventMessagePosted: {
		title: "New message",
		body: func(e *model.Event) string {
			return e.Summary
		},
	},
}

func (s *notificationService) HandleEvent(ctx context.Context, event *model.Event) error {
	if event == nil || event.RecipientID == 0 {
		return nil
	}
	tmpl, ok := templates[event.Type]
	if !ok {
		return nil
	}

	n := &model.Notification{
		UserID:    event.RecipientID,
		Type:      event.Type,
		Title:     tmpl.title,
		Body:      tmpl.body(event),
		TripID:    event.TripID,
		BookingID: event.BookingID,
		EventID:   event.ID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, notificationserrors.ErrDuplicate) {
			s.log.WithContext(ctx).Debug("Skipping redelivered event",
				"event_id", event.ID,
				"user_id", event.RecipientID,
			)
			return nil
		}
		return fmt.Errorf("store notification for event %s: %w", event.ID, err)
	}

	s.log.WithContext(ctx).Info("Notification created",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"event_type", event.Type,
	)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID int64, query model.NotificationQuery) ([]*model.Notification, error) {
	notifications, err := s.repo.FindByUser(ctx, userID, query)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list notifications",
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list notifications", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id int64) (*model.Notification, error) {
	n, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		if errors.Is(err, notificationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Notification", id)
		}
		s.log.WithContext(ctx).Error("Failed to mark notification read",
			"notification_id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update notification", err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to mark notifications read",
			"user_id", userID,
			"error", err,
		)
		return 0, apperrors.Internal("Failed to update notifications", err)
	}
	return updated, nil
}
