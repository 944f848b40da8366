package service

import (
	"context"
	"testing"

	"carpool/internal/events"
	"carpool/internal/notifications/repository"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
)

func newService() NotificationService {
	return NewNotificationService(repository.NewMemoryNotificationRepository(), logger.Discard())
}

func confirmedEvent(recipient int64) *model.Event {
	e := events.New(model.EventBookingConfirmed, 1)
	e.RecipientID = recipient
	e.TripID = 3
	e.BookingID = 4
	e.Seats = 2
	return e
}

func TestHandleEvent_CreatesNotification(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if err := svc.HandleEvent(ctx, confirmedEvent(7)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	list, err := svc.List(ctx, 7, model.NotificationQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d notifications, want 1", len(list))
	}
	n := list[0]
	if n.Title != "Booking confirmed" || n.BookingID != 4 || n.Read {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestHandleEvent_Idempotent(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	e := confirmedEvent(7)
	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(ctx, e); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	list, _ := svc.List(ctx, 7, model.NotificationQuery{})
	if len(list) != 1 {
		t.Errorf("redelivery created %d notifications, want 1", len(list))
	}
}

func TestHandleEvent_Ignored(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	trip := events.New(model.EventTripCreated, 1)
	trip.RecipientID = 7
	noRecipient := events.New(model.EventBookingConfirmed, 1)

	for _, e := range []*model.Event{trip, noRecipient, nil} {
		if err := svc.HandleEvent(ctx, e); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}

	list, _ := svc.List(ctx, 7, model.NotificationQuery{})
	if len(list) != 0 {
		t.Errorf("got %d notifications, want 0", len(list))
	}
}

func TestMarkRead(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_ = svc.HandleEvent(ctx, confirmedEvent(7))
	_ = svc.HandleEvent(ctx, confirmedEvent(7))
	_ = svc.HandleEvent(ctx, confirmedEvent(8))

	list, _ := svc.List(ctx, 7, model.NotificationQuery{})
	if len(list) != 2 || list[0].ID < list[1].ID {
		t.Fatalf("expected two notifications newest first, got %+v", list)
	}

	if _, err := svc.MarkRead(ctx, 8, list[0].ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("marking someone else's notification: err = %v, want NOT_FOUND", err)
	}

	read, err := svc.MarkRead(ctx, 7, list[0].ID)
	if err != nil || !read.Read {
		t.Fatalf("MarkRead = %+v, %v", read, err)
	}

	unread, _ := svc.List(ctx, 7, model.NotificationQuery{UnreadOnly: true})
	if len(unread) != 1 || unread[0].ID != list[1].ID {
		t.Errorf("unread = %+v", unread)
	}

	updated, err := svc.MarkAllRead(ctx, 7)
	if err != nil || updated != 1 {
		t.Errorf("MarkAllRead = %d, %v; want 1", updated, err)
	}
	if unread, _ := svc.List(ctx, 7, model.NotificationQuery{UnreadOnly: true}); len(unread) != 0 {
		t.Errorf("still %d unread", len(unread))
	}
	if unread, _ := svc.List(ctx, 8, model.NotificationQuery{UnreadOnly: true}); len(unread) != 1 {
		t.Error("other users' notifications must stay unread")
	}
}

func TestHandleEvent_ThroughDispatcher(t *testing.T) {
	svc := newService()
	dispatcher := events.NewDispatcher(svc)

	if err := dispatcher.Publish(context.Background(), confirmedEvent(5)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if list, _ := svc.List(context.Background(), 5, model.NotificationQuery{}); len(list) != 1 {
		t.Errorf("got %d notifications via dispatcher, want 1", len(list))
	}
}
