package service

import (
	"context"

	bookingservice "carpool/internal/bookings/service"
	"carpool/internal/events"
	"carpool/internal/messages/repository"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
	"carpool/pkg/sanitizer"
	"carpool/pkg/validation"
)

const summaryLength = 80

// ParticipantResolver finds who may talk on a booking thread.
type ParticipantResolver interface {
	Participants(ctx context.Context, bookingID int64) (*bookingservice.Participants, error)
}

type MessageService interface {
	Post(ctx context.Context, bookingID, senderID int64, input *model.MessageInput) (*model.Message, error)
	List(ctx context.Context, bookingID, callerID int64) ([]*model.Message, error)
}

type messageService struct {
	repo      repository.MessageRepository
	bookings  ParticipantResolver
	validate  *validation.Validator
	publisher events.Publisher
	log       *logger.Logger
}

func NewMessageService(
	repo repository.MessageRepository,
	bookings ParticipantResolver,
	publisher events.Publisher,
	log *logger.Logger,
) MessageService {
	return &messageService{
		repo:      repo,
		bookings:  bookings,
		validate:  validation.New(),
		publisher: publisher,
		log:       log,
	}
}

func (s *messageService) Post(ctx context.Context, bookingID, senderID int64, input *model.MessageInput) (*model.Message, error) {
	p, err := s.bookings.Participants(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !p.Includes(senderID) {
		return nil, apperrors.Forbidden("Only the passenger or the driver can message on this booking")
	}
	if p.Booking.Status == model.BookingRejected {
		return nil, apperrors.New(apperrors.CodeInvalidTransition, "cannot message on a rejected booking").
			WithDetails(map[string]any{"status": string(p.Booking.Status)})
	}

	input.Body = sanitizer.NormalizeText(input.Body)
	if err := s.validate.Struct(input); err != nil {
		s.log.WithContext(ctx).Warn("Message validation failed",
			"booking_id", bookingID,
			"sender_id", senderID,
			"error", err,
		)
		return nil, validation.ToAppError("Message validation failed", err)
	}

	message := &model.Message{
		BookingID: bookingID,
		SenderID:  senderID,
		Body:      input.Body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		s.log.WithContext(ctx).Error("Failed to store message",
			"booking_id", bookingID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to post message", err)
	}

	event := events.New(model.EventMessagePosted, senderID)
	event.RecipientID = p.Other(senderID)
	event.TripID = p.Booking.TripID
	event.BookingID = bookingID
	event.Summary = summarize(message.Body)
	events.Emit(ctx, s.publisher, s.log, event)

	return message, nil
}

func (s *messageService) List(ctx context.Context, bookingID, callerID int64) ([]*model.Message, error) {
	p, err := s.bookings.Participants(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !p.Includes(callerID) {
		return nil, apperrors.Forbidden("Only the passenger or the driver can read this thread")
	}

	messages, err := s.repo.FindByBooking(ctx, bookingID)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list messages",
			"booking_id", bookingID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list messages", err)
	}
	return messages, nil
}

func summarize(body string) string {
	runes := []rune(body)
	if len(runes) <= summaryLength {
		return body
	}
	return string(runes[:summaryLength]) + "..."
}
