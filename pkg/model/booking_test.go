package model

import (
	"testing"
	"time"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingCancelled, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingConfirmed, false},
		{BookingConfirmed, BookingRejected, false},
		{BookingConfirmed, BookingPending, false},
		{BookingRejected, BookingCancelled, false},
		{BookingRejected, BookingConfirmed, false},
		{BookingCancelled, BookingCancelled, false},
		{BookingCancelled, BookingConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookingStatus_Valid(t *testing.T) {
	if BookingStatus("archived").Valid() {
		t.Error("unknown status reported as valid")
	}
	if !BookingRejected.Valid() {
		t.Error("rejected should be valid")
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("session should still be valid")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Error("session should expire exactly at ExpiresAt")
	}
}
