package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingserrors "carpool/internal/bookings/errors"
)

func TestLocalTripLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalTripLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, 1)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most one holder at a time, saw %d", maxInside)
	}
	if size := locker.(*localTripLocker).size(); size != 0 {
		t.Errorf("expected lock table to be empty, has %d entries", size)
	}
}

func TestLocalTripLocker_IndependentTrips(t *testing.T) {
	locker := NewLocalTripLocker()
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2, err := locker.Lock(ctx, 2)
		if err == nil {
			unlock2()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on trip 2 blocked behind trip 1")
	}
}

func TestLocalTripLocker_ContextCancelled(t *testing.T) {
	locker := NewLocalTripLocker()

	unlock, _ := locker.Lock(context.Background(), 7)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := locker.Lock(ctx, 7)
	if !errors.Is(err, bookingserrors.ErrTripLockTimeout) {
		t.Fatalf("expected ErrTripLockTimeout, got %v", err)
	}

	unlock()
	unlock()
	if size := locker.(*localTripLocker).size(); size != 0 {
		t.Errorf("expected lock table to be empty, has %d entries", size)
	}
}
