package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func TestRequestBooking_AdmitThenReject(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 1)
	svc := app.NewBookingService(store)

	b, err := svc.RequestBooking(context.Background(), 7, room.ID, stay("2024-09-08", "2024-09-20"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.Price != 4500*12 || b.UserID != 7 || b.RoomID != room.ID {
		t.Fatalf("unexpected booking: %+v", b)
	}

	_, err = svc.RequestBooking(context.Background(), 8, room.ID, stay("2024-09-15", "2024-09-18"))
	if !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("want ErrNoAvailability, got %v", err)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("rejected booking persisted: %+v", store.bookings)
	}
}

func TestRequestBooking_BackToBackConflicts(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 1)
	svc := app.NewBookingService(store)

	if _, err := svc.RequestBooking(context.Background(), 1, room.ID, stay("2024-08-10", "2024-08-20")); err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err := svc.RequestBooking(context.Background(), 2, room.ID, stay("2024-08-20", "2024-08-25"))
	if !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("checkout day is shared, want ErrNoAvailability, got %v", err)
	}
}

func TestRequestBooking_Preconditions(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 1)
	svc := app.NewBookingService(store)

	if _, err := svc.RequestBooking(context.Background(), 1, room.ID, stay("2024-09-10", "2024-09-10")); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("want ErrInvalidRange, got %v", err)
	}
	if _, err := svc.RequestBooking(context.Background(), 1, 999, stay("2024-09-10", "2024-09-11")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRequestBooking_ZeroQuantity(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Closed", "Sochi", 0)
	svc := app.NewBookingService(store)

	if _, err := svc.RequestBooking(context.Background(), 1, room.ID, stay("2024-09-10", "2024-09-11")); !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("want ErrNoAvailability, got %v", err)
	}
}

func TestRequestBooking_RetriesTxConflict(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 1)
	store.conflictsLeft = 2
	svc := app.NewBookingService(store)

	if _, err := svc.RequestBooking(context.Background(), 1, room.ID, stay("2024-09-10", "2024-09-11")); err != nil {
		t.Fatalf("third attempt should succeed, got %v", err)
	}

	store.conflictsLeft = 3
	_, err := svc.RequestBooking(context.Background(), 1, room.ID, stay("2024-10-10", "2024-10-11"))
	if !errors.Is(err, domain.ErrTxConflict) {
		t.Fatalf("want ErrTxConflict after exhausting retries, got %v", err)
	}
}

func TestRequestBooking_ConcurrentNeverOversells(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 3)
	svc := app.NewBookingService(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := svc.RequestBooking(context.Background(), user, room.ID, stay("2024-09-10", "2024-09-12"))
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(int64(i))
	}
	wg.Wait()
	if admitted != 3 {
		t.Fatalf("admitted %d, want 3", admitted)
	}
}

func TestCancelBooking_OwnerOnly(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 1)
	svc := app.NewBookingService(store)
	b, _ := svc.RequestBooking(context.Background(), 1, room.ID, stay("2024-09-10", "2024-09-11"))

	if err := svc.CancelBooking(context.Background(), 2, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger cancelled: %v", err)
	}
	if err := svc.CancelBooking(context.Background(), 1, b.ID); err != nil {
		t.Fatalf("err: %v", err)
	}
	mine, _ := svc.ListUserBookings(context.Background(), 1)
	if len(mine) != 0 {
		t.Fatalf("booking still present: %+v", mine)
	}
}

// The store hands over every stay of the room; only those overlapping the request count.
func TestRequestBooking_CountsOnlyOverlappingStays(t *testing.T) {
	store := newStore()
	_, room := seedHotel(t, store, "Sea View", "Sochi", 1)
	svc := app.NewBookingService(store)
	ctx := context.Background()

	for _, s := range []domain.DateRange{stay("2024-08-01", "2024-08-05"), stay("2024-08-20", "2024-08-25")} {
		if _, err := svc.RequestBooking(ctx, 1, room.ID, s); err != nil {
			t.Fatalf("seed %s: %v", s, err)
		}
	}
	if _, err := svc.RequestBooking(ctx, 2, room.ID, stay("2024-08-06", "2024-08-19")); err != nil {
		t.Fatalf("gap between stays should be free, got %v", err)
	}
	if _, err := svc.RequestBooking(ctx, 3, room.ID, stay("2024-08-25", "2024-08-27")); !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("shared checkout day, want ErrNoAvailability, got %v", err)
	}
}
