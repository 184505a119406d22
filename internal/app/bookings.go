package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
)

const admitAttempts = 3

type BookingService struct {
	repo domain.BookingRepository
}

func NewBookingService(r domain.BookingRepository) *BookingService {
	return &BookingService{repo: r}
}

// RequestBooking admits a stay when the room still has a free unit for it.
// The repository holds the room row lock while decide runs, so the count and
// the insert cannot interleave with another admission for the same room.
func (s *BookingService) RequestBooking(ctx context.Context, userID, roomID int64, stay domain.DateRange) (domain.Booking, error) {
	if err := stay.ValidateStay(); err != nil {
		return domain.Booking{}, err
	}

	decide := func(room domain.Room, booked []domain.DateRange) (domain.Booking, error) {
		overlapping, err := domain.CountOverlapping(booked, stay)
		if err != nil {
			return domain.Booking{}, err
		}
		free, err := domain.Available(room.Quantity, overlapping)
		if err != nil {
			log.Warn().Err(err).
				Int64("room_id", room.ID).
				Int("quantity", room.Quantity).
				Int("overlapping", overlapping).
				Msg("room oversold")
		}
		if free <= 0 {
			return domain.Booking{}, domain.ErrNoAvailability
		}
		return domain.Booking{
			UserID:   userID,
			RoomID:   room.ID,
			DateFrom: stay.From,
			DateTo:   stay.To,
			Price:    domain.Price(room.Price, stay),
		}, nil
	}

	var lastErr error
	for i := 0; i < admitAttempts; i++ {
		b, err := s.repo.Admit(ctx, roomID, stay, decide)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, domain.ErrTxConflict) {
			return domain.Booking{}, err
		}
		lastErr = err
		log.Debug().Err(err).Int64("room_id", roomID).Int("attempt", i+1).Msg("admission conflict, retrying")
		if i < admitAttempts-1 && !sleepCtx(ctx, backoff(i)) {
			return domain.Booking{}, ctx.Err()
		}
	}
	return domain.Booking{}, lastErr
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.repo.ListBookings(ctx)
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.repo.ListUserBookings(ctx, userID)
}

// CancelBooking deletes a booking owned by userID.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	return s.repo.DeleteUserBooking(ctx, userID, bookingID)
}
