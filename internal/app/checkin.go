package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
)

// checkInClaimTTL keeps a booking's claim past the end of its check-in day.
const checkInClaimTTL = 48 * time.Hour

// CheckInService finds bookings whose stay starts today and queues one check-in job for each.
type CheckInService struct {
	bookings domain.BookingRepository
	jobs     domain.JobPublisher
	claims   domain.Claims
	now      func() time.Time
}

func NewCheckInService(b domain.BookingRepository, j domain.JobPublisher, c domain.Claims, now func() time.Time) *CheckInService {
	if now == nil {
		now = time.Now
	}
	return &CheckInService{bookings: b, jobs: j, claims: c, now: now}
}

// Sweep returns the number of jobs queued. Bookings already queued today are
// skipped. A failed publish releases the claim so the next sweep retries it.
func (s *CheckInService) Sweep(ctx context.Context) (int, error) {
	today := domain.Day(s.now())
	due, err := s.bookings.ListCheckIns(ctx, today)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, b := range due {
		key := fmt.Sprintf("checkin:%d:%s", b.ID, today.Format(domain.DateLayout))
		ok, err := s.claims.Claim(ctx, key, checkInClaimTTL)
		if err != nil {
			log.Error().Err(err).Int64("booking_id", b.ID).Msg("check-in claim failed")
			continue
		}
		if !ok {
			continue
		}
		job := domain.Job{
			ID:   uuid.NewString(),
			Type: domain.JobBookingCheckIn,
			Data: map[string]any{
				"booking_id": b.ID,
				"user_id":    b.UserID,
				"room_id":    b.RoomID,
				"date_from":  b.DateFrom.Format(domain.DateLayout),
				"date_to":    b.DateTo.Format(domain.DateLayout),
			},
		}
		if err := s.jobs.Publish(ctx, job); err != nil {
			log.Error().Err(err).Int64("booking_id", b.ID).Msg("check-in job publish failed")
			if rerr := s.claims.Release(ctx, key); rerr != nil {
				log.Warn().Err(rerr).Str("key", key).Msg("check-in claim release failed")
			}
			continue
		}
		queued++
	}
	return queued, nil
}
