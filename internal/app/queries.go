package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"hotel_booking/internal/domain"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100

	// loadTimeout bounds a shared cache-miss load, which no longer follows any single request.
	loadTimeout = 10 * time.Second
)

// HotelsFilter is the raw listing request. DateFrom/DateTo are applied only together.
type HotelsFilter struct {
	Limit    *int
	Offset   *int
	Location *string
	Title    *string
	DateFrom *time.Time
	DateTo   *time.Time
}

// QueryService serves read paths. Listings go through a read-through cache that
// is never invalidated on writes: a booking admitted within the TTL may leave a
// cached listing showing a hotel as available until the entry expires.
type QueryService struct {
	hotels     domain.HotelRepository
	rooms      domain.RoomRepository
	facilities domain.FacilityRepository
	cache      domain.Cache
	cacheTTL   time.Duration
	group      singleflight.Group
}

func NewQueryService(h domain.HotelRepository, r domain.RoomRepository, f domain.FacilityRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{hotels: h, rooms: r, facilities: f, cache: c, cacheTTL: ttl}
}

// Normalize validates the filter and turns it into a repository query.
func (f HotelsFilter) Normalize() (domain.HotelsQuery, error) {
	q := domain.HotelsQuery{Limit: DefaultLimit, Location: f.Location, Title: f.Title}
	if f.Limit != nil {
		if *f.Limit <= 0 || *f.Limit > MaxLimit {
			return q, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, MaxLimit)
		}
		q.Limit = *f.Limit
	}
	if f.Offset != nil {
		if *f.Offset < 0 {
			return q, fmt.Errorf("%w: offset must be >= 0", domain.ErrValidation)
		}
		q.Offset = *f.Offset
	}
	switch {
	case f.DateFrom != nil && f.DateTo != nil:
		w := domain.NewDateRange(*f.DateFrom, *f.DateTo)
		if err := w.ValidateStay(); err != nil {
			return q, err
		}
		q.Window = &w
	case f.DateFrom != nil || f.DateTo != nil:
		return q, fmt.Errorf("%w: date_from and date_to must be given together", domain.ErrValidation)
	}
	return q, nil
}

func hotelsKey(q domain.HotelsQuery) string {
	norm := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(*p))
	}
	window := ""
	if q.Window != nil {
		window = q.Window.String()
	}
	return fmt.Sprintf("hotels:%d:%d:%s:%s:%s", q.Limit, q.Offset, norm(q.Location), norm(q.Title), window)
}

func (s *QueryService) ListHotels(ctx context.Context, f HotelsFilter) ([]domain.Hotel, error) {
	q, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, s.cache, &s.group, hotelsKey(q), s.cacheTTL, func(ctx context.Context) ([]domain.Hotel, error) {
		return s.hotels.ListHotels(ctx, q)
	})
}

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return s.hotels.GetHotel(ctx, id)
}

func (s *QueryService) GetRoom(ctx context.Context, hotelID, roomID int64) (domain.Room, error) {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return domain.Room{}, fmt.Errorf("hotel %d: %w", hotelID, err)
	}
	return s.rooms.GetRoom(ctx, hotelID, roomID)
}

// ListAvailableRooms returns the hotel's rooms with at least one free unit in window.
func (s *QueryService) ListAvailableRooms(ctx context.Context, hotelID int64, window domain.DateRange) ([]domain.Room, error) {
	if err := window.ValidateStay(); err != nil {
		return nil, err
	}
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return nil, fmt.Errorf("hotel %d: %w", hotelID, err)
	}
	withOverlaps, err := s.rooms.RoomsWithOverlaps(ctx, hotelID, window)
	if err != nil {
		return nil, err
	}
	return domain.FilterAvailable(withOverlaps, func(ra domain.RoomAvailability) {
		log.Warn().
			Err(domain.ErrDataIntegrityFault).
			Int64("room_id", ra.Room.ID).
			Int("quantity", ra.Room.Quantity).
			Int("overlapping", ra.Overlapping).
			Str("window", window.String()).
			Msg("room oversold")
	}), nil
}

func (s *QueryService) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	return readThrough(ctx, s.cache, &s.group, "facilities", s.cacheTTL, s.facilities.ListFacilities)
}

// readThrough serves key from cache, or loads it once per concurrent miss and stores it with ttl.
// Cache failures degrade to a direct load. A ttl under one second disables caching.
// The shared load runs detached from every caller, so one caller giving up
// only ends its own wait.
func readThrough[T any](ctx context.Context, c domain.Cache, g *singleflight.Group, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	ttlSec := int(ttl.Seconds())
	if ttlSec <= 0 {
		c = nil
	}
	if c != nil {
		var out T
		if ok, _ := c.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	ch := g.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		fresh, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if c != nil {
			if err := c.Set(lctx, key, fresh, ttlSec); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache set failed")
			}
		}
		return fresh, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
