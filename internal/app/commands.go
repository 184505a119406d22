package app

import (
	"context"
	"fmt"
	"strings"

	"hotel_booking/internal/domain"
)

// CatalogService owns admin writes on hotels, rooms and facilities.
// Listing caches are left to expire on their own.
type CatalogService struct {
	hotels     domain.HotelRepository
	rooms      domain.RoomRepository
	facilities domain.FacilityRepository
}

func NewCatalogService(h domain.HotelRepository, r domain.RoomRepository, f domain.FacilityRepository) *CatalogService {
	return &CatalogService{hotels: h, rooms: r, facilities: f}
}

func (s *CatalogService) CreateHotel(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	if err := validateHotel(in.Title, in.Location); err != nil {
		return domain.Hotel{}, err
	}
	return s.hotels.CreateHotel(ctx, in)
}

func (s *CatalogService) ReplaceHotel(ctx context.Context, id int64, in domain.HotelInput) (domain.Hotel, error) {
	return s.PatchHotel(ctx, id, domain.HotelPatch{Title: domain.Set(in.Title), Location: domain.Set(in.Location)})
}

func (s *CatalogService) PatchHotel(ctx context.Context, id int64, p domain.HotelPatch) (domain.Hotel, error) {
	cur, err := s.hotels.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	next := p.Apply(cur)
	if err := validateHotel(next.Title, next.Location); err != nil {
		return domain.Hotel{}, err
	}
	return s.hotels.UpdateHotel(ctx, next)
}

func (s *CatalogService) DeleteHotel(ctx context.Context, id int64) error {
	return s.hotels.DeleteHotel(ctx, id)
}

func (s *CatalogService) CreateRoom(ctx context.Context, hotelID int64, in domain.RoomInput) (domain.Room, error) {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return domain.Room{}, fmt.Errorf("hotel %d: %w", hotelID, err)
	}
	if err := validateRoom(in.Title, in.Price, in.Quantity); err != nil {
		return domain.Room{}, err
	}
	in.FacilityIDs = dedupe(in.FacilityIDs)
	return s.rooms.CreateRoom(ctx, hotelID, in)
}

func (s *CatalogService) ReplaceRoom(ctx context.Context, hotelID, roomID int64, in domain.RoomInput) (domain.Room, error) {
	return s.PatchRoom(ctx, hotelID, roomID, domain.RoomPatch{
		Title:       domain.Set(in.Title),
		Description: domain.Set(in.Description),
		Price:       domain.Set(in.Price),
		Quantity:    domain.Set(in.Quantity),
		FacilityIDs: domain.Set(in.FacilityIDs),
	})
}

// PatchRoom applies only the set fields. Facility associations are replaced
// only when FacilityIDs is set.
func (s *CatalogService) PatchRoom(ctx context.Context, hotelID, roomID int64, p domain.RoomPatch) (domain.Room, error) {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return domain.Room{}, fmt.Errorf("hotel %d: %w", hotelID, err)
	}
	cur, err := s.rooms.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return domain.Room{}, fmt.Errorf("room %d: %w", roomID, err)
	}
	next := p.Apply(cur)
	if err := validateRoom(next.Title, next.Price, next.Quantity); err != nil {
		return domain.Room{}, err
	}
	next.FacilityIDs = dedupe(next.FacilityIDs)
	return s.rooms.UpdateRoom(ctx, next)
}

func (s *CatalogService) DeleteRoom(ctx context.Context, hotelID, roomID int64) error {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return fmt.Errorf("hotel %d: %w", hotelID, err)
	}
	return s.rooms.DeleteRoom(ctx, hotelID, roomID)
}

func (s *CatalogService) CreateFacility(ctx context.Context, title string) (domain.Facility, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 100 {
		return domain.Facility{}, fmt.Errorf("%w: title must be 1..100 characters", domain.ErrValidation)
	}
	return s.facilities.CreateFacility(ctx, title)
}

func validateHotel(title, location string) error {
	if strings.TrimSpace(title) == "" || len(title) > 100 {
		return fmt.Errorf("%w: title must be 1..100 characters", domain.ErrValidation)
	}
	if strings.TrimSpace(location) == "" {
		return fmt.Errorf("%w: location is required", domain.ErrValidation)
	}
	return nil
}

func validateRoom(title string, price int64, quantity int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must be >= 0", domain.ErrValidation)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", domain.ErrValidation)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
