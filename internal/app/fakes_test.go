package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"hotel_booking/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu         sync.Mutex
	hotels     map[int64]domain.Hotel
	rooms      map[int64]domain.Room
	facilities []domain.Facility
	users      map[int64]domain.User
	bookings   []domain.Booking
	nextID     int64

	listCalls     int
	conflictsLeft int // Admit fails with ErrTxConflict this many times
}

func newStore() *fakeStore {
	return &fakeStore{
		hotels: map[int64]domain.Hotel{},
		rooms:  map[int64]domain.Room{},
		users:  map[int64]domain.User{},
	}
}

func (s *fakeStore) id() int64 { s.nextID++; return s.nextID }

func (s *fakeStore) CreateHotel(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := domain.Hotel{ID: s.id(), Title: in.Title, Location: in.Location}
	s.hotels[h.ID] = h
	return h, nil
}

func (s *fakeStore) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *fakeStore) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.ID] = h
	return h, nil
}

func (s *fakeStore) DeleteHotel(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.hotels, id)
	return nil
}

func (s *fakeStore) booked(roomID int64) []domain.DateRange {
	var ranges []domain.DateRange
	for _, b := range s.bookings {
		if b.RoomID == roomID {
			ranges = append(ranges, b.Range())
		}
	}
	return ranges
}

func (s *fakeStore) overlapping(roomID int64, w domain.DateRange) int {
	n, _ := domain.CountOverlapping(s.booked(roomID), w)
	return n
}

func (s *fakeStore) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []domain.Hotel
	for id := int64(1); id <= s.nextID; id++ {
		h, ok := s.hotels[id]
		if !ok {
			continue
		}
		if q.Window != nil {
			var ras []domain.RoomAvailability
			for _, r := range s.rooms {
				if r.HotelID == h.ID {
					ras = append(ras, domain.RoomAvailability{Room: r, Overlapping: s.overlapping(r.ID, *q.Window)})
				}
			}
			if !domain.HotelHasAvailability(ras) {
				continue
			}
		}
		if q.Location != nil && !strings.Contains(strings.ToLower(h.Location), strings.ToLower(*q.Location)) {
			continue
		}
		if q.Title != nil && !strings.Contains(strings.ToLower(h.Title), strings.ToLower(*q.Title)) {
			continue
		}
		out = append(out, h)
	}
	if q.Offset >= len(out) {
		return []domain.Hotel{}, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *fakeStore) CreateRoom(ctx context.Context, hotelID int64, in domain.RoomInput) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := domain.Room{ID: s.id(), HotelID: hotelID, Title: in.Title, Description: in.Description,
		Price: in.Price, Quantity: in.Quantity, FacilityIDs: in.FacilityIDs}
	s.rooms[r.ID] = r
	return r, nil
}

func (s *fakeStore) GetRoom(ctx context.Context, hotelID, roomID int64) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok || r.HotelID != hotelID {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) UpdateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
	return r, nil
}

func (s *fakeStore) DeleteRoom(ctx context.Context, hotelID, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok || r.HotelID != hotelID {
		return domain.ErrNotFound
	}
	delete(s.rooms, roomID)
	return nil
}

func (s *fakeStore) RoomsWithOverlaps(ctx context.Context, hotelID int64, w domain.DateRange) ([]domain.RoomAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RoomAvailability
	for id := int64(1); id <= s.nextID; id++ {
		r, ok := s.rooms[id]
		if !ok || r.HotelID != hotelID {
			continue
		}
		out = append(out, domain.RoomAvailability{Room: r, Overlapping: s.overlapping(r.ID, w)})
	}
	return out, nil
}

func (s *fakeStore) CreateFacility(ctx context.Context, title string) (domain.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := domain.Facility{ID: s.id(), Title: title}
	s.facilities = append(s.facilities, f)
	return f, nil
}

func (s *fakeStore) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]domain.Facility(nil), s.facilities...), nil
}

func (s *fakeStore) CreateUser(ctx context.Context, email, hash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return domain.User{}, domain.ErrConflict
		}
	}
	u := domain.User{ID: s.id(), Email: email, HashedPassword: hash}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *fakeStore) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// Admit holds the store mutex for the whole decision, like the row lock in MySQL.
func (s *fakeStore) Admit(ctx context.Context, roomID int64, w domain.DateRange, decide func(domain.Room, []domain.DateRange) (domain.Booking, error)) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return domain.Booking{}, fmt.Errorf("insert booking: %w", domain.ErrTxConflict)
	}
	r, ok := s.rooms[roomID]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	// every stay of the room; the service does the overlap filtering
	b, err := decide(r, s.booked(roomID))
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = s.id()
	s.bookings = append(s.bookings, b)
	return b, nil
}

func (s *fakeStore) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Booking(nil), s.bookings...), nil
}

func (s *fakeStore) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCheckIns(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.DateFrom.Equal(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteUserBooking(ctx context.Context, userID, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bookings {
		if b.ID == bookingID && b.UserID == userID {
			s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeCache stores JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	ttls  map[string]int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
		c.ttls = map[string]int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.ttls[key] = ttlSec
	return nil
}

type fakeClaims struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (c *fakeClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = map[string]bool{}
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *fakeClaims) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, key)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []domain.Job
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, job domain.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fakeCreds "hashes" by prefixing and issues tokens of the form tok-<id>.
type fakeCreds struct{}

func (fakeCreds) HashPassword(pw string) (string, error) { return "hashed:" + pw, nil }
func (fakeCreds) VerifyPassword(pw, hash string) (bool, error) {
	return hash == "hashed:"+pw, nil
}
func (fakeCreds) IssueToken(userID int64) (string, time.Time, error) {
	return fmt.Sprintf("tok-%d", userID), time.Now().Add(time.Hour), nil
}
func (fakeCreds) VerifyToken(token string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "tok-%d", &id); err != nil {
		return 0, err
	}
	return id, nil
}

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(from, to string) domain.DateRange {
	return domain.NewDateRange(day(from), day(to))
}
