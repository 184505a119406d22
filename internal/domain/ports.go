package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	CreateHotel(ctx context.Context, in HotelInput) (Hotel, error)
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	UpdateHotel(ctx context.Context, h Hotel) (Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error

	// ListHotels applies the availability window (if any) before text filters and pagination.
	ListHotels(ctx context.Context, q HotelsQuery) ([]Hotel, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, hotelID int64, in RoomInput) (Room, error)
	GetRoom(ctx context.Context, hotelID, roomID int64) (Room, error)
	UpdateRoom(ctx context.Context, r Room) (Room, error)
	DeleteRoom(ctx context.Context, hotelID, roomID int64) error

	// RoomsWithOverlaps returns every room of the hotel with its overlapping booking count for window.
	RoomsWithOverlaps(ctx context.Context, hotelID int64, window DateRange) ([]RoomAvailability, error)
}

type FacilityRepository interface {
	CreateFacility(ctx context.Context, title string) (Facility, error)
	ListFacilities(ctx context.Context) ([]Facility, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
}

type BookingRepository interface {
	// Admit runs decide inside a transaction holding a lock on the room row.
	// decide receives the room and the booked stays the store matched against window
	// (a superset is allowed); a non-nil error aborts without writing.
	Admit(ctx context.Context, roomID int64, window DateRange, decide func(room Room, booked []DateRange) (Booking, error)) (Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]Booking, error)
	ListCheckIns(ctx context.Context, day time.Time) ([]Booking, error)
	DeleteUserBooking(ctx context.Context, userID, bookingID int64) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
}

// Claims hands out one-off markers shared by every worker.
type Claims interface {
	// Claim takes key for ttl and reports false when someone already holds it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Credentials hashes passwords and issues/verifies access tokens.
type Credentials interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) (bool, error)
	IssueToken(userID int64) (token string, expires time.Time, err error)
	VerifyToken(token string) (userID int64, err error)
}

// JobPublisher hands a job to an external worker. Callers never wait for completion.
type JobPublisher interface {
	Publish(ctx context.Context, job Job) error
	Close() error
}

type HotelsQuery struct {
	Limit    int
	Offset   int
	Location *string
	Title    *string
	Window   *DateRange
}
