package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const maxBody = 1 << 20

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", domain.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// Date is a calendar date on the wire (YYYY-MM-DD).
type Date struct{ time.Time }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(domain.DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// ---- requests ----

type credentialsIn struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,max=200"`
}

type hotelIn struct {
	Title    string `json:"title" validate:"required,max=100"`
	Location string `json:"location" validate:"required"`
}

type hotelPatchIn struct {
	Title    domain.Optional[string] `json:"title"`
	Location domain.Optional[string] `json:"location"`
}

type roomIn struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Price       int64   `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	FacilityIDs []int64 `json:"facilities_ids" validate:"omitempty,dive,gt=0"`
}

type roomPatchIn struct {
	Title       domain.Optional[string]  `json:"title"`
	Description domain.Optional[*string] `json:"description"`
	Price       domain.Optional[int64]   `json:"price"`
	Quantity    domain.Optional[int]     `json:"quantity"`
	FacilityIDs domain.Optional[[]int64] `json:"facilities_ids"`
}

type bookingIn struct {
	RoomID   int64 `json:"room_id" validate:"required,gt=0"`
	DateFrom *Date `json:"date_from" validate:"required"`
	DateTo   *Date `json:"date_to" validate:"required"`
}

type facilityIn struct {
	Title string `json:"title" validate:"required,max=100"`
}

func (in roomIn) toDomain() domain.RoomInput {
	return domain.RoomInput{Title: in.Title, Description: in.Description, Price: in.Price, Quantity: in.Quantity, FacilityIDs: in.FacilityIDs}
}

func (in roomPatchIn) toDomain() domain.RoomPatch {
	return domain.RoomPatch{Title: in.Title, Description: in.Description, Price: in.Price, Quantity: in.Quantity, FacilityIDs: in.FacilityIDs}
}

// ---- responses ----

type userOut struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type hotelOut struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
}

type roomOut struct {
	ID          int64   `json:"id"`
	HotelID     int64   `json:"hotel_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Price       int64   `json:"price"`
	Quantity    int     `json:"quantity"`
	FacilityIDs []int64 `json:"facilities_ids"`
}

type bookingOut struct {
	ID       int64 `json:"id"`
	UserID   int64 `json:"user_id"`
	RoomID   int64 `json:"room_id"`
	DateFrom Date  `json:"date_from"`
	DateTo   Date  `json:"date_to"`
	Price    int64 `json:"price"`
}

type facilityOut struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func toHotelOut(h domain.Hotel) hotelOut { return hotelOut{ID: h.ID, Title: h.Title, Location: h.Location} }

func toRoomOut(r domain.Room) roomOut {
	ids := r.FacilityIDs
	if ids == nil {
		ids = []int64{}
	}
	return roomOut{ID: r.ID, HotelID: r.HotelID, Title: r.Title, Description: r.Description, Price: r.Price, Quantity: r.Quantity, FacilityIDs: ids}
}

func toBookingOut(b domain.Booking) bookingOut {
	return bookingOut{ID: b.ID, UserID: b.UserID, RoomID: b.RoomID, DateFrom: Date{b.DateFrom}, DateTo: Date{b.DateTo}, Price: b.Price}
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// ---- query parsing ----

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (*int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return &n, nil
}

func queryString(r *http.Request, name string) *string {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil
	}
	return &s
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrValidation, name)
	}
	return &t, nil
}

func hotelsFilter(r *http.Request) (app.HotelsFilter, error) {
	var (
		f   app.HotelsFilter
		err error
	)
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	if f.DateFrom, err = queryDate(r, "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDate(r, "date_to"); err != nil {
		return f, err
	}
	f.Location = queryString(r, "location")
	f.Title = queryString(r, "title")
	return f, nil
}

// stayWindow reads the required date_from/date_to pair.
func stayWindow(r *http.Request) (domain.DateRange, error) {
	from, to := r.URL.Query().Get("date_from"), r.URL.Query().Get("date_to")
	if from == "" || to == "" {
		return domain.DateRange{}, fmt.Errorf("%w: date_from and date_to are required", domain.ErrValidation)
	}
	return domain.ParseDateRange(from, to)
}
