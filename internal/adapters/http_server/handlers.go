package httpserver

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	C *app.CatalogService
	B *app.BookingService
	A *app.AuthService
	I *app.ImageService
}

const maxUpload = 32 << 20

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	auth := RequireUser(h.A)

	s.mux.Route("/auth", func(r chi.Router) {
		r.With(s.limit).Post("/register", h.register)
		r.With(s.limit).Post("/login", h.login)
		r.With(auth).Get("/me", h.me)
		r.Post("/logout", h.logout)
	})

	s.mux.Route("/hotels", func(r chi.Router) {
		r.Get("/", h.listHotels)
		r.Post("/", h.createHotel)
		r.Route("/{hotel_id}", func(r chi.Router) {
			r.Get("/", h.getHotel)
			r.Put("/", h.replaceHotel)
			r.Patch("/", h.patchHotel)
			r.Delete("/", h.deleteHotel)

			r.Get("/rooms", h.listRooms)
			r.Post("/rooms", h.createRoom)
			r.Get("/rooms/{room_id}", h.getRoom)
			r.Put("/rooms/{room_id}", h.replaceRoom)
			r.Patch("/rooms/{room_id}", h.patchRoom)
			r.Delete("/rooms/{room_id}", h.deleteRoom)
		})
	})

	s.mux.Route("/bookings", func(r chi.Router) {
		r.Get("/", h.listBookings)
		r.With(auth).Get("/me", h.myBookings)
		r.With(auth).Post("/", h.createBooking)
		r.With(auth).Delete("/{booking_id}", h.cancelBooking)
	})

	s.mux.Route("/facilities", func(r chi.Router) {
		r.Get("/", h.listFacilities)
		r.Post("/", h.createFacility)
	})

	s.mux.Post("/images", h.uploadImage)
	s.mux.Post("/images/", h.uploadImage)
}

// ---- auth ----

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in credentialsIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.A.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userOut{ID: u.ID, Email: u.Email})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in credentialsIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	tok, exp, err := h.A.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok})
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.A.Me(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userOut{ID: u.ID, Email: u.Email})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	f, err := hotelsFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	hotels, err := h.Q.ListHotels(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, mapSlice(hotels, toHotelOut))
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in hotelIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.C.CreateHotel(r.Context(), domain.HotelInput{Title: in.Title, Location: in.Location})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHotelOut(hotel))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, toHotelOut(hotel))
}

func (h *Handlers) replaceHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in hotelIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.C.ReplaceHotel(r.Context(), id, domain.HotelInput{Title: in.Title, Location: in.Location})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelOut(hotel))
}

func (h *Handlers) patchHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in hotelPatchIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.C.PatchHotel(r.Context(), id, domain.HotelPatch{Title: in.Title, Location: in.Location})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelOut(hotel))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.C.DeleteHotel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, err)
		return
	}
	window, err := stayWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rooms, err := h.Q.ListAvailableRooms(r.Context(), hotelID, window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rooms, toRoomOut))
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in roomIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	room, err := h.C.CreateRoom(r.Context(), hotelID, in.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomOut(room))
}

func roomIDs(r *http.Request) (int64, int64, error) {
	hotelID, err := pathID(r, "hotel_id")
	if err != nil {
		return 0, 0, err
	}
	roomID, err := pathID(r, "room_id")
	return hotelID, roomID, err
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, roomID, err := roomIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}
	room, err := h.Q.GetRoom(r.Context(), hotelID, roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, toRoomOut(room))
}

func (h *Handlers) replaceRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, roomID, err := roomIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in roomIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	room, err := h.C.ReplaceRoom(r.Context(), hotelID, roomID, in.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomOut(room))
}

func (h *Handlers) patchRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, roomID, err := roomIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in roomPatchIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	room, err := h.C.PatchRoom(r.Context(), hotelID, roomID, in.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomOut(room))
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, roomID, err := roomIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.C.DeleteRoom(r.Context(), hotelID, roomID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- bookings ----

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.B.ListBookings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bs, toBookingOut))
}

func (h *Handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.B.ListUserBookings(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bs, toBookingOut))
}

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return "admitted"
	case errors.Is(err, domain.ErrNoAvailability):
		return "no_availability"
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTxConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in bookingIn
	if err := decode(w, r, &in); err != nil {
		observability.ObserveAdmission(admissionOutcome(err))
		writeError(w, err)
		return
	}
	stay := domain.NewDateRange(in.DateFrom.Time, in.DateTo.Time)
	b, err := h.B.RequestBooking(r.Context(), userID(r.Context()), in.RoomID, stay)
	observability.ObserveAdmission(admissionOutcome(err))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingOut(b))
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "booking_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.B.CancelBooking(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- facilities ----

func (h *Handlers) listFacilities(w http.ResponseWriter, r *http.Request) {
	fs, err := h.Q.ListFacilities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, mapSlice(fs, func(f domain.Facility) facilityOut { return facilityOut{ID: f.ID, Title: f.Title} }))
}

func (h *Handlers) createFacility(w http.ResponseWriter, r *http.Request) {
	var in facilityIn
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	f, err := h.C.CreateFacility(r.Context(), in.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, facilityOut{ID: f.ID, Title: f.Title})
}

// ---- images ----

func (h *Handlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation failed", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	img, err := h.I.Upload(r.Context(), hdr.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"file": filepath.Base(img.Path), "job_id": img.JobID})
}
