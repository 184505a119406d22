package mysql

import (
	"context"
	"database/sql"
	"time"

	"hotel_booking/internal/domain"
)

// Admit locks the room row, counts overlapping bookings and lets decide accept
// or reject. An accepted booking is inserted and committed in the same transaction.
func (r *Repo) Admit(ctx context.Context, roomID int64, window domain.DateRange,
	decide func(room domain.Room, booked []domain.DateRange) (domain.Booking, error),
) (domain.Booking, error) {
	var out domain.Booking
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		room, err := scanRoom(tx.QueryRowContext(ctx, lockRoomSQL, roomID))
		if err != nil {
			return err
		}

		booked, err := overlappingStays(ctx, tx, roomID, window)
		if err != nil {
			return err
		}

		b, err := decide(room, booked)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, insertBookingSQL, b.UserID, b.RoomID, b.DateFrom, b.DateTo, b.Price)
		if err != nil {
			return err
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func overlappingStays(ctx context.Context, tx *sql.Tx, roomID int64, window domain.DateRange) ([]domain.DateRange, error) {
	rows, err := tx.QueryContext(ctx, overlappingStaysSQL, roomID, window.To, window.From)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.DateRange
	for rows.Next() {
		var dr domain.DateRange
		if err := rows.Scan(&dr.From, &dr.To); err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

func (r *Repo) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listBookingsSQL)
}

func (r *Repo) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listUserBookingsSQL, userID)
}

// ListCheckIns returns bookings starting on day.
func (r *Repo) ListCheckIns(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listCheckInsSQL, domain.Day(day))
}

func (r *Repo) DeleteUserBooking(ctx context.Context, userID, bookingID int64) error {
	res, err := r.db.ExecContext(ctx, deleteUserBookingSQL, bookingID, userID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.RoomID, &b.DateFrom, &b.DateTo, &b.Price); err != nil {
			return nil, err
		}
		b.DateFrom, b.DateTo = domain.Day(b.DateFrom), domain.Day(b.DateTo)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
