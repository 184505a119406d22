package mysql

import (
	"context"
	"database/sql"

	"hotel_booking/internal/domain"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanRoom(s interface{ Scan(...any) error }, extra ...any) (domain.Room, error) {
	var rm domain.Room
	var desc sql.NullString
	dst := append([]any{&rm.ID, &rm.HotelID, &rm.Title, &desc, &rm.Price, &rm.Quantity}, extra...)
	if err := s.Scan(dst...); err != nil {
		return domain.Room{}, err
	}
	if desc.Valid {
		d := desc.String
		rm.Description = &d
	}
	return rm, nil
}

func (r *Repo) CreateRoom(ctx context.Context, hotelID int64, in domain.RoomInput) (domain.Room, error) {
	rm := domain.Room{
		HotelID:     hotelID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		FacilityIDs: in.FacilityIDs,
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertRoomSQL, hotelID, in.Title, valStr(in.Description), in.Price, in.Quantity)
		if err != nil {
			return err
		}
		if rm.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertRoomFacilities(ctx, tx, rm.ID, in.FacilityIDs)
	})
	if err != nil {
		return domain.Room{}, err
	}
	if rm.FacilityIDs == nil {
		rm.FacilityIDs = []int64{}
	}
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, hotelID, roomID int64) (domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, hotelID, roomID))
	if err != nil {
		return domain.Room{}, mapErr(err)
	}
	byRoom, err := facilityIDs(ctx, r.db, []int64{rm.ID})
	if err != nil {
		return domain.Room{}, err
	}
	rm.FacilityIDs = byRoom[rm.ID]
	return rm, nil
}

// UpdateRoom writes every field of rm and replaces its facility associations.
func (r *Repo) UpdateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, updateRoomSQL,
			rm.Title, valStr(rm.Description), rm.Price, rm.Quantity, rm.HotelID, rm.ID,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, deleteRoomFacilitiesSQL, rm.ID); err != nil {
			return err
		}
		return insertRoomFacilities(ctx, tx, rm.ID, rm.FacilityIDs)
	})
	if err != nil {
		return domain.Room{}, err
	}
	if rm.FacilityIDs == nil {
		rm.FacilityIDs = []int64{}
	}
	return rm, nil
}

func (r *Repo) DeleteRoom(ctx context.Context, hotelID, roomID int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteRoomFacilitiesSQL, roomID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, deleteRoomSQL, hotelID, roomID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *Repo) RoomsWithOverlaps(ctx context.Context, hotelID int64, window domain.DateRange) ([]domain.RoomAvailability, error) {
	rows, err := r.db.QueryContext(ctx, roomsWithOverlapsSQL, window.To, window.From, hotelID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var (
		out []domain.RoomAvailability
		ids []int64
	)
	for rows.Next() {
		var overlapping int
		rm, err := scanRoom(rows, &overlapping)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.RoomAvailability{Room: rm, Overlapping: overlapping})
		ids = append(ids, rm.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byRoom, err := facilityIDs(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Room.FacilityIDs = byRoom[out[i].Room.ID]
	}
	return out, nil
}

func insertRoomFacilities(ctx context.Context, q queryer, roomID int64, facilityIDs []int64) error {
	if len(facilityIDs) == 0 {
		return nil
	}
	values := make([]string, 0, len(facilityIDs))
	args := make([]any, 0, len(facilityIDs)*2)
	for _, fid := range facilityIDs {
		values = append(values, "(?, ?)")
		args = append(args, roomID, fid)
	}
	_, err := q.ExecContext(ctx, insertRoomFacilityPrefix+joinComma(values), args...)
	return err
}

// facilityIDs returns facility ids per room; every requested room gets a non-nil slice.
func facilityIDs(ctx context.Context, q queryer, roomIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(roomIDs))
	for i, id := range roomIDs {
		out[id] = []int64{}
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		`SELECT room_id, facility_id FROM rooms_facilities WHERE room_id IN (`+placeholders(len(roomIDs))+`) ORDER BY room_id, facility_id`,
		args...,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var roomID, fid int64
		if err := rows.Scan(&roomID, &fid); err != nil {
			return nil, err
		}
		out[roomID] = append(out[roomID], fid)
	}
	return out, rows.Err()
}
