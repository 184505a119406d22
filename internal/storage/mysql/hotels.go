package mysql

import (
	"context"
	"strings"

	"hotel_booking/internal/domain"
)

func (r *Repo) CreateHotel(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	res, err := r.db.ExecContext(ctx, insertHotelSQL, in.Title, in.Location)
	if err != nil {
		return domain.Hotel{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Hotel{}, err
	}
	return domain.Hotel{ID: id, Title: in.Title, Location: in.Location}, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var h domain.Hotel
	if err := r.db.QueryRowContext(ctx, getHotelSQL, id).Scan(&h.ID, &h.Title, &h.Location); err != nil {
		return domain.Hotel{}, mapErr(err)
	}
	return h, nil
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	if _, err := r.db.ExecContext(ctx, updateHotelSQL, h.Title, h.Location, h.ID); err != nil {
		return domain.Hotel{}, mapErr(err)
	}
	return h, nil
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListHotels filters by availability first (when a window is given), then by
// title/location substrings, then paginates in id order.
func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	var (
		conds []string
		args  []any
	)
	if q.Window != nil {
		conds = append(conds, hotelAvailableCond)
		args = append(args, q.Window.To, q.Window.From)
	}
	if q.Location != nil && strings.TrimSpace(*q.Location) != "" {
		conds = append(conds, "LOWER(h.location) LIKE ?")
		args = append(args, likeContains(*q.Location))
	}
	if q.Title != nil && strings.TrimSpace(*q.Title) != "" {
		conds = append(conds, "LOWER(h.title) LIKE ?")
		args = append(args, likeContains(*q.Title))
	}

	var sb strings.Builder
	sb.WriteString(listHotelsPrefix)
	if len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, "\n  AND "))
	}
	sb.WriteString("\nORDER BY h.id\nLIMIT ? OFFSET ?")
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]domain.Hotel, 0, q.Limit)
	for rows.Next() {
		var h domain.Hotel
		if err := rows.Scan(&h.ID, &h.Title, &h.Location); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
