package mysql

import (
	"context"

	"hotel_booking/internal/domain"
)

func (r *Repo) CreateFacility(ctx context.Context, title string) (domain.Facility, error) {
	res, err := r.db.ExecContext(ctx, insertFacilitySQL, title)
	if err != nil {
		return domain.Facility{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Facility{}, err
	}
	return domain.Facility{ID: id, Title: title}, nil
}

func (r *Repo) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	rows, err := r.db.QueryContext(ctx, listFacilitiesSQL)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Facility{}
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(&f.ID, &f.Title); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
