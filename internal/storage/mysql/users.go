package mysql

import (
	"context"

	"hotel_booking/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, email, hashedPassword string) (domain.User, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, email, hashedPassword)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: id, Email: email, HashedPassword: hashedPassword}, nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	if err := r.db.QueryRowContext(ctx, getUserByEmailSQL, email).Scan(&u.ID, &u.Email, &u.HashedPassword); err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (r *Repo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	if err := r.db.QueryRowContext(ctx, getUserByIDSQL, id).Scan(&u.ID, &u.Email, &u.HashedPassword); err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}
