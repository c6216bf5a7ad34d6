package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// CreateUser inserts u and fills in its ID. A taken username or email
// yields ErrDuplicate.
func (s queries) CreateUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO users (username, email, created_at) VALUES (?, ?, ?)",
		u.Username, u.Email, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "failed to insert user")
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read user id")
	}
	return nil
}

// GetUserByID returns nil, nil when no user has the id.
func (s queries) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	var email sql.NullString
	err := s.q.QueryRowContext(ctx,
		"SELECT id, username, email, created_at FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.Username, &email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	if email.Valid {
		user.Email = &email.String
	}
	return &user, nil
}
