// Package user looks up the profile of the authenticated user.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type Profile struct {
	ID       model.UserID `json:"id"`
	Username string       `json:"username,omitempty"`
	Email    string       `json:"email,omitempty"`
}

// Directory returns the profile for a user ID.
type Directory interface {
	Get(ctx context.Context, id model.UserID) (*Profile, error)
}

// DBDirectory reads the users table that the auth webhooks maintain.
type DBDirectory struct {
	db db.DB
}

func NewDBDirectory(database db.DB) *DBDirectory {
	return &DBDirectory{db: database}
}

func (d *DBDirectory) Get(ctx context.Context, id model.UserID) (*Profile, error) {
	var username, email sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT username, email FROM users WHERE id = ?", id).Scan(&username, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading user %s: %w", id, err)
	}
	return &Profile{ID: id, Username: username.String, Email: email.String}, nil
}
