package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/kasirku/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, password, role, created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByUsername fetches a user by exact username match.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
}

// ExistsByUsername reports whether the username is already registered.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ? LIMIT 1", username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a user with an already hashed password and returns its ID.
// A unique-index violation is reported as ErrUsernameTaken.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash, role string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		username, passwordHash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpdatePassword replaces the stored hash for a user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password = ? WHERE id = ?", passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so confirm the row exists.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
