package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ Users = (*UserRepository)(nil)

const (
	insertUserSQL = `INSERT INTO users (username, email, password_hash, image_file) VALUES (?, ?, ?, ?)`

	selectUserColumns       = `SELECT id, username, email, password_hash, image_file FROM users`
	selectUserByIDSQL       = selectUserColumns + ` WHERE id = ?`
	selectUserByUsernameSQL = selectUserColumns + ` WHERE username = ?`
	selectUserByEmailSQL    = selectUserColumns + ` WHERE email = ?`

	updateUserProfileSQL  = `UPDATE users SET username = ?, email = ?, image_file = ? WHERE id = ?`
	updateUserPasswordSQL = `UPDATE users SET password_hash = ? WHERE id = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, u models.User) (int, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Username, u.Email, u.PasswordHash, u.ImageFile)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", u.Username, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", u.Username, err)
	}
	return int(lastID), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, selectUserByIDSQL, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, selectUserByUsernameSQL, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUserByEmailSQL, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ImageFile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %v: %w", arg, err)
	}
	return &u, nil
}

// UpdateProfile writes username, email and avatar filename.
func (r *UserRepository) UpdateProfile(ctx context.Context, u models.User) error {
	res, err := r.db.ExecContext(ctx, updateUserProfileSQL, u.Username, u.Email, u.ImageFile, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %d: %w", u.ID, ErrDuplicate)
		}
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	res, err := r.db.ExecContext(ctx, updateUserPasswordSQL, hash, id)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("update password for user %d: %w", id, err)
	}
	return nil
}
