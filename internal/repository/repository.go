package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"marketplace/internal/models"
)

var (
	// ErrDuplicate is returned when a unique column (username, email) already holds the value.
	ErrDuplicate = errors.New("duplicate value")
	// ErrNotFound is returned by writes that matched no row.
	ErrNotFound = errors.New("record not found")
)

// Users is the persistence contract for accounts. Lookups return (nil, nil)
// when nothing matches.
type Users interface {
	Create(ctx context.Context, u models.User) (int, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, u models.User) error
	UpdatePassword(ctx context.Context, id int, hash string) error
}

// Listings is the persistence contract for items offered for sale.
type Listings interface {
	Create(ctx context.Context, l models.Listing) (int, error)
	GetByID(ctx context.Context, id int) (*models.Listing, error)
	Update(ctx context.Context, l models.Listing) error
	Delete(ctx context.Context, id int) error
	ListRecent(ctx context.Context, limit, offset int) ([]models.Listing, error)
	CountAll(ctx context.Context) (int, error)
	ListBySeller(ctx context.Context, sellerID, limit, offset int) ([]models.Listing, error)
	CountBySeller(ctx context.Context, sellerID int) (int, error)
}

type Repository struct {
	Users    Users
	Listings Listings
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:    NewUserRepository(db),
		Listings: NewListingRepository(db),
	}
}

// isUniqueViolation matches SQLite's "UNIQUE constraint failed: table.column".
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
