package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/models"
)

type ListingSQLite struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingSQLite {
	return &ListingSQLite{db: db}
}

var _ Listings = (*ListingSQLite)(nil)

const (
	insertListingSQL = `
		INSERT INTO listings (item, description, price, image_file, posted_at, user_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectListingColumns = `
		SELECT l.id, l.item, l.description, l.price, l.image_file, l.posted_at, l.user_id, u.username
		FROM listings l JOIN users u ON u.id = l.user_id`

	selectListingByIDSQL = selectListingColumns + ` WHERE l.id = ?`

	selectRecentListingsSQL = selectListingColumns + `
		ORDER BY l.posted_at DESC, l.id DESC LIMIT ? OFFSET ?`

	selectSellerListingsSQL = selectListingColumns + ` WHERE l.user_id = ?
		ORDER BY l.posted_at DESC, l.id DESC LIMIT ? OFFSET ?`

	countListingsSQL       = `SELECT COUNT(*) FROM listings`
	countSellerListingsSQL = `SELECT COUNT(*) FROM listings WHERE user_id = ?`

	updateListingSQL = `UPDATE listings SET item = ?, description = ?, price = ?, image_file = ? WHERE id = ?`
	deleteListingSQL = `DELETE FROM listings WHERE id = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(s rowScanner) (models.Listing, error) {
	var l models.Listing
	err := s.Scan(&l.ID, &l.Item, &l.Description, &l.Price, &l.ImageFile, &l.PostedAt, &l.SellerID, &l.Seller)
	l.PostedAt = l.PostedAt.UTC()
	return l, err
}

// Create inserts a listing; a zero PostedAt is set to now (UTC).
func (r *ListingSQLite) Create(ctx context.Context, l models.Listing) (int, error) {
	posted := l.PostedAt
	if posted.IsZero() {
		posted = time.Now().UTC()
	} else {
		posted = posted.UTC()
	}

	res, err := r.db.ExecContext(ctx, insertListingSQL, l.Item, l.Description, l.Price, l.ImageFile, posted, l.SellerID)
	if err != nil {
		return 0, fmt.Errorf("insert listing %q: %w", l.Item, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for listing %q: %w", l.Item, err)
	}
	return int(lastID), nil
}

// GetByID returns (nil, nil) when the listing does not exist.
func (r *ListingSQLite) GetByID(ctx context.Context, id int) (*models.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, selectListingByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select listing %d: %w", id, err)
	}
	return &l, nil
}

func (r *ListingSQLite) Update(ctx context.Context, l models.Listing) error {
	res, err := r.db.ExecContext(ctx, updateListingSQL, l.Item, l.Description, l.Price, l.ImageFile, l.ID)
	if err != nil {
		return fmt.Errorf("update listing %d: %w", l.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("update listing %d: %w", l.ID, err)
	}
	return nil
}

func (r *ListingSQLite) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteListingSQL, id)
	if err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	return nil
}

// ListRecent returns one page of all listings, newest first.
func (r *ListingSQLite) ListRecent(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	return r.list(ctx, selectRecentListingsSQL, limit, offset)
}

// ListBySeller returns one page of a seller's listings, newest first.
func (r *ListingSQLite) ListBySeller(ctx context.Context, sellerID, limit, offset int) ([]models.Listing, error) {
	return r.list(ctx, selectSellerListingsSQL, sellerID, limit, offset)
}

func (r *ListingSQLite) list(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	out := make([]models.Listing, 0, 8)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ListingSQLite) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countListingsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

func (r *ListingSQLite) CountBySeller(ctx context.Context, sellerID int) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countSellerListingsSQL, sellerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count listings of user %d: %w", sellerID, err)
	}
	return n, nil
}
