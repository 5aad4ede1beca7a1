package service

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/logger"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

const (
	itemMaxLen        = 50
	descriptionMaxLen = 200
	priceMaxLen       = 20

	// DefaultDescription is stored when a listing is posted without one.
	DefaultDescription = "No description has been added yet."
)

// ListingInput is the create/update listing form.
type ListingInput struct {
	Item        string
	Description string
	Price       string
	Picture     *Upload
}

func (in *ListingInput) normalize() validation.Errors {
	in.Item = strings.TrimSpace(in.Item)
	in.Price = strings.TrimSpace(in.Price)
	in.Description = strings.TrimSpace(in.Description)

	var errs validation.Errors
	errs.Check("item", validation.Required(in.Item), validation.MaxLen(in.Item, itemMaxLen))
	errs.Check("description", validation.MaxLen(in.Description, descriptionMaxLen))
	errs.Check("price", validation.Required(in.Price), validation.MaxLen(in.Price, priceMaxLen))
	if in.Picture != nil {
		errs.Check("item_picture", validation.FileAllowed(in.Picture.Filename, allowedImageExts))
	}

	if in.Description == "" {
		in.Description = DefaultDescription
	}
	return errs
}

type ListingService struct {
	listings       repository.Listings
	users          repository.Users
	uploads        Uploader
	pageSize       int
	defaultListing string
	log            *logger.Logger
}

func NewListingService(listings repository.Listings, users repository.Users, uploads Uploader, pageSize int, defaultListing string, log *logger.Logger) *ListingService {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &ListingService{
		listings:       listings,
		users:          users,
		uploads:        uploads,
		pageSize:       pageSize,
		defaultListing: defaultListing,
		log:            log,
	}
}

// Feed returns one page of all listings, newest first. Pages below 1 are
// treated as 1; a page past the last one is ErrPageNotFound.
func (s *ListingService) Feed(ctx context.Context, page int) (models.Page, error) {
	total, err := s.listings.CountAll(ctx)
	if err != nil {
		return models.Page{}, err
	}
	page, offset, err := s.pageBounds(page, total)
	if err != nil {
		return models.Page{}, err
	}
	items, err := s.listings.ListRecent(ctx, s.pageSize, offset)
	if err != nil {
		return models.Page{}, err
	}
	return models.NewPage(items, page, s.pageSize, total), nil
}

// SellerFeed is Feed restricted to one seller.
func (s *ListingService) SellerFeed(ctx context.Context, username string, page int) (models.Page, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return models.Page{}, err
	}
	if u == nil {
		return models.Page{}, ErrUserNotFound
	}

	total, err := s.listings.CountBySeller(ctx, u.ID)
	if err != nil {
		return models.Page{}, err
	}
	page, offset, err := s.pageBounds(page, total)
	if err != nil {
		return models.Page{}, err
	}
	items, err := s.listings.ListBySeller(ctx, u.ID, s.pageSize, offset)
	if err != nil {
		return models.Page{}, err
	}
	return models.NewPage(items, page, s.pageSize, total), nil
}

func (s *ListingService) pageBounds(page, total int) (int, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize
	if page > 1 && offset >= total {
		return 0, 0, ErrPageNotFound
	}
	return page, offset, nil
}

func (s *ListingService) GetListing(ctx context.Context, id int) (*models.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrListingNotFound
	}
	return l, nil
}

// CreateListing posts a listing for sellerID. An attached picture is stored
// verbatim.
func (s *ListingService) CreateListing(ctx context.Context, sellerID int, in ListingInput) (*models.Listing, error) {
	if err := in.normalize().Err(); err != nil {
		return nil, err
	}

	l := models.Listing{
		Item:        in.Item,
		Description: in.Description,
		Price:       in.Price,
		ImageFile:   s.defaultListing,
		SellerID:    sellerID,
	}
	if in.Picture != nil {
		name, err := s.uploads.Store(ctx, *in.Picture, ModeListingImage)
		if err != nil {
			return nil, err
		}
		l.ImageFile = name
	}

	id, err := s.listings.Create(ctx, l)
	if err != nil {
		s.uploads.Remove(ctx, l.ImageFile, s.defaultListing)
		return nil, err
	}

	if s.log != nil {
		s.log.Infow("listing_created", "listing_id", id, "seller_id", sellerID)
	}
	return s.GetListing(ctx, id)
}

// UpdateListing edits a listing owned by actorID. A new picture replaces
// the old one, which is removed after the row is saved.
func (s *ListingService) UpdateListing(ctx context.Context, actorID, id int, in ListingInput) (*models.Listing, error) {
	l, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize().Err(); err != nil {
		return nil, err
	}

	old := l.ImageFile
	updated := *l
	updated.Item = in.Item
	updated.Description = in.Description
	updated.Price = in.Price

	if in.Picture != nil {
		name, err := s.uploads.Store(ctx, *in.Picture, ModeListingImage)
		if err != nil {
			return nil, err
		}
		updated.ImageFile = name
	}

	if err := s.listings.Update(ctx, updated); err != nil {
		if updated.ImageFile != old {
			s.uploads.Remove(ctx, updated.ImageFile, s.defaultListing)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if updated.ImageFile != old {
		s.uploads.Remove(ctx, old, s.defaultListing)
	}

	if s.log != nil {
		s.log.Infow("listing_updated", "listing_id", id, "seller_id", actorID)
	}
	return &updated, nil
}

// DeleteListing removes a listing owned by actorID and then its image.
func (s *ListingService) DeleteListing(ctx context.Context, actorID, id int) error {
	l, err := s.owned(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	s.uploads.Remove(ctx, l.ImageFile, s.defaultListing)

	if s.log != nil {
		s.log.Infow("listing_deleted", "listing_id", id, "seller_id", actorID)
	}
	return nil
}

func (s *ListingService) owned(ctx context.Context, actorID, id int) (*models.Listing, error) {
	l, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != actorID {
		if s.log != nil {
			s.log.Infow("listing_forbidden", "listing_id", id, "actor_id", actorID)
		}
		return nil, ErrForbidden
	}
	return l, nil
}
