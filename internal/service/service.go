package service

import (
	"context"

	"marketplace/internal/logger"
	"marketplace/internal/mail"
	"marketplace/internal/models"
	"marketplace/internal/repository"
)

// Authorization covers accounts, credentials and password reset.
type Authorization interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token string, in ResetPasswordInput) error
}

// Profile reads and edits the current user's account.
type Profile interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, in ProfileInput) (*models.User, error)
}

// Listings covers feeds and listing CRUD.
type Listings interface {
	Feed(ctx context.Context, page int) (models.Page, error)
	SellerFeed(ctx context.Context, username string, page int) (models.Page, error)
	GetListing(ctx context.Context, id int) (*models.Listing, error)
	CreateListing(ctx context.Context, sellerID int, in ListingInput) (*models.Listing, error)
	UpdateListing(ctx context.Context, actorID, id int, in ListingInput) (*models.Listing, error)
	DeleteListing(ctx context.Context, actorID, id int) error
}

// RateLimiter throttles abuse-prone endpoints per client key.
type RateLimiter interface {
	Allow(key string) bool
}

// Service aggregates all sub-services for the HTTP layer.
type Service struct {
	Authorization
	Profile
	Listings
	RateLimiter
}

// Deps are the collaborators built once in main.
type Deps struct {
	Tokens  *TokenService
	Uploads Uploader
	Mailer  mail.Sender
	Limiter RateLimiter
	Reset   ResetSettings

	PageSize       int
	DefaultAvatar  string
	DefaultListing string

	Log *logger.Logger
}

func NewService(repos *repository.Repository, d Deps) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, d.Tokens, d.Mailer, d.Reset, d.DefaultAvatar, d.Log.Named("auth")),
		Profile:       NewProfileService(repos.Users, d.Uploads, d.DefaultAvatar, d.Log.Named("profile")),
		Listings:      NewListingService(repos.Listings, repos.Users, d.Uploads, d.PageSize, d.DefaultListing, d.Log.Named("listings")),
		RateLimiter:   d.Limiter,
	}
}
