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

var allowedImageExts = []string{"jpg", "jpeg", "png"}

// Uploader is the part of UploadService the domain services depend on.
type Uploader interface {
	Store(ctx context.Context, up Upload, mode UploadMode) (string, error)
	Remove(ctx context.Context, current, def string)
}

// ProfileInput is the profile form. Picture is nil when no file was sent.
type ProfileInput struct {
	Username string
	Email    string
	Picture  *Upload
}

type ProfileService struct {
	users         repository.Users
	uploads       Uploader
	defaultAvatar string
	log           *logger.Logger
}

func NewProfileService(users repository.Users, uploads Uploader, defaultAvatar string, log *logger.Logger) *ProfileService {
	return &ProfileService{users: users, uploads: uploads, defaultAvatar: defaultAvatar, log: log}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile changes username and email and, when a picture is given,
// replaces the avatar with a thumbnail of it. The old avatar is removed
// only after the new reference is saved.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int, in ProfileInput) (*models.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	var errs validation.Errors
	errs.Check("username", validation.Required(in.Username), validation.MaxLen(in.Username, UsernameMaxLen))
	errs.Check("email", validation.Required(in.Email), validation.Email(in.Email))
	if in.Picture != nil {
		errs.Check("picture", validation.FileAllowed(in.Picture.Filename, allowedImageExts))
	}
	if err := checkUnique(ctx, s.users, &errs, in.Username, in.Email, u); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	old := u.ImageFile
	updated := *u
	updated.Username = in.Username
	updated.Email = in.Email

	if in.Picture != nil {
		name, err := s.uploads.Store(ctx, *in.Picture, ModeAvatar)
		if err != nil {
			return nil, err
		}
		updated.ImageFile = name
	}

	if err := s.users.UpdateProfile(ctx, updated); err != nil {
		if updated.ImageFile != old {
			s.uploads.Remove(ctx, updated.ImageFile, s.defaultAvatar)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation.Errors{{Field: "username", Message: msgUsernameTaken}}
		}
		return nil, err
	}

	if updated.ImageFile != old {
		s.uploads.Remove(ctx, old, s.defaultAvatar)
	}

	if s.log != nil {
		s.log.Infow("profile_updated", "user_id", userID, "avatar_changed", updated.ImageFile != old)
	}
	return &updated, nil
}
