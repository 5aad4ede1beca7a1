package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/logger"
	"marketplace/internal/mail"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UsernameMaxLen bounds usernames on every form that takes one.
const UsernameMaxLen = 20

const (
	passwordMinLen = 8
	passwordMaxLen = 30
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

func (in RegisterInput) validate() validation.Errors {
	var errs validation.Errors
	errs.Check("username", validation.Required(in.Username), validation.MaxLen(in.Username, UsernameMaxLen))
	errs.Check("email", validation.Required(in.Email), validation.Email(in.Email))
	errs.Check("password", validation.Required(in.Password), validation.Length(in.Password, passwordMinLen, passwordMaxLen))
	errs.Check("confirm_password",
		validation.Required(in.ConfirmPassword),
		validation.Length(in.ConfirmPassword, passwordMinLen, passwordMaxLen),
		validation.EqualTo(in.ConfirmPassword, in.Password, "password"),
	)
	return errs
}

// ResetPasswordInput is the form submitted from the reset link.
type ResetPasswordInput struct {
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

func (in ResetPasswordInput) validate() validation.Errors {
	var errs validation.Errors
	errs.Check("password", validation.Required(in.Password), validation.Length(in.Password, passwordMinLen, passwordMaxLen))
	errs.Check("confirm_password",
		validation.Required(in.ConfirmPassword),
		validation.Length(in.ConfirmPassword, passwordMinLen, passwordMaxLen),
		validation.EqualTo(in.ConfirmPassword, in.Password, "password"),
	)
	return errs
}

// ResetSettings controls the password reset email.
type ResetSettings struct {
	BaseURL string
	From    string
	Expiry  time.Duration
}

// AuthService handles accounts, credentials and password reset.
type AuthService struct {
	users         repository.Users
	tokens        *TokenService
	mailer        mail.Sender
	reset         ResetSettings
	defaultAvatar string
	log           *logger.Logger
}

func NewAuthService(users repository.Users, tokens *TokenService, mailer mail.Sender, reset ResetSettings, defaultAvatar string, log *logger.Logger) *AuthService {
	if reset.Expiry <= 0 {
		reset.Expiry = DefaultResetTokenExpiry
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		mailer:        mailer,
		reset:         reset,
		defaultAvatar: defaultAvatar,
		log:           log,
	}
}

// Register validates the form, checks uniqueness and stores a new account
// with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	errs := in.validate()
	if err := checkUnique(ctx, s.users, &errs, in.Username, in.Email, nil); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{Username: in.Username, Email: in.Email, PasswordHash: hash, ImageFile: s.defaultAvatar}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation.Errors{{Field: "username", Message: msgUsernameTaken}}
		}
		return nil, err
	}
	u.ID = id

	if s.log != nil {
		s.log.Infow("auth_registered", "user_id", id, "username", u.Username)
	}
	return &u, nil
}

// checkUnique records a field error for a username or email that belongs to
// another account. current is nil on registration.
func checkUnique(ctx context.Context, users repository.Users, errs *validation.Errors, username, email string, current *models.User) error {
	if !errs.Has("username") && (current == nil || username != current.Username) {
		u, err := users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u != nil {
			errs.Add("username", msgUsernameTaken)
		}
	}
	if !errs.Has("email") && (current == nil || email != current.Email) {
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if u != nil {
			errs.Add("email", msgEmailTaken)
		}
	}
	return nil
}

// Authenticate checks credentials and returns the account.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || verifyPassword(u.PasswordHash, password) != nil {
		if s.log != nil {
			s.log.Infow("auth_login_failed", "username", username)
		}
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// RequestPasswordReset mails a reset link to the account owning email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	var errs validation.Errors
	errs.Check("email", validation.Required(email), validation.Email(email))
	if err := errs.Err(); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return validation.Errors{{Field: "email", Message: msgNoAccount}}
	}

	token, err := s.tokens.Issue(u.ID, s.reset.Expiry)
	if err != nil {
		return err
	}

	link := strings.TrimRight(s.reset.BaseURL, "/") + "/auth/reset-password/" + token
	if err := s.mailer.Send(ctx, mail.ResetEmail(s.reset.From, u.Email, link, s.reset.Expiry)); err != nil {
		if s.log != nil {
			s.log.Errorw("auth_reset_mail_failed", "user_id", u.ID, "err", err)
		}
		return fmt.Errorf("send reset email: %w", err)
	}

	if s.log != nil {
		s.log.Infow("auth_reset_requested", "user_id", u.ID)
	}
	return nil
}

// CheckResetToken reports whether token is currently usable.
func (s *AuthService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.resetTarget(ctx, token)
	return err
}

// ResetPassword stores a new password for the account bound to token.
func (s *AuthService) ResetPassword(ctx context.Context, token string, in ResetPasswordInput) error {
	u, err := s.resetTarget(ctx, token)
	if err != nil {
		return err
	}
	if err := in.validate().Err(); err != nil {
		return err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	if s.log != nil {
		s.log.Infow("auth_password_reset", "user_id", u.ID)
	}
	return nil
}

func (s *AuthService) resetTarget(ctx context.Context, token string) (*models.User, error) {
	id, ok := s.tokens.Verify(token)
	if !ok {
		return nil, ErrInvalidResetToken
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidResetToken
	}
	return u, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
