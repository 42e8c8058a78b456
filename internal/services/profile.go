package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/profiledesk/apiserver/internal/store"
	"github.com/profiledesk/apiserver/types"
)

// ProfileService manages an account owner's own profile.
type ProfileService struct {
	repo   AccountRepository
	hasher PasswordHasher
	media  *MediaService
	events EventPublisher
	logger *slog.Logger
}

func NewProfileService(repo AccountRepository, hasher PasswordHasher, media *MediaService, events EventPublisher, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		repo:   repo,
		hasher: hasher,
		media:  media,
		events: events,
		logger: loggerOrDefault(logger),
	}
}

// ProfileUpdate holds the fields present in an update request. A nil field
// is left untouched; a non-nil empty string clears the field.
type ProfileUpdate struct {
	Name       *string
	Email      *string
	Phone      *string
	Bio        *string
	Position   *string
	Department *string
	Avatar     *string
	Banner     *string
}

// PasswordChange is the raw password change form.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

func (s *ProfileService) Get(ctx context.Context, accountID string) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, notFoundError("User not found")
		}
		return types.Account{}, err
	}
	return account, nil
}

// Update applies a partial update. A changed email must be unused by any
// other account. A blank email is ignored.
func (s *ProfileService) Update(ctx context.Context, accountID string, in ProfileUpdate) (types.Account, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return types.Account{}, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" && email != account.Email {
			if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
				return types.Account{}, validationError("Please provide a valid email address")
			}
			if _, err := s.repo.GetByEmail(ctx, email); err == nil {
				return types.Account{}, conflictError("Email already in use")
			} else if !errors.Is(err, store.ErrNotFound) {
				return types.Account{}, err
			}
			account.Email = email
		}
	}

	apply(&account.Name, in.Name)
	apply(&account.Phone, in.Phone)
	apply(&account.Bio, in.Bio)
	apply(&account.Position, in.Position)
	apply(&account.Department, in.Department)
	apply(&account.Avatar, in.Avatar)
	apply(&account.Banner, in.Banner)

	updated, err := s.save(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Account{}, conflictError("Email already in use")
		}
		return types.Account{}, err
	}

	publishEvent(ctx, s.events, s.logger, types.AccountProfileUpdated, updated)
	return updated, nil
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (s *ProfileService) ChangePassword(ctx context.Context, accountID string, in PasswordChange) error {
	if in.Current == "" || in.New == "" || in.Confirm == "" {
		return validationError("Current password, new password and confirm password are required")
	}
	if in.New != in.Confirm {
		return validationError("New passwords do not match")
	}
	if len(in.New) > maxPasswordBytes {
		return validationError("Password is too long")
	}

	account, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(account.PasswordHash, in.Current) {
		return validationError("Current password is incorrect")
	}

	hashed, err := s.hasher.Hash(in.New)
	if err != nil {
		return err
	}
	account.PasswordHash = hashed

	updated, err := s.save(ctx, account)
	if err != nil {
		return err
	}

	publishEvent(ctx, s.events, s.logger, types.AccountPasswordChanged, updated)
	return nil
}

// SetImage uploads an avatar or banner and records its URL on the account.
// The uploaded object is removed again if the account cannot be saved.
func (s *ProfileService) SetImage(ctx context.Context, accountID string, kind MediaKind, up Upload) (string, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return "", err
	}

	obj, err := s.media.Upload(ctx, kind, up)
	if err != nil {
		return "", err
	}

	eventType := types.AccountAvatarUpdated
	if kind == MediaBanner {
		account.Banner = obj.URL
		eventType = types.AccountBannerUpdated
	} else {
		account.Avatar = obj.URL
	}

	updated, err := s.save(ctx, account)
	if err != nil {
		s.media.Discard(ctx, obj.Key)
		return "", err
	}

	publishEvent(ctx, s.events, s.logger, eventType, updated)
	return obj.URL, nil
}

func (s *ProfileService) save(ctx context.Context, account types.Account) (types.Account, error) {
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, notFoundError("User not found")
		}
		return types.Account{}, err
	}
	return updated, nil
}

func apply(field *string, value *string) {
	if value != nil {
		*field = strings.TrimSpace(*value)
	}
}
