package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"koomia/api/internal/apperr"
	"koomia/api/internal/models"
	"koomia/api/internal/repository"
	"koomia/api/internal/security"
)

var (
	ErrWrongPassword   = apperr.New(apperr.BadRequest, "Current password is incorrect.")
	ErrSamePassword    = apperr.New(apperr.BadRequest, "New password must differ from the current one.")
	ErrNoAvatar        = apperr.New(apperr.NotFound, "No avatar to remove.")
	ErrIdentityTaken   = apperr.New(apperr.Conflict, "Email or mobile is already in use.")
	ErrSelfBlock       = apperr.New(apperr.BadRequest, "You cannot block your own account.")
	ErrUserNotFound    = apperr.New(apperr.NotFound, "User not found.")
	ErrNothingToUpdate = apperr.New(apperr.BadRequest, "Nothing to update.")
)

type AccountService struct {
	accounts AccountStore
	uploads  *UploadService
	hasher   security.PasswordHasher
	log      zerolog.Logger
}

func NewAccountService(accounts AccountStore, uploads *UploadService, hasher security.PasswordHasher, log zerolog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		uploads:  uploads,
		hasher:   hasher,
		log:      log,
	}
}

type ProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Mobile    *string
}

func (s *AccountService) UpdateProfile(ctx context.Context, account models.Account, input ProfileInput) (models.Account, error) {
	if input.FirstName == nil && input.LastName == nil && input.Email == nil && input.Mobile == nil {
		return models.Account{}, ErrNothingToUpdate
	}

	profile := account.Profile()
	if input.FirstName != nil {
		profile.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		profile.LastName = strings.TrimSpace(*input.LastName)
	}

	// A changed address has to be verified again; the store resets that.
	var email, mobile string
	if input.Email != nil {
		email = normalizeEmail(*input.Email)
		profile.Email = email
	}
	if input.Mobile != nil {
		mobile = strings.TrimSpace(*input.Mobile)
		profile.Mobile = mobile
	}

	taken, err := identityTaken(ctx, s.accounts, account.ID, email, mobile)
	if err != nil {
		return models.Account{}, err
	}
	if taken {
		return models.Account{}, ErrIdentityTaken
	}

	if err := s.accounts.UpdateProfile(ctx, account.ID, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Account{}, ErrIdentityTaken
		}
		return models.Account{}, notFound(err, ErrUserNotFound)
	}
	return s.GetUser(ctx, account.ID)
}

func (s *AccountService) ChangePassword(ctx context.Context, account models.Account, oldPassword, newPassword string) error {
	ok, err := s.hasher.Compare(account.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return notFound(s.accounts.SetPassword(ctx, account.ID, hash), ErrUserNotFound)
}

func (s *AccountService) SetAvatar(ctx context.Context, account models.Account, upload UploadInput) (models.Account, error) {
	media, err := s.uploads.Store(ctx, "avatars/"+account.ID, upload)
	if err != nil {
		return models.Account{}, err
	}

	if err := s.accounts.SetAvatar(ctx, account.ID, &media); err != nil {
		s.uploads.Discard(ctx, &media)
		return models.Account{}, notFound(err, ErrUserNotFound)
	}
	s.uploads.Discard(ctx, account.Avatar)
	return s.GetUser(ctx, account.ID)
}

func (s *AccountService) RemoveAvatar(ctx context.Context, account models.Account) (models.Account, error) {
	if account.Avatar == nil {
		return models.Account{}, ErrNoAvatar
	}
	if err := s.accounts.SetAvatar(ctx, account.ID, nil); err != nil {
		return models.Account{}, notFound(err, ErrUserNotFound)
	}
	s.uploads.Discard(ctx, account.Avatar)
	return s.GetUser(ctx, account.ID)
}

type AccountPage struct {
	CurrentPage int                  `json:"currentPage"`
	Users       []models.AccountInfo `json:"users"`
	Total       int                  `json:"total"`
	TotalPages  int                  `json:"totalPages"`
}

// ListUsers lists customer accounts; administrators are not included.
func (s *AccountService) ListUsers(ctx context.Context, paging Paging) (AccountPage, error) {
	paging = paging.normalize()
	accounts, total, err := s.accounts.List(ctx, models.RoleUser, paging.Page, paging.Limit)
	if err != nil {
		return AccountPage{}, err
	}

	users := make([]models.AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.Info())
	}
	return AccountPage{
		CurrentPage: paging.Page,
		Users:       users,
		Total:       total,
		TotalPages:  totalPages(total, paging.Limit),
	}, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return models.Account{}, notFound(err, ErrUserNotFound)
	}
	return account, nil
}

// SetBlocked is idempotent: blocking a blocked account succeeds unchanged.
func (s *AccountService) SetBlocked(ctx context.Context, admin models.Account, id string, blocked bool) (models.Account, error) {
	if blocked && admin.ID == id {
		return models.Account{}, ErrSelfBlock
	}
	if err := s.accounts.SetBlocked(ctx, id, blocked); err != nil {
		return models.Account{}, notFound(err, ErrUserNotFound)
	}

	account, err := s.GetUser(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	s.log.Info().
		Str("account_id", id).
		Str("admin_id", admin.ID).
		Bool("blocked", blocked).
		Msg("account block state changed")
	return account, nil
}
