package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"koomia/api/internal/apperr"
	"koomia/api/internal/ids"
	"koomia/api/internal/mail"
	"koomia/api/internal/models"
	"koomia/api/internal/repository"
	"koomia/api/internal/security"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.BadRequest, "Invalid login credentials.")
	ErrAlreadyRegistered  = apperr.New(apperr.Conflict, "An account with this email or mobile already exists.")
	ErrAlreadyVerified    = apperr.New(apperr.BadRequest, "Account is already verified.")
	ErrInvalidOTP         = apperr.New(apperr.BadRequest, "Invalid OTP.")
	ErrExpiredOTP         = apperr.New(apperr.BadRequest, "Expired OTP.")
	ErrRefreshMismatch    = apperr.New(apperr.Unauthorized, "Refresh token is no longer valid.")
	ErrInvalidResetLink   = apperr.New(apperr.BadRequest, "Invalid or already used reset link.")
	ErrExpiredResetLink   = apperr.New(apperr.BadRequest, "Reset link has expired.")
	ErrUnknownEmail       = apperr.New(apperr.NotFound, "No account is registered with this email.")
)

type AuthSettings struct {
	OTPTTL    time.Duration
	PublicURL string
}

type AuthService struct {
	accounts AccountStore
	carts    CartStore
	tokens   *security.TokenService
	hasher   security.PasswordHasher
	mailer   Mailer
	settings AuthSettings
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	accounts AccountStore,
	carts CartStore,
	tokens *security.TokenService,
	hasher security.PasswordHasher,
	mailer Mailer,
	settings AuthSettings,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		carts:    carts,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Password  string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (models.Account, error) {
	email := normalizeEmail(input.Email)
	mobile := strings.TrimSpace(input.Mobile)

	taken, err := s.identityTaken(ctx, "", email, mobile)
	if err != nil {
		return models.Account{}, err
	}
	if taken {
		return models.Account{}, ErrAlreadyRegistered
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		ID:           ids.New(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Mobile:       mobile,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Account{}, ErrAlreadyRegistered
		}
		return models.Account{}, err
	}

	if err := s.carts.Save(ctx, models.Cart{AccountID: account.ID, Items: []models.CartItem{}}); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("create cart failed")
	}

	created, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return models.Account{}, err
	}
	s.log.Info().Str("account_id", created.ID).Msg("account created")
	return created, nil
}

// AdminSeed describes the administrator ensured at startup.
type AdminSeed struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Mobile    string
}

var ErrAdminSeed = errors.New("admin seed needs an email, and a mobile and password when the account does not exist yet")

// EnsureAdmin promotes the account behind seed.Email to administrator and
// marks it verified, signing it up first when it does not exist. An existing
// account keeps its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (models.Account, error) {
	email := normalizeEmail(seed.Email)
	if email == "" {
		return models.Account{}, ErrAdminSeed
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if seed.Password == "" || strings.TrimSpace(seed.Mobile) == "" {
			return models.Account{}, ErrAdminSeed
		}
		account, err = s.Signup(ctx, SignupInput{
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
			Email:     email,
			Mobile:    seed.Mobile,
			Password:  seed.Password,
		})
		if err != nil {
			return models.Account{}, fmt.Errorf("create admin: %w", err)
		}
	case err != nil:
		return models.Account{}, err
	}

	if err := s.accounts.SetRole(ctx, account.ID, models.RoleAdmin); err != nil {
		return models.Account{}, err
	}
	if !account.IsVerified {
		if err := s.accounts.MarkVerified(ctx, account.ID); err != nil {
			return models.Account{}, err
		}
	}
	s.log.Info().Str("account_id", account.ID).Msg("admin ensured")
	return s.accounts.GetByID(ctx, account.ID)
}

// identityTaken reports whether email or mobile belongs to an account other
// than exceptID.
func (s *AuthService) identityTaken(ctx context.Context, exceptID, email, mobile string) (bool, error) {
	return identityTaken(ctx, s.accounts, exceptID, email, mobile)
}

func identityTaken(ctx context.Context, accounts AccountStore, exceptID, email, mobile string) (bool, error) {
	if email != "" {
		existing, err := accounts.FindByEmail(ctx, email)
		if taken, err := otherAccount(existing, err, exceptID); taken || err != nil {
			return taken, err
		}
	}
	if mobile != "" {
		existing, err := accounts.FindByMobile(ctx, mobile)
		if taken, err := otherAccount(existing, err, exceptID); taken || err != nil {
			return taken, err
		}
	}
	return false, nil
}

func otherAccount(existing models.Account, err error, exceptID string) (bool, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != exceptID, nil
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Login accepts an e-mail address or a mobile number as username.
func (s *AuthService) Login(ctx context.Context, username, password string) (Tokens, error) {
	username = strings.TrimSpace(username)

	var (
		account models.Account
		err     error
	)
	if strings.Contains(username, "@") {
		account, err = s.accounts.FindByEmail(ctx, normalizeEmail(username))
	} else {
		account, err = s.accounts.FindByMobile(ctx, username)
	}
	if err != nil {
		return Tokens{}, notFound(err, ErrInvalidCredentials)
	}

	ok, err := s.hasher.Compare(account.PasswordHash, password)
	if err != nil {
		return Tokens{}, err
	}
	if !ok {
		return Tokens{}, ErrInvalidCredentials
	}
	if account.IsBlocked {
		return Tokens{}, ErrAccountBlocked
	}

	refreshToken := account.RefreshToken
	if !s.reusable(account) {
		refreshToken, err = s.tokens.Issue(security.PurposeRefresh, account.ID, account.Email)
		if err != nil {
			return Tokens{}, err
		}
		if err := s.accounts.SetRefreshToken(ctx, account.ID, refreshToken); err != nil {
			return Tokens{}, err
		}
	}

	accessToken, err := s.tokens.Issue(security.PurposeAccess, account.ID, account.Email)
	if err != nil {
		return Tokens{}, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("login")
	return Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) reusable(account models.Account) bool {
	if account.RefreshToken == "" {
		return false
	}
	claims, err := s.tokens.Verify(security.PurposeRefresh, account.RefreshToken)
	return err == nil && claims.Subject == account.ID && claims.Email == account.Email
}

// Refresh exchanges a stored refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	claims, err := s.tokens.Verify(security.PurposeRefresh, refreshToken)
	if err != nil {
		return Tokens{}, err
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		return Tokens{}, notFound(err, security.ErrInvalidToken)
	}
	if account.RefreshToken == "" || account.RefreshToken != refreshToken {
		return Tokens{}, ErrRefreshMismatch
	}
	if account.IsBlocked {
		return Tokens{}, ErrAccountBlocked
	}

	accessToken, err := s.tokens.Issue(security.PurposeAccess, account.ID, account.Email)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: accessToken}, nil
}

// RequestVerification stores a fresh OTP and mails it. The returned address
// is masked for display.
func (s *AuthService) RequestVerification(ctx context.Context, account models.Account) (string, error) {
	if account.IsVerified {
		return "", ErrAlreadyVerified
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return "", err
	}
	otp := &models.OTP{Code: code, ExpiresAt: s.now().Add(s.settings.OTPTTL)}
	if err := s.accounts.SetOTP(ctx, account.ID, otp); err != nil {
		return "", err
	}

	if err := s.mailer.Enqueue(ctx, mail.Message{
		Kind: mail.KindVerifyEmail,
		To:   account.Email,
		Data: map[string]string{
			"firstName": account.FirstName,
			"otp":       code,
			"ttl":       humanDuration(s.settings.OTPTTL),
		},
	}); err != nil {
		return "", fmt.Errorf("enqueue verification mail: %w", err)
	}

	return MaskEmail(account.Email), nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, account models.Account, code string) (models.Account, error) {
	if account.IsVerified {
		return models.Account{}, ErrAlreadyVerified
	}
	if account.OTP == nil || account.OTP.Code != strings.TrimSpace(code) {
		return models.Account{}, ErrInvalidOTP
	}
	if account.OTP.Expired(s.now()) {
		return models.Account{}, ErrExpiredOTP
	}

	if err := s.accounts.MarkVerified(ctx, account.ID); err != nil {
		return models.Account{}, err
	}
	return s.accounts.GetByID(ctx, account.ID)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return notFound(err, ErrUnknownEmail)
	}

	token, err := s.tokens.Issue(security.PurposeReset, account.ID, account.Email)
	if err != nil {
		return err
	}
	if err := s.accounts.SetResetDigest(ctx, account.ID, security.DigestToken(token)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/auth/reset-password/%s", strings.TrimSuffix(s.settings.PublicURL, "/"), token)
	if err := s.mailer.Enqueue(ctx, mail.Message{
		Kind: mail.KindResetPassword,
		To:   account.Email,
		Data: map[string]string{
			"firstName": account.FirstName,
			"link":      link,
			"ttl":       humanDuration(s.tokens.TTL(security.PurposeReset)),
		},
	}); err != nil {
		return fmt.Errorf("enqueue reset mail: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token: it works once and signs the account
// out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.tokens.Verify(security.PurposeReset, token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return ErrExpiredResetLink
		}
		return ErrInvalidResetLink
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	// Matching and clearing the digest is one store write.
	if err := s.accounts.ConsumeReset(ctx, claims.Subject, security.DigestToken(token), hash); err != nil {
		return notFound(err, ErrInvalidResetLink)
	}
	s.log.Info().Str("account_id", claims.Subject).Msg("password reset")
	return nil
}

func (s *AuthService) Logout(ctx context.Context, account models.Account) error {
	return s.accounts.SetRefreshToken(ctx, account.ID, "")
}

// SweepExpiredOTPs drops one-time codes past their expiry.
func (s *AuthService) SweepExpiredOTPs(ctx context.Context) (int64, error) {
	return s.accounts.ClearExpiredOTPs(ctx, s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail keeps the first character of the local part: ada@x.com -> a**@x.com.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 && d < time.Hour*2 {
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
