package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

const accountColumns = `
	id, first_name, last_name, email, mobile, password_hash, role, is_blocked, is_verified,
	avatar, otp, refresh_token, password_reset_digest, created_at, updated_at
`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, first_name, last_name, email, mobile, password_hash, role, is_blocked, is_verified,
			avatar, otp, refresh_token, password_reset_digest, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.FirstName,
		account.LastName,
		strings.ToLower(account.Email),
		account.Mobile,
		account.PasswordHash,
		account.Role,
		account.IsBlocked,
		account.IsVerified,
		account.Avatar,
		account.OTP,
		account.RefreshToken,
		account.PasswordResetDigest,
	)
	return translate(err)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, strings.ToLower(email))
}

func (r *AccountRepository) FindByMobile(ctx context.Context, mobile string) (models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE mobile = $1`, mobile)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (models.Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return models.Account{}, translate(err)
	}
	return account, nil
}

// There is no whole-row update: each setter below touches only its own columns.

// UpdateProfile changes the editable identity fields. A changed e-mail drops
// verification, any pending OTP and the stored refresh token; every right hand
// side reads the row as it was before the update.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, profile models.Profile) error {
	const query = `
		UPDATE accounts SET
			is_verified = is_verified AND email = $4,
			otp = CASE WHEN email = $4 THEN otp END,
			refresh_token = CASE WHEN email = $4 THEN refresh_token ELSE '' END,
			first_name = $2,
			last_name = $3,
			email = $4,
			mobile = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	return affected(r.pool.Exec(ctx, query,
		id,
		profile.FirstName,
		profile.LastName,
		strings.ToLower(profile.Email),
		profile.Mobile,
	))
}

// SetPassword replaces the hash and voids any outstanding reset link.
func (r *AccountRepository) SetPassword(ctx context.Context, id string, hash []byte) error {
	const query = `
		UPDATE accounts SET password_hash = $2, password_reset_digest = '', updated_at = NOW()
		WHERE id = $1
	`
	return affected(r.pool.Exec(ctx, query, id, hash))
}

// ConsumeReset sets a new password only while digest is still the stored
// reset digest, and signs the account out. A used or replaced link matches no
// row and yields ErrNotFound.
func (r *AccountRepository) ConsumeReset(ctx context.Context, id, digest string, hash []byte) error {
	const query = `
		UPDATE accounts SET
			password_hash = $3,
			password_reset_digest = '',
			refresh_token = '',
			updated_at = NOW()
		WHERE id = $1 AND password_reset_digest <> '' AND password_reset_digest = $2
	`
	return affected(r.pool.Exec(ctx, query, id, digest, hash))
}

func (r *AccountRepository) SetResetDigest(ctx context.Context, id, digest string) error {
	const query = `UPDATE accounts SET password_reset_digest = $2, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, digest))
}

func (r *AccountRepository) SetAvatar(ctx context.Context, id string, avatar *models.Media) error {
	const query = `UPDATE accounts SET avatar = $2, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, avatar))
}

func (r *AccountRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	const query = `UPDATE accounts SET refresh_token = $2, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, token))
}

func (r *AccountRepository) SetOTP(ctx context.Context, id string, otp *models.OTP) error {
	const query = `UPDATE accounts SET otp = $2, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, otp))
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `UPDATE accounts SET is_verified = TRUE, otp = NULL, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id))
}

func (r *AccountRepository) SetRole(ctx context.Context, id string, role models.Role) error {
	const query = `UPDATE accounts SET role = $2, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, role))
}

func (r *AccountRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	const query = `UPDATE accounts SET is_blocked = $2, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, blocked))
}

func (r *AccountRepository) List(ctx context.Context, role models.Role, page, limit int) ([]models.Account, int, error) {
	const query = `
		SELECT ` + accountColumns + `, COUNT(*) OVER ()
		FROM accounts
		WHERE role = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, role, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		accounts []models.Account
		total    int
	)
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(append(accountFields(&account), &total)...); err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(accounts) == 0 {
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE role = $1`, role).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return accounts, total, nil
}

func (r *AccountRepository) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE accounts SET otp = NULL, updated_at = NOW()
		WHERE otp IS NOT NULL AND (otp->>'expiresAt')::timestamptz <= $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func accountFields(account *models.Account) []any {
	return []any{
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.Mobile,
		&account.PasswordHash,
		&account.Role,
		&account.IsBlocked,
		&account.IsVerified,
		&account.Avatar,
		&account.OTP,
		&account.RefreshToken,
		&account.PasswordResetDigest,
		&account.CreatedAt,
		&account.UpdatedAt,
	}
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(accountFields(&account)...); err != nil {
		return models.Account{}, err
	}
	return account, nil
}
