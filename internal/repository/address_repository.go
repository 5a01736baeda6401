package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

const addressColumns = `
	id, account_id, first_name, last_name, primary_mobile, secondary_mobile,
	address, more_info, region, city, is_default
`

type AddressRepository struct {
	pool *pgxpool.Pool
}

func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

func (r *AddressRepository) Create(ctx context.Context, address models.Address) error {
	const query = `INSERT INTO addresses (` + addressColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query, addressFields(&address)...)
	return translate(err)
}

func (r *AddressRepository) Get(ctx context.Context, accountID, id string) (models.Address, error) {
	const query = `SELECT ` + addressColumns + ` FROM addresses WHERE account_id = $1 AND id = $2`
	var address models.Address
	if err := r.pool.QueryRow(ctx, query, accountID, id).Scan(addressFields(&address)...); err != nil {
		return models.Address{}, translate(err)
	}
	return address, nil
}

func (r *AddressRepository) List(ctx context.Context, accountID string) ([]models.Address, error) {
	const query = `SELECT ` + addressColumns + ` FROM addresses WHERE account_id = $1 ORDER BY is_default DESC, id`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		var address models.Address
		if err := rows.Scan(addressFields(&address)...); err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, rows.Err()
}

func (r *AddressRepository) Update(ctx context.Context, address models.Address) error {
	const query = `
		UPDATE addresses SET
			first_name = $3,
			last_name = $4,
			primary_mobile = $5,
			secondary_mobile = $6,
			address = $7,
			more_info = $8,
			region = $9,
			city = $10,
			is_default = $11
		WHERE id = $1 AND account_id = $2
	`
	return affected(r.pool.Exec(ctx, query, addressFields(&address)...))
}

func (r *AddressRepository) Delete(ctx context.Context, accountID, id string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM addresses WHERE account_id = $1 AND id = $2`, accountID, id))
}

func (r *AddressRepository) ClearDefault(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE account_id = $1 AND is_default`, accountID)
	return err
}

func addressFields(address *models.Address) []any {
	return []any{
		&address.ID,
		&address.AccountID,
		&address.FirstName,
		&address.LastName,
		&address.PrimaryMobile,
		&address.SecondaryMobile,
		&address.Address,
		&address.MoreInfo,
		&address.Region,
		&address.City,
		&address.IsDefault,
	}
}
