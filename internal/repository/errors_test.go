package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23503"}), ErrConflict)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, other, translate(other))
}

func TestAffected(t *testing.T) {
	assert.ErrorIs(t, affected(pgconn.NewCommandTag("UPDATE 0"), nil), ErrNotFound)
	assert.NoError(t, affected(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, affected(pgconn.CommandTag{}, pgx.ErrNoRows), ErrNotFound)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, offset(0, 10))
	assert.Equal(t, 0, offset(1, 10))
	assert.Equal(t, 20, offset(3, 10))
}
