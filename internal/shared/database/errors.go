// Package database holds helpers shared by the gorm repositories.
package database

import (
	"errors"

	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UniqueViolation is the postgres SQLSTATE for unique_violation.
const UniqueViolation = "23505"

// Translate maps driver errors onto apperr sentinels; anything else is
// returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UniqueViolation {
		return apperr.ErrDuplicate
	}
	return err
}
