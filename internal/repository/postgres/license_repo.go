// internal/repository/postgres/license_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"almudeer-service/internal/domain/license"
	xerrors "almudeer-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type LicenseRepository struct {
	db *DB
}

func NewLicenseRepository(db *DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// FindByKey resolves an X-License-Key header value to a license.
func (r *LicenseRepository) FindByKey(ctx context.Context, key string) (*license.License, error) {
	query := `
		SELECT id, license_key, business_name, is_active, created_at
		FROM licenses
		WHERE license_key = $1
	`

	var l license.License
	err := r.db.Pool().QueryRow(ctx, query, key).Scan(
		&l.ID, &l.LicenseKey, &l.BusinessName, &l.IsActive, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find license: %v", xerrors.ErrPersistence, err)
	}
	return &l, nil
}
