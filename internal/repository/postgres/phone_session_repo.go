// internal/repository/postgres/phone_session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"almudeer-service/internal/domain/telegramphone"
	xerrors "almudeer-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type PhoneSessionRepository struct {
	db *DB
}

func NewPhoneSessionRepository(db *DB) *PhoneSessionRepository {
	return &PhoneSessionRepository{db: db}
}

const phoneSessionColumns = `
	id, license_id, phone_number, session_data_encrypted,
	user_id, user_first_name, user_last_name, user_username,
	is_active, last_synced_at, created_at, updated_at
`

// UpsertActive deactivates any prior active row for the license and inserts
// a fresh active one, in a single transaction. The partial unique index on
// (license_id) WHERE is_active backs the same invariant at the schema level,
// so two racing verifies cannot both commit an active row.
func (r *PhoneSessionRepository) UpsertActive(ctx context.Context, s *telegramphone.PhoneSession) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", xerrors.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE telegram_phone_sessions
		SET is_active = FALSE, updated_at = NOW()
		WHERE license_id = $1 AND is_active
	`, s.LicenseID)
	if err != nil {
		return fmt.Errorf("%w: deactivate previous session: %v", xerrors.ErrPersistence, err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO telegram_phone_sessions (
			license_id, phone_number, session_data_encrypted,
			user_id, user_first_name, user_last_name, user_username, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, created_at, updated_at
	`,
		s.LicenseID, s.PhoneNumber, s.SessionData,
		s.UserID, s.UserFirstName, s.UserLastName, s.UserUsername,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert session: %v", xerrors.ErrPersistence, err)
	}
	s.IsActive = true

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", xerrors.ErrPersistence, err)
	}
	return nil
}

// FindActiveByLicense returns the active session row for a license.
func (r *PhoneSessionRepository) FindActiveByLicense(ctx context.Context, licenseID int64) (*telegramphone.PhoneSession, error) {
	query := `
		SELECT ` + phoneSessionColumns + `
		FROM telegram_phone_sessions
		WHERE license_id = $1 AND is_active
	`

	var s telegramphone.PhoneSession
	err := r.db.Pool().QueryRow(ctx, query, licenseID).Scan(
		&s.ID, &s.LicenseID, &s.PhoneNumber, &s.SessionData,
		&s.UserID, &s.UserFirstName, &s.UserLastName, &s.UserUsername,
		&s.IsActive, &s.LastSyncedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find active session: %v", xerrors.ErrPersistence, err)
	}
	return &s, nil
}

// UpdateSessionData replaces the encrypted payload of the active row.
// Future polling logic refreshes the session blob through this path.
func (r *PhoneSessionRepository) UpdateSessionData(ctx context.Context, licenseID int64, data []byte) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE telegram_phone_sessions
		SET session_data_encrypted = $2, updated_at = NOW()
		WHERE license_id = $1 AND is_active
	`, licenseID, data)
	if err != nil {
		return fmt.Errorf("%w: update session data: %v", xerrors.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNoActiveSession
	}
	return nil
}

// Deactivate marks the license's session inactive. Idempotent: deactivating
// a license with no active session is a no-op, not an error.
func (r *PhoneSessionRepository) Deactivate(ctx context.Context, licenseID int64) error {
	_, err := r.db.Pool().Exec(ctx, `
		UPDATE telegram_phone_sessions
		SET is_active = FALSE, updated_at = NOW()
		WHERE license_id = $1 AND is_active
	`, licenseID)
	if err != nil {
		return fmt.Errorf("%w: deactivate session: %v", xerrors.ErrPersistence, err)
	}
	return nil
}

// TouchSyncTime stamps last_synced_at on the active row.
func (r *PhoneSessionRepository) TouchSyncTime(ctx context.Context, licenseID int64) error {
	_, err := r.db.Pool().Exec(ctx, `
		UPDATE telegram_phone_sessions
		SET last_synced_at = NOW(), updated_at = NOW()
		WHERE license_id = $1 AND is_active
	`, licenseID)
	if err != nil {
		return fmt.Errorf("%w: touch sync time: %v", xerrors.ErrPersistence, err)
	}
	return nil
}
