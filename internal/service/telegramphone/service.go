// internal/service/telegramphone/service.go
package telegramphone

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"almudeer-service/internal/domain/telegramphone"
	xerrors "almudeer-service/internal/pkg/errors"
	"almudeer-service/internal/pkg/loginhandle"
	"almudeer-service/internal/pkg/pending"
	"almudeer-service/internal/pkg/phone"
	"almudeer-service/internal/pkg/sessioncipher"

	"go.uber.org/zap"
)

// Provider is the narrow MTProto port. The concrete gotd adapter satisfies
// it in production; tests substitute fakes.
type Provider interface {
	SendCode(ctx context.Context, phoneNumber string) (*telegramphone.SentCode, error)
	SignIn(ctx context.Context, phoneNumber, code, codeHash string, sessionData []byte) (*telegramphone.Account, []byte, error)
	GetMe(ctx context.Context, sessionData []byte) (*telegramphone.Account, []byte, error)
	LogOut(ctx context.Context, sessionData []byte) error
	SendMessage(ctx context.Context, sessionData []byte, recipient, text string) (int, []byte, error)
}

// SessionRepository is the session store port.
type SessionRepository interface {
	UpsertActive(ctx context.Context, s *telegramphone.PhoneSession) error
	FindActiveByLicense(ctx context.Context, licenseID int64) (*telegramphone.PhoneSession, error)
	UpdateSessionData(ctx context.Context, licenseID int64, data []byte) error
	Deactivate(ctx context.Context, licenseID int64) error
	TouchSyncTime(ctx context.Context, licenseID int64) error
}

// PendingStore tracks the in-flight login per license.
type PendingStore interface {
	Put(ctx context.Context, licenseID int64, fingerprint string) error
	Get(ctx context.Context, licenseID int64) (string, error)
	Clear(ctx context.Context, licenseID int64) error
}

// RateLimiter bounds how often a license may request login codes.
type RateLimiter interface {
	Allow(ctx context.Context, licenseID int64) (bool, error)
}

type PhoneService struct {
	provider      Provider
	repo          SessionRepository
	pending       PendingStore
	limiter       RateLimiter
	cipher        *sessioncipher.Cipher
	handles       *loginhandle.Manager
	maskPrefixLen int
	logger        *zap.Logger
}

func NewPhoneService(
	provider Provider,
	repo SessionRepository,
	pendingStore PendingStore,
	limiter RateLimiter,
	cipher *sessioncipher.Cipher,
	handles *loginhandle.Manager,
	maskPrefixLen int,
	logger *zap.Logger,
) *PhoneService {
	return &PhoneService{
		provider:      provider,
		repo:          repo,
		pending:       pendingStore,
		limiter:       limiter,
		cipher:        cipher,
		handles:       handles,
		maskPrefixLen: maskPrefixLen,
		logger:        logger,
	}
}

// StartLogin requests a verification code for the phone number and returns
// the login handle the frontend must echo back on verify, together with the
// normalized phone number.
func (s *PhoneService) StartLogin(ctx context.Context, licenseID int64, rawPhone string) (string, string, error) {
	phoneNumber, err := phone.Normalize(rawPhone)
	if err != nil {
		return "", "", err
	}

	ok, err := s.limiter.Allow(ctx, licenseID)
	if err != nil {
		s.logger.Error("rate limiter unavailable", zap.Error(err), zap.Int64("license_id", licenseID))
		return "", "", fmt.Errorf("%w: rate limiter: %v", xerrors.ErrInternal, err)
	}
	if !ok {
		return "", "", xerrors.ErrRateLimited
	}

	sent, err := s.provider.SendCode(ctx, phoneNumber)
	if err != nil {
		return "", "", err
	}

	// The in-flight session rides inside the handle, encrypted with the
	// license key, so the flow stays stateless across processes.
	sealed, err := s.cipher.Encrypt(licenseID, sent.Session)
	if err != nil {
		return "", "", fmt.Errorf("%w: seal in-flight session: %v", xerrors.ErrInternal, err)
	}

	handle, err := s.handles.Issue(phoneNumber, sent.PhoneCodeHash, sealed)
	if err != nil {
		return "", "", fmt.Errorf("%w: issue login handle: %v", xerrors.ErrInternal, err)
	}

	if err := s.pending.Put(ctx, licenseID, pending.Fingerprint(handle)); err != nil {
		return "", "", fmt.Errorf("%w: record pending login: %v", xerrors.ErrInternal, err)
	}

	s.logger.Info("login code requested",
		zap.Int64("license_id", licenseID),
		zap.String("phone", phone.Mask(phoneNumber, s.maskPrefixLen)),
	)
	return handle, phoneNumber, nil
}

// VerifyCode completes sign-in, encrypts the resulting session and stores it
// as the license's single active PhoneSession. Any prior active row is
// deactivated inside the same transaction.
func (s *PhoneService) VerifyCode(ctx context.Context, licenseID int64, rawPhone, code, handle string) (*telegramphone.Account, int64, error) {
	phoneNumber, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, 0, err
	}
	if code == "" {
		return nil, 0, xerrors.ErrValidation
	}

	claims, err := s.handles.Parse(handle)
	if err != nil {
		return nil, 0, err
	}
	if claims.PhoneNumber != phoneNumber {
		return nil, 0, xerrors.ErrHandleMismatch
	}

	fingerprint, err := s.pending.Get(ctx, licenseID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read pending login: %v", xerrors.ErrInternal, err)
	}
	switch fingerprint {
	case "":
		return nil, 0, xerrors.ErrLoginExpired
	case pending.Fingerprint(handle):
	default:
		return nil, 0, xerrors.ErrHandleMismatch
	}

	inflight, err := s.cipher.Decrypt(licenseID, claims.Session)
	if err != nil {
		return nil, 0, xerrors.ErrLoginExpired
	}

	account, sessionData, err := s.provider.SignIn(ctx, phoneNumber, code, claims.PhoneCodeHash, inflight)
	if err != nil {
		return nil, 0, err
	}

	sealed, err := s.cipher.Encrypt(licenseID, sessionData)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: seal session: %v", xerrors.ErrInternal, err)
	}

	row := &telegramphone.PhoneSession{
		LicenseID:     licenseID,
		PhoneNumber:   phoneNumber,
		SessionData:   sealed,
		UserID:        nullString(strconv.FormatInt(account.ID, 10)),
		UserFirstName: nullString(account.FirstName),
		UserLastName:  nullString(account.LastName),
		UserUsername:  nullString(account.Username),
	}
	if err := s.repo.UpsertActive(ctx, row); err != nil {
		s.logger.Error("failed to persist phone session", zap.Error(err), zap.Int64("license_id", licenseID))
		return nil, 0, err
	}

	if err := s.pending.Clear(ctx, licenseID); err != nil {
		s.logger.Warn("failed to clear pending login", zap.Error(err), zap.Int64("license_id", licenseID))
	}

	s.logger.Info("phone session linked",
		zap.Int64("license_id", licenseID),
		zap.Int64("config_id", row.ID),
		zap.Int64("telegram_user_id", account.ID),
	)
	return account, row.ID, nil
}

// TestConnection re-authenticates against Telegram with the stored session
// and returns the current remote profile.
func (s *PhoneService) TestConnection(ctx context.Context, licenseID int64) (*telegramphone.Account, error) {
	sessionData, err := s.activeSessionData(ctx, licenseID)
	if err != nil {
		return nil, err
	}

	account, refreshed, err := s.provider.GetMe(ctx, sessionData)
	if err != nil {
		return nil, err
	}

	s.storeRefreshedSession(ctx, licenseID, refreshed)
	if err := s.repo.TouchSyncTime(ctx, licenseID); err != nil {
		s.logger.Warn("failed to touch sync time", zap.Error(err), zap.Int64("license_id", licenseID))
	}
	return account, nil
}

// SendMessage sends text to a recipient on the stored session.
func (s *PhoneService) SendMessage(ctx context.Context, licenseID int64, recipient, text string) (int, error) {
	if recipient == "" || text == "" {
		return 0, xerrors.ErrValidation
	}

	sessionData, err := s.activeSessionData(ctx, licenseID)
	if err != nil {
		return 0, err
	}

	messageID, refreshed, err := s.provider.SendMessage(ctx, sessionData, recipient, text)
	if err != nil {
		return 0, err
	}

	s.storeRefreshedSession(ctx, licenseID, refreshed)
	if err := s.repo.TouchSyncTime(ctx, licenseID); err != nil {
		s.logger.Warn("failed to touch sync time", zap.Error(err), zap.Int64("license_id", licenseID))
	}
	return messageID, nil
}

// GetConfig returns the sanitized view of the active session.
func (s *PhoneService) GetConfig(ctx context.Context, licenseID int64) (*telegramphone.ConfigView, error) {
	row, err := s.repo.FindActiveByLicense(ctx, licenseID)
	if err != nil {
		return nil, err
	}

	view := &telegramphone.ConfigView{
		ID:                row.ID,
		PhoneNumberMasked: phone.Mask(row.PhoneNumber, s.maskPrefixLen),
		UserFirstName:     row.UserFirstName.String,
		UserLastName:      row.UserLastName.String,
		UserUsername:      row.UserUsername.String,
		IsActive:          row.IsActive,
	}
	if row.LastSyncedAt.Valid {
		t := row.LastSyncedAt.Time
		view.LastSyncedAt = &t
	}
	return view, nil
}

// Disconnect deactivates the license's session. Idempotent: a license with
// no active session gets a successful no-op.
func (s *PhoneService) Disconnect(ctx context.Context, licenseID int64) error {
	row, err := s.repo.FindActiveByLicense(ctx, licenseID)
	if errors.Is(err, xerrors.ErrNoActiveSession) {
		return nil
	}
	if err != nil {
		return err
	}

	// Best effort: revoke the session on Telegram's side too. Failure to
	// log out remotely must not block the local disconnect.
	if sessionData, derr := s.cipher.Decrypt(licenseID, row.SessionData); derr == nil {
		if lerr := s.provider.LogOut(ctx, sessionData); lerr != nil {
			s.logger.Warn("remote logout failed", zap.Error(lerr), zap.Int64("license_id", licenseID))
		}
	}

	if err := s.repo.Deactivate(ctx, licenseID); err != nil {
		s.logger.Error("failed to deactivate phone session", zap.Error(err), zap.Int64("license_id", licenseID))
		return err
	}

	s.logger.Info("phone session disconnected", zap.Int64("license_id", licenseID))
	return nil
}

func (s *PhoneService) activeSessionData(ctx context.Context, licenseID int64) ([]byte, error) {
	row, err := s.repo.FindActiveByLicense(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	sessionData, err := s.cipher.Decrypt(licenseID, row.SessionData)
	if err != nil {
		// Undecryptable payload means the stored session is unusable.
		return nil, xerrors.ErrSessionExpired
	}
	return sessionData, nil
}

// storeRefreshedSession re-seals and persists session bytes that the provider
// may have rewritten during the round-trip. Losing the refresh is tolerable,
// so failures are logged, not returned.
func (s *PhoneService) storeRefreshedSession(ctx context.Context, licenseID int64, sessionData []byte) {
	if len(sessionData) == 0 {
		return
	}
	sealed, err := s.cipher.Encrypt(licenseID, sessionData)
	if err != nil {
		s.logger.Warn("failed to seal refreshed session", zap.Error(err), zap.Int64("license_id", licenseID))
		return
	}
	if err := s.repo.UpdateSessionData(ctx, licenseID, sealed); err != nil {
		s.logger.Warn("failed to store refreshed session", zap.Error(err), zap.Int64("license_id", licenseID))
	}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
