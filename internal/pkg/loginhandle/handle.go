// Package loginhandle issues and validates the short-lived token returned by
// start_login. The token is an HS256-signed JWT carrying everything verify
// needs to resume the login: the phone number, the provider's code hash and
// the in-flight MTProto session (already encrypted). The signature makes the
// handle tamper-proof and the exp claim gives abandoned logins an explicit
// TTL instead of leaving them around forever.
package loginhandle

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	xerrors "almudeer-service/internal/pkg/errors"
)

type Claims struct {
	PhoneNumber   string `json:"phone_number"`
	PhoneCodeHash string `json:"phone_code_hash"`
	// Session is the base64 (JWT-encoded) encrypted in-flight MTProto session.
	Session []byte `json:"session"`
	// IssuedNano disambiguates handles issued within the same second.
	IssuedNano int64 `json:"issued_nano"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a new handle for an in-flight login.
func (m *Manager) Issue(phoneNumber, phoneCodeHash string, session []byte) (string, error) {
	now := m.now()
	claims := Claims{
		PhoneNumber:   phoneNumber,
		PhoneCodeHash: phoneCodeHash,
		Session:       session,
		IssuedNano:    now.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   phoneNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a handle and returns its claims. Expired or malformed
// handles map to ErrLoginExpired: the caller can only restart the flow.
func (m *Manager) Parse(handle string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(handle, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		// Tampered, malformed and expired handles all look the same to the
		// caller: the login attempt is gone, request a new code.
		return nil, xerrors.ErrLoginExpired
	}
	return &claims, nil
}
