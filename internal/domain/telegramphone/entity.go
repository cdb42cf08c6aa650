package telegramphone

import (
	"database/sql"
	"time"
)

// PhoneSession is one completed MTProto phone login for a license.
// SessionData holds the encrypted session payload; plaintext session strings
// never leave the service layer.
type PhoneSession struct {
	ID          int64
	LicenseID   int64
	PhoneNumber string
	SessionData []byte

	// Remote profile as reported by Telegram at link time
	UserID        sql.NullString
	UserFirstName sql.NullString
	UserLastName  sql.NullString
	UserUsername  sql.NullString

	IsActive     bool
	LastSyncedAt sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SentCode is what the provider hands back after requesting a login code:
// the code hash Telegram expects on sign-in and the in-flight session bytes
// that must resume the same DC negotiation.
type SentCode struct {
	PhoneCodeHash string
	Session       []byte
}

// Account is the remote Telegram user profile.
type Account struct {
	ID        int64  `json:"id"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}
