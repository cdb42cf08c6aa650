package telegramphone

import "time"

// ========== Requests ==========

type StartLoginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type VerifyCodeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Code        string `json:"code" binding:"required"`
	SessionID   string `json:"session_id" binding:"required"`
}

type SendMessageRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

// ========== Responses ==========

type StartLoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SessionID   string `json:"session_id"`
	PhoneNumber string `json:"phone_number"`
}

type VerifyCodeResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	User     *Account `json:"user"`
	ConfigID int64    `json:"config_id"`
}

type TestConnectionResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *Account `json:"user"`
}

type SendMessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID int    `json:"message_id"`
}

// ConfigView is the sanitized session view: masked phone, no session payload.
type ConfigView struct {
	ID                int64      `json:"id"`
	PhoneNumberMasked string     `json:"phone_number_masked"`
	UserFirstName     string     `json:"user_first_name,omitempty"`
	UserLastName      string     `json:"user_last_name,omitempty"`
	UserUsername      string     `json:"user_username,omitempty"`
	IsActive          bool       `json:"is_active"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
}

type ConfigResponse struct {
	Config *ConfigView `json:"config"`
}
