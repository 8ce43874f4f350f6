package identity

import (
	"encoding/json"
	"fmt"
	"time"
)

// App is a Passage application.
type App struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	AuthOrigin            string `json:"auth_origin"`
	RedirectURL           string `json:"redirect_url"`
	LoginURL              string `json:"login_url"`
	AllowedIdentifier     string `json:"allowed_identifier"`
	RequiredIdentifier    string `json:"required_identifier"`
	SessionTimeoutLength  int    `json:"session_timeout_length"`
	RefreshEnabled        bool   `json:"refresh_enabled"`
	RefreshAbsoluteLength int    `json:"refresh_absolute_lifetime"`
}

// MagicLink is a single-use login link.
type MagicLink struct {
	ID          string `json:"id"`
	Secret      string `json:"secret"`
	Activated   bool   `json:"activated"`
	UserID      string `json:"user_id"`
	AppID       string `json:"app_id"`
	Identifier  string `json:"identifier"`
	Type        string `json:"type"`
	RedirectURL string `json:"redirect_url"`
	TTL         int    `json:"ttl"`
	URL         string `json:"url"`
}

// Device is a WebAuthn credential registered by a user.
type Device struct {
	ID           string    `json:"id"`
	CredID       string    `json:"cred_id"`
	FriendlyName string    `json:"friendly_name"`
	UsageCount   int       `json:"usage_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// User is a Passage user.
type User struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Phone         string         `json:"phone"`
	PhoneVerified bool           `json:"phone_verified"`
	LoginCount    int            `json:"login_count"`
	WebAuthn      bool           `json:"webauthn"`
	UserMetadata  map[string]any `json:"user_metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	LastLoginAt   time.Time      `json:"last_login_at"`
}

// UnmarshalJSON parses created_at and last_login_at as RFC 3339 timestamps.
// Missing or empty timestamps leave the zero time.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		CreatedAt   string `json:"created_at"`
		LastLoginAt string `json:"last_login_at"`
	}{plain: (*plain)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if u.CreatedAt, err = parseTime(aux.CreatedAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if u.LastLoginAt, err = parseTime(aux.LastLoginAt); err != nil {
		return fmt.Errorf("last_login_at: %w", err)
	}
	return nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// AuthResult is the outcome of a refresh-token exchange.
type AuthResult struct {
	AuthToken              string `json:"auth_token"`
	RefreshToken           string `json:"refresh_token"`
	RefreshTokenExpiration int    `json:"refresh_token_expiration"`
	RedirectURL            string `json:"redirect_url"`
}

// CreateUserRequest is the payload of CreateUser. At least one of Email and
// Phone must be set.
type CreateUserRequest struct {
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// UpdateUserRequest is the payload of UpdateUser. Empty fields are left
// unchanged.
type UpdateUserRequest struct {
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}
