package validator

import "time"

// Header is the decoded JOSE header of a compact token.
type Header struct {
	KeyID     string `json:"kid"`
	Algorithm string `json:"alg"`
	Type      string `json:"typ,omitempty"`
}

// VerifiedClaims are the claims of a token whose signature and validity
// window have been checked. Subject is never empty.
type VerifiedClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	NotBefore time.Time

	// Extra holds every non-registered claim.
	Extra map[string]any
}

// GetSubject returns the subject claim.
func (c *VerifiedClaims) GetSubject() string {
	return c.Subject
}
