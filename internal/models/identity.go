package models

// UserIdentity is a reference to a user record owned by the external
// directory service. Tether never creates or mutates identities; it only
// resolves session tokens to them.
type UserIdentity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// TokenPair holds the plaintext provider tokens returned by a code exchange.
// It exists only transiently in memory; the stored form is always encrypted.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
