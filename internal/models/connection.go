package models

import "time"

// Connection links a directory user to a provider account. The token fields
// are ciphertext produced by the secrets codec; plaintext never reaches
// storage. At most one Connection exists per owner.
type Connection struct {
	OwnerID               string    `json:"owner_id"`
	EncryptedAccessToken  string    `json:"encrypted_access_token"`
	EncryptedRefreshToken string    `json:"encrypted_refresh_token"`
	UpdatedAt             time.Time `json:"updated_at"`
}
