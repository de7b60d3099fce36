package secrets

import "time"

// Secret is the stored form. EncryptedToken holds ciphertext only.
type Secret struct {
	Name           string    `bson:"_key"`
	DisplayName    string    `bson:"displayName"`
	EnvironmentID  string    `bson:"environmentId"`
	EncryptedToken string    `bson:"encryptedToken"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// Input carries a plaintext token to be saved.
type Input struct {
	Name          string `json:"name" validate:"required,max=128"`
	DisplayName   string `json:"displayName" validate:"required,max=256"`
	EnvironmentID string `json:"environmentId" validate:"required,max=128"`
	Token         string `json:"token" validate:"required"`
}

// View is a secret with its token decrypted.
type View struct {
	Name          string `json:"name"`
	DisplayName   string `json:"displayName"`
	EnvironmentID string `json:"environmentId"`
	Token         string `json:"token"`
}
