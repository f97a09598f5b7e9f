package auth

import (
	"os"
	"time"
)

// BearerTokenEnv is read by EnvironmentStore
const BearerTokenEnv = "TWEETSCRAPER_BEARER_TOKEN"

// EnvironmentStore exposes TWEETSCRAPER_BEARER_TOKEN as a read-only credential
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token under the requested name, or "env"
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	token := os.Getenv(BearerTokenEnv)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "env"
	}

	return &Credential{
		Name:         name,
		BearerToken:  token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if the variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment token is set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(BearerTokenEnv) != ""
}
