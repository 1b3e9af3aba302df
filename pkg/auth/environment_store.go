package auth

import (
	"os"
	"time"
)

const (
	envUsername = "PAYSTUBDL_USERNAME"
	envPassword = "PAYSTUBDL_PASSWORD"
)

// EnvironmentStore is a read-only CredentialStore over PAYSTUBDL_USERNAME
// and PAYSTUBDL_PASSWORD
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials. When PAYSTUBDL_USERNAME is
// set it must match username.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	password := os.Getenv(envPassword)
	if password == "" {
		return nil, ErrCredentialsNotFound
	}

	envUser := os.Getenv(envUsername)
	switch {
	case envUser != "" && username != "" && envUser != username:
		return nil, ErrCredentialsNotFound
	case envUser != "":
		username = envUser
	case username == "":
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     username,
		Password:     password,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist for username
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
