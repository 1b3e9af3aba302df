package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "paystubdl"
	keyringPrefix  = "portal_"
	keyringCheck   = "availability-check"
)

// KeyringStore keeps each account as a JSON secret in the system keychain
// (Secret Service, macOS Keychain or Windows Credential Manager)
type KeyringStore struct{}

// NewKeyringStore returns an error when the keychain refuses a test write,
// e.g. on a headless machine without a Secret Service
func NewKeyringStore() (*KeyringStore, error) {
	if err := keyring.Set(keyringService, keyringCheck, "ok"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(keyringService, keyringCheck)

	return &KeyringStore{}, nil
}

func secretKey(username string) string {
	return keyringPrefix + username
}

func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	secret, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := keyring.Set(keyringService, secretKey(account.Username), string(secret)); err != nil {
		return fmt.Errorf("keyring write: %w", err)
	}
	return nil
}

func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	secret, err := keyring.Get(keyringService, secretKey(username))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring read: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(secret), &account); err != nil {
		return nil, fmt.Errorf("decode keyring entry for %s: %w", username, err)
	}
	return &account, nil
}

// List returns nothing: go-keyring cannot enumerate entries portably
func (k *KeyringStore) List() ([]*Account, error) {
	return []*Account{}, nil
}

func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	err := keyring.Delete(keyringService, secretKey(username))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

func (k *KeyringStore) Exists(username string) bool {
	_, err := k.Retrieve(username)
	return err == nil
}
