package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Account holds the portal login for one user
type Account struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore persists portal accounts keyed by username
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
	Exists(username string) bool
}

// Manager consults a chain of credential stores in priority order
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a Manager rooted at ConfigDir
func NewManager() (*Manager, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	return NewManagerAt(dir)
}

// NewManagerAt builds the store chain: the system keyring when it is
// usable, then credentials.enc under dir, then the read-only environment.
func NewManagerAt(dir string) (*Manager, error) {
	var stores []CredentialStore

	if kr, err := NewKeyringStore(); err == nil {
		stores = append(stores, kr)
	}

	file, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("open encrypted store: %w", err)
	}
	stores = append(stores, file, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store writes account to the first store that accepts it and stamps
// LastModified
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Username == "" || account.Password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	account.LastModified = time.Now()

	var failures []error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		failures = append(failures, err)
	}

	if len(failures) == 0 {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("store credentials: %w", errors.Join(failures...))
}

// Retrieve returns the account from the first store holding username
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		account, err := store.Retrieve(username)
		if err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrCredentialsNotFound, username)
}

// Exists reports whether any store holds username
func (m *Manager) Exists(username string) bool {
	for _, store := range m.stores {
		if store.Exists(username) {
			return true
		}
	}
	return false
}

// List merges the accounts of every store, keeping the most recently
// modified entry per username, sorted by username
func (m *Manager) List() ([]*Account, error) {
	latest := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, a := range accounts {
			if seen, ok := latest[a.Username]; !ok || a.LastModified.After(seen.LastModified) {
				latest[a.Username] = a
			}
		}
	}

	merged := make([]*Account, 0, len(latest))
	for _, a := range latest {
		merged = append(merged, a)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Username < merged[j].Username })

	return merged, nil
}

// Delete removes username from every writable store. Stores that do not
// hold the account or cannot be written are ignored.
func (m *Manager) Delete(username string) error {
	deleted := false
	var failures []error

	for _, store := range m.stores {
		err := store.Delete(username)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("delete credentials: %w", errors.Join(failures...))
	}
	if !deleted {
		return fmt.Errorf("%w for %s", ErrCredentialsNotFound, username)
	}
	return nil
}

// ConfigDir returns the per-user paystubdl directory, creating it 0700
func ConfigDir() (string, error) {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
	}

	dir := filepath.Join(base, "paystubdl")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

// SanitizeAccount returns a copy of account safe to print
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	masked := *account
	masked.Password = maskString(account.Password)
	return &masked
}

// maskString keeps the first and last two characters of long secrets
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:2] + "..." + s[len(s)-2:]
}
