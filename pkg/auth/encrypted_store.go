package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultVersion = 1
	saltSize     = 32
	keySize      = 32
	kdfRounds    = 100000

	passphraseEnv  = "PAYSTUBDL_PASSPHRASE"
	passphraseFile = ".passphrase"
)

// EncryptedFileStore keeps portal passwords in an AES-GCM sealed file.
// It is used when no system keyring is available.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// vault is the on-disk layout. Sealed holds the JSON account map; byte
// slices are base64 encoded by encoding/json.
type vault struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// NewEncryptedFileStore opens the store at path. The passphrase comes
// from PAYSTUBDL_PASSPHRASE or, failing that, a generated .passphrase
// file in the same directory.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create credentials directory: %w", err)
	}

	passphrase, err := loadPassphrase(dir)
	if err != nil {
		return nil, err
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store adds or replaces the account
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, salt, err := e.read()
	if err != nil {
		return err
	}
	accounts[account.Username] = *account

	return e.write(accounts, salt)
}

// Retrieve returns the stored account for username
func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, _, err := e.read()
	if err != nil {
		return nil, err
	}

	account, ok := accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns every stored account
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, _, err := e.read()
	if err != nil {
		return nil, err
	}

	list := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, &account)
	}
	return list, nil
}

// Delete removes the account. The file goes away with the last account.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, salt, err := e.read()
	if err != nil {
		return err
	}
	if _, ok := accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(accounts, username)

	if len(accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.write(accounts, salt)
}

// Exists reports whether username has a stored account
func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// read opens the vault. A missing file is an empty vault with no salt.
func (e *EncryptedFileStore) read() (map[string]Account, []byte, error) {
	accounts := make(map[string]Account)

	raw, err := os.ReadFile(e.path)
	if errors.Is(err, os.ErrNotExist) {
		return accounts, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read credentials file: %w", err)
	}

	var v vault
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if v.Version != vaultVersion {
		return nil, nil, fmt.Errorf("unsupported credentials file version %d", v.Version)
	}

	plain, err := open(e.key(v.Salt), v.Sealed)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt credentials file (wrong passphrase?): %w", err)
	}

	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, nil, fmt.Errorf("parse stored accounts: %w", err)
	}
	return accounts, v.Salt, nil
}

// write seals accounts and replaces the vault through a temp file.
// A nil salt starts a new vault.
func (e *EncryptedFileStore) write(accounts map[string]Account, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	sealed, err := seal(e.key(salt), plain)
	if err != nil {
		return fmt.Errorf("encrypt accounts: %w", err)
	}

	raw, err := json.MarshalIndent(vault{
		Version:  vaultVersion,
		Salt:     salt,
		Sealed:   sealed,
		Modified: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".credentials.*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}

	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}

// key derives the AES key for salt
func (e *EncryptedFileStore) key(salt []byte) []byte {
	return pbkdf2.Key(e.passphrase, salt, kdfRounds, keySize, sha256.New)
}

// loadPassphrase returns the environment passphrase, the one stored in
// dir, or a newly generated and stored one
func loadPassphrase(dir string) ([]byte, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return []byte(pass), nil
	}

	path := filepath.Join(dir, passphraseFile)
	if stored, err := os.ReadFile(path); err == nil && len(stored) > 0 {
		return stored, nil
	}

	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("generate passphrase: %w", err)
	}
	pass := []byte(base64.URLEncoding.EncodeToString(random))

	if err := os.WriteFile(path, pass, 0600); err != nil {
		return nil, fmt.Errorf("store passphrase: %w", err)
	}
	return pass, nil
}

// seal encrypts plain with AES-GCM, prefixing the random nonce
func seal(key, plain []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// open reverses seal
func open(key, sealed []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	n := aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("sealed data too short")
	}
	return aead.Open(nil, sealed[:n], sealed[n:], nil)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
