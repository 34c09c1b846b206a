package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "workhub"

// ErrNotFound is returned by Get when no item exists for the key.
var ErrNotFound = errors.New("credential not found")

// Keyring stores small secrets (the persisted session blob) in the system
// keyring, falling back to an encrypted file.
type Keyring struct {
	ring keyring.Keyring
}

// Open returns a Keyring backed by the first available system backend.
// dir is used by the file backend.
func Open(dir string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("workhub-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

// New wraps an already opened keyring, e.g. keyring.NewArrayKeyring in tests.
func New(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// Get retrieves a credential value by key.
func (k *Keyring) Get(key string) ([]byte, error) {
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", key, err)
	}

	return item.Data, nil
}

// Set stores a credential value by key.
func (k *Keyring) Set(key string, value []byte) error {
	err := k.ring.Set(keyring.Item{
		Key:  key,
		Data: value,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an
// error.
func (k *Keyring) Delete(key string) error {
	err := k.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
