// Package credential stores the explorer API key and resolves which key a
// command should use.
package credential

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	keychainService = "txdash"
	apiKeyRef       = keychainService + ".etherscan-api-key"

	// EnvAPIKey is consulted before the keychain.
	EnvAPIKey = "ETHERSCAN_API_KEY"
)

// ErrNotFound is returned when no key is stored.
var ErrNotFound = errors.New("no API key stored")

// Store persists the API key.
type Store interface {
	Set(key string) error
	Get() (string, error)
	Delete() error
}

// Keychain is a Store backed by the OS keychain.
type Keychain struct {
	ring keyring.Keyring
}

// OpenKeychain opens the OS keychain, falling back to an encrypted file in
// dir when no keychain service is reachable.
func OpenKeychain(dir string) *Keychain {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         filePassword,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		ring, _ = keyring.Open(keyring.Config{
			ServiceName:      keychainService,
			AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
			FileDir:          dir,
			FilePasswordFunc: filePassword,
		})
	}
	return &Keychain{ring: ring}
}

// filePassword unlocks the file backend with TXDASH_KEYRING_PASSWORD, or a
// fixed passphrase when unset so non-interactive use keeps working.
func filePassword(string) (string, error) {
	if p := os.Getenv("TXDASH_KEYRING_PASSWORD"); p != "" {
		return p, nil
	}
	return keychainService, nil
}

func (k *Keychain) Set(key string) error {
	if k.ring == nil {
		return fmt.Errorf("keychain not available")
	}
	if err := k.ring.Set(keyring.Item{Key: apiKeyRef, Data: []byte(key), Label: "txdash Etherscan API key"}); err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

func (k *Keychain) Get() (string, error) {
	if k.ring == nil {
		return "", ErrNotFound
	}
	item, err := k.ring.Get(apiKeyRef)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

func (k *Keychain) Delete() error {
	if k.ring == nil {
		return nil
	}
	err := k.ring.Remove(apiKeyRef)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// Memory is an in-process Store (for tests).
type Memory struct {
	key string
}

func (m *Memory) Set(key string) error { m.key = key; return nil }

func (m *Memory) Get() (string, error) {
	if m.key == "" {
		return "", ErrNotFound
	}
	return m.key, nil
}

func (m *Memory) Delete() error {
	if m.key == "" {
		return ErrNotFound
	}
	m.key = ""
	return nil
}

// Source names where a resolved key came from.
type Source string

const (
	FromFlag     Source = "flag"
	FromEnv      Source = "env"
	FromKeychain Source = "keychain"
)

// Resolve picks the API key: the explicit flag value, then $ETHERSCAN_API_KEY,
// then the store. An empty key with a nil error means none is configured.
func Resolve(flag string, store Store) (string, Source, error) {
	if k := strings.TrimSpace(flag); k != "" {
		return k, FromFlag, nil
	}
	if k := strings.TrimSpace(os.Getenv(EnvAPIKey)); k != "" {
		return k, FromEnv, nil
	}
	if store == nil {
		return "", "", nil
	}
	k, err := store.Get()
	if errors.Is(err, ErrNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(k), FromKeychain, nil
}

// Mask shows the first and last four characters of key.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
