package credential

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "expedientes"

// filePasswordEnv holds the key for the encrypted-file backend. Without it
// the file backend is not offered.
const filePasswordEnv = "EXPEDIENTES_KEYRING_PASSWORD"

// Keyring keys for the judicial portal account
const (
	PortalUserKey = "portal_user"
	PortalPassKey = "portal_pass"
)

// Opener opens the backing keyring; tests replace it with an in-memory ring
var Opener = openKeyring

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyringConfig(os.Getenv(filePasswordEnv)))
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func keyringConfig(filePassword string) keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	}
	if filePassword != "" {
		cfg.AllowedBackends = append(cfg.AllowedBackends, keyring.FileBackend)
		cfg.FileDir = "~/.config/expedientes/credentials"
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(filePassword)
	}
	return cfg
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := Opener()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := Opener()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "Expedientes portal " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// ResolvePortal returns the portal account, preferring the values already
// loaded from the environment and filling blanks from the keyring. Missing
// entries resolve to empty strings; the login step rejects them.
func ResolvePortal(envUser, envPass string) (user, pass string) {
	user, pass = envUser, envPass
	if user != "" && pass != "" {
		return user, pass
	}

	if user == "" {
		user = lookup(PortalUserKey)
	}
	if pass == "" {
		pass = lookup(PortalPassKey)
	}
	return user, pass
}

func lookup(key string) string {
	value, err := Get(key)
	if err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			log.Printf("[WARNING] Keyring lookup for %s failed: %v", key, err)
		}
		return ""
	}
	return value
}
