package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. It has the highest precedence.
	File string
	// Env names an environment variable holding the secret.
	Env string
	// KeyringService and KeyringUser address an entry in the OS keychain.
	KeyringService string
	KeyringUser    string
}

// ErrNotConfigured is returned when none of the sources yields a value.
var ErrNotConfigured = errors.New("not configured")

var keyringGet = keyring.Get

// Load returns the resolved secret value from the provided source.
// Precedence is File, Env, keychain, then Value. The returned secret is always trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	service := strings.TrimSpace(src.KeyringService)
	user := strings.TrimSpace(src.KeyringUser)
	if service != "" && user != "" {
		secret, err := keyringGet(service, user)
		switch {
		case err == nil && strings.TrimSpace(secret) != "":
			return strings.TrimSpace(secret), nil
		case err != nil && !errors.Is(err, keyring.ErrNotFound):
			return "", fmt.Errorf("reading %s from keychain %s/%s: %w", name, service, user, err)
		}
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
}
