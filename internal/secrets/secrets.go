// Package secrets resolves API keys from the OS keyring with an
// environment fallback, so config files can stay free of credentials.
package secrets

import (
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const service = "clawdbot"

// Get resolves a secret: explicit value wins, then the OS keyring, then
// the environment variable. Returns "" when nothing is set.
func Get(explicit, keyringKey, envVar string) string {
	if explicit != "" {
		return explicit
	}
	if keyringKey != "" {
		if v, err := keyring.Get(service, keyringKey); err == nil && v != "" {
			return v
		}
	}
	if envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}

// Set stores a secret in the OS keyring.
func Set(key, value string) error {
	return keyring.Set(service, key, value)
}

// Delete removes a secret from the OS keyring. Missing entries are not an
// error.
func Delete(key string) error {
	err := keyring.Delete(service, key)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// Probe reports whether the OS keyring is usable on this host.
func Probe() bool {
	if err := keyring.Set(service, "probe", "ok"); err != nil {
		slog.Debug("keyring unavailable", "error", err)
		return false
	}
	_ = keyring.Delete(service, "probe")
	return true
}
