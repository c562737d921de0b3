package config

import (
	"fmt"
	"os"
	"strings"

	"notedrop/internal/logging"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for the OS credential store.
	credentialService = "notedrop"
	// Key for the Notion integration token.
	notionTokenKey = "notion_token"
)

// Credentials handles secure storage and retrieval of the Notion
// integration token in the OS credential store (macOS Keychain, Windows
// Credential Manager, Linux Secret Service).
type Credentials struct {
	service string
}

// NewCredentials creates a credential store accessor.
func NewCredentials() *Credentials {
	return &Credentials{service: credentialService}
}

// StoreNotionToken stores the Notion integration token.
func (c *Credentials) StoreNotionToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(c.service, notionTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// NotionToken retrieves the stored token.
func (c *Credentials) NotionToken() (string, error) {
	token, err := keyring.Get(c.service, notionTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no Notion token found - set %s or run 'notedrop auth'", EnvNotionToken)
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty - set %s or run 'notedrop auth'", EnvNotionToken)
	}
	return token, nil
}

// DeleteNotionToken removes the stored token. Absence is not an error.
func (c *Credentials) DeleteNotionToken() error {
	err := keyring.Delete(c.service, notionTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasNotionToken checks whether a token is stored without retrieving it.
func (c *Credentials) HasNotionToken() bool {
	_, err := keyring.Get(c.service, notionTokenKey)
	return err == nil
}

// ResolveNotionToken looks up the Notion token: environment first, then
// the OS keyring. Returns empty when neither holds one; the server still
// starts and file tools keep working.
func ResolveNotionToken(logger *logging.AppLogger) string {
	if token := os.Getenv(EnvNotionToken); token != "" {
		return token
	}

	token, err := NewCredentials().NotionToken()
	if err != nil {
		logger.Debug("No Notion token in keyring", "error", err)
		return ""
	}
	logger.Debug("Notion token resolved from OS keyring")
	return token
}
