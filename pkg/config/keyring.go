package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "igreelbot"
	keyringTokenKey = "telegram_bot_token"
)

// ErrTokenNotFound is returned when no bot token is stored in the keychain
var ErrTokenNotFound = errors.New("bot token not found in keychain")

// SaveToken stores the bot token in the system keychain
func SaveToken(token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	if err := keyring.Set(keyringService, keyringTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// LoadToken reads the bot token from the system keychain
func LoadToken() (string, error) {
	token, err := keyring.Get(keyringService, keyringTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read token from keyring: %w", err)
	}
	return token, nil
}

// DeleteToken removes the bot token from the system keychain
func DeleteToken() error {
	err := keyring.Delete(keyringService, keyringTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
