package config

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ClientMode selects the AuthorizationClient implementation.
type ClientMode string

const (
	// ClientModeSandbox runs the in-process sandbox client.
	ClientModeSandbox ClientMode = "sandbox"
)

// ClientConfig selects and configures the authorization client.
type ClientConfig struct {
	Mode ClientMode `env:"AUTH_CLIENT_MODE" envDefault:"sandbox"`

	// WalletURL, KeyID and the private key identify this service to
	// authorization servers when requests are signed.
	WalletURL      string `env:"CLIENT_WALLET_URL"`
	KeyID          string `env:"KEY_ID"`
	PrivateKey     string `env:"PRIVATE_KEY"`
	PrivateKeyFile string `env:"PRIVATE_KEY_FILE"`

	// SandboxScenarioFile is an optional YAML scenario for the sandbox client.
	SandboxScenarioFile string `env:"SANDBOX_SCENARIO_FILE"`
}

// Sanitize normalises client configuration values.
func (c *ClientConfig) Sanitize() {
	c.Mode = ClientMode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	if c.Mode == "" {
		c.Mode = ClientModeSandbox
	}
	c.WalletURL = strings.TrimSpace(c.WalletURL)
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.PrivateKeyFile = strings.TrimSpace(c.PrivateKeyFile)
	c.SandboxScenarioFile = strings.TrimSpace(c.SandboxScenarioFile)
}

// Validate reports configuration the selected client cannot run with.
func (c *ClientConfig) Validate() error {
	if c.Mode != ClientModeSandbox {
		return fmt.Errorf("unsupported AUTH_CLIENT_MODE %q", c.Mode)
	}
	if c.HasSigningKey() && c.KeyID == "" {
		return errors.New("KEY_ID is required when a private key is configured")
	}
	return nil
}

// HasSigningKey reports whether key material was configured.
func (c *ClientConfig) HasSigningKey() bool {
	return strings.TrimSpace(c.PrivateKey) != "" || c.PrivateKeyFile != ""
}

// ResolvePrivateKey loads the Ed25519 signing key from PRIVATE_KEY_FILE or
// PRIVATE_KEY. PRIVATE_KEY may hold PEM text or base64-encoded PEM.
func (c *ClientConfig) ResolvePrivateKey() (ed25519.PrivateKey, error) {
	var raw []byte
	switch {
	case c.PrivateKeyFile != "":
		b, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		raw = b
	case strings.TrimSpace(c.PrivateKey) != "":
		raw = []byte(strings.TrimSpace(c.PrivateKey))
	default:
		return nil, errors.New("no private key configured")
	}

	if !strings.Contains(string(raw), "-----BEGIN") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("private key is neither PEM nor base64: %w", err)
		}
		raw = decoded
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("private key: no PEM block found")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key must be Ed25519, got %T", parsed)
	}
	return key, nil
}
