package config

import (
	"strings"
	"time"

	"github.com/interpay/interpay-api/internal/domain/model"
)

const defaultIncomingAmount = "50000"

// PaymentsConfig holds settlement defaults and the outgoing-grant polling policy.
type PaymentsConfig struct {
	SenderWalletURL   string `env:"SENDER_WALLET_URL"`
	ReceiverWalletURL string `env:"RECEIVER_WALLET_URL"`
	// IncomingAmount is used when a run does not specify one. Must be digits only.
	IncomingAmount string `env:"INCOMING_AMOUNT" envDefault:"50000"`

	PollInitialDelay time.Duration `env:"PAYMENTS_POLL_INITIAL_DELAY"  envDefault:"15s"`
	PollInterval     time.Duration `env:"PAYMENTS_POLL_INTERVAL"       envDefault:"5s"`
	PollMaxAttempts  int           `env:"PAYMENTS_POLL_MAX_ATTEMPTS"   envDefault:"12"`

	IncomingGrantTypes []string `env:"PAYMENTS_INCOMING_GRANT_TYPES" envSeparator:","`
}

// Sanitize applies guardrails to payment configuration values.
func (c *PaymentsConfig) Sanitize() {
	c.SenderWalletURL = strings.TrimSpace(c.SenderWalletURL)
	c.ReceiverWalletURL = strings.TrimSpace(c.ReceiverWalletURL)

	c.IncomingAmount = strings.TrimSpace(c.IncomingAmount)
	if !model.ValidAmount(c.IncomingAmount) {
		c.IncomingAmount = defaultIncomingAmount
	}

	if c.PollInitialDelay < 0 {
		c.PollInitialDelay = 0
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	}
	if c.PollMaxAttempts < 0 {
		c.PollMaxAttempts = 0
	}

	types := make([]string, 0, len(c.IncomingGrantTypes))
	for _, t := range c.IncomingGrantTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = append(types, model.DefaultIncomingGrantTypes...)
	}
	c.IncomingGrantTypes = types
}
