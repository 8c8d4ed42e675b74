// Package sandbox provides an in-process AuthorizationClient for local development.
//
// Wallets, grant outcomes and quote pricing come from a YAML scenario so a
// settlement run can be driven end to end without reaching a real network.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/interpay/interpay-api/internal/domain/model"
)

// GrantMode is the outcome the sandbox produces for a grant request.
type GrantMode string

const (
	// ModeFinalized returns an access token immediately.
	ModeFinalized GrantMode = "finalized"
	// ModeInteractive returns a redirect plus continuation details.
	ModeInteractive GrantMode = "interactive"
	// ModePending returns continuation details only.
	ModePending GrantMode = "pending"
)

// GrantBehavior configures one access type.
type GrantBehavior struct {
	Mode GrantMode `yaml:"mode"`
	// ApproveAfter is how many continuations are answered with a pending grant
	// before the grant finalizes. Zero finalizes on the first continuation.
	ApproveAfter int `yaml:"approveAfter"`
	// Reject makes every request for this access type fail.
	Reject bool `yaml:"reject"`
}

// QuotePricing prices quotes: debit = receive + ceil(receive * feeRate) + fixedFee.
type QuotePricing struct {
	FeeRate  string `yaml:"feeRate"`
	FixedFee string `yaml:"fixedFee"`
}

// Scenario describes the sandbox world.
type Scenario struct {
	// BaseURL prefixes generated interaction and continuation URLs.
	BaseURL string         `yaml:"baseURL"`
	Wallets []model.Wallet `yaml:"wallets"`
	// Grants is keyed by canonical access type: incoming-payment, quote, outgoing-payment.
	Grants map[string]GrantBehavior `yaml:"grants"`
	// IncomingTypes lists the incoming-payment spellings the sandbox accepts.
	IncomingTypes []string     `yaml:"incomingTypes"`
	Quote         QuotePricing `yaml:"quote"`
	// Failures maps an operation (wallet, continue, incoming-payment, quote,
	// outgoing-payment) to the error message it fails with.
	Failures map[string]string `yaml:"failures"`
}

// DefaultScenario returns a two-wallet world where the outgoing-payment grant
// needs interaction and is approved on the second continuation.
func DefaultScenario() Scenario {
	return Scenario{
		BaseURL: "https://sandbox.interpay.local",
		Wallets: []model.Wallet{
			{
				ID:             "https://sandbox.interpay.local/alice",
				PublicName:     "Alice",
				AssetCode:      "USD",
				AssetScale:     2,
				AuthServer:     "https://sandbox.interpay.local/auth",
				ResourceServer: "https://sandbox.interpay.local/rs",
			},
			{
				ID:             "https://sandbox.interpay.local/bob",
				PublicName:     "Bob",
				AssetCode:      "USD",
				AssetScale:     2,
				AuthServer:     "https://sandbox.interpay.local/auth",
				ResourceServer: "https://sandbox.interpay.local/rs",
			},
		},
		Grants: map[string]GrantBehavior{
			string(model.AccessIncomingPayment): {Mode: ModeFinalized},
			string(model.AccessQuote):           {Mode: ModeFinalized},
			string(model.AccessOutgoingPayment): {Mode: ModeInteractive, ApproveAfter: 1},
		},
		IncomingTypes: []string{"incoming-payment"},
		Quote:         QuotePricing{FeeRate: "0.01", FixedFee: "0"},
	}
}

// LoadScenario reads a YAML scenario. Fields left out keep their DefaultScenario values.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read sandbox scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes a YAML scenario over DefaultScenario and validates it.
func ParseScenario(raw []byte) (Scenario, error) {
	sc := DefaultScenario()
	var in Scenario
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return Scenario{}, fmt.Errorf("decode sandbox scenario: %w", err)
	}
	if in.BaseURL != "" {
		sc.BaseURL = in.BaseURL
	}
	if len(in.Wallets) > 0 {
		sc.Wallets = in.Wallets
	}
	for k, v := range in.Grants {
		sc.Grants[k] = v
	}
	if len(in.IncomingTypes) > 0 {
		sc.IncomingTypes = in.IncomingTypes
	}
	if in.Quote.FeeRate != "" {
		sc.Quote.FeeRate = in.Quote.FeeRate
	}
	if in.Quote.FixedFee != "" {
		sc.Quote.FixedFee = in.Quote.FixedFee
	}
	sc.Failures = in.Failures
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks that wallets are complete and pricing parses.
func (s Scenario) Validate() error {
	if len(s.Wallets) == 0 {
		return errors.New("sandbox scenario: at least one wallet is required")
	}
	for i, w := range s.Wallets {
		if w.ID == "" || w.AuthServer == "" || w.ResourceServer == "" || w.AssetCode == "" {
			return fmt.Errorf("sandbox scenario: wallet %d needs id, authServer, resourceServer and assetCode", i)
		}
	}
	for typ, b := range s.Grants {
		switch b.Mode {
		case ModeFinalized, ModeInteractive, ModePending:
		default:
			return fmt.Errorf("sandbox scenario: grant %q has unknown mode %q", typ, b.Mode)
		}
		if b.ApproveAfter < 0 {
			return fmt.Errorf("sandbox scenario: grant %q approveAfter must not be negative", typ)
		}
	}
	if _, _, err := s.Quote.parse(); err != nil {
		return err
	}
	return nil
}

func (p QuotePricing) parse() (decimal.Decimal, decimal.Decimal, error) {
	rate, err := decimalOrZero(p.FeeRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sandbox scenario: feeRate: %w", err)
	}
	fixed, err := decimalOrZero(p.FixedFee)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sandbox scenario: fixedFee: %w", err)
	}
	if rate.IsNegative() || fixed.IsNegative() {
		return decimal.Zero, decimal.Zero, errors.New("sandbox scenario: fees must not be negative")
	}
	return rate, fixed, nil
}

// Debit returns the amount a sender pays to deliver receive.
func (p QuotePricing) Debit(receive string) (string, error) {
	rate, fixed, err := p.parse()
	if err != nil {
		return "", err
	}
	amount, err := decimal.NewFromString(receive)
	if err != nil {
		return "", fmt.Errorf("receive amount %q: %w", receive, err)
	}
	fee := amount.Mul(rate).Ceil().Add(fixed.Ceil())
	return amount.Add(fee).StringFixed(0), nil
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
