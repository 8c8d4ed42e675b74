package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/domain/model"
)

// Operation names usable as Scenario.Failures keys.
const (
	OpWallet          = "wallet"
	OpContinue        = "continue"
	OpIncomingPayment = "incoming-payment"
	OpQuote           = "quote"
	OpOutgoingPayment = "outgoing-payment"
)

// ErrUnauthorized is returned when a resource call presents an unknown or mismatched token.
var ErrUnauthorized = errors.New("sandbox: access token not valid for this request")

// Options configures the sandbox client.
type Options struct {
	Scenario Scenario         // Required
	Clock    func() time.Time // Optional: defaults to time.Now
	Logger   *slog.Logger     // Optional
}

type issuedToken struct {
	accessType string
	access     model.Access
}

type pendingGrant struct {
	accessType string
	access     model.Access
	remaining  int
}

// Client is an in-process core.AuthorizationClient.
type Client struct {
	scenario Scenario
	wallets  map[string]model.Wallet
	clock    func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	tokens   map[string]issuedToken
	pending  map[string]*pendingGrant // keyed by continuation token
	incoming map[string]model.Resource
	quotes   map[string]model.Resource
}

var _ core.AuthorizationClient = (*Client)(nil)

// NewClient constructs a sandbox client.
func NewClient(opts Options) (*Client, error) {
	if err := opts.Scenario.Validate(); err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wallets := make(map[string]model.Wallet, len(opts.Scenario.Wallets))
	for _, w := range opts.Scenario.Wallets {
		wallets[normalizeWalletURL(w.ID)] = w
	}
	return &Client{
		scenario: opts.Scenario,
		wallets:  wallets,
		clock:    clock,
		logger:   logger.With("component", "sandbox_client"),
		tokens:   make(map[string]issuedToken),
		pending:  make(map[string]*pendingGrant),
		incoming: make(map[string]model.Resource),
		quotes:   make(map[string]model.Resource),
	}, nil
}

// normalizeWalletURL accepts payment pointers ($host/path) and trailing slashes.
func normalizeWalletURL(raw string) string {
	u := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(u, "$"); ok {
		u = "https://" + rest
	}
	return strings.TrimRight(u, "/")
}

func (c *Client) failure(op string) error {
	if msg, ok := c.scenario.Failures[op]; ok {
		return fmt.Errorf("sandbox %s: %s", op, msg)
	}
	return nil
}

// ResolveWallet returns the scenario wallet for url.
func (c *Client) ResolveWallet(ctx context.Context, url string) (*model.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.failure(OpWallet); err != nil {
		return nil, err
	}
	w, ok := c.wallets[normalizeWalletURL(url)]
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown wallet address %q", url)
	}
	return &w, nil
}

// canonicalType maps accepted spellings to a Scenario.Grants key.
func (c *Client) canonicalType(typeName string) (string, error) {
	switch typeName {
	case string(model.AccessQuote), string(model.AccessOutgoingPayment):
		return typeName, nil
	}
	if slices.Contains(c.scenario.IncomingTypes, typeName) {
		return string(model.AccessIncomingPayment), nil
	}
	return "", fmt.Errorf("invalid_request: unsupported access type %q", typeName)
}

// RequestGrant issues a grant shaped by the scenario's behavior for the requested type.
func (c *Client) RequestGrant(ctx context.Context, authServer string, req model.GrantRequest) (*model.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.AccessToken.Access) == 0 {
		return nil, errors.New("invalid_request: access list is empty")
	}
	access := req.AccessToken.Access[0]
	accessType, err := c.canonicalType(access.Type)
	if err != nil {
		return nil, err
	}
	behavior, ok := c.scenario.Grants[accessType]
	if !ok {
		behavior = GrantBehavior{Mode: ModeFinalized}
	}
	if behavior.Reject {
		return nil, fmt.Errorf("access_denied: %s grants are rejected", accessType)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if behavior.Mode == ModeFinalized {
		return &model.Grant{AccessToken: c.issueLocked(accessType, access)}, nil
	}

	contToken := uuid.NewString()
	c.pending[contToken] = &pendingGrant{accessType: accessType, access: access, remaining: behavior.ApproveAfter}
	grant := &model.Grant{Continue: &model.Continuation{
		URI:         c.scenario.BaseURL + "/continue/" + contToken,
		AccessToken: model.AccessToken{Value: contToken},
	}}
	if behavior.Mode == ModeInteractive {
		grant.Interact = &model.Interaction{
			Redirect: c.scenario.BaseURL + "/interact/" + contToken,
			Finish:   uuid.NewString(),
		}
	}
	c.logger.DebugContext(ctx, "sandbox grant pending",
		"auth_server", authServer,
		"type", accessType,
		"mode", behavior.Mode,
	)
	return grant, nil
}

func (c *Client) issueLocked(accessType string, access model.Access) *model.AccessToken {
	value := uuid.NewString()
	c.tokens[value] = issuedToken{accessType: accessType, access: access}
	return &model.AccessToken{
		Value:     value,
		Manage:    c.scenario.BaseURL + "/token/" + value,
		ExpiresIn: 600,
		Access:    []model.Access{access},
	}
}

// ContinueGrant counts down the pending grant and finalizes it once approved.
func (c *Client) ContinueGrant(ctx context.Context, continueURI, continueToken string) (*model.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.failure(OpContinue); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(continueURI, "/"+continueToken) {
		return nil, errors.New("invalid_continuation: token does not match continuation URI")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[continueToken]
	if !ok {
		return nil, errors.New("invalid_continuation: unknown continuation token")
	}
	if p.remaining > 0 {
		p.remaining--
		return &model.Grant{Continue: &model.Continuation{
			URI:         continueURI,
			AccessToken: model.AccessToken{Value: continueToken},
			Wait:        5,
		}}, nil
	}
	delete(c.pending, continueToken)
	return &model.Grant{AccessToken: c.issueLocked(p.accessType, p.access)}, nil
}

func (c *Client) authorize(token, accessType string) (issuedToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[token]
	if !ok || t.accessType != accessType {
		return issuedToken{}, ErrUnauthorized
	}
	return t, nil
}

func (c *Client) resourceID(rs, kind string) string {
	return strings.TrimRight(rs, "/") + "/" + kind + "/" + uuid.NewString()
}

func (c *Client) timestamp() string {
	return c.clock().UTC().Format(time.RFC3339)
}

// CreateIncomingPayment creates an incoming payment on the receiver's resource server.
func (c *Client) CreateIncomingPayment(ctx context.Context, target core.ResourceTarget, req model.IncomingPaymentRequest) (model.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.failure(OpIncomingPayment); err != nil {
		return nil, err
	}
	if _, err := c.authorize(target.AccessToken, string(model.AccessIncomingPayment)); err != nil {
		return nil, err
	}
	w, err := c.ResolveWallet(ctx, req.WalletAddress)
	if err != nil {
		return nil, err
	}
	res := model.Resource{
		"id":             c.resourceID(target.ResourceServer, "incoming-payments"),
		"walletAddress":  w.ID,
		"completed":      false,
		"receivedAmount": amountMap(w.AmountIn("0")),
		"createdAt":      c.timestamp(),
	}
	if req.IncomingAmount != nil {
		res["incomingAmount"] = amountMap(*req.IncomingAmount)
	}

	c.mu.Lock()
	c.incoming[res.ID()] = res.Clone()
	c.mu.Unlock()
	return res, nil
}

// CreateQuote prices delivery of the receiver's incoming amount from the sender's wallet.
func (c *Client) CreateQuote(ctx context.Context, target core.ResourceTarget, req model.QuoteRequest) (model.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.failure(OpQuote); err != nil {
		return nil, err
	}
	if _, err := c.authorize(target.AccessToken, string(model.AccessQuote)); err != nil {
		return nil, err
	}
	sender, err := c.ResolveWallet(ctx, req.WalletAddress)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	incoming, ok := c.incoming[req.Receiver]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown receiver %q", req.Receiver)
	}
	receiveAmt, err := incoming.AmountAt("incomingAmount")
	if err != nil {
		return nil, fmt.Errorf("sandbox: receiver has no incoming amount: %w", err)
	}
	receive := receiveAmt.Value
	debit, err := c.scenario.Quote.Debit(receive)
	if err != nil {
		return nil, err
	}

	res := model.Resource{
		"id":            c.resourceID(target.ResourceServer, "quotes"),
		"walletAddress": sender.ID,
		"receiver":      req.Receiver,
		"method":        req.Method,
		"receiveAmount": amountMap(*receiveAmt),
		"debitAmount":   amountMap(sender.AmountIn(debit)),
		"createdAt":     c.timestamp(),
		"expiresAt":     c.clock().Add(10 * time.Minute).UTC().Format(time.RFC3339),
	}
	c.mu.Lock()
	c.quotes[res.ID()] = res.Clone()
	c.mu.Unlock()
	return res, nil
}

// CreateOutgoingPayment executes a quote, enforcing the grant's debit limit.
func (c *Client) CreateOutgoingPayment(ctx context.Context, target core.ResourceTarget, req model.OutgoingPaymentRequest) (model.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.failure(OpOutgoingPayment); err != nil {
		return nil, err
	}
	tok, err := c.authorize(target.AccessToken, string(model.AccessOutgoingPayment))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	quote, ok := c.quotes[req.QuoteID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown quote %q", req.QuoteID)
	}
	debit, err := quote.AmountAt("debitAmount")
	if err != nil {
		return nil, fmt.Errorf("sandbox: quote has no debit amount: %w", err)
	}
	if err := withinLimit(debit.Value, tok.access.Limits); err != nil {
		return nil, err
	}

	return model.Resource{
		"id":            c.resourceID(target.ResourceServer, "outgoing-payments"),
		"walletAddress": req.WalletAddress,
		"quoteId":       req.QuoteID,
		"receiver":      quote["receiver"],
		"debitAmount":   quote["debitAmount"],
		"receiveAmount": quote["receiveAmount"],
		"sentAmount":    quote["debitAmount"],
		"failed":        false,
		"createdAt":     c.timestamp(),
	}, nil
}

func withinLimit(debit string, limits *model.AccessLimits) error {
	if limits == nil || limits.DebitAmount == nil {
		return nil
	}
	want, err := decimal.NewFromString(debit)
	if err != nil {
		return fmt.Errorf("sandbox: debit amount %q: %w", debit, err)
	}
	limit, err := decimal.NewFromString(limits.DebitAmount.Value)
	if err != nil {
		return fmt.Errorf("sandbox: grant debit limit %q: %w", limits.DebitAmount.Value, err)
	}
	if want.GreaterThan(limit) {
		return fmt.Errorf("sandbox: debit %s exceeds grant limit %s", want, limit)
	}
	return nil
}

func amountMap(a model.Amount) map[string]any {
	return map[string]any{
		"value":      a.Value,
		"assetCode":  a.AssetCode,
		"assetScale": a.AssetScale,
	}
}
