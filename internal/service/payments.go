package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	apperrors "github.com/interpay/interpay-api/internal/errors"
)

// PaymentsServiceOptions groups dependencies for PaymentsService.
type PaymentsServiceOptions struct {
	Client     core.AuthorizationClient // Required
	Store      *data.ResourceStore      // Required
	Negotiator *GrantNegotiator         // Optional: built from Client and Store when nil
	Defaults   SettlementDefaults       // Optional
	Logger     *slog.Logger             // Optional
}

// PaymentsService exposes each protocol step individually, for callers driving
// the flow themselves instead of through a settlement run.
type PaymentsService struct {
	client     core.AuthorizationClient
	store      *data.ResourceStore
	negotiator *GrantNegotiator
	defaults   SettlementDefaults
	logger     *slog.Logger
}

// NewPaymentsService constructs a PaymentsService.
func NewPaymentsService(opts PaymentsServiceOptions) (*PaymentsService, error) {
	if opts.Client == nil {
		return nil, errors.New("AuthorizationClient is required")
	}
	if opts.Store == nil {
		return nil, errors.New("ResourceStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	negotiator := opts.Negotiator
	if negotiator == nil {
		var err error
		negotiator, err = NewGrantNegotiator(GrantNegotiatorOptions{Client: opts.Client, Store: opts.Store, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("create grant negotiator: %w", err)
		}
	}
	defaults := opts.Defaults
	if len(defaults.IncomingGrantTypes) == 0 {
		defaults.IncomingGrantTypes = model.DefaultIncomingGrantTypes
	}
	return &PaymentsService{
		client:     opts.Client,
		store:      opts.Store,
		negotiator: negotiator,
		defaults:   defaults,
		logger:     logger.With("component", "payments_service"),
	}, nil
}

// MustNewPaymentsService constructs a PaymentsService and panics on error.
func MustNewPaymentsService(opts PaymentsServiceOptions) *PaymentsService {
	svc, err := NewPaymentsService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create PaymentsService: %v", err))
	}
	return svc
}

// WalletPair holds the configured sending and receiving wallets.
type WalletPair struct {
	Sending   *model.Wallet `json:"sending"`
	Receiving *model.Wallet `json:"receiving"`
}

// Wallets resolves the configured sender and receiver wallet addresses.
func (s *PaymentsService) Wallets(ctx context.Context) (*WalletPair, error) {
	if s.defaults.SenderWalletURL == "" || s.defaults.ReceiverWalletURL == "" {
		return nil, apperrors.Validation("sender and receiver wallet addresses are not configured")
	}
	var pair WalletPair
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := s.client.ResolveWallet(gctx, s.defaults.SenderWalletURL)
		pair.Sending = w
		return err
	})
	g.Go(func() error {
		w, err := s.client.ResolveWallet(gctx, s.defaults.ReceiverWalletURL)
		pair.Receiving = w
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Upstream(StageWallets, err)
	}
	return &pair, nil
}

// GrantResult is a stored grant plus its derived finalization flag.
type GrantResult struct {
	ID        string      `json:"id"`
	Finalized bool        `json:"finalized"`
	Grant     model.Grant `json:"grant"`
}

func grantResult(rec *model.GrantRecord) *GrantResult {
	return &GrantResult{ID: rec.ID, Finalized: rec.Grant.Finalized(), Grant: rec.Grant}
}

// RequestIncomingGrant requests an incoming-payment grant on the receiver's authorization server.
func (s *PaymentsService) RequestIncomingGrant(ctx context.Context, receiverURL string) (*GrantResult, error) {
	wallet, err := s.resolve(ctx, firstNonEmpty(receiverURL, s.defaults.ReceiverWalletURL), "receiverUrl")
	if err != nil {
		return nil, err
	}
	rec, err := s.negotiator.Negotiate(ctx, NegotiateParams{
		Stage:          StageIncomingGrant,
		AuthServer:     wallet.AuthServer,
		Request:        model.NewGrantRequest(model.AccessIncomingPayment),
		CandidateTypes: s.defaults.IncomingGrantTypes,
	})
	if err != nil {
		return nil, err
	}
	return grantResult(rec), nil
}

// RequestQuoteGrant requests a quote grant on the sender's authorization server.
func (s *PaymentsService) RequestQuoteGrant(ctx context.Context, walletURL string) (*GrantResult, error) {
	wallet, err := s.resolve(ctx, firstNonEmpty(walletURL, s.defaults.SenderWalletURL), "walletUrl")
	if err != nil {
		return nil, err
	}
	rec, err := s.negotiator.Negotiate(ctx, NegotiateParams{
		Stage:      StageQuoteGrant,
		AuthServer: wallet.AuthServer,
		Request:    model.NewGrantRequest(model.AccessQuote),
	})
	if err != nil {
		return nil, err
	}
	return grantResult(rec), nil
}

// RequestOutgoingGrant requests an interactive outgoing-payment grant limited to debit.
func (s *PaymentsService) RequestOutgoingGrant(ctx context.Context, walletURL string, debit *model.Amount) (*GrantResult, error) {
	if debit == nil || !model.ValidAmount(debit.Value) {
		return nil, apperrors.ValidationField("debitAmount", "debitAmount with an integer value is required")
	}
	wallet, err := s.resolve(ctx, firstNonEmpty(walletURL, s.defaults.SenderWalletURL), "walletUrl")
	if err != nil {
		return nil, err
	}
	rec, err := s.negotiator.Negotiate(ctx, NegotiateParams{
		Stage:      StageOutgoingGrant,
		AuthServer: wallet.AuthServer,
		Request:    outgoingGrantRequest(wallet.ID, *debit),
	})
	if err != nil {
		return nil, err
	}
	return grantResult(rec), nil
}

// ContinueGrant continues a stored grant. The continued grant is stored as a new
// record; the original is left untouched.
func (s *PaymentsService) ContinueGrant(ctx context.Context, id string) (*GrantResult, error) {
	grant, err := s.grant(id)
	if err != nil {
		return nil, err
	}
	if !grant.CanContinue() {
		return nil, apperrors.Validation("grant has no continue info")
	}
	next, err := s.client.ContinueGrant(ctx, grant.Continue.URI, grant.Continue.AccessToken.Value)
	if err != nil {
		return nil, apperrors.Upstream("grant_continue", err)
	}
	if next == nil {
		return nil, apperrors.Upstream("grant_continue", errors.New("authorization server returned no grant"))
	}
	newID := s.store.Grants.Insert(*next)
	s.logger.InfoContext(ctx, "grant continued", "grant_id", id, "continued_id", newID, "state", next.State())
	return grantResult(&model.GrantRecord{ID: newID, Grant: *next}), nil
}

// GetGrant returns a stored grant.
func (s *PaymentsService) GetGrant(_ context.Context, id string) (*GrantResult, error) {
	grant, err := s.grant(id)
	if err != nil {
		return nil, err
	}
	return grantResult(&model.GrantRecord{ID: id, Grant: *grant}), nil
}

// CreateIncomingPaymentInput is the input to CreateIncomingPayment.
type CreateIncomingPaymentInput struct {
	GrantID     string
	ReceiverURL string
	Amount      model.AmountInput
}

// CreatedResource is a newly stored resource and its local id.
type CreatedResource struct {
	ID       string         `json:"id"`
	Resource model.Resource `json:"resource"`
}

// CreateIncomingPayment creates an incoming payment with a finalized incoming-payment grant.
func (s *PaymentsService) CreateIncomingPayment(ctx context.Context, in CreateIncomingPaymentInput) (*CreatedResource, error) {
	grant, err := s.grant(in.GrantID)
	if err != nil {
		return nil, err
	}
	value, err := model.PositiveAmount(in.Amount.Value)
	if err != nil {
		return nil, apperrors.ValidationField("amount", "Invalid amount")
	}
	wallet, err := s.resolve(ctx, firstNonEmpty(in.ReceiverURL, s.defaults.ReceiverWalletURL), "receiverUrl")
	if err != nil {
		return nil, err
	}
	incoming, err := s.client.CreateIncomingPayment(ctx,
		core.ResourceTarget{ResourceServer: wallet.ResourceServer, AccessToken: grant.Token()},
		model.IncomingPaymentRequest{
			WalletAddress:  wallet.ID,
			IncomingAmount: ptr(wallet.AmountIn(strconv.FormatInt(value, 10))),
		},
	)
	if err != nil {
		return nil, apperrors.Upstream(StageIncomingPayment, err)
	}
	return &CreatedResource{ID: s.store.IncomingPayments.Insert(incoming), Resource: incoming}, nil
}

// CreateQuoteInput is the input to CreateQuote.
type CreateQuoteInput struct {
	GrantID            string
	WalletURL          string
	IncomingPaymentURL string
}

// CreateQuote prices a payment from the sender's wallet to an incoming payment.
func (s *PaymentsService) CreateQuote(ctx context.Context, in CreateQuoteInput) (*CreatedResource, error) {
	grant, err := s.grant(in.GrantID)
	if err != nil {
		return nil, err
	}
	if in.IncomingPaymentURL == "" {
		return nil, apperrors.ValidationField("incomingPaymentUrl", "incomingPaymentUrl is required")
	}
	wallet, err := s.resolve(ctx, firstNonEmpty(in.WalletURL, s.defaults.SenderWalletURL), "walletUrl")
	if err != nil {
		return nil, err
	}
	quote, err := s.client.CreateQuote(ctx,
		core.ResourceTarget{ResourceServer: wallet.ResourceServer, AccessToken: grant.Token()},
		model.QuoteRequest{WalletAddress: wallet.ID, Receiver: in.IncomingPaymentURL, Method: model.QuoteMethodILP},
	)
	if err != nil {
		return nil, apperrors.Upstream(StageQuote, err)
	}
	return &CreatedResource{ID: s.store.Quotes.Insert(quote), Resource: quote}, nil
}

// CreateOutgoingPaymentInput is the input to CreateOutgoingPayment.
type CreateOutgoingPaymentInput struct {
	GrantID   string
	WalletURL string
	QuoteID   string
}

// CreateOutgoingPayment executes a quote with a finalized outgoing-payment grant.
// QuoteID may be a local quote id or the resource server's quote URL.
func (s *PaymentsService) CreateOutgoingPayment(ctx context.Context, in CreateOutgoingPaymentInput) (*CreatedResource, error) {
	grant, err := s.grant(in.GrantID)
	if err != nil {
		return nil, err
	}
	if !grant.Finalized() {
		return nil, apperrors.Validation("grant not finalized")
	}
	quoteID := in.QuoteID
	if q, ok := s.store.Quotes.Get(quoteID); ok {
		quoteID = q.ID()
	}
	if quoteID == "" {
		return nil, apperrors.ValidationField("quoteId", "quoteId is required")
	}
	wallet, err := s.resolve(ctx, firstNonEmpty(in.WalletURL, s.defaults.SenderWalletURL), "walletUrl")
	if err != nil {
		return nil, err
	}
	payment, err := s.client.CreateOutgoingPayment(ctx,
		core.ResourceTarget{ResourceServer: wallet.ResourceServer, AccessToken: grant.Token()},
		model.OutgoingPaymentRequest{WalletAddress: wallet.ID, QuoteID: quoteID},
	)
	if err != nil {
		return nil, apperrors.Upstream(StageOutgoingPayment, err)
	}
	return &CreatedResource{ID: s.store.OutgoingPayments.Insert(payment), Resource: payment}, nil
}

// PaymentListing lists stored payments with their local ids.
type PaymentListing struct {
	Count    int              `json:"count"`
	Payments []model.Resource `json:"payments"`
}

// ListIncomingPayments lists every stored incoming payment.
func (s *PaymentsService) ListIncomingPayments(_ context.Context) *PaymentListing {
	return listing(s.store.IncomingPayments)
}

// ListOutgoingPayments lists every stored outgoing payment.
func (s *PaymentsService) ListOutgoingPayments(_ context.Context) *PaymentListing {
	return listing(s.store.OutgoingPayments)
}

// listing flattens each record with its local id. The resource server's own
// "id" wins when present; the local id is always available as localId.
func listing(store *data.Store[model.Resource]) *PaymentListing {
	entries := store.List()
	out := &PaymentListing{Count: len(entries), Payments: make([]model.Resource, 0, len(entries))}
	for _, e := range entries {
		item := model.Resource{"id": e.ID}
		for k, v := range e.Item {
			item[k] = v
		}
		item["localId"] = e.ID
		out.Payments = append(out.Payments, item)
	}
	return out
}

func (s *PaymentsService) grant(id string) (*model.Grant, error) {
	if id == "" {
		return nil, apperrors.ValidationField("grantId", "grantId is required")
	}
	grant, ok := s.store.Grants.Get(id)
	if !ok {
		return nil, apperrors.NotFound("grant not found")
	}
	return &grant, nil
}

func (s *PaymentsService) resolve(ctx context.Context, url, field string) (*model.Wallet, error) {
	if url == "" {
		return nil, apperrors.ValidationField(field, field+" is required")
	}
	wallet, err := s.client.ResolveWallet(ctx, url)
	if err != nil {
		return nil, apperrors.Upstream(StageWallets, err)
	}
	return wallet, nil
}
