package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	apperrors "github.com/interpay/interpay-api/internal/errors"
	"github.com/interpay/interpay-api/internal/observability/metrics"
	"github.com/interpay/interpay-api/internal/observability/statsd"
	"github.com/interpay/interpay-api/internal/service/failurenotifier"
)

// Settlement stages reported on errors and interaction short-circuits.
const (
	StageWallets         = "wallets"
	StageIncomingGrant   = "incoming_grant"
	StageIncomingPayment = "incoming_payment"
	StageQuoteGrant      = "quote_grant"
	StageQuote           = "quote"
	StageOutgoingGrant   = "outgoing_grant"
	StageOutgoingPayment = "outgoing_payment"
)

// DefaultIncomingAmount is used when neither the caller nor configuration supplies one.
const DefaultIncomingAmount = "50000"

// PollPolicy bounds how long the settlement worker waits for outgoing-grant approval.
type PollPolicy struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

// DefaultPollPolicy waits 15s, then continues up to 12 times 5s apart.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{InitialDelay: 15 * time.Second, Interval: 5 * time.Second, MaxAttempts: 12}
}

// SettlementDefaults supplies the values a run falls back to when the caller omits them.
type SettlementDefaults struct {
	SenderWalletURL    string
	ReceiverWalletURL  string
	IncomingAmount     string
	IncomingGrantTypes []string
}

// SettlementServiceOptions groups dependencies for SettlementService.
type SettlementServiceOptions struct {
	Client          core.AuthorizationClient // Required
	Store           *data.ResourceStore      // Required
	Negotiator      *GrantNegotiator         // Optional: built from Client and Store when nil
	Defaults        SettlementDefaults       // Optional
	Poll            PollPolicy               // Optional: DefaultPollPolicy when zero
	Publisher       core.JobEventPublisher   // Optional: terminal job fan-out
	FailureNotifier *failurenotifier.Service // Optional: alerts for failed jobs
	Metrics         statsd.Sink              // Optional
	Clock           data.TimeProvider        // Optional
	Logger          *slog.Logger             // Optional
}

// SettlementService runs the synchronous settlement chain and owns the detached workers it spawns.
type SettlementService struct {
	client          core.AuthorizationClient
	store           *data.ResourceStore
	negotiator      *GrantNegotiator
	defaults        SettlementDefaults
	poll            PollPolicy
	publisher       core.JobEventPublisher
	failureNotifier *failurenotifier.Service
	metrics         statsd.Sink
	clock           data.TimeProvider
	logger          *slog.Logger
	sleep           func(ctx context.Context, d time.Duration) error

	// workers run under baseCtx, not the triggering request's context.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSettlementService constructs a SettlementService.
func NewSettlementService(opts SettlementServiceOptions) (*SettlementService, error) {
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
		negotiator, err = NewGrantNegotiator(GrantNegotiatorOptions{
			Client:  opts.Client,
			Store:   opts.Store,
			Metrics: opts.Metrics,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create grant negotiator: %w", err)
		}
	}

	poll := opts.Poll
	if poll == (PollPolicy{}) {
		poll = DefaultPollPolicy()
	}
	if poll.MaxAttempts < 0 || poll.InitialDelay < 0 || poll.Interval < 0 {
		return nil, errors.New("poll policy values must not be negative")
	}

	defaults := opts.Defaults
	if !model.ValidAmount(defaults.IncomingAmount) {
		defaults.IncomingAmount = DefaultIncomingAmount
	}
	if len(defaults.IncomingGrantTypes) == 0 {
		defaults.IncomingGrantTypes = model.DefaultIncomingGrantTypes
	}

	clock := opts.Clock
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &SettlementService{
		client:          opts.Client,
		store:           opts.Store,
		negotiator:      negotiator,
		defaults:        defaults,
		poll:            poll,
		publisher:       opts.Publisher,
		failureNotifier: opts.FailureNotifier,
		metrics:         opts.Metrics,
		clock:           clock,
		logger:          logger.With("component", "settlement_service"),
		sleep:           sleepContext,
		baseCtx:         baseCtx,
		cancel:          cancel,
	}, nil
}

// MustNewSettlementService constructs a SettlementService and panics on error.
func MustNewSettlementService(opts SettlementServiceOptions) *SettlementService {
	svc, err := NewSettlementService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SettlementService: %v", err))
	}
	return svc
}

// RunRequest is the input to a settlement run. Empty fields fall back to configured defaults.
type RunRequest struct {
	Sender   string
	Receiver string
	Amount   model.AmountInput
}

// RunOutcome is the synchronous result of a run.
// Either JobID is set (a worker was launched) or Status is awaiting_confirmation with Stage.
type RunOutcome struct {
	JobID    string          `json:"jobId,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
	Status   model.JobStatus `json:"status,omitempty"`
	Stage    string          `json:"stage,omitempty"`
}

// Accepted reports whether the run handed off to a background worker.
func (o RunOutcome) Accepted() bool {
	return o.JobID != ""
}

func awaitingConfirmation(stage string) *RunOutcome {
	return &RunOutcome{Status: model.JobStatusAwaitingConfirmation, Stage: stage}
}

// Run executes the synchronous settlement chain and, once the outgoing grant
// has been requested, launches a detached worker for the new job.
func (s *SettlementService) Run(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	amount := s.defaults.IncomingAmount
	if req.Amount.Set {
		if !model.ValidAmount(req.Amount.Value) {
			return nil, apperrors.ValidationField("amount",
				`incoming amount must be a whole number string, e.g. "100000"`)
		}
		amount = req.Amount.Value
	}

	senderURL := firstNonEmpty(req.Sender, s.defaults.SenderWalletURL)
	receiverURL := firstNonEmpty(req.Receiver, s.defaults.ReceiverWalletURL)
	if senderURL == "" {
		return nil, apperrors.ValidationField("sender", "sender wallet address is required")
	}
	if receiverURL == "" {
		return nil, apperrors.ValidationField("receiver", "receiver wallet address is required")
	}

	sender, receiver, err := s.resolveWallets(ctx, senderURL, receiverURL)
	if err != nil {
		return nil, err
	}

	incomingGrant, err := s.negotiator.Negotiate(ctx, NegotiateParams{
		Stage:          StageIncomingGrant,
		AuthServer:     receiver.AuthServer,
		Request:        model.NewGrantRequest(model.AccessIncomingPayment),
		CandidateTypes: s.defaults.IncomingGrantTypes,
	})
	if err != nil {
		return nil, s.runFailed(ctx, err)
	}
	if !incomingGrant.Grant.Finalized() {
		return s.interactionRequired(ctx, StageIncomingGrant), nil
	}

	incoming, err := s.client.CreateIncomingPayment(ctx,
		core.ResourceTarget{ResourceServer: receiver.ResourceServer, AccessToken: incomingGrant.Grant.Token()},
		model.IncomingPaymentRequest{WalletAddress: receiver.ID, IncomingAmount: ptr(receiver.AmountIn(amount))},
	)
	if err != nil {
		return nil, s.runFailed(ctx, apperrors.Upstream(StageIncomingPayment, err))
	}
	if incoming.ID() == "" {
		return nil, s.runFailed(ctx, apperrors.Upstream(StageIncomingPayment, errors.New("incoming payment has no id")))
	}
	s.store.IncomingPayments.Insert(incoming)

	quoteGrant, err := s.negotiator.Negotiate(ctx, NegotiateParams{
		Stage:      StageQuoteGrant,
		AuthServer: sender.AuthServer,
		Request:    model.NewGrantRequest(model.AccessQuote),
	})
	if err != nil {
		return nil, s.runFailed(ctx, err)
	}
	if !quoteGrant.Grant.Finalized() {
		return s.interactionRequired(ctx, StageQuoteGrant), nil
	}

	quote, err := s.client.CreateQuote(ctx,
		core.ResourceTarget{ResourceServer: sender.ResourceServer, AccessToken: quoteGrant.Grant.Token()},
		model.QuoteRequest{WalletAddress: sender.ID, Receiver: incoming.ID(), Method: model.QuoteMethodILP},
	)
	if err != nil {
		return nil, s.runFailed(ctx, apperrors.Upstream(StageQuote, err))
	}
	debit, err := quote.AmountAt("debitAmount")
	if err != nil {
		return nil, s.runFailed(ctx, apperrors.Upstream(StageQuote, err))
	}
	s.store.Quotes.Insert(quote)

	outgoingGrant, err := s.negotiator.Negotiate(ctx, NegotiateParams{
		Stage:      StageOutgoingGrant,
		AuthServer: sender.AuthServer,
		Request:    outgoingGrantRequest(sender.ID, *debit),
	})
	if err != nil {
		return nil, s.runFailed(ctx, err)
	}

	job := model.NewJob(s.store.Jobs.NewJobID(), s.clock.Now(), *sender, incoming, quote, outgoingGrant.Grant)
	if err := s.store.Jobs.Create(job); err != nil {
		return nil, s.runFailed(ctx, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create job"))
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Status: string(model.JobStatusRunning), Result: metrics.ResultSuccess,
	})
	s.logger.InfoContext(ctx, "settlement job started",
		"job_id", job.ID,
		"sender", sender.ID,
		"receiver", receiver.ID,
		"amount", amount,
		"grant_state", outgoingGrant.Grant.State(),
	)

	s.launchWorker(job.ID, outgoingGrant.Grant)

	metrics.EmitRunOutcome(s.metrics, "accepted", "")
	return &RunOutcome{JobID: job.ID, Redirect: outgoingGrant.Grant.Redirect()}, nil
}

func (s *SettlementService) resolveWallets(ctx context.Context, senderURL, receiverURL string) (*model.Wallet, *model.Wallet, error) {
	var sender, receiver *model.Wallet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := s.client.ResolveWallet(gctx, senderURL)
		if err != nil {
			return fmt.Errorf("resolve sender %s: %w", senderURL, err)
		}
		sender = w
		return nil
	})
	g.Go(func() error {
		w, err := s.client.ResolveWallet(gctx, receiverURL)
		if err != nil {
			return fmt.Errorf("resolve receiver %s: %w", receiverURL, err)
		}
		receiver = w
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, s.runFailed(ctx, apperrors.Upstream(StageWallets, err))
	}
	if sender == nil || receiver == nil {
		return nil, nil, s.runFailed(ctx, apperrors.Upstream(StageWallets, errors.New("wallet address not resolved")))
	}
	return sender, receiver, nil
}

func outgoingGrantRequest(walletID string, debit model.Amount) model.GrantRequest {
	req := model.NewGrantRequest(model.AccessOutgoingPayment)
	req.AccessToken.Access[0].Identifier = walletID
	req.AccessToken.Access[0].Limits = &model.AccessLimits{DebitAmount: &debit}
	req.Interact = &model.InteractRequest{Start: []string{model.InteractRedirect}}
	return req
}

func (s *SettlementService) interactionRequired(ctx context.Context, stage string) *RunOutcome {
	s.logger.InfoContext(ctx, "run awaiting confirmation", "stage", stage)
	metrics.EmitRunOutcome(s.metrics, string(model.JobStatusAwaitingConfirmation), stage)
	return awaitingConfirmation(stage)
}

func (s *SettlementService) runFailed(ctx context.Context, err error) error {
	stage := apperrors.GetStage(err)
	s.logger.WarnContext(ctx, "settlement run failed", "stage", stage, "error", err)
	metrics.EmitRunOutcome(s.metrics, "failed", stage)
	return err
}

// Shutdown cancels in-flight workers and waits for them to record their outcome.
func (s *SettlementService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("settlement workers did not stop: %w", ctx.Err())
	}
}

// Wait blocks until every launched worker has finished. Intended for tests.
func (s *SettlementService) Wait() {
	s.wg.Wait()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}
