package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	"github.com/interpay/interpay-api/internal/mocks"
	"github.com/interpay/interpay-api/internal/observability/statsd"
)

var (
	alice = &model.Wallet{
		ID:             "https://wallet.example/alice",
		AuthServer:     "https://auth.example/alice",
		ResourceServer: "https://rs.example/alice",
		AssetCode:      "USD",
		AssetScale:     2,
	}
	bob = &model.Wallet{
		ID:             "https://wallet.example/bob",
		AuthServer:     "https://auth.example/bob",
		ResourceServer: "https://rs.example/bob",
		AssetCode:      "USD",
		AssetScale:     2,
	}
)

// grantType matches a GrantRequest by its first access type.
type grantType string

func (g grantType) Matches(x any) bool {
	req, ok := x.(model.GrantRequest)
	return ok && req.PrimaryType() == string(g)
}

func (g grantType) String() string {
	return "grant request of type " + string(g)
}

func finalizedGrant(token string) *model.Grant {
	return &model.Grant{AccessToken: &model.AccessToken{Value: token}}
}

func interactiveGrant(redirect string) *model.Grant {
	return &model.Grant{
		Interact: &model.Interaction{Redirect: redirect},
		Continue: &model.Continuation{
			URI:         "https://auth.example/alice/continue/1",
			AccessToken: model.AccessToken{Value: "cont-token"},
		},
	}
}

func pendingGrant() *model.Grant {
	return &model.Grant{Continue: &model.Continuation{
		URI:         "https://auth.example/alice/continue/1",
		AccessToken: model.AccessToken{Value: "cont-token"},
	}}
}

var (
	incomingResource = model.Resource{"id": "https://rs.example/bob/incoming-payments/1", "walletAddress": bob.ID}
	quoteResource    = model.Resource{
		"id":          "https://rs.example/alice/quotes/1",
		"debitAmount": map[string]any{"value": "5100", "assetCode": "USD", "assetScale": float64(2)},
	}
	outgoingResource = model.Resource{"id": "https://rs.example/alice/outgoing-payments/1"}
)

// sleepRecorder replaces the worker's timer so tests never wait.
// Each recorded sleep advances clock by the same duration.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
	clock *data.FixedTimeProvider
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	if r.clock != nil {
		r.clock.AddTime(d)
	}
	return ctx.Err()
}

func (r *sleepRecorder) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.calls...)
}

type settlementFixture struct {
	client  *mocks.MockAuthorizationClient
	store   *data.ResourceStore
	svc     *SettlementService
	sleeps  *sleepRecorder
	metrics *statsd.Recorder
	clock   *data.FixedTimeProvider
}

// fixtureStart is the fixed time every settlement fixture starts at.
var fixtureStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

var testPoll = PollPolicy{InitialDelay: 15 * time.Second, Interval: 5 * time.Second, MaxAttempts: 3}

func newSettlementFixture(t *testing.T, opts SettlementServiceOptions) *settlementFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockAuthorizationClient(ctrl)
	store := data.NewResourceStore()
	rec := &statsd.Recorder{}

	opts.Client = client
	opts.Store = store
	opts.Metrics = rec
	if opts.Poll == (PollPolicy{}) {
		opts.Poll = testPoll
	}
	opts.Defaults.SenderWalletURL = alice.ID
	opts.Defaults.ReceiverWalletURL = bob.ID
	clock := data.NewFixedTimeProvider(fixtureStart)
	opts.Clock = clock

	svc, err := NewSettlementService(opts)
	if err != nil {
		t.Fatalf("NewSettlementService: %v", err)
	}
	sleeps := &sleepRecorder{clock: clock}
	svc.sleep = sleeps.sleep
	t.Cleanup(func() {
		_ = svc.Shutdown(context.Background())
	})
	return &settlementFixture{client: client, store: store, svc: svc, sleeps: sleeps, metrics: rec, clock: clock}
}

// expectChain sets up every synchronous call of a run up to and including the outgoing grant.
func (f *settlementFixture) expectChain(outgoing *model.Grant, amount string) {
	c := f.client.EXPECT()
	c.ResolveWallet(gomock.Any(), alice.ID).Return(alice, nil)
	c.ResolveWallet(gomock.Any(), bob.ID).Return(bob, nil)
	c.RequestGrant(gomock.Any(), bob.AuthServer, grantType("incoming_payment")).Return(finalizedGrant("tok-in"), nil)
	c.CreateIncomingPayment(gomock.Any(),
		core.ResourceTarget{ResourceServer: bob.ResourceServer, AccessToken: "tok-in"},
		model.IncomingPaymentRequest{
			WalletAddress:  bob.ID,
			IncomingAmount: &model.Amount{Value: amount, AssetCode: "USD", AssetScale: 2},
		},
	).Return(incomingResource.Clone(), nil)
	c.RequestGrant(gomock.Any(), alice.AuthServer, grantType("quote")).Return(finalizedGrant("tok-q"), nil)
	c.CreateQuote(gomock.Any(),
		core.ResourceTarget{ResourceServer: alice.ResourceServer, AccessToken: "tok-q"},
		model.QuoteRequest{WalletAddress: alice.ID, Receiver: incomingResource.ID(), Method: "ilp"},
	).Return(quoteResource.Clone(), nil)
	c.RequestGrant(gomock.Any(), alice.AuthServer, outgoingRequestFor(alice.ID)).Return(outgoing, nil)
}

// outgoingRequestFor matches the exact outgoing grant request built from quoteResource.
func outgoingRequestFor(walletID string) gomock.Matcher {
	return gomock.Eq(outgoingGrantRequest(walletID, model.Amount{Value: "5100", AssetCode: "USD", AssetScale: 2}))
}

func (f *settlementFixture) expectOutgoingPayment(token string) *gomock.Call {
	return f.client.EXPECT().CreateOutgoingPayment(gomock.Any(),
		core.ResourceTarget{ResourceServer: alice.ResourceServer, AccessToken: token},
		model.OutgoingPaymentRequest{WalletAddress: alice.ID, QuoteID: quoteResource.ID()},
	)
}
