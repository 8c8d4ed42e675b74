package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/domain/model"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, mutate func(*Scenario)) *Client {
	t.Helper()
	sc := DefaultScenario()
	if mutate != nil {
		mutate(&sc)
	}
	c, err := NewClient(Options{Scenario: sc, Clock: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidScenario(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
}

func TestResolveWallet(t *testing.T) {
	c := newTestClient(t, nil)
	ctx := context.Background()

	for _, ref := range []string{
		"https://sandbox.interpay.local/alice",
		"https://sandbox.interpay.local/alice/",
		"$sandbox.interpay.local/alice",
	} {
		w, err := c.ResolveWallet(ctx, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "Alice", w.PublicName)
	}

	_, err := c.ResolveWallet(ctx, "https://sandbox.interpay.local/carol")
	require.Error(t, err)
}

func TestRequestGrant_IncomingSpellings(t *testing.T) {
	c := newTestClient(t, nil)
	ctx := context.Background()

	_, err := c.RequestGrant(ctx, "auth", model.NewGrantRequest(model.AccessIncomingPayment).WithType("incoming_payment"))
	require.Error(t, err)

	g, err := c.RequestGrant(ctx, "auth", model.NewGrantRequest(model.AccessIncomingPayment))
	require.NoError(t, err)
	assert.True(t, g.Finalized())
	assert.NotEmpty(t, g.Token())
}

func TestRequestGrant_Rejected(t *testing.T) {
	c := newTestClient(t, func(sc *Scenario) {
		sc.Grants["quote"] = GrantBehavior{Mode: ModeFinalized, Reject: true}
	})
	_, err := c.RequestGrant(context.Background(), "auth", model.NewGrantRequest(model.AccessQuote))
	require.Error(t, err)
}

func TestContinueGrant_ApprovesAfterCountdown(t *testing.T) {
	c := newTestClient(t, func(sc *Scenario) {
		sc.Grants["outgoing-payment"] = GrantBehavior{Mode: ModeInteractive, ApproveAfter: 2}
	})
	ctx := context.Background()

	g, err := c.RequestGrant(ctx, "auth", model.NewGrantRequest(model.AccessOutgoingPayment))
	require.NoError(t, err)
	require.Equal(t, model.GrantInteractive, g.State())
	uri, token := g.Continue.URI, g.Continue.AccessToken.Value

	for i := 0; i < 2; i++ {
		next, err := c.ContinueGrant(ctx, uri, token)
		require.NoError(t, err)
		assert.Equal(t, model.GrantPending, next.State(), "continuation %d", i)
	}

	final, err := c.ContinueGrant(ctx, uri, token)
	require.NoError(t, err)
	assert.True(t, final.Finalized())

	_, err = c.ContinueGrant(ctx, uri, token)
	require.Error(t, err, "a finalized continuation cannot be reused")
}

func TestContinueGrant_MismatchedToken(t *testing.T) {
	c := newTestClient(t, nil)
	_, err := c.ContinueGrant(context.Background(), "https://sandbox.interpay.local/continue/a", "b")
	require.Error(t, err)
}

func TestScenarioFailures(t *testing.T) {
	c := newTestClient(t, func(sc *Scenario) {
		sc.Failures = map[string]string{OpWallet: "dns timeout"}
	})
	_, err := c.ResolveWallet(context.Background(), "https://sandbox.interpay.local/alice")
	require.EqualError(t, err, "sandbox wallet: dns timeout")
}

func TestResourceFlow(t *testing.T) {
	c := newTestClient(t, func(sc *Scenario) {
		sc.Grants["outgoing-payment"] = GrantBehavior{Mode: ModeFinalized}
	})
	ctx := context.Background()
	rs := "https://sandbox.interpay.local/rs"
	alice := "https://sandbox.interpay.local/alice"
	bob := "https://sandbox.interpay.local/bob"

	inGrant, err := c.RequestGrant(ctx, "auth", model.NewGrantRequest(model.AccessIncomingPayment))
	require.NoError(t, err)

	_, err = c.CreateIncomingPayment(ctx, core.ResourceTarget{ResourceServer: rs, AccessToken: "forged"},
		model.IncomingPaymentRequest{WalletAddress: bob})
	require.ErrorIs(t, err, ErrUnauthorized)

	incoming, err := c.CreateIncomingPayment(ctx, core.ResourceTarget{ResourceServer: rs, AccessToken: inGrant.Token()},
		model.IncomingPaymentRequest{
			WalletAddress:  bob,
			IncomingAmount: &model.Amount{Value: "1000", AssetCode: "USD", AssetScale: 2},
		})
	require.NoError(t, err)
	assert.Contains(t, incoming.ID(), rs+"/incoming-payments/")
	assert.Equal(t, fixedNow.Format(time.RFC3339), incoming["createdAt"])

	qGrant, err := c.RequestGrant(ctx, "auth", model.NewGrantRequest(model.AccessQuote))
	require.NoError(t, err)

	_, err = c.CreateQuote(ctx, core.ResourceTarget{ResourceServer: rs, AccessToken: inGrant.Token()},
		model.QuoteRequest{WalletAddress: alice, Receiver: incoming.ID(), Method: model.QuoteMethodILP})
	require.ErrorIs(t, err, ErrUnauthorized, "incoming token cannot create quotes")

	quote, err := c.CreateQuote(ctx, core.ResourceTarget{ResourceServer: rs, AccessToken: qGrant.Token()},
		model.QuoteRequest{WalletAddress: alice, Receiver: incoming.ID(), Method: model.QuoteMethodILP})
	require.NoError(t, err)
	debit, err := quote.AmountAt("debitAmount")
	require.NoError(t, err)
	assert.Equal(t, "1010", debit.Value)

	tooSmall := model.NewGrantRequest(model.AccessOutgoingPayment)
	tooSmall.AccessToken.Access[0].Limits = &model.AccessLimits{DebitAmount: &model.Amount{Value: "1000"}}
	limited, err := c.RequestGrant(ctx, "auth", tooSmall)
	require.NoError(t, err)
	_, err = c.CreateOutgoingPayment(ctx, core.ResourceTarget{ResourceServer: rs, AccessToken: limited.Token()},
		model.OutgoingPaymentRequest{WalletAddress: alice, QuoteID: quote.ID()})
	require.ErrorContains(t, err, "exceeds grant limit")

	enough := model.NewGrantRequest(model.AccessOutgoingPayment)
	enough.AccessToken.Access[0].Limits = &model.AccessLimits{DebitAmount: debit}
	outGrant, err := c.RequestGrant(ctx, "auth", enough)
	require.NoError(t, err)
	payment, err := c.CreateOutgoingPayment(ctx, core.ResourceTarget{ResourceServer: rs, AccessToken: outGrant.Token()},
		model.OutgoingPaymentRequest{WalletAddress: alice, QuoteID: quote.ID()})
	require.NoError(t, err)
	assert.Equal(t, quote.ID(), payment.String("quoteId"))
	assert.Equal(t, false, payment["failed"])
}

func TestCreateQuote_UnknownReceiver(t *testing.T) {
	c := newTestClient(t, nil)
	ctx := context.Background()
	g, err := c.RequestGrant(ctx, "auth", model.NewGrantRequest(model.AccessQuote))
	require.NoError(t, err)

	_, err = c.CreateQuote(ctx, core.ResourceTarget{ResourceServer: "rs", AccessToken: g.Token()},
		model.QuoteRequest{WalletAddress: "https://sandbox.interpay.local/alice", Receiver: "https://elsewhere/ip/1"})
	require.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ResolveWallet(ctx, "https://sandbox.interpay.local/alice")
	require.ErrorIs(t, err, context.Canceled)
}
