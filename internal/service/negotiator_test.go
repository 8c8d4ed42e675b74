package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	apperrors "github.com/interpay/interpay-api/internal/errors"
	"github.com/interpay/interpay-api/internal/mocks"
	"github.com/interpay/interpay-api/internal/observability/statsd"
)

func newNegotiator(t *testing.T) (*GrantNegotiator, *mocks.MockAuthorizationClient, *data.ResourceStore, *statsd.Recorder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockAuthorizationClient(ctrl)
	store := data.NewResourceStore()
	rec := &statsd.Recorder{}
	n, err := NewGrantNegotiator(GrantNegotiatorOptions{Client: client, Store: store, Metrics: rec})
	require.NoError(t, err)
	return n, client, store, rec
}

func TestNewGrantNegotiator_RequiredDependencies(t *testing.T) {
	_, err := NewGrantNegotiator(GrantNegotiatorOptions{})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = NewGrantNegotiator(GrantNegotiatorOptions{Client: mocks.NewMockAuthorizationClient(ctrl)})
	require.Error(t, err)
}

func TestNegotiate_FallbackStoresOnlySuccessfulGrant(t *testing.T) {
	n, client, store, rec := newNegotiator(t)
	winner := finalizedGrant("tok-b")

	gomock.InOrder(
		client.EXPECT().RequestGrant(gomock.Any(), bob.AuthServer, grantType("incoming_payment")).
			Return(nil, errors.New("invalid_request: unknown access type")),
		client.EXPECT().RequestGrant(gomock.Any(), bob.AuthServer, grantType("incoming-payment")).
			Return(winner, nil),
	)

	rec1, err := n.Negotiate(context.Background(), NegotiateParams{
		Stage:          StageIncomingGrant,
		AuthServer:     bob.AuthServer,
		Request:        model.NewGrantRequest(model.AccessIncomingPayment),
		CandidateTypes: model.DefaultIncomingGrantTypes,
	})
	require.NoError(t, err)

	require.Equal(t, 1, store.Grants.Count())
	stored, ok := store.Grants.Get(rec1.ID)
	require.True(t, ok)
	assert.Equal(t, *winner, stored)
	assert.Equal(t, *winner, rec1.Grant)

	points := rec.Points("grant.request")
	require.Len(t, points, 2)
	assert.Equal(t, "error", points[0].Tags["result"])
	assert.Equal(t, "success", points[1].Tags["result"])
}

func TestNegotiate_AllCandidatesFailReturnsLastError(t *testing.T) {
	n, client, store, _ := newNegotiator(t)
	candidates := []string{"a", "b", "c"}
	for _, c := range candidates {
		client.EXPECT().RequestGrant(gomock.Any(), gomock.Any(), grantType(c)).Return(nil, errors.New("rejected "+c))
	}

	_, err := n.Negotiate(context.Background(), NegotiateParams{
		Stage:          StageIncomingGrant,
		AuthServer:     bob.AuthServer,
		Request:        model.NewGrantRequest(model.AccessIncomingPayment),
		CandidateTypes: candidates,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNegotiation(err))
	assert.Equal(t, StageIncomingGrant, apperrors.GetStage(err))
	assert.Contains(t, err.Error(), "rejected c")
	assert.NotContains(t, err.Error(), "rejected a")
	assert.Equal(t, 0, store.Grants.Count())
}

func TestNegotiate_WithoutCandidatesUsesRequestType(t *testing.T) {
	n, client, store, _ := newNegotiator(t)
	client.EXPECT().RequestGrant(gomock.Any(), alice.AuthServer, grantType("quote")).Return(pendingGrant(), nil)

	rec, err := n.Negotiate(context.Background(), NegotiateParams{
		Stage:      StageQuoteGrant,
		AuthServer: alice.AuthServer,
		Request:    model.NewGrantRequest(model.AccessQuote),
	})
	require.NoError(t, err)
	assert.Equal(t, model.GrantPending, rec.Grant.State())
	assert.Equal(t, 1, store.Grants.Count())
}

func TestNegotiate_NilGrantIsAnError(t *testing.T) {
	n, client, _, _ := newNegotiator(t)
	client.EXPECT().RequestGrant(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := n.Negotiate(context.Background(), NegotiateParams{
		Stage:   StageQuoteGrant,
		Request: model.NewGrantRequest(model.AccessQuote),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNegotiation(err))
}

func TestNegotiate_CanceledContextStops(t *testing.T) {
	n, _, _, _ := newNegotiator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Negotiate(ctx, NegotiateParams{
		Stage:          StageIncomingGrant,
		Request:        model.NewGrantRequest(model.AccessIncomingPayment),
		CandidateTypes: model.DefaultIncomingGrantTypes,
	})
	require.ErrorIs(t, err, context.Canceled)
}
