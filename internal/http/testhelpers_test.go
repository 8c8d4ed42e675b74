package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	"github.com/interpay/interpay-api/internal/mocks"
	"github.com/interpay/interpay-api/internal/service"
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

type testAPI struct {
	handler http.Handler
	client  *mocks.MockAuthorizationClient
	store   *data.ResourceStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockAuthorizationClient(ctrl)
	store := data.NewResourceStore()
	defaults := service.SettlementDefaults{SenderWalletURL: alice.ID, ReceiverWalletURL: bob.ID}

	settlement := service.MustNewSettlementService(service.SettlementServiceOptions{
		Client:   client,
		Store:    store,
		Defaults: defaults,
		Poll:     service.PollPolicy{InitialDelay: time.Millisecond, Interval: time.Millisecond, MaxAttempts: 2},
	})
	t.Cleanup(func() { _ = settlement.Shutdown(context.Background()) })

	handler := NewRouter(RouterServices{
		Settlement: settlement,
		Jobs:       service.MustNewJobService(service.JobServiceOptions{Store: store}),
		Payments: service.MustNewPaymentsService(service.PaymentsServiceOptions{
			Client:   client,
			Store:    store,
			Defaults: defaults,
		}),
	})
	return &testAPI{handler: handler, client: client, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && method != http.MethodHead {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

// grantType matches a GrantRequest by its first access type.
type grantType string

func (g grantType) Matches(x any) bool {
	req, ok := x.(model.GrantRequest)
	return ok && req.PrimaryType() == string(g)
}

func (g grantType) String() string { return "grant request of type " + string(g) }

func finalizedGrant(token string) *model.Grant {
	return &model.Grant{AccessToken: &model.AccessToken{Value: token}}
}
