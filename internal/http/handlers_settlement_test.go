package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/domain/model"
)

const runPath = APIPrefix + "/run-service"

func (a *testAPI) expectWallets() {
	a.client.EXPECT().ResolveWallet(gomock.Any(), alice.ID).Return(alice, nil)
	a.client.EXPECT().ResolveWallet(gomock.Any(), bob.ID).Return(bob, nil)
}

func TestRunService_InvalidAmount(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{`{"amount":"12a"}`, `{"value":"-5"}`, `{"incomingAmount":1.5}`, `{"amount":true}`, `{`} {
		rec, out := api.do(t, http.MethodPost, runPath, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, out["message"], body)
	}
	assert.Equal(t, 0, api.store.Jobs.Count())
}

func TestRunServiceRequest_AmountPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.AmountInput
	}{
		{name: "value wins over amount", body: `{"value":"100","amount":"abc"}`, want: model.AmountInput{Value: "100", Set: true}},
		{name: "incomingAmount wins over amount", body: `{"incomingAmount":"7","amount":"9"}`, want: model.AmountInput{Value: "7", Set: true}},
		{name: "value wins over incomingAmount", body: `{"incomingAmount":"7","value":8}`, want: model.AmountInput{Value: "8", Set: true, Numeric: true}},
		{name: "numeric zero falls through", body: `{"value":0,"amount":"12"}`, want: model.AmountInput{Value: "12", Set: true}},
		{name: "numeric zero alone is absent", body: `{"amount":0}`, want: model.AmountInput{}},
		{name: "string zero is kept", body: `{"amount":"0"}`, want: model.AmountInput{Value: "0", Set: true}},
		{name: "empty", body: `{}`, want: model.AmountInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req runServiceRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.amount())
		})
	}
}

func TestRunService_NumericZeroUsesDefaultAmount(t *testing.T) {
	api := newTestAPI(t)
	api.expectWallets()
	c := api.client.EXPECT()
	c.RequestGrant(gomock.Any(), bob.AuthServer, grantType("incoming_payment")).Return(finalizedGrant("tok-in"), nil)
	c.CreateIncomingPayment(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ core.ResourceTarget, req model.IncomingPaymentRequest) (model.Resource, error) {
			assert.Equal(t, "50000", req.IncomingAmount.Value)
			return nil, errors.New("stop here")
		})

	rec, _ := api.do(t, http.MethodPost, runPath, `{"amount":0}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, api.store.Jobs.Count())
}

func TestRunService_AwaitingIncomingGrant(t *testing.T) {
	api := newTestAPI(t)
	api.expectWallets()
	api.client.EXPECT().RequestGrant(gomock.Any(), bob.AuthServer, grantType("incoming_payment")).
		Return(&model.Grant{Interact: &model.Interaction{Redirect: "https://auth.example/bob/interact"}}, nil)

	rec, out := api.do(t, http.MethodPost, runPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "awaiting_confirmation", "stage": "incoming_grant"}, out)
	assert.Equal(t, 0, api.store.Jobs.Count())
}

func TestRunService_NegotiationFailure(t *testing.T) {
	api := newTestAPI(t)
	api.expectWallets()
	api.client.EXPECT().RequestGrant(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("unknown access type")).Times(len(model.DefaultIncomingGrantTypes))

	rec, out := api.do(t, http.MethodPost, runPath, `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "negotiation", out["error"])
	assert.Equal(t, "incoming_grant", out["stage"])
	assert.Contains(t, out["message"], "unknown access type")
}

func TestRunService_AcceptedThenCompleted(t *testing.T) {
	api := newTestAPI(t)
	api.expectWallets()
	c := api.client.EXPECT()
	c.RequestGrant(gomock.Any(), bob.AuthServer, grantType("incoming_payment")).Return(finalizedGrant("tok-in"), nil)
	c.CreateIncomingPayment(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ core.ResourceTarget, req model.IncomingPaymentRequest) (model.Resource, error) {
			assert.Equal(t, "700", req.IncomingAmount.Value)
			return model.Resource{"id": "https://rs.example/bob/incoming-payments/1"}, nil
		})
	c.RequestGrant(gomock.Any(), alice.AuthServer, grantType("quote")).Return(finalizedGrant("tok-q"), nil)
	c.CreateQuote(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Resource{
		"id":          "https://rs.example/alice/quotes/1",
		"debitAmount": map[string]any{"value": "707", "assetCode": "USD", "assetScale": float64(2)},
	}, nil)
	c.RequestGrant(gomock.Any(), alice.AuthServer, grantType("outgoing-payment")).Return(finalizedGrant("tok-out"), nil)
	c.CreateOutgoingPayment(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.Resource{"id": "https://rs.example/alice/outgoing-payments/1"}, nil)

	rec, out := api.do(t, http.MethodPost, runPath, `{"value": 700}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID, _ := out["jobId"].(string)
	require.NotEmpty(t, jobID)
	assert.NotContains(t, out, "redirect")

	require.Eventually(t, func() bool {
		rec, out := api.do(t, http.MethodGet, runPath+"/"+jobID, "")
		return rec.Code == http.StatusOK && out["status"] == "completed"
	}, 2*time.Second, 5*time.Millisecond)

	_, out = api.do(t, http.MethodGet, runPath+"/"+jobID, "")
	result, ok := out["result"].(map[string]any)
	require.True(t, ok)
	payment, ok := result["outgoingPayment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://rs.example/alice/outgoing-payments/1", payment["id"])
}

func TestGetJob_NotFound(t *testing.T) {
	api := newTestAPI(t)
	rec, out := api.do(t, http.MethodGet, runPath+"/job_nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", out["error"])
}

func TestGetJob_Running(t *testing.T) {
	api := newTestAPI(t)
	job := model.NewJob("job_fixed", time.Now(), *alice, nil, nil, model.Grant{})
	require.NoError(t, api.store.Jobs.Create(job))

	rec, out := api.do(t, http.MethodGet, runPath+"/job_fixed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"jobId": "job_fixed", "status": "running", "result": nil}, out)
}
