package sandbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpay/interpay-api/internal/adapters/sandbox"
	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	"github.com/interpay/interpay-api/internal/service"
)

func runSettlement(t *testing.T, sc sandbox.Scenario) (*service.RunOutcome, *service.JobService) {
	t.Helper()
	client, err := sandbox.NewClient(sandbox.Options{Scenario: sc})
	require.NoError(t, err)

	store := data.NewResourceStore()
	svc := service.MustNewSettlementService(service.SettlementServiceOptions{
		Client: client,
		Store:  store,
		Defaults: service.SettlementDefaults{
			SenderWalletURL:   sc.Wallets[0].ID,
			ReceiverWalletURL: sc.Wallets[1].ID,
		},
		Poll: service.PollPolicy{InitialDelay: time.Millisecond, Interval: time.Millisecond, MaxAttempts: 3},
	})
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	jobs := service.MustNewJobService(service.JobServiceOptions{Store: store})

	out, err := svc.Run(context.Background(), service.RunRequest{
		Amount: model.AmountInput{Value: "2500", Set: true},
	})
	require.NoError(t, err)
	return out, jobs
}

func awaitTerminal(t *testing.T, jobs *service.JobService, id string) *model.JobView {
	t.Helper()
	var view *model.JobView
	require.Eventually(t, func() bool {
		v, err := jobs.Get(context.Background(), id)
		if err != nil {
			return false
		}
		view = v
		return v.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return view
}

func TestSettlement_InteractiveOutgoingGrantCompletes(t *testing.T) {
	out, jobs := runSettlement(t, sandbox.DefaultScenario())
	require.True(t, out.Accepted())
	assert.Contains(t, out.Redirect, "/interact/")

	view := awaitTerminal(t, jobs, out.JobID)
	require.Equal(t, model.JobStatusCompleted, view.Status)
	result, ok := view.Result.(model.CompletedResult)
	require.True(t, ok)
	debit, err := result.OutgoingPayment.AmountAt("debitAmount")
	require.NoError(t, err)
	assert.Equal(t, "2525", debit.Value)
}

func TestSettlement_NeverApprovedIsPending(t *testing.T) {
	sc := sandbox.DefaultScenario()
	sc.Grants["outgoing-payment"] = sandbox.GrantBehavior{Mode: sandbox.ModeInteractive, ApproveAfter: 100}

	out, jobs := runSettlement(t, sc)
	view := awaitTerminal(t, jobs, out.JobID)
	require.Equal(t, model.JobStatusPendingApproval, view.Status)
	result, ok := view.Result.(model.PendingApprovalResult)
	require.True(t, ok)
	require.NotNil(t, result.Redirect)
	assert.Equal(t, out.Redirect, *result.Redirect)
}

func TestSettlement_InteractiveIncomingGrantShortCircuits(t *testing.T) {
	sc := sandbox.DefaultScenario()
	sc.Grants["incoming-payment"] = sandbox.GrantBehavior{Mode: sandbox.ModeInteractive}

	out, _ := runSettlement(t, sc)
	assert.False(t, out.Accepted())
	assert.Equal(t, model.JobStatusAwaitingConfirmation, out.Status)
	assert.Equal(t, service.StageIncomingGrant, out.Stage)
	assert.Empty(t, out.JobID)
}

func TestSettlement_OutgoingPaymentFailureMarksJobFailed(t *testing.T) {
	sc := sandbox.DefaultScenario()
	sc.Grants["outgoing-payment"] = sandbox.GrantBehavior{Mode: sandbox.ModeFinalized}
	sc.Failures = map[string]string{sandbox.OpOutgoingPayment: "insufficient liquidity"}

	out, jobs := runSettlement(t, sc)
	assert.Empty(t, out.Redirect)
	view := awaitTerminal(t, jobs, out.JobID)
	require.Equal(t, model.JobStatusFailed, view.Status)
	result, ok := view.Result.(model.FailedResult)
	require.True(t, ok)
	assert.Contains(t, result.Error, "insufficient liquidity")
}
