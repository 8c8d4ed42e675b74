package testutil

import (
	"time"

	"github.com/interpay/interpay-api/internal/domain/model"
)

// JobBuilder provides a fluent interface for building settlement jobs in tests.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a running job with sensible defaults.
func NewJob() *JobBuilder {
	return &JobBuilder{
		job: model.NewJob("job_test", TestTime(),
			model.Wallet{
				ID:             "https://wallet.example/alice",
				AssetCode:      "USD",
				AssetScale:     2,
				AuthServer:     "https://auth.example/alice",
				ResourceServer: "https://rs.example/alice",
			},
			model.Resource{"id": "https://rs.example/bob/incoming-payments/1", "walletAddress": "https://wallet.example/bob"},
			model.Resource{"id": "https://rs.example/alice/quotes/1"},
			model.Grant{},
		),
	}
}

// WithID sets the job id.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithGrant sets the outgoing grant snapshot.
func (b *JobBuilder) WithGrant(g model.Grant) *JobBuilder {
	b.job.OutgoingGrant = g
	return b
}

// Completed moves the job to completed with the given outgoing payment.
func (b *JobBuilder) Completed(payment model.Resource) *JobBuilder {
	return b.terminal(model.JobStatusCompleted, model.CompletedResult{
		Incoming:        b.job.Incoming,
		Quote:           b.job.Quote,
		OutgoingPayment: payment,
	})
}

// PendingApproval moves the job to pending_approval.
func (b *JobBuilder) PendingApproval(redirect *string) *JobBuilder {
	return b.terminal(model.JobStatusPendingApproval, model.PendingApprovalResult{Redirect: redirect})
}

// Failed moves the job to failed.
func (b *JobBuilder) Failed(msg string) *JobBuilder {
	return b.terminal(model.JobStatusFailed, model.FailedResult{Error: msg})
}

// WithAttempts sets the poll attempt count.
func (b *JobBuilder) WithAttempts(n int) *JobBuilder {
	b.job.Attempts = n
	return b
}

func (b *JobBuilder) terminal(status model.JobStatus, result model.JobResult) *JobBuilder {
	b.job.Status = status
	b.job.Result = result
	b.job.UpdatedAt = b.job.CreatedAt.Add(time.Second)
	return b
}

// Build returns the job.
func (b *JobBuilder) Build() *model.Job {
	return b.job
}
