package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/domain/model"
	apperrors "github.com/interpay/interpay-api/internal/errors"
	obserrors "github.com/interpay/interpay-api/internal/observability/errors"
	"github.com/interpay/interpay-api/internal/observability/metrics"
	"github.com/interpay/interpay-api/internal/observability/notify"
)

// launchWorker starts the settlement worker for jobID. The caller does not wait for it.
func (s *SettlementService) launchWorker(jobID string, grant model.Grant) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.settle(s.baseCtx, jobID, grant)
	}()
}

// settle owns the job until it reaches a terminal status.
func (s *SettlementService) settle(ctx context.Context, jobID string, grant model.Grant) {
	logger := s.logger.With("job_id", jobID)
	attempts := 0

	defer func() {
		if r := recover(); r != nil {
			logger.Error("settlement worker panic", "panic", r, "stack", string(debug.Stack()))
			s.finish(ctx, jobID, attempts, model.JobStatusFailed,
				model.FailedResult{Error: fmt.Sprintf("worker panic: %v", r)}, fmt.Errorf("panic: %v", r))
		}
	}()

	final, redirect, attempts, err := s.awaitApproval(ctx, logger, grant)
	if err != nil {
		s.finish(ctx, jobID, attempts, model.JobStatusFailed, model.FailedResult{Error: err.Error()}, err)
		return
	}

	if final == nil {
		var result model.PendingApprovalResult
		if redirect != "" {
			result.Redirect = ptr(redirect)
		}
		s.finish(ctx, jobID, attempts, model.JobStatusPendingApproval, result, nil)
		return
	}

	result, err := s.createOutgoingPayment(ctx, jobID, *final)
	if err != nil {
		s.finish(ctx, jobID, attempts, model.JobStatusFailed, model.FailedResult{Error: err.Error()}, err)
		return
	}
	s.finish(ctx, jobID, attempts, model.JobStatusCompleted, *result, nil)
}

// awaitApproval continues the outgoing grant until it is finalized, the server asks
// for interaction again during the retry loop, or the poll policy is exhausted. Continuation errors are
// expected while the user has not approved and are only logged. A nil grant with a
// nil error means approval never arrived; redirect is the URL to report in that case.
func (s *SettlementService) awaitApproval(
	ctx context.Context,
	logger *slog.Logger,
	grant model.Grant,
) (*model.Grant, string, int, error) {
	if grant.Finalized() {
		return &grant, "", 0, nil
	}
	redirect := grant.Redirect()
	if !grant.CanContinue() {
		return nil, redirect, 0, nil
	}

	cont := *grant.Continue
	attempts := 0
	// try reports a finalized grant, or stop when polling should end early.
	// A fresh redirect only ends polling once the retry loop has started.
	try := func(stopOnRedirect bool) (*model.Grant, bool) {
		attempts++
		next, err := s.client.ContinueGrant(ctx, cont.URI, cont.AccessToken.Value)
		if err != nil || next == nil {
			logger.DebugContext(ctx, "grant continuation not ready", "attempt", attempts, "error", err)
			return nil, false
		}
		if next.Finalized() {
			return next, true
		}
		if r := next.Redirect(); r != "" {
			redirect = r
			return nil, stopOnRedirect
		}
		return nil, false
	}

	if final, _ := try(false); final != nil {
		return final, redirect, attempts, nil
	}

	if err := s.sleep(ctx, s.poll.InitialDelay); err != nil {
		return nil, redirect, attempts, fmt.Errorf("waiting for grant approval: %w", err)
	}
	for i := range s.poll.MaxAttempts {
		if final, stop := try(true); final != nil || stop {
			return final, redirect, attempts, nil
		}
		if i == s.poll.MaxAttempts-1 {
			break
		}
		if err := s.sleep(ctx, s.poll.Interval); err != nil {
			return nil, redirect, attempts, fmt.Errorf("waiting for grant approval: %w", err)
		}
	}
	return nil, redirect, attempts, nil
}

func (s *SettlementService) createOutgoingPayment(ctx context.Context, jobID string, grant model.Grant) (*model.CompletedResult, error) {
	job, err := s.store.Jobs.Get(jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	quoteID := job.Quote.ID()
	if quoteID == "" {
		return nil, apperrors.Upstream(StageOutgoingPayment, errors.New("quote has no id"))
	}

	payment, err := s.client.CreateOutgoingPayment(ctx,
		core.ResourceTarget{ResourceServer: job.Sender.ResourceServer, AccessToken: grant.Token()},
		model.OutgoingPaymentRequest{WalletAddress: job.Sender.ID, QuoteID: quoteID},
	)
	if err != nil {
		return nil, apperrors.Upstream(StageOutgoingPayment, err)
	}
	id := s.store.OutgoingPayments.Insert(payment)
	return &model.CompletedResult{
		Incoming:          job.Incoming,
		Quote:             job.Quote,
		OutgoingPayment:   payment,
		OutgoingPaymentID: id,
	}, nil
}

// finish records the terminal status and fans it out. It runs with a context
// that survives shutdown cancellation so the outcome is always published.
func (s *SettlementService) finish(
	ctx context.Context,
	jobID string,
	attempts int,
	status model.JobStatus,
	result model.JobResult,
	cause error,
) {
	job, err := s.store.Jobs.Update(jobID, func(j *model.Job) error {
		j.Attempts = attempts
		return j.Transition(status, result, s.clock.Now())
	})
	if err != nil {
		s.logger.Error("record job outcome", "job_id", jobID, "status", status, "error", err)
		return
	}

	outCtx := context.WithoutCancel(ctx)
	res := metrics.ResultSuccess
	if status == model.JobStatusFailed {
		res = metrics.ResultError
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Status:   string(status),
		Result:   res,
		Attempts: attempts,
		Duration: job.UpdatedAt.Sub(job.CreatedAt),
		Err:      cause,
	})
	s.logger.InfoContext(outCtx, "settlement job finished",
		"job_id", jobID,
		"status", status,
		"attempts", attempts,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishJob(outCtx, job); err != nil {
			s.logger.WarnContext(outCtx, "publish job outcome", "job_id", jobID, "error", err)
		}
	}

	if status == model.JobStatusFailed && s.failureNotifier.Enabled() {
		s.failureNotifier.NotifyJobFailure(outCtx, notify.JobFailurePayload{
			JobID:      jobID,
			Sender:     job.Sender.ID,
			Receiver:   job.Incoming.String("walletAddress"),
			Error:      failedMessage(result),
			ErrorClass: obserrors.Classify(cause),
			Attempts:   attempts,
			OccurredAt: job.UpdatedAt,
			Metadata:   map[string]string{"quote": job.Quote.ID()},
		})
	}
}

func failedMessage(result model.JobResult) string {
	if f, ok := result.(model.FailedResult); ok {
		return f.Error
	}
	return ""
}
