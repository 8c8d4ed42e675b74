// Package model defines the core data types shared by the settlement services,
// the HTTP layer and the authorization client adapters.
package model

import (
	"fmt"
	"time"
)

// JobStatus represents the current status of a settlement job.
type JobStatus string

const (
	// JobStatusRunning indicates the settlement worker still owns the job.
	JobStatusRunning JobStatus = "running"
	// JobStatusPendingApproval indicates the outgoing grant was never finalized.
	JobStatusPendingApproval JobStatus = "pending_approval"
	// JobStatusCompleted indicates the outgoing payment was created.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the worker hit an unexpected error.
	JobStatusFailed JobStatus = "failed"
	// JobStatusAwaitingConfirmation is reported by a run that stopped at an
	// interactive grant before any job was created. Jobs never hold it.
	JobStatusAwaitingConfirmation JobStatus = "awaiting_confirmation"
)

// Valid returns true if the JobStatus can be held by a stored job.
func (s JobStatus) Valid() bool {
	return s == JobStatusRunning || s == JobStatusPendingApproval ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusPendingApproval || s == JobStatusCompleted || s == JobStatusFailed
}

// JobResult is the polymorphic payload recorded when a job reaches a terminal status.
type JobResult interface {
	jobResult()
}

// CompletedResult is recorded when the outgoing payment was created.
type CompletedResult struct {
	Incoming          Resource `json:"incoming"`
	Quote             Resource `json:"quote"`
	OutgoingPayment   Resource `json:"outgoingPayment"`
	OutgoingPaymentID string   `json:"outgoingPaymentId"`
}

// PendingApprovalResult is recorded when polling gave up without a finalized grant.
// Redirect serializes as null when the server never asked for interaction.
type PendingApprovalResult struct {
	Redirect *string `json:"redirect"`
}

// FailedResult is recorded when the worker failed.
type FailedResult struct {
	Error string `json:"error"`
}

func (CompletedResult) jobResult()       {}
func (PendingApprovalResult) jobResult() {}
func (FailedResult) jobResult()          {}

// Job tracks one asynchronous settlement attempt.
type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Sender        Wallet    `json:"sender"`
	Incoming      Resource  `json:"incoming"`
	Quote         Resource  `json:"quote"`
	OutgoingGrant Grant     `json:"outgoingGrant"`
	Result        JobResult `json:"result"`
	Attempts      int       `json:"attempts"`
}

// NewJob creates a running job from the snapshots captured by a run.
func NewJob(id string, now time.Time, sender Wallet, incoming, quote Resource, grant Grant) *Job {
	return &Job{
		ID:            id,
		Status:        JobStatusRunning,
		CreatedAt:     now,
		UpdatedAt:     now,
		Sender:        sender,
		Incoming:      incoming,
		Quote:         quote,
		OutgoingGrant: grant,
	}
}

// Transition moves a running job to a terminal status.
func (j *Job) Transition(status JobStatus, result JobResult, now time.Time) error {
	if j.Status != JobStatusRunning {
		return fmt.Errorf("job %s already %s", j.ID, j.Status)
	}
	if !status.Terminal() {
		return fmt.Errorf("job %s cannot move to %q", j.ID, status)
	}
	j.Status = status
	j.Result = result
	j.UpdatedAt = now
	return nil
}

// Clone returns a copy safe to hand to readers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Incoming = j.Incoming.Clone()
	cp.Quote = j.Quote.Clone()
	return &cp
}

// JobView is the job status payload returned to pollers.
type JobView struct {
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
	Result JobResult `json:"result"`
}

// View projects the job for pollers.
func (j *Job) View() JobView {
	return JobView{JobID: j.ID, Status: j.Status, Result: j.Result}
}
