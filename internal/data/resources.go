package data

import (
	"fmt"

	"github.com/interpay/interpay-api/internal/domain/model"
)

// ID prefixes for each record kind.
const (
	PrefixGrant           = "g"
	PrefixIncomingPayment = "ip"
	PrefixQuote           = "q"
	PrefixOutgoingPayment = "op"
	PrefixJob             = "job"
)

// ResourceStore owns every record created by settlement runs.
// It is the single writer of record and is shared by injection.
type ResourceStore struct {
	Grants           *Store[model.Grant]
	IncomingPayments *Store[model.Resource]
	Quotes           *Store[model.Resource]
	OutgoingPayments *Store[model.Resource]
	Jobs             *JobStore
}

// NewResourceStore creates an empty ResourceStore.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{
		Grants:           NewStore[model.Grant](PrefixGrant),
		IncomingPayments: NewStore[model.Resource](PrefixIncomingPayment),
		Quotes:           NewStore[model.Resource](PrefixQuote),
		OutgoingPayments: NewStore[model.Resource](PrefixOutgoingPayment),
		Jobs:             NewJobStore(),
	}
}

// JobStore stores settlement jobs. Readers always receive copies.
type JobStore struct {
	store *Store[*model.Job]
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{store: NewStore[*model.Job](PrefixJob)}
}

// NewJobID returns a fresh job id.
func (s *JobStore) NewJobID() string {
	return NewID(PrefixJob)
}

// Create stores job under job.ID.
func (s *JobStore) Create(job *model.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("create job: missing id")
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, exists := s.store.items[job.ID]; exists {
		return fmt.Errorf("create job %s: already exists", job.ID)
	}
	s.store.items[job.ID] = job.Clone()
	s.store.order = append(s.store.order, job.ID)
	return nil
}

// Get returns a copy of the job.
func (s *JobStore) Get(id string) (*model.Job, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Update mutates the stored job under lock and returns a copy of the result.
func (s *JobStore) Update(id string, fn func(*model.Job) error) (*model.Job, error) {
	job, err := s.store.Update(id, func(j *model.Job) (*model.Job, error) {
		next := j.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return job.Clone(), nil
}

// Count returns the number of jobs.
func (s *JobStore) Count() int {
	return s.store.Count()
}
