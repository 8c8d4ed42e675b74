package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	apperrors "github.com/interpay/interpay-api/internal/errors"
	"github.com/interpay/interpay-api/internal/observability/metrics"
	"github.com/interpay/interpay-api/internal/observability/statsd"
)

// GrantNegotiatorOptions groups dependencies for GrantNegotiator.
type GrantNegotiatorOptions struct {
	Client  core.AuthorizationClient // Required
	Store   *data.ResourceStore      // Required
	Metrics statsd.Sink              // Optional
	Logger  *slog.Logger             // Optional
}

// GrantNegotiator requests grants, falling back across alternate access-type spellings.
type GrantNegotiator struct {
	client  core.AuthorizationClient
	store   *data.ResourceStore
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewGrantNegotiator constructs a GrantNegotiator.
func NewGrantNegotiator(opts GrantNegotiatorOptions) (*GrantNegotiator, error) {
	if opts.Client == nil {
		return nil, errors.New("AuthorizationClient is required")
	}
	if opts.Store == nil {
		return nil, errors.New("ResourceStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GrantNegotiator{
		client:  opts.Client,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  logger.With("component", "grant_negotiator"),
	}, nil
}

// NegotiateParams describes one grant negotiation.
type NegotiateParams struct {
	Stage      string
	AuthServer string
	Request    model.GrantRequest
	// CandidateTypes, when set, are tried in order in place of the request's own type.
	CandidateTypes []string
}

// Negotiate requests a grant and stores the first one the server returns.
// When every candidate is rejected the last error is returned and nothing is stored.
func (n *GrantNegotiator) Negotiate(ctx context.Context, p NegotiateParams) (*model.GrantRecord, error) {
	candidates := p.CandidateTypes
	if len(candidates) == 0 {
		candidates = []string{p.Request.PrimaryType()}
	}

	var lastErr error
	for _, typeName := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Negotiation(p.Stage, err)
		}

		grant, err := n.client.RequestGrant(ctx, p.AuthServer, p.Request.WithType(typeName))
		if err == nil && grant == nil {
			err = errors.New("authorization server returned no grant")
		}
		if err != nil {
			lastErr = fmt.Errorf("request %s grant: %w", typeName, err)
			metrics.EmitNegotiation(n.metrics, metrics.NegotiationMetric{
				Stage: p.Stage, TypeName: typeName, Result: metrics.ResultError, Err: err,
			})
			n.logger.DebugContext(ctx, "grant request rejected",
				"stage", p.Stage,
				"type", typeName,
				"error", err,
			)
			continue
		}

		metrics.EmitNegotiation(n.metrics, metrics.NegotiationMetric{
			Stage: p.Stage, TypeName: typeName, Result: metrics.ResultSuccess,
		})
		id := n.store.Grants.Insert(*grant)
		n.logger.InfoContext(ctx, "grant obtained",
			"stage", p.Stage,
			"type", typeName,
			"grant_id", id,
			"state", grant.State(),
		)
		return &model.GrantRecord{ID: id, Grant: *grant}, nil
	}

	return nil, apperrors.Negotiation(p.Stage, lastErr)
}
