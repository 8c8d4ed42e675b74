// Package core defines the ports between the settlement services and their adapters.
package core

import (
	"context"

	"github.com/interpay/interpay-api/internal/domain/model"
)

// This file contains the port definitions the settlement services depend on.
// Adapters under internal/adapters implement them.

// AuthorizationClient talks to wallet, authorization and resource servers.
// Every call is a suspension point and may fail with a transport or protocol error.
type AuthorizationClient interface {
	ResolveWallet(ctx context.Context, url string) (*model.Wallet, error)
	RequestGrant(ctx context.Context, authServer string, req model.GrantRequest) (*model.Grant, error)
	ContinueGrant(ctx context.Context, continueURI, continueToken string) (*model.Grant, error)
	CreateIncomingPayment(ctx context.Context, target ResourceTarget, req model.IncomingPaymentRequest) (model.Resource, error)
	CreateQuote(ctx context.Context, target ResourceTarget, req model.QuoteRequest) (model.Resource, error)
	CreateOutgoingPayment(ctx context.Context, target ResourceTarget, req model.OutgoingPaymentRequest) (model.Resource, error)
}

// ResourceTarget groups the resource server URL and the access token used against it.
type ResourceTarget struct {
	ResourceServer string
	AccessToken    string
}

// JobEventPublisher is notified when a settlement job reaches a terminal status.
type JobEventPublisher interface {
	PublishJob(ctx context.Context, job *model.Job) error
}
