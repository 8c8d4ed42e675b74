// Package mocks provides gomock implementations of the ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockAuthorizationClient(ctrl)
//	client.EXPECT().ResolveWallet(gomock.Any(), "https://wallet.example/alice").Return(wallet, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=authorization_client_mock.go github.com/interpay/interpay-api/internal/core AuthorizationClient

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_event_publisher_mock.go github.com/interpay/interpay-api/internal/core JobEventPublisher
