package mocks

import (
	"context"

	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockCompleter is a mock implementation of protocol.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req protocol.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)

	return args.String(0), args.Error(1)
}

// MockMailer is a mock implementation of protocol.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email protocol.Email) (bool, error) {
	args := m.Called(ctx, email)

	return args.Bool(0), args.Error(1)
}
