package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Interpret(ctx context.Context, question string) (Directive, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(Directive), args.Error(1)
}
