package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGcs struct {
	mock.Mock
}

func (m *MockGcs) Get(ctx context.Context, fileName string) (string, error) {
	args := m.Called(ctx, fileName)
	return args.String(0), args.Error(1)
}
