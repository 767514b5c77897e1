package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
)

// MockRepository é um mock para o repository.MockRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, mck *model.Mock) error {
	args := m.Called(ctx, mck)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*model.Mock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mock), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, mck *model.Mock) error {
	args := m.Called(ctx, mck)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter repository.MockFilter) ([]*model.Mock, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Mock), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) FindForSimulation(ctx context.Context, endpoint, method, callerID string) (*model.Mock, error) {
	args := m.Called(ctx, endpoint, method, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mock), args.Error(1)
}

func (m *MockRepository) IncrementAccess(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
