package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
)

// TemplateRepository é um mock para o repository.TemplateRepository
type TemplateRepository struct {
	mock.Mock
}

func (m *TemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *TemplateRepository) List(ctx context.Context, filter repository.TemplateFilter) ([]*model.Template, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Template), args.Get(1).(int64), args.Error(2)
}

func (m *TemplateRepository) Create(ctx context.Context, template *model.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *TemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
