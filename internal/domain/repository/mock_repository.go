package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
)

var (
	ErrMockNotFound     = errors.New("mock not found")
	ErrMockExists       = errors.New("mock already exists")
	ErrTemplateNotFound = errors.New("template not found")
)

// MockFilter define os filtros de listagem de mocks
type MockFilter struct {
	UserID     string   // Dono; vazio em listagens públicas
	PublicOnly bool     // Apenas mocks públicos
	Status     string   // active | inactive | draft; vazio = todos
	Search     string   // Busca em name, description e endpoint
	Tags       []string // Mocks que contenham todas as tags
	Page       int
	Limit      int
}

// MockRepository define a interface para armazenamento de mocks
type MockRepository interface {
	// Create persiste um novo mock; retorna ErrMockExists para
	// (user_id, endpoint, method) duplicado
	Create(ctx context.Context, mock *model.Mock) error

	// GetByID obtém um mock pelo identificador
	GetByID(ctx context.Context, id string) (*model.Mock, error)

	// Update substitui os campos mutáveis de um mock existente
	Update(ctx context.Context, mock *model.Mock) error

	// Delete remove um mock do dono informado
	Delete(ctx context.Context, id, userID string) error

	// List obtém mocks com filtros e paginação; retorna também o total
	List(ctx context.Context, filter MockFilter) ([]*model.Mock, int64, error)

	// FindForSimulation resolve o mock ativo para (endpoint, method) visível ao
	// chamador: público ou de propriedade de callerID
	FindForSimulation(ctx context.Context, endpoint, method, callerID string) (*model.Mock, error)

	// IncrementAccess incrementa access_count atomicamente e grava last_accessed
	IncrementAccess(ctx context.Context, id string, at time.Time) error
}

// TemplateFilter define os filtros de listagem de templates
type TemplateFilter struct {
	Category string
	Search   string
	Tags     []string
	Page     int
	Limit    int
}

// TemplateRepository define a interface do catálogo de templates
type TemplateRepository interface {
	// GetByID obtém um template pelo identificador
	GetByID(ctx context.Context, id string) (*model.Template, error)

	// List obtém templates públicos com filtros e paginação
	List(ctx context.Context, filter TemplateFilter) ([]*model.Template, int64, error)

	// Create persiste um template (carga do catálogo)
	Create(ctx context.Context, template *model.Template) error

	// IncrementUsage incrementa usage_count atomicamente
	IncrementUsage(ctx context.Context, id string) error
}
