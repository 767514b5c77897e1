package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/pkg/cache"
	"go.uber.org/zap"
)

// ErrValidation marca falhas de validação do contrato do mock
var ErrValidation = errors.New("validação do mock falhou")

// CreateRequest contém os campos mutáveis de um mock
type CreateRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Endpoint    string            `json:"endpoint" binding:"required"`
	Method      string            `json:"method" binding:"required"`
	Response    json.RawMessage   `json:"response"`
	Headers     map[string]string `json:"headers"`
	StatusCode  int               `json:"status_code"`
	DelayMs     int               `json:"delay_ms"`
	IsPublic    bool              `json:"is_public"`
	Tags        []string          `json:"tags"`
}

// ListOptions contém paginação e filtros de listagem
type ListOptions struct {
	Page   int
	Limit  int
	Status string
	Search string
	Tags   []string
}

// BulkDeleteResult é o resultado individual de uma exclusão em lote
type BulkDeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type Service struct {
	repo   repository.MockRepository
	cache  cache.Cache
	logger *zap.Logger
}

func NewService(repo repository.MockRepository, cache cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// buildMock monta o modelo a partir da requisição, aplicando normalizações e padrões
func buildMock(req CreateRequest) *model.Mock {
	statusCode := req.StatusCode
	if statusCode == 0 {
		statusCode = 200
	}

	m := &model.Mock{
		Name:        req.Name,
		Description: req.Description,
		Endpoint:    req.Endpoint,
		Method:      req.Method,
		Response:    req.Response,
		Headers:     req.Headers,
		StatusCode:  statusCode,
		DelayMs:     req.DelayMs,
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
	}
	m.Normalize()
	return m
}

// Create persiste um novo mock do usuário. Mocks recém-criados já nascem
// ativos; (user_id, endpoint, method) duplicado retorna ErrMockExists.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*model.Mock, error) {
	m := buildMock(req)
	m.ID = uuid.New().String()
	m.UserID = userID
	m.Status = model.MockStatusActive
	m.AccessCount = 0
	m.LastAccessed = nil

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("Mock criado",
		zap.String("id", m.ID),
		zap.String("endpoint", m.Endpoint),
		zap.String("method", m.Method))
	return m, nil
}

// Get obtém um mock visível ao chamador (dono ou público)
func (s *Service) Get(ctx context.Context, id, callerID string) (*model.Mock, error) {
	var m model.Mock

	cacheKey := "mock:" + id
	found, err := s.cache.Get(ctx, cacheKey, &m)
	if err != nil {
		s.logger.Warn("Erro ao buscar mock do cache", zap.String("id", id), zap.Error(err))
	} else if found {
		if !m.VisibleTo(callerID) {
			return nil, repository.ErrMockNotFound
		}
		return &m, nil
	}

	mock, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, mock, 5*time.Minute); err != nil {
		s.logger.Warn("Erro ao armazenar mock no cache", zap.Error(err))
	}

	// A visibilidade não é divulgada: inexistente e invisível respondem igual
	if !mock.VisibleTo(callerID) {
		return nil, repository.ErrMockNotFound
	}
	return mock, nil
}

// Update substitui os campos mutáveis; id, user_id, status, access_count e
// created_at são preservados. Não-donos recebem ErrMockNotFound.
func (s *Service) Update(ctx context.Context, id, userID string, req CreateRequest) (*model.Mock, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, repository.ErrMockNotFound
	}

	m := buildMock(req)
	m.ID = existing.ID
	m.UserID = existing.UserID
	m.Status = existing.Status
	m.AccessCount = existing.AccessCount
	m.LastAccessed = existing.LastAccessed
	m.CreatedAt = existing.CreatedAt

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)

	return s.repo.GetByID(ctx, id)
}

// Delete remove um mock do dono informado
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.invalidate(ctx, id)

	s.logger.Info("Mock excluído", zap.String("id", id))
	return nil
}

// BulkDelete executa exclusões independentes e retorna o resultado por item,
// permitindo ao chamador distinguir falha parcial de falha total
func (s *Service) BulkDelete(ctx context.Context, ids []string, userID string) []BulkDeleteResult {
	results := make([]BulkDeleteResult, 0, len(ids))
	for _, id := range ids {
		result := BulkDeleteResult{ID: id, Deleted: true}
		if err := s.Delete(ctx, id, userID); err != nil {
			result.Deleted = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// List obtém os mocks do usuário com paginação e filtros
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]*model.Mock, int64, error) {
	return s.repo.List(ctx, repository.MockFilter{
		UserID: userID,
		Status: opts.Status,
		Search: opts.Search,
		Tags:   opts.Tags,
		Page:   normalizePage(opts.Page),
		Limit:  normalizeLimit(opts.Limit),
	})
}

// ListPublic obtém o catálogo de mocks públicos
func (s *Service) ListPublic(ctx context.Context, opts ListOptions) ([]*model.Mock, int64, error) {
	return s.repo.List(ctx, repository.MockFilter{
		PublicOnly: true,
		Status:     opts.Status,
		Search:     opts.Search,
		Tags:       opts.Tags,
		Page:       normalizePage(opts.Page),
		Limit:      normalizeLimit(opts.Limit),
	})
}

// ToggleStatus alterna o mock entre active e inactive (drafts são ativados)
func (s *Service) ToggleStatus(ctx context.Context, id, userID string) (*model.Mock, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, repository.ErrMockNotFound
	}

	if existing.Status == model.MockStatusActive {
		existing.Status = model.MockStatusInactive
	} else {
		existing.Status = model.MockStatusActive
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)

	s.logger.Info("Status do mock alternado",
		zap.String("id", id),
		zap.String("status", existing.Status))
	return existing, nil
}

// Duplicate cria uma cópia independente do mock como rascunho privado
func (s *Service) Duplicate(ctx context.Context, id, userID string) (*model.Mock, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, repository.ErrMockNotFound
	}

	copied := *existing
	copied.ID = uuid.New().String()
	copied.Name = existing.Name + " (Copy)"
	copied.Endpoint = existing.Endpoint + "-copy"
	copied.Status = model.MockStatusDraft
	copied.IsPublic = false
	copied.AccessCount = 0
	copied.LastAccessed = nil
	copied.CreatedAt = time.Time{}
	copied.UpdatedAt = time.Time{}

	if err := s.repo.Create(ctx, &copied); err != nil {
		return nil, err
	}

	s.logger.Info("Mock duplicado",
		zap.String("source_id", id),
		zap.String("copy_id", copied.ID))
	return &copied, nil
}

// invalidate remove o mock do cache após uma escrita
func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, "mock:"+id); err != nil {
		s.logger.Warn("Erro ao invalidar cache de mock", zap.String("id", id), zap.Error(err))
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeLimit(limit int) int {
	switch {
	case limit < 1:
		return 20
	case limit > 100:
		return 100
	default:
		return limit
	}
}
