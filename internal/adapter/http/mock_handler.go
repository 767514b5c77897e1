package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SamuelOshin/mockbox-api/internal/app/mock"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/internal/infra/metrics"
	apperrors "github.com/SamuelOshin/mockbox-api/pkg/errors"
)

// MockResponse é a representação de um mock no corpo das respostas
type MockResponse struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Endpoint     string            `json:"endpoint"`
	Method       string            `json:"method"`
	Response     json.RawMessage   `json:"response"`
	Headers      map[string]string `json:"headers"`
	StatusCode   int               `json:"status_code"`
	DelayMs      int               `json:"delay_ms"`
	IsPublic     bool              `json:"is_public"`
	Tags         []string          `json:"tags"`
	Status       string            `json:"status"`
	AccessCount  int64             `json:"access_count"`
	LastAccessed *time.Time        `json:"last_accessed"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func toMockResponse(m *model.Mock) MockResponse {
	return MockResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		Name:         m.Name,
		Description:  m.Description,
		Endpoint:     m.Endpoint,
		Method:       m.Method,
		Response:     m.Response,
		Headers:      m.Headers,
		StatusCode:   m.StatusCode,
		DelayMs:      m.DelayMs,
		IsPublic:     m.IsPublic,
		Tags:         m.Tags,
		Status:       m.Status,
		AccessCount:  m.AccessCount,
		LastAccessed: m.LastAccessed,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toMockResponses(mocks []*model.Mock) []MockResponse {
	out := make([]MockResponse, 0, len(mocks))
	for _, m := range mocks {
		out = append(out, toMockResponse(m))
	}
	return out
}

// MockHandler implementa os handlers de CRUD de mocks
type MockHandler struct {
	mockService *mock.Service
	logger      *zap.Logger
	metrics     *metrics.APIMetrics
}

// NewMockHandler cria um novo handler de mocks
func NewMockHandler(mockService *mock.Service, logger *zap.Logger) *MockHandler {
	return &MockHandler{
		mockService: mockService,
		logger:      logger,
	}
}

// SetMetrics configura o objeto de métricas
func (h *MockHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

// mapMockError traduz erros do serviço para a taxonomia da API
func mapMockError(err error) error {
	switch {
	case errors.Is(err, repository.ErrMockNotFound):
		return apperrors.NotFound("Mock", err)
	case errors.Is(err, repository.ErrMockExists):
		return apperrors.Conflict("Já existe um mock para este endpoint e método", err)
	case errors.Is(err, mock.ErrValidation):
		return apperrors.Validation(err.Error(), err)
	default:
		return err
	}
}

// CreateMock registra um novo mock do usuário autenticado
func (h *MockHandler) CreateMock(c *gin.Context) {
	var req mock.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	created, err := h.mockService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		h.logger.Error("Falha ao criar mock", zap.Error(err))
		if h.metrics != nil {
			h.metrics.RequestError(c.FullPath(), c.Request.Method, "create_mock_error")
		}
		respondError(c, mapMockError(err))
		return
	}

	respondData(c, http.StatusCreated, "Mock criado com sucesso", toMockResponse(created))
}

// GetMock obtém um mock visível ao chamador
func (h *MockHandler) GetMock(c *gin.Context) {
	m, err := h.mockService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, mapMockError(err))
		return
	}

	respondData(c, http.StatusOK, "", toMockResponse(m))
}

// ListMocks lista os mocks do usuário com paginação
func (h *MockHandler) ListMocks(c *gin.Context) {
	opts := parseListOptions(c)

	mocks, total, err := h.mockService.List(c.Request.Context(), currentUserID(c), opts)
	if err != nil {
		h.logger.Error("Falha ao listar mocks", zap.Error(err))
		if h.metrics != nil {
			h.metrics.RequestError(c.FullPath(), c.Request.Method, "list_mocks_error")
		}
		respondError(c, err)
		return
	}

	respondPage(c, toMockResponses(mocks), NewPagination(opts.Page, opts.Limit, total))
}

// ListPublicMocks lista o catálogo de mocks públicos
func (h *MockHandler) ListPublicMocks(c *gin.Context) {
	opts := parseListOptions(c)

	mocks, total, err := h.mockService.ListPublic(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("Falha ao listar mocks públicos", zap.Error(err))
		respondError(c, err)
		return
	}

	respondPage(c, toMockResponses(mocks), NewPagination(opts.Page, opts.Limit, total))
}

// UpdateMock substitui os campos mutáveis de um mock do usuário
func (h *MockHandler) UpdateMock(c *gin.Context) {
	var req mock.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	updated, err := h.mockService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RequestError(c.FullPath(), c.Request.Method, "update_mock_error")
		}
		respondError(c, mapMockError(err))
		return
	}

	respondData(c, http.StatusOK, "Mock atualizado com sucesso", toMockResponse(updated))
}

// DeleteMock remove um mock do usuário
func (h *MockHandler) DeleteMock(c *gin.Context) {
	if err := h.mockService.Delete(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		if h.metrics != nil {
			h.metrics.RequestError(c.FullPath(), c.Request.Method, "delete_mock_error")
		}
		respondError(c, mapMockError(err))
		return
	}

	respondData(c, http.StatusOK, "Mock excluído com sucesso", nil)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// BulkDeleteMocks executa exclusões independentes e reporta o resultado por item
func (h *MockHandler) BulkDeleteMocks(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}
	if len(req.IDs) == 0 {
		respondError(c, apperrors.BadRequest("Lista de ids vazia", nil))
		return
	}

	results := h.mockService.BulkDelete(c.Request.Context(), req.IDs, currentUserID(c))

	failed := 0
	for _, r := range results {
		if !r.Deleted {
			failed++
		}
	}

	respondData(c, http.StatusOK, "", gin.H{
		"results": results,
		"deleted": len(results) - failed,
		"failed":  failed,
	})
}

// ToggleMockStatus alterna um mock entre active e inactive
func (h *MockHandler) ToggleMockStatus(c *gin.Context) {
	m, err := h.mockService.ToggleStatus(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, mapMockError(err))
		return
	}

	respondData(c, http.StatusOK, "Status alternado com sucesso", toMockResponse(m))
}

// DuplicateMock cria uma cópia independente de um mock do usuário
func (h *MockHandler) DuplicateMock(c *gin.Context) {
	m, err := h.mockService.Duplicate(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, mapMockError(err))
		return
	}

	respondData(c, http.StatusCreated, "Mock duplicado com sucesso", toMockResponse(m))
}

// parseListOptions extrai paginação e filtros da query string
func parseListOptions(c *gin.Context) mock.ListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	return mock.ListOptions{
		Page:   page,
		Limit:  limit,
		Status: c.Query("status"),
		Search: c.Query("search"),
		Tags:   tags,
	}
}
