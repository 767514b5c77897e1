package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/pkg/cache"
	"go.uber.org/zap"
)

// ErrSelectionRequired indica que um template com múltiplos endpoints ou
// múltiplas variantes de resposta exige seleção explícita
var ErrSelectionRequired = errors.New("template exige seleção de endpoint e resposta")

// ListOptions contém paginação e filtros do catálogo
type ListOptions struct {
	Page     int
	Limit    int
	Category string
	Search   string
	Tags     []string
}

// Draft é o rascunho de mock derivado de um template, pronto para o builder
type Draft struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Response    json.RawMessage   `json:"response"`
	Headers     map[string]string `json:"headers"`
	StatusCode  int               `json:"status_code"`
	DelayMs     int               `json:"delay_ms"`
	Tags        []string          `json:"tags"`
}

type Service struct {
	repo   repository.TemplateRepository
	cache  cache.Cache
	logger *zap.Logger
}

func NewService(repo repository.TemplateRepository, cache cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// List obtém templates públicos do catálogo
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*model.Template, int64, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return s.repo.List(ctx, repository.TemplateFilter{
		Category: opts.Category,
		Search:   opts.Search,
		Tags:     opts.Tags,
		Page:     page,
		Limit:    limit,
	})
}

// Get obtém um template pelo identificador (leitura com cache; o catálogo é imutável)
func (s *Service) Get(ctx context.Context, id string) (*model.Template, error) {
	var t model.Template

	cacheKey := "template:" + id
	found, err := s.cache.Get(ctx, cacheKey, &t)
	if err != nil {
		s.logger.Warn("Erro ao buscar template do cache", zap.String("id", id), zap.Error(err))
	} else if found {
		return &t, nil
	}

	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, template, 5*time.Minute); err != nil {
		s.logger.Warn("Erro ao armazenar template no cache", zap.Error(err))
	}

	return template, nil
}

// Apply converte o template mais a seleção (endpointIndex, responseIndex) em um
// rascunho de mock independente. Nenhum vínculo é mantido entre os dois; o
// usage_count do template é incrementado em melhor esforço.
func (s *Service) Apply(ctx context.Context, id string, endpointIndex, responseIndex int) (*Draft, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := template.ParseData()
	if err != nil {
		return nil, err
	}

	// Templates não-simples exigem seleção explícita; índices negativos
	// sinalizam "sem seleção"
	if (endpointIndex < 0 || responseIndex < 0) && !template.IsSimple() {
		return nil, ErrSelectionRequired
	}
	if endpointIndex < 0 {
		endpointIndex = 0
	}
	if responseIndex < 0 {
		responseIndex = 0
	}

	if endpointIndex >= len(data.Endpoints) {
		return nil, fmt.Errorf("endpoint_index %d fora do intervalo (%d endpoints)", endpointIndex, len(data.Endpoints))
	}
	endpoint := data.Endpoints[endpointIndex]

	// Variante escolhida ou campos diretos do endpoint
	response := endpoint.Response
	statusCode := endpoint.StatusCode
	headers := endpoint.Headers
	delayMs := endpoint.DelayMs

	if len(endpoint.Responses) > 0 {
		if responseIndex >= len(endpoint.Responses) {
			return nil, fmt.Errorf("response_index %d fora do intervalo (%d respostas)", responseIndex, len(endpoint.Responses))
		}
		variant := endpoint.Responses[responseIndex]
		response = variant.Response
		statusCode = variant.StatusCode
		headers = variant.Headers
		delayMs = variant.DelayMs
	}

	// Padrões para valores ausentes: ({}, 200, {}, 0)
	if len(response) == 0 {
		response = json.RawMessage("{}")
	}
	code := 200
	if statusCode != nil {
		code = *statusCode
	}
	if headers == nil {
		headers = map[string]string{}
	}
	delay := 0
	if delayMs != nil {
		delay = *delayMs
	}

	name := template.Name
	if endpoint.Name != "" {
		name = endpoint.Name
	}

	draft := &Draft{
		Name:        name,
		Description: template.Description,
		Endpoint:    model.NormalizeEndpoint(endpoint.Endpoint),
		Method:      endpoint.Method,
		Response:    response,
		Headers:     headers,
		StatusCode:  code,
		DelayMs:     delay,
		Tags:        append(model.NormalizeTags(template.Tags), "from-template"),
	}

	if err := s.repo.IncrementUsage(ctx, template.ID); err != nil {
		s.logger.Warn("Erro ao incrementar uso do template",
			zap.String("id", template.ID),
			zap.Error(err))
	}

	return draft, nil
}
