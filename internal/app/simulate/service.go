package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"go.uber.org/zap"
)

// Result é a resposta simulada pronta para ser escrita na conexão
type Result struct {
	StatusCode int
	Headers    map[string]string
	Body       json.RawMessage
	DelayMs    int
}

// Draft é um mock ainda não persistido, usado pelo fluxo de pré-visualização
type Draft struct {
	Response   json.RawMessage   `json:"response"`
	Headers    map[string]string `json:"headers"`
	StatusCode int               `json:"status_code"`
	DelayMs    int               `json:"delay_ms"`
}

type Service struct {
	repo       repository.MockRepository
	logger     *zap.Logger
	tracer     trace.Tracer
	maxDelayMs int
}

func NewService(repo repository.MockRepository, logger *zap.Logger, maxDelayMs int) *Service {
	if maxDelayMs <= 0 {
		maxDelayMs = model.MaxDelayMs
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		tracer:     otel.GetTracerProvider().Tracer("mockbox.service.simulate"),
		maxDelayMs: maxDelayMs,
	}
}

// Resolve encontra o mock ativo para (endpoint, method) visível ao chamador.
// A correspondência de caminho é exata; parâmetros de rota não são suportados.
func (s *Service) Resolve(ctx context.Context, endpoint, method, callerID string) (*model.Mock, error) {
	endpoint = model.NormalizeEndpoint(endpoint)

	mock, err := s.repo.FindForSimulation(ctx, endpoint, method, callerID)
	if err != nil {
		return nil, err
	}
	return mock, nil
}

// Run executa a simulação de um mock persistido: aguarda delay_ms sem bloquear
// outras requisições, incrementa access_count atomicamente e monta a resposta.
// A simulação é o único caminho que muta access_count/last_accessed.
func (s *Service) Run(ctx context.Context, mock *model.Mock) (*Result, error) {
	ctx, span := s.tracer.Start(
		ctx,
		"Simulate.Run",
		trace.WithAttributes(
			attribute.String("mock.id", mock.ID),
			attribute.String("mock.endpoint", mock.Endpoint),
			attribute.String("mock.method", mock.Method),
			attribute.Int("mock.delay_ms", mock.DelayMs),
		),
	)
	defer span.End()

	if err := s.wait(ctx, mock.DelayMs); err != nil {
		return nil, err
	}

	if err := s.repo.IncrementAccess(ctx, mock.ID, time.Now().UTC()); err != nil {
		// O mock pode ter sido excluído durante o delay
		return nil, err
	}

	result, err := buildResult(mock.Response, mock.Headers, mock.StatusCode, mock.DelayMs)
	if err != nil {
		s.logger.Error("Response armazenado no mock é inválido",
			zap.String("id", mock.ID),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Preview monta a resposta de um rascunho não persistido, sem tocar em
// access_count nem last_accessed (fluxo "testar antes de salvar" do builder)
func (s *Service) Preview(ctx context.Context, draft Draft) (*Result, error) {
	if draft.StatusCode == 0 {
		draft.StatusCode = 200
	}
	if draft.StatusCode < 100 || draft.StatusCode > 599 {
		return nil, fmt.Errorf("status_code deve estar entre 100 e 599, recebido %d", draft.StatusCode)
	}
	if draft.DelayMs < 0 || draft.DelayMs > s.maxDelayMs {
		return nil, fmt.Errorf("delay_ms deve estar entre 0 e %d", s.maxDelayMs)
	}

	if err := s.wait(ctx, draft.DelayMs); err != nil {
		return nil, err
	}

	return buildResult(draft.Response, draft.Headers, draft.StatusCode, draft.DelayMs)
}

// wait aplica a latência artificial respeitando o cancelamento do contexto.
// O timer roda na goroutine da própria requisição, então uma simulação lenta
// nunca atrasa as demais.
func (s *Service) wait(ctx context.Context, delayMs int) error {
	if delayMs <= 0 {
		return nil
	}
	if delayMs > s.maxDelayMs {
		delayMs = s.maxDelayMs
	}

	timer := time.NewTimer(time.Duration(delayMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildResult valida o corpo armazenado e monta a resposta configurada.
// O corpo é devolvido verbatim; um response corrompido é defeito do servidor.
func buildResult(response json.RawMessage, headers map[string]string, statusCode, delayMs int) (*Result, error) {
	if len(response) == 0 {
		response = json.RawMessage("{}")
	}
	if !json.Valid(response) {
		return nil, fmt.Errorf("response armazenado não é um JSON válido")
	}

	if headers == nil {
		headers = map[string]string{}
	}

	return &Result{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       response,
		DelayMs:    delayMs,
	}, nil
}
