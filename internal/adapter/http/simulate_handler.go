package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SamuelOshin/mockbox-api/internal/app/simulate"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/internal/infra/metrics"
	apperrors "github.com/SamuelOshin/mockbox-api/pkg/errors"
)

// Cabeçalhos controlados pelo transporte que a configuração do mock não sobrepõe
var reservedHeaders = map[string]struct{}{
	"Content-Length":    {},
	"Connection":        {},
	"Transfer-Encoding": {},
}

// SimulateHandler implementa o motor de simulação na borda HTTP
type SimulateHandler struct {
	simulateService    *simulate.Service
	logger             *zap.Logger
	metrics            *metrics.APIMetrics
	defaultContentType string
}

// NewSimulateHandler cria um novo handler de simulação
func NewSimulateHandler(simulateService *simulate.Service, defaultContentType string, logger *zap.Logger) *SimulateHandler {
	if defaultContentType == "" {
		defaultContentType = "application/json"
	}
	return &SimulateHandler{
		simulateService:    simulateService,
		logger:             logger,
		defaultContentType: defaultContentType,
	}
}

// SetMetrics configura o objeto de métricas
func (h *SimulateHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

// Simulate resolve e executa o mock configurado para o caminho requisitado.
// Registrado como rota coringa: qualquer método em /api/v1/simulate/*path.
func (h *SimulateHandler) Simulate(c *gin.Context) {
	endpoint := c.Param("path")
	method := c.Request.Method
	callerID := currentUserID(c)

	start := time.Now()

	mock, err := h.simulateService.Resolve(c.Request.Context(), endpoint, method, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrMockNotFound) {
			if h.metrics != nil {
				h.metrics.RequestError(endpoint, method, "mock_not_found")
			}
			respondError(c, apperrors.NotFound("Mock", err))
			return
		}
		h.logger.Error("Falha ao resolver mock",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Error(err))
		respondError(c, err)
		return
	}

	result, err := h.simulateService.Run(c.Request.Context(), mock)
	if err != nil {
		// O mock pode ter sido excluído entre a resolução e a execução
		if errors.Is(err, repository.ErrMockNotFound) {
			respondError(c, apperrors.NotFound("Mock", err))
			return
		}
		h.logger.Error("Falha ao executar simulação",
			zap.String("mock_id", mock.ID),
			zap.Error(err))
		if h.metrics != nil {
			h.metrics.RequestError(endpoint, method, "simulation_error")
		}
		respondError(c, apperrors.InternalServer("Falha ao executar simulação", err))
		return
	}

	h.writeResult(c, result)

	if h.metrics != nil {
		h.metrics.SimulationServed(mock.Endpoint, method, strconv.Itoa(result.StatusCode), time.Since(start))
	}
}

// Preview executa um rascunho não persistido, sem mutar contadores
// (fluxo "testar antes de salvar" do builder)
func (h *SimulateHandler) Preview(c *gin.Context) {
	var draft simulate.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	result, err := h.simulateService.Preview(c.Request.Context(), draft)
	if err != nil {
		respondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	h.writeResult(c, result)
}

// writeResult escreve a resposta configurada: cabeçalhos do mock sobrepõem os
// padrões do framework, exceto os reservados ao transporte; o corpo sai verbatim
func (h *SimulateHandler) writeResult(c *gin.Context, result *simulate.Result) {
	contentType := h.defaultContentType

	for name, value := range result.Headers {
		if _, reserved := reservedHeaders[http.CanonicalHeaderKey(name)]; reserved {
			continue
		}
		if strings.EqualFold(name, "Content-Type") {
			contentType = value
			continue
		}
		c.Header(name, value)
	}

	c.Data(result.StatusCode, contentType, result.Body)
}
