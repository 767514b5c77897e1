package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SamuelOshin/mockbox-api/internal/adapter/ai"
	apperrors "github.com/SamuelOshin/mockbox-api/pkg/errors"
	"github.com/SamuelOshin/mockbox-api/pkg/resilience"
)

// AIHandler expõe a geração de respostas por IA (pass-through)
type AIHandler struct {
	client *ai.Client
	logger *zap.Logger
}

// NewAIHandler cria um novo handler de geração por IA
func NewAIHandler(client *ai.Client, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		client: client,
		logger: logger,
	}
}

type generateRequest struct {
	Description string `json:"description" binding:"required"`
}

// Generate encaminha a descrição ao provedor e devolve o JSON sugerido
// como corpo de resposta para o rascunho do mock
func (h *AIHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	response, err := h.client.GenerateResponse(c.Request.Context(), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrDisabled):
			respondError(c, apperrors.New(http.StatusServiceUnavailable, "Geração por IA não está habilitada", err))
		case errors.Is(err, resilience.ErrCircuitOpen):
			respondError(c, apperrors.New(http.StatusServiceUnavailable, "Provedor de IA temporariamente indisponível", err))
		default:
			h.logger.Error("Falha na geração por IA", zap.Error(err))
			respondError(c, apperrors.InternalServer("Falha ao gerar resposta", err))
		}
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"response": response})
}
