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

	"github.com/SamuelOshin/mockbox-api/internal/app/template"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	apperrors "github.com/SamuelOshin/mockbox-api/pkg/errors"
)

// TemplateResponse é a representação de um template no corpo das respostas
type TemplateResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Tags         []string        `json:"tags"`
	UsageCount   int64           `json:"usage_count"`
	TemplateData json.RawMessage `json:"template_data"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toTemplateResponse(t *model.Template) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Category:     t.Category,
		Tags:         t.Tags,
		UsageCount:   t.UsageCount,
		TemplateData: t.TemplateData,
		CreatedAt:    t.CreatedAt,
	}
}

// TemplateHandler implementa os handlers do catálogo de templates
type TemplateHandler struct {
	templateService *template.Service
	logger          *zap.Logger
}

// NewTemplateHandler cria um novo handler de templates
func NewTemplateHandler(templateService *template.Service, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		logger:          logger,
	}
}

// ListTemplates lista o catálogo público de templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	opts := template.ListOptions{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Tags:     tags,
	}

	templates, total, err := h.templateService.List(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("Falha ao listar templates", zap.Error(err))
		respondError(c, err)
		return
	}

	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 20
	}
	respondPage(c, out, NewPagination(opts.Page, opts.Limit, total))
}

// GetTemplate obtém um template pelo identificador
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := h.templateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			respondError(c, apperrors.NotFound("Template", err))
			return
		}
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", toTemplateResponse(t))
}

type applyTemplateRequest struct {
	EndpointIndex *int `json:"endpoint_index"`
	ResponseIndex *int `json:"response_index"`
}

// ApplyTemplate deriva um rascunho de mock a partir do template e da seleção.
// Nada é persistido; o rascunho volta para o builder editar e salvar.
func (h *TemplateHandler) ApplyTemplate(c *gin.Context) {
	var req applyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	// Índices ausentes sinalizam "sem seleção"; só são aceitos em templates simples
	endpointIndex := -1
	if req.EndpointIndex != nil {
		endpointIndex = *req.EndpointIndex
	}
	responseIndex := -1
	if req.ResponseIndex != nil {
		responseIndex = *req.ResponseIndex
	}

	draft, err := h.templateService.Apply(c.Request.Context(), c.Param("id"), endpointIndex, responseIndex)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTemplateNotFound):
			respondError(c, apperrors.NotFound("Template", err))
		case errors.Is(err, template.ErrSelectionRequired):
			respondError(c, apperrors.Validation(err.Error(), err))
		default:
			respondError(c, apperrors.Validation(err.Error(), err))
		}
		return
	}

	respondData(c, http.StatusOK, "Template aplicado", draft)
}
