package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	apperrors "github.com/SamuelOshin/mockbox-api/pkg/errors"
)

// currentUser obtém o usuário autenticado do contexto, se houver
func currentUser(c *gin.Context) *model.User {
	if value, exists := c.Get("user"); exists {
		if user, ok := value.(*model.User); ok {
			return user
		}
	}
	return nil
}

// currentUserID obtém o id do usuário autenticado; vazio para anônimos
func currentUserID(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}

// Pagination é o bloco de metadados das listagens
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination calcula os metadados de paginação
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type successBody struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type errorBody struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// respondData escreve a resposta de sucesso no envelope padrão
func respondData(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, successBody{Success: true, Message: message, Data: data})
}

// respondPage escreve uma página de resultados com metadados de paginação
func respondPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, successBody{Success: true, Data: data, Pagination: &pagination})
}

// respondError classifica o erro e escreve o envelope de erro padrão
func respondError(c *gin.Context, err error) {
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apperrors.InternalServer("", err)
	}

	c.JSON(apiErr.Code, errorBody{
		Success:   false,
		Message:   apiErr.Message,
		ErrorCode: apiErr.ErrorCode,
		Details:   apiErr.Details,
	})
}
