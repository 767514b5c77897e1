package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SamuelOshin/mockbox-api/internal/adapter/database"
	"github.com/SamuelOshin/mockbox-api/internal/app/auth"
	apperrors "github.com/SamuelOshin/mockbox-api/pkg/errors"
)

// UserHandler expõe login e registro de usuários
type UserHandler struct {
	authService *auth.AuthService
	logger      *zap.Logger
}

func NewUserHandler(authService *auth.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// RegisterUser cria uma nova conta e devolve o token de sessão
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			respondError(c, apperrors.Conflict("Nome de usuário ou email já está em uso", err))
			return
		}
		h.logger.Error("Falha no registro de usuário",
			zap.String("username", req.Username),
			zap.Error(err))
		respondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	respondData(c, http.StatusCreated, "Usuário criado com sucesso", gin.H{
		"token": token,
		"user":  user,
	})
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login autentica o usuário e devolve o token de sessão
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Dados inválidos: "+err.Error(), err))
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, apperrors.Unauthorized("Credenciais inválidas", err))
		return
	}

	user, err := h.authService.ValidateToken(token)
	if err != nil {
		h.logger.Error("Token recém-gerado inválido", zap.Error(err))
		respondError(c, apperrors.InternalServer("", err))
		return
	}

	respondData(c, http.StatusOK, "", gin.H{
		"token": token,
		"user":  user,
	})
}
