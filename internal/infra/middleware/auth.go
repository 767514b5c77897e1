package middleware

import (
	"net/http"
	"strings"

	"github.com/SamuelOshin/mockbox-api/internal/app/auth"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware gerencia middlewares de autenticação
type AuthMiddleware struct {
	authService *auth.AuthService
	logger      *zap.Logger
}

// NewAuthMiddleware cria uma nova instância do middleware de autenticação
func NewAuthMiddleware(authService *auth.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":    false,
		"message":    message,
		"error_code": "AUTH_ERROR",
	})
}

// bearerToken extrai o token do cabeçalho Authorization
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", false
	}
	return tokenString, true
}

// Authenticate exige um token Bearer válido
func (m *AuthMiddleware) Authenticate(c *gin.Context) {
	tokenString, ok := bearerToken(c)
	if !ok {
		abortUnauthorized(c, "Token Bearer não fornecido")
		return
	}

	user, err := m.authService.ValidateToken(tokenString)
	if err != nil {
		abortUnauthorized(c, "Token inválido ou expirado")
		return
	}

	// Armazena o usuário no contexto para uso posterior
	c.Set("user", user)
	c.Next()
}

// OptionalAuthenticate resolve o usuário quando há token, mas nunca rejeita a
// requisição. Usado na simulação: chamadores anônimos enxergam apenas mocks
// públicos.
func (m *AuthMiddleware) OptionalAuthenticate(c *gin.Context) {
	if tokenString, ok := bearerToken(c); ok {
		if user, err := m.authService.ValidateToken(tokenString); err == nil {
			c.Set("user", user)
		} else {
			m.logger.Debug("Token inválido em rota de autenticação opcional", zap.Error(err))
		}
	}
	c.Next()
}

// AuthenticateAdmin verifica se o usuário é um administrador
func (m *AuthMiddleware) AuthenticateAdmin(c *gin.Context) {
	m.Authenticate(c)

	if c.IsAborted() {
		return
	}

	userValue, exists := c.Get("user")
	if !exists {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"message":    "Falha ao obter informações do usuário",
			"error_code": "SERVER_ERROR",
		})
		return
	}

	user, ok := userValue.(*model.User)
	if !ok || !m.authService.IsAdmin(user) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success":    false,
			"message":    "Acesso negado: permissão de administrador necessária",
			"error_code": "FORBIDDEN",
		})
		return
	}

	c.Next()
}
