package middleware

import (
	"context"
	"github.com/SamuelOshin/mockbox-api/internal/app/auth"
	"github.com/SamuelOshin/mockbox-api/internal/infra/metrics"
	"github.com/SamuelOshin/mockbox-api/pkg/cache"
	"github.com/SamuelOshin/mockbox-api/pkg/config"
	"github.com/SamuelOshin/mockbox-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"net/http"
	"time"
)

// Middleware contém todos os middlewares da aplicação
type Middleware struct {
	logger              *zap.Logger
	authMiddleware      *AuthMiddleware
	recoveryMiddleware  *RecoveryMiddleware
	securityMiddleware  *SecurityMiddleware
	tracingMiddleware   *TracingMiddleware
	metricsMiddleware   *MetricsMiddleware
	rateLimitMiddleware *RateLimitMiddleware
}

// NewMiddleware cria um novo conjunto de middlewares
func NewMiddleware(logger *zap.Logger, cfg *config.Config, authService *auth.AuthService, apiMetrics *metrics.APIMetrics) *Middleware {
	if cfg == nil {
		cfg = &config.Config{}
	}

	serviceName := "mockbox-api"
	if cfg.Tracing.Enabled && cfg.Tracing.ServiceName != "" {
		serviceName = cfg.Tracing.ServiceName
	}

	// Criar um cliente Redis com a configuração correta
	var redisClient *redis.Client
	var err error

	// Verificar se o Redis está configurado
	if cfg.Cache.Type == "redis" && cfg.Cache.Redis.Address != "" {
		redisClient, err = cache.NewRedisClientWithConfig(&redis.Options{
			Addr:     cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}, logger)
		if err != nil {
			logger.Error("Erro ao criar cliente Redis para rate limiting", zap.Error(err))
			redisClient = nil
		}

		// Verificar a conexão
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
				logger.Error("Erro ao conectar ao Redis para rate limiting, usando limitador local",
					zap.Error(pingErr),
					zap.String("redis.address", cfg.Cache.Redis.Address))
				redisClient = nil
			} else {
				logger.Info("Conectado ao Redis para rate limiting",
					zap.String("redis.address", cfg.Cache.Redis.Address))
			}
		}
	} else {
		logger.Info("Redis não configurado para rate limiting, usando limitador em memória")
	}

	// Inicializar o limiter apropriado
	var limiter *ratelimit.RedisLimiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, logger)
	} else {
		// Aqui poderíamos usar um limitador em memória como fallback
		// Para este exemplo, vamos criar um client Redis local
		localRedisClient := redis.NewClient(&redis.Options{
			Addr: "localhost:6379", // Endereço padrão local
		})
		limiter = ratelimit.NewRedisLimiter(localRedisClient, logger)
	}

	// Inicializar o middleware de rate limit
	rateLimitMiddleware := NewRateLimitMiddleware(limiter, apiMetrics, logger)
	tracingMiddleware := NewTracingMiddleware(logger, serviceName)

	return &Middleware{
		logger:              logger,
		authMiddleware:      NewAuthMiddleware(authService, logger),
		recoveryMiddleware:  NewRecoveryMiddleware(logger),
		securityMiddleware:  NewSecurityMiddleware(logger),
		tracingMiddleware:   tracingMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
	}
}

// SetMetricsMiddleware configura o middleware de métricas
func (m *Middleware) SetMetricsMiddleware(metricsMiddleware *MetricsMiddleware) {
	m.metricsMiddleware = metricsMiddleware
}

// Metrics retorna o middleware de métricas
func (m *Middleware) Metrics() gin.HandlerFunc {
	if m.metricsMiddleware != nil {
		return m.metricsMiddleware.Middleware()
	}
	return func(c *gin.Context) {
		c.Next() // No-op se não configurado
	}
}

// Authenticate middleware para autenticação de usuários
func (m *Middleware) Authenticate(c *gin.Context) {
	m.authMiddleware.Authenticate(c)
}

// OptionalAuthenticate middleware para rotas de autenticação opcional
func (m *Middleware) OptionalAuthenticate(c *gin.Context) {
	m.authMiddleware.OptionalAuthenticate(c)
}

// AuthenticateAdmin middleware para autenticação de administradores
func (m *Middleware) AuthenticateAdmin(c *gin.Context) {
	m.authMiddleware.AuthenticateAdmin(c)
}

// Recovery middleware para recuperação de pânicos
func (m *Middleware) Recovery() gin.HandlerFunc {
	return m.recoveryMiddleware.Recovery()
}

// IgnoreFavicon é um middleware que ignora requisições para /favicon.ico
func (m *Middleware) IgnoreFavicon() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Se for uma requisição para /favicon.ico, retornar 204 (No Content)
		if c.Request.URL.Path == "/favicon.ico" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Logger middleware para logging de requisições
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// Processar requisição
		c.Next()

		// Depois de processada
		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		m.logger.Info("request completed",
			zap.String("path", path),
			zap.String("method", method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", clientIP),
		)
	}
}

// SecurityHeaders middleware para adicionar cabeçalhos de segurança
func (m *Middleware) SecurityHeaders() gin.HandlerFunc {
	return m.securityMiddleware.Headers()
}

// CORS middleware para configurar CORS
func (m *Middleware) CORS() gin.HandlerFunc {
	return m.securityMiddleware.CORS()
}

// Tracing retorna o middleware de tracing
func (m *Middleware) Tracing() gin.HandlerFunc {
	return m.tracingMiddleware.Middleware()
}
