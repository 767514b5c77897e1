package app

import (
	"context"
	"fmt"
	net2 "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SamuelOshin/mockbox-api/internal/adapter/ai"
	"github.com/SamuelOshin/mockbox-api/internal/adapter/database"
	"github.com/SamuelOshin/mockbox-api/internal/adapter/http"
	"github.com/SamuelOshin/mockbox-api/internal/app/auth"
	"github.com/SamuelOshin/mockbox-api/internal/app/mock"
	"github.com/SamuelOshin/mockbox-api/internal/app/simulate"
	"github.com/SamuelOshin/mockbox-api/internal/app/template"
	"github.com/SamuelOshin/mockbox-api/internal/infra/metrics"
	"github.com/SamuelOshin/mockbox-api/internal/infra/middleware"
	"github.com/SamuelOshin/mockbox-api/pkg/cache"
	"github.com/SamuelOshin/mockbox-api/pkg/config"
	"github.com/SamuelOshin/mockbox-api/pkg/resilience"
	"github.com/SamuelOshin/mockbox-api/pkg/security"
)

type App struct {
	Logger         *zap.Logger
	Config         *config.Config
	DB             *database.Database
	Middleware     *middleware.Middleware
	Cache          cache.Cache
	MetricsHandler *middleware.MetricsHandler
	APIMetrics     *metrics.APIMetrics

	MockHandler     *http.MockHandler
	SimulateHandler *http.SimulateHandler
	TemplateHandler *http.TemplateHandler
	UserHandler     *http.UserHandler
	AIHandler       *http.AIHandler
	HealthChecker   *http.HealthChecker
}

// NewApp cria uma nova instância da aplicação com todas as dependências injetadas
func NewApp(logger *zap.Logger, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuração não pode ser nula")
	}

	// Configurações do banco de dados baseadas no arquivo config.yaml
	dbConfig := database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        4,
		SlowThreshold:   cfg.Database.SlowThreshold,
		MigrationDir:    cfg.Database.MigrationDir,
	}

	// Inicializar banco de dados
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}

	// Inicializar métricas
	apiMetrics := metrics.NewAPIMetrics()
	metricsHandler := &middleware.MetricsHandler{
		Metrics: apiMetrics,
		Logger:  logger,
	}

	// Inicializar cache conforme a configuração, com fallback para memória
	var appCache cache.Cache
	if cfg.Cache.Type == "redis" && cfg.Cache.Redis.Address != "" {
		redisCache, err := cache.NewRedisCache(
			cfg.Cache.Redis.Address,
			cfg.Cache.Redis.Password,
			cfg.Cache.Redis.DB,
			logger,
		)
		if err != nil {
			logger.Warn("Erro ao conectar ao Redis, usando cache em memória",
				zap.String("redis.address", cfg.Cache.Redis.Address),
				zap.Error(err))
			appCache = cache.NewMemoryCache(5*time.Minute, 10*time.Minute, apiMetrics, logger)
		} else {
			appCache = redisCache
		}
	} else {
		appCache = cache.NewMemoryCache(5*time.Minute, 10*time.Minute, apiMetrics, logger)
	}

	// Inicializar repositórios
	mockRepo := database.NewMockRepository(db.DB(), logger)
	templateRepo := database.NewTemplateRepository(db.DB(), logger)
	userRepo := database.NewUserRepository(db.DB(), logger)

	// Carga inicial do catálogo de templates
	if cfg.Templates.SeedOnStart {
		loader := database.NewJSONTemplateLoader(db, logger)
		if err := loader.LoadTemplatesFromDir(cfg.Templates.SeedDir); err != nil {
			logger.Warn("Erro ao carregar templates iniciais",
				zap.String("dir", cfg.Templates.SeedDir),
				zap.Error(err))
		}
	}

	// Inicializar gerenciador de chaves JWT
	keyManager, err := security.NewKeyManager(logger)
	if err != nil {
		return nil, err
	}

	// Inicializar serviços
	authService := auth.NewAuthService(keyManager, userRepo, logger)
	mockService := mock.NewService(mockRepo, appCache, logger)
	simulateService := simulate.NewService(mockRepo, logger, cfg.Simulation.MaxDelayMs)
	templateService := template.NewService(templateRepo, appCache, logger)

	// Cliente de geração por IA, protegido por circuit breaker
	aiBreaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:    "ai-provider",
		Timeout: 30 * time.Second,
	}, logger, apiMetrics)
	aiClient := ai.NewClient(ai.Config{
		Enabled:  cfg.Features.AIGeneration && cfg.AI.Enabled,
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
	}, aiBreaker, logger)

	// Inicializar middleware com as métricas já criadas
	metricsMiddleware := middleware.NewMetricsMiddleware(apiMetrics, logger)
	middlewares := middleware.NewMiddleware(logger, cfg, authService, apiMetrics)
	middlewares.SetMetricsMiddleware(metricsMiddleware)

	// Inicializar handlers HTTP com métricas
	mockHandler := http.NewMockHandler(mockService, logger)
	mockHandler.SetMetrics(apiMetrics)

	simulateHandler := http.NewSimulateHandler(simulateService, cfg.Simulation.DefaultContentType, logger)
	simulateHandler.SetMetrics(apiMetrics)

	templateHandler := http.NewTemplateHandler(templateService, logger)
	userHandler := http.NewUserHandler(authService, logger)
	aiHandler := http.NewAIHandler(aiClient, logger)
	healthChecker := http.NewHealthChecker(mockService, db, appCache, logger)

	return &App{
		Logger:          logger,
		Config:          cfg,
		DB:              db,
		Middleware:      middlewares,
		Cache:           appCache,
		MetricsHandler:  metricsHandler,
		APIMetrics:      apiMetrics,
		MockHandler:     mockHandler,
		SimulateHandler: simulateHandler,
		TemplateHandler: templateHandler,
		UserHandler:     userHandler,
		AIHandler:       aiHandler,
		HealthChecker:   healthChecker,
	}, nil
}

// RegisterRoutes registra todas as rotas no router
func (a *App) RegisterRoutes(router *gin.Engine) {
	// Configurar middleware global
	router.Use(a.Middleware.Recovery())
	router.Use(a.Middleware.Logger())
	router.Use(a.Middleware.Metrics())
	router.Use(a.Middleware.IgnoreFavicon())

	// Expor endpoint de métricas para Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.Logger.Info("Endpoint de métricas Prometheus registrado em /metrics")

	// Rotas públicas
	router.GET("/health", a.HealthChecker.LivenessCheck)
	router.GET("/health/liveness", a.HealthChecker.LivenessCheck)
	router.GET("/health/readiness", a.HealthChecker.ReadinessCheck)
	router.GET("/health/detailed", a.Middleware.AuthenticateAdmin, a.HealthChecker.DetailedHealth)

	// Autenticação e registro de contas
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", a.UserHandler.Login)
		if a.Config.Features.Registration {
			authGroup.POST("/register", a.UserHandler.RegisterUser)
		}
	}

	v1 := router.Group("/api/v1")

	// Catálogo de templates (somente leitura, sem autenticação)
	templates := v1.Group("/mocks/templates")
	{
		templates.GET("", a.TemplateHandler.ListTemplates)
		templates.GET("/:id", a.TemplateHandler.GetTemplate)
		templates.POST("/:id/apply", a.TemplateHandler.ApplyTemplate)
	}

	// Listagem pública de mocks (anônima)
	v1.GET("/mocks/public", a.MockHandler.ListPublicMocks)

	// CRUD de mocks do usuário autenticado
	mocks := v1.Group("/mocks")
	mocks.Use(a.Middleware.Authenticate)
	{
		mocks.POST("", a.MockHandler.CreateMock)
		mocks.GET("", a.MockHandler.ListMocks)
		mocks.POST("/bulk-delete", a.MockHandler.BulkDeleteMocks)
		mocks.GET("/:id", a.MockHandler.GetMock)
		mocks.PUT("/:id", a.MockHandler.UpdateMock)
		mocks.DELETE("/:id", a.MockHandler.DeleteMock)
		mocks.POST("/:id/toggle-status", a.MockHandler.ToggleMockStatus)
		mocks.POST("/:id/duplicate", a.MockHandler.DuplicateMock)
	}

	// Motor de simulação: o token é opcional, anônimos só alcançam mocks públicos
	sim := v1.Group("/simulate")
	sim.Use(a.Middleware.OptionalAuthenticate)
	{
		sim.POST("", a.SimulateHandler.Preview)
		sim.Any("/*path", a.SimulateHandler.Simulate)
	}

	// Geração de respostas por IA
	if a.Config.Features.AIGeneration {
		aiGroup := v1.Group("/ai")
		aiGroup.Use(a.Middleware.Authenticate)
		{
			aiGroup.POST("/generate", a.AIHandler.Generate)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(net2.StatusNotFound, gin.H{
			"success":    false,
			"message":    "Rota não encontrada",
			"error_code": "NOT_FOUND",
		})
	})
}
