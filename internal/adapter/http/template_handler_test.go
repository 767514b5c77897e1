package http_test

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SamuelOshin/mockbox-api/internal/adapter/database"
	apihttp "github.com/SamuelOshin/mockbox-api/internal/adapter/http"
	"github.com/SamuelOshin/mockbox-api/internal/app/template"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/internal/testutils"
	"github.com/SamuelOshin/mockbox-api/pkg/cache"
)

func setupTemplateAPI(t *testing.T) (*gin.Engine, repository.TemplateRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.TemplateEntity{}))

	logger := zaptest.NewLogger(t)
	repo := database.NewTemplateRepository(db, logger)
	service := template.NewService(repo, &cache.NoOpCache{}, logger)
	handler := apihttp.NewTemplateHandler(service, logger)

	router := testutils.SetupTestRouter(t)
	group := router.Group("/api/v1/mocks/templates")
	{
		group.GET("", handler.ListTemplates)
		group.GET("/:id", handler.GetTemplate)
		group.POST("/:id/apply", handler.ApplyTemplate)
	}

	return router, repo
}

func seedTemplate(t *testing.T, repo repository.TemplateRepository, tpl *model.Template) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), tpl))
}

func pingTemplate() *model.Template {
	return &model.Template{
		ID:       "tpl-ping",
		Name:     "Ping",
		Category: "starter",
		Tags:     []string{"starter"},
		IsPublic: true,
		TemplateData: json.RawMessage(`{"endpoints":[{
			"name": "Ping Endpoint",
			"endpoint": "api/ping",
			"method": "GET",
			"response": {"pong": true},
			"status_code": 200
		}]}`),
	}
}

func shopTemplate() *model.Template {
	return &model.Template{
		ID:       "tpl-shop",
		Name:     "E-Commerce",
		Category: "e-commerce",
		IsPublic: true,
		TemplateData: json.RawMessage(`{"endpoints":[
			{
				"endpoint": "/api/products",
				"method": "GET",
				"responses": [
					{"response": {"items": []}, "status_code": 200},
					{"response": {"error": "indisponível"}, "status_code": 503, "delay_ms": 1500}
				]
			},
			{"endpoint": "/api/cart", "method": "POST", "status_code": 201}
		]}`),
	}
}

func TestListTemplates(t *testing.T) {
	router, repo := setupTemplateAPI(t)

	seedTemplate(t, repo, pingTemplate())
	seedTemplate(t, repo, shopTemplate())
	seedTemplate(t, repo, &model.Template{
		ID:           "tpl-private",
		Name:         "Interno",
		IsPublic:     false,
		TemplateData: json.RawMessage(`{"endpoints":[]}`),
	})

	t.Run("lists only public templates", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks/templates", nil, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

		var env envelope
		testutils.ParseResponse(t, resp, &env)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, int64(2), env.Pagination.Total)

		var items []apihttp.TemplateResponse
		require.NoError(t, json.Unmarshal(env.Data, &items))
		assert.Len(t, items, 2)
	})

	t.Run("filters by category", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodGet,
			"/api/v1/mocks/templates?category=e-commerce", nil, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

		var env envelope
		testutils.ParseResponse(t, resp, &env)

		var items []apihttp.TemplateResponse
		require.NoError(t, json.Unmarshal(env.Data, &items))
		require.Len(t, items, 1)
		assert.Equal(t, "E-Commerce", items[0].Name)
	})
}

func TestGetTemplate(t *testing.T) {
	router, repo := setupTemplateAPI(t)
	seedTemplate(t, repo, pingTemplate())

	t.Run("found", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks/templates/tpl-ping", nil, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

		var env envelope
		testutils.ParseResponse(t, resp, &env)

		var item apihttp.TemplateResponse
		require.NoError(t, json.Unmarshal(env.Data, &item))
		assert.Equal(t, "Ping", item.Name)
		assert.NotEmpty(t, item.TemplateData)
	})

	t.Run("missing", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks/templates/nope", nil, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusNotFound)

		var env envelope
		testutils.ParseResponse(t, resp, &env)
		assert.Equal(t, "NOT_FOUND", env.ErrorCode)
	})
}

func TestApplyTemplate(t *testing.T) {
	router, repo := setupTemplateAPI(t)
	seedTemplate(t, repo, pingTemplate())
	seedTemplate(t, repo, shopTemplate())

	t.Run("simple template needs no selection", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost,
			"/api/v1/mocks/templates/tpl-ping/apply", map[string]interface{}{}, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

		var env envelope
		testutils.ParseResponse(t, resp, &env)

		var draft struct {
			Name       string          `json:"name"`
			Endpoint   string          `json:"endpoint"`
			Method     string          `json:"method"`
			StatusCode int             `json:"status_code"`
			Response   json.RawMessage `json:"response"`
			Tags       []string        `json:"tags"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &draft))
		assert.Equal(t, "Ping Endpoint", draft.Name)
		assert.Equal(t, "/api/ping", draft.Endpoint)
		assert.Equal(t, "GET", draft.Method)
		assert.JSONEq(t, `{"pong":true}`, string(draft.Response))
		assert.Contains(t, draft.Tags, "from-template")

		// A aplicação conta como uso do template
		tpl, err := repo.GetByID(context.Background(), "tpl-ping")
		require.NoError(t, err)
		assert.Equal(t, int64(1), tpl.UsageCount)
	})

	t.Run("multi endpoint template demands a selection", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost,
			"/api/v1/mocks/templates/tpl-shop/apply", map[string]interface{}{}, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusUnprocessableEntity)

		var env envelope
		testutils.ParseResponse(t, resp, &env)
		assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
	})

	t.Run("selection picks endpoint and variant", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost,
			"/api/v1/mocks/templates/tpl-shop/apply", map[string]interface{}{
				"endpoint_index": 0,
				"response_index": 1,
			}, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

		var env envelope
		testutils.ParseResponse(t, resp, &env)

		var draft struct {
			Endpoint   string `json:"endpoint"`
			StatusCode int    `json:"status_code"`
			DelayMs    int    `json:"delay_ms"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &draft))
		assert.Equal(t, "/api/products", draft.Endpoint)
		assert.Equal(t, 503, draft.StatusCode)
		assert.Equal(t, 1500, draft.DelayMs)
	})

	t.Run("unknown template", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost,
			"/api/v1/mocks/templates/nope/apply", map[string]interface{}{}, nil)
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusNotFound)
	})
}
