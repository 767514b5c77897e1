package http_test

import (
	"encoding/json"
	"fmt"
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
	"github.com/SamuelOshin/mockbox-api/internal/app/mock"
	"github.com/SamuelOshin/mockbox-api/internal/app/simulate"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/testutils"
	"github.com/SamuelOshin/mockbox-api/pkg/cache"
)

// envelope espelha o contrato de resposta da API
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	ErrorCode  string              `json:"error_code"`
	Data       json.RawMessage     `json:"data"`
	Pagination *apihttp.Pagination `json:"pagination"`
}

// setupAPI monta um router com repositórios reais sobre sqlite em memória.
// A autenticação é substituída por um cabeçalho de teste.
func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.MockEntity{}))

	logger := zaptest.NewLogger(t)
	repo := database.NewMockRepository(db, logger)

	mockService := mock.NewService(repo, &cache.NoOpCache{}, logger)
	simulateService := simulate.NewService(repo, logger, model.MaxDelayMs)

	mockHandler := apihttp.NewMockHandler(mockService, logger)
	simulateHandler := apihttp.NewSimulateHandler(simulateService, "application/json", logger)

	router := testutils.SetupTestRouter(t)
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("user", &model.User{ID: id, Username: "test-" + id, Role: "user"})
		}
	})

	v1 := router.Group("/api/v1")
	v1.GET("/mocks/public", mockHandler.ListPublicMocks)

	mocks := v1.Group("/mocks")
	{
		mocks.POST("", mockHandler.CreateMock)
		mocks.GET("", mockHandler.ListMocks)
		mocks.POST("/bulk-delete", mockHandler.BulkDeleteMocks)
		mocks.GET("/:id", mockHandler.GetMock)
		mocks.PUT("/:id", mockHandler.UpdateMock)
		mocks.DELETE("/:id", mockHandler.DeleteMock)
		mocks.POST("/:id/toggle-status", mockHandler.ToggleMockStatus)
		mocks.POST("/:id/duplicate", mockHandler.DuplicateMock)
	}

	sim := v1.Group("/simulate")
	{
		sim.POST("", simulateHandler.Preview)
		sim.Any("/*path", simulateHandler.Simulate)
	}

	return router
}

func asUser(id string) map[string]string {
	return map[string]string{"X-Test-User": id}
}

func createMock(t *testing.T, router *gin.Engine, userID string, body map[string]interface{}) MockPayload {
	t.Helper()

	resp := testutils.MakeRequest(t, router, nethttp.MethodPost, "/api/v1/mocks", body, asUser(userID))
	testutils.RequireHTTPStatus(t, resp, nethttp.StatusCreated)

	var env envelope
	testutils.ParseResponse(t, resp, &env)
	require.True(t, env.Success)

	var payload MockPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	return payload
}

// MockPayload é o subconjunto do corpo usado nas asserções
type MockPayload struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Endpoint    string   `json:"endpoint"`
	Method      string   `json:"method"`
	Status      string   `json:"status"`
	IsPublic    bool     `json:"is_public"`
	AccessCount int64    `json:"access_count"`
	Tags        []string `json:"tags"`
}

func TestCreateMock(t *testing.T) {
	router := setupAPI(t)

	t.Run("created mock is active and normalized", func(t *testing.T) {
		payload := createMock(t, router, "user-1", map[string]interface{}{
			"name":     "Ping",
			"endpoint": "api/ping",
			"method":   "get",
			"response": map[string]bool{"pong": true},
			"tags":     []string{" API "},
		})

		assert.NotEmpty(t, payload.ID)
		assert.Equal(t, "user-1", payload.UserID)
		assert.Equal(t, "/api/ping", payload.Endpoint)
		assert.Equal(t, "GET", payload.Method)
		assert.Equal(t, model.MockStatusActive, payload.Status)
		assert.Equal(t, []string{"api"}, payload.Tags)
	})

	t.Run("duplicate route returns conflict", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost, "/api/v1/mocks", map[string]interface{}{
			"name":     "Ping de novo",
			"endpoint": "/api/ping",
			"method":   "GET",
		}, asUser("user-1"))

		testutils.RequireHTTPStatus(t, resp, nethttp.StatusConflict)

		var env envelope
		testutils.ParseResponse(t, resp, &env)
		assert.False(t, env.Success)
		assert.Equal(t, "CONFLICT", env.ErrorCode)
	})

	t.Run("unsupported method is a validation error", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost, "/api/v1/mocks", map[string]interface{}{
			"name":     "Bad",
			"endpoint": "/api/bad",
			"method":   "TRACE",
		}, asUser("user-1"))

		testutils.RequireHTTPStatus(t, resp, nethttp.StatusUnprocessableEntity)

		var env envelope
		testutils.ParseResponse(t, resp, &env)
		assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
	})

	t.Run("missing required fields", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost, "/api/v1/mocks",
			map[string]interface{}{"name": "sem endpoint"}, asUser("user-1"))

		testutils.RequireHTTPStatus(t, resp, nethttp.StatusBadRequest)
	})
}

func TestGetMock_Visibility(t *testing.T) {
	router := setupAPI(t)

	private := createMock(t, router, "owner", map[string]interface{}{
		"name":     "Privado",
		"endpoint": "/api/private",
		"method":   "GET",
	})

	t.Run("owner reads it", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks/"+private.ID, nil, asUser("owner"))
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks/"+private.ID, nil, asUser("stranger"))
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusNotFound)

		var env envelope
		testutils.ParseResponse(t, resp, &env)
		assert.Equal(t, "NOT_FOUND", env.ErrorCode)
	})
}

func TestListMocks_Pagination(t *testing.T) {
	router := setupAPI(t)

	for i := 0; i < 3; i++ {
		createMock(t, router, "user-1", map[string]interface{}{
			"name":     fmt.Sprintf("Mock %d", i),
			"endpoint": fmt.Sprintf("/api/item/%d", i),
			"method":   "GET",
		})
	}

	resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks?page=1&limit=2", nil, asUser("user-1"))
	testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

	var env envelope
	testutils.ParseResponse(t, resp, &env)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(3), env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasNext)
	assert.False(t, env.Pagination.HasPrev)

	var items []MockPayload
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
}

func TestListPublicMocks_Anonymous(t *testing.T) {
	router := setupAPI(t)

	createMock(t, router, "user-1", map[string]interface{}{
		"name":      "Público",
		"endpoint":  "/api/open",
		"method":    "GET",
		"is_public": true,
	})
	createMock(t, router, "user-1", map[string]interface{}{
		"name":     "Privado",
		"endpoint": "/api/closed",
		"method":   "GET",
	})

	resp := testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks/public", nil, nil)
	testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

	var env envelope
	testutils.ParseResponse(t, resp, &env)

	var items []MockPayload
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "/api/open", items[0].Endpoint)
}

func TestUpdateMock(t *testing.T) {
	router := setupAPI(t)

	created := createMock(t, router, "user-1", map[string]interface{}{
		"name":      "Original",
		"endpoint":  "/api/orders",
		"method":    "GET",
		"is_public": true,
		"delay_ms":  500,
	})

	resp := testutils.MakeRequest(t, router, nethttp.MethodPut, "/api/v1/mocks/"+created.ID, map[string]interface{}{
		"name":     "Renomeado",
		"endpoint": "/api/orders",
		"method":   "GET",
	}, asUser("user-1"))
	testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

	var env envelope
	testutils.ParseResponse(t, resp, &env)

	var payload MockPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	// is_public e delay_ms voltam ao valor zero: o update substitui, não mescla
	assert.False(t, payload.IsPublic)
	assert.Equal(t, model.MockStatusActive, payload.Status)
}

func TestBulkDeleteMocks(t *testing.T) {
	router := setupAPI(t)

	a := createMock(t, router, "user-1", map[string]interface{}{
		"name": "A", "endpoint": "/api/a", "method": "GET",
	})
	b := createMock(t, router, "user-1", map[string]interface{}{
		"name": "B", "endpoint": "/api/b", "method": "GET",
	})

	resp := testutils.MakeRequest(t, router, nethttp.MethodPost, "/api/v1/mocks/bulk-delete", map[string]interface{}{
		"ids": []string{a.ID, "inexistente", b.ID},
	}, asUser("user-1"))
	testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

	var env envelope
	testutils.ParseResponse(t, resp, &env)

	var result struct {
		Deleted int `json:"deleted"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Failed)

	// A listagem não deve mais conter os mocks removidos
	resp = testutils.MakeRequest(t, router, nethttp.MethodGet, "/api/v1/mocks", nil, asUser("user-1"))
	testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)
	testutils.ParseResponse(t, resp, &env)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(0), env.Pagination.Total)
}

func TestToggleAndDuplicate(t *testing.T) {
	router := setupAPI(t)

	created := createMock(t, router, "user-1", map[string]interface{}{
		"name": "Alvo", "endpoint": "/api/target", "method": "GET",
	})

	t.Run("toggle deactivates", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost,
			"/api/v1/mocks/"+created.ID+"/toggle-status", nil, asUser("user-1"))
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusOK)

		var env envelope
		testutils.ParseResponse(t, resp, &env)

		var payload MockPayload
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Equal(t, model.MockStatusInactive, payload.Status)
	})

	t.Run("duplicate creates private draft", func(t *testing.T) {
		resp := testutils.MakeRequest(t, router, nethttp.MethodPost,
			"/api/v1/mocks/"+created.ID+"/duplicate", nil, asUser("user-1"))
		testutils.RequireHTTPStatus(t, resp, nethttp.StatusCreated)

		var env envelope
		testutils.ParseResponse(t, resp, &env)

		var payload MockPayload
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.NotEqual(t, created.ID, payload.ID)
		assert.Equal(t, "/api/target-copy", payload.Endpoint)
		assert.Equal(t, model.MockStatusDraft, payload.Status)
		assert.False(t, payload.IsPublic)
		assert.Equal(t, int64(0), payload.AccessCount)
	})
}
