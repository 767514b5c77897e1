package template_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelOshin/mockbox-api/internal/app/template"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/internal/mocks"
	"github.com/SamuelOshin/mockbox-api/internal/testutils"
)

func newTemplateService(t *testing.T) (*template.Service, *mocks.TemplateRepository, *mocks.MockCache) {
	repo := new(mocks.TemplateRepository)
	cache := new(mocks.MockCache)
	return template.NewService(repo, cache, testutils.TestLogger(t)), repo, cache
}

func expectGet(repo *mocks.TemplateRepository, cache *mocks.MockCache, tpl *model.Template) {
	cache.On("Get", mock.Anything, "template:"+tpl.ID, mock.AnythingOfType("*model.Template")).
		Return(false, nil).Once()
	repo.On("GetByID", mock.Anything, tpl.ID).Return(tpl, nil).Once()
	cache.On("Set", mock.Anything, "template:"+tpl.ID, tpl, 5*time.Minute).Return(nil).Once()
}

func simpleTemplate() *model.Template {
	return &model.Template{
		ID:          "tpl-1",
		Name:        "Ping",
		Description: "Healthcheck simples",
		Tags:        []string{"Starter"},
		IsPublic:    true,
		TemplateData: json.RawMessage(`{"endpoints":[{
			"name": "Ping Endpoint",
			"endpoint": "api/ping",
			"method": "GET",
			"response": {"pong": true},
			"status_code": 200
		}]}`),
	}
}

func multiTemplate() *model.Template {
	return &model.Template{
		ID:       "tpl-2",
		Name:     "E-Commerce",
		IsPublic: true,
		TemplateData: json.RawMessage(`{"endpoints":[
			{
				"endpoint": "/api/products",
				"method": "GET",
				"responses": [
					{"response": {"items": []}, "status_code": 200},
					{"response": {"error": "instável"}, "status_code": 503, "delay_ms": 1500}
				]
			},
			{"endpoint": "/api/cart", "method": "POST", "status_code": 201}
		]}`),
	}
}

func TestTemplateService_Get(t *testing.T) {
	t.Run("cache miss reads repository", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		tpl := simpleTemplate()
		expectGet(repo, cache, tpl)

		got, err := service.Get(ctx, "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, tpl, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		cache.On("Get", mock.Anything, "template:missing", mock.AnythingOfType("*model.Template")).
			Return(false, nil).Once()
		repo.On("GetByID", mock.Anything, "missing").
			Return(nil, repository.ErrTemplateNotFound).Once()

		_, err := service.Get(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrTemplateNotFound)
	})
}

func TestTemplateService_Apply(t *testing.T) {
	t.Run("simple template without selection", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		tpl := simpleTemplate()
		expectGet(repo, cache, tpl)
		repo.On("IncrementUsage", mock.Anything, "tpl-1").Return(nil).Once()

		draft, err := service.Apply(ctx, "tpl-1", -1, -1)
		require.NoError(t, err)
		assert.Equal(t, "Ping Endpoint", draft.Name)
		assert.Equal(t, "/api/ping", draft.Endpoint)
		assert.Equal(t, "GET", draft.Method)
		assert.Equal(t, 200, draft.StatusCode)
		assert.JSONEq(t, `{"pong":true}`, string(draft.Response))
		assert.Contains(t, draft.Tags, "from-template")
		assert.Contains(t, draft.Tags, "starter")
		repo.AssertExpectations(t)
	})

	t.Run("multi endpoint template requires selection", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expectGet(repo, cache, multiTemplate())

		_, err := service.Apply(ctx, "tpl-2", -1, -1)
		assert.ErrorIs(t, err, template.ErrSelectionRequired)
		repo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
	})

	t.Run("selects response variant", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expectGet(repo, cache, multiTemplate())
		repo.On("IncrementUsage", mock.Anything, "tpl-2").Return(nil).Once()

		draft, err := service.Apply(ctx, "tpl-2", 0, 1)
		require.NoError(t, err)
		assert.Equal(t, "/api/products", draft.Endpoint)
		assert.Equal(t, 503, draft.StatusCode)
		assert.Equal(t, 1500, draft.DelayMs)
		assert.JSONEq(t, `{"error":"instável"}`, string(draft.Response))
	})

	t.Run("endpoint without variants uses direct fields", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expectGet(repo, cache, multiTemplate())
		repo.On("IncrementUsage", mock.Anything, "tpl-2").Return(nil).Once()

		draft, err := service.Apply(ctx, "tpl-2", 1, 0)
		require.NoError(t, err)
		assert.Equal(t, "/api/cart", draft.Endpoint)
		assert.Equal(t, "POST", draft.Method)
		assert.Equal(t, 201, draft.StatusCode)
		assert.JSONEq(t, `{}`, string(draft.Response))
		assert.Equal(t, 0, draft.DelayMs)
	})

	t.Run("endpoint index out of range", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expectGet(repo, cache, multiTemplate())

		_, err := service.Apply(ctx, "tpl-2", 5, 0)
		assert.Error(t, err)
	})

	t.Run("response index out of range", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expectGet(repo, cache, multiTemplate())

		_, err := service.Apply(ctx, "tpl-2", 0, 9)
		assert.Error(t, err)
	})

	t.Run("usage increment failure does not fail apply", func(t *testing.T) {
		service, repo, cache := newTemplateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		tpl := simpleTemplate()
		expectGet(repo, cache, tpl)
		repo.On("IncrementUsage", mock.Anything, "tpl-1").
			Return(repository.ErrTemplateNotFound).Once()

		_, err := service.Apply(ctx, "tpl-1", -1, -1)
		assert.NoError(t, err)
	})
}

func TestTemplateService_List_ClampsPagination(t *testing.T) {
	service, repo, _ := newTemplateService(t)
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	repo.On("List", mock.Anything, repository.TemplateFilter{Page: 1, Limit: 20}).
		Return([]*model.Template{}, int64(0), nil).Once()
	repo.On("List", mock.Anything, repository.TemplateFilter{Page: 2, Limit: 100}).
		Return([]*model.Template{}, int64(0), nil).Once()

	_, _, err := service.List(ctx, template.ListOptions{Page: 0, Limit: 0})
	require.NoError(t, err)

	_, _, err = service.List(ctx, template.ListOptions{Page: 2, Limit: 500})
	require.NoError(t, err)

	repo.AssertExpectations(t)
}
