package mock_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mockapp "github.com/SamuelOshin/mockbox-api/internal/app/mock"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/internal/mocks"
	"github.com/SamuelOshin/mockbox-api/internal/testutils"
)

func newService(t *testing.T) (*mockapp.Service, *mocks.MockRepository, *mocks.MockCache) {
	repo := new(mocks.MockRepository)
	cache := new(mocks.MockCache)
	return mockapp.NewService(repo, cache, testutils.TestLogger(t)), repo, cache
}

func TestMockService_Create(t *testing.T) {
	t.Run("applies defaults and normalizations", func(t *testing.T) {
		service, repo, _ := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		var created *model.Mock
		repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Mock")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*model.Mock)
			}).
			Return(nil).Once()

		result, err := service.Create(ctx, "user-1", mockapp.CreateRequest{
			Name:     "Ping",
			Endpoint: "api/ping",
			Method:   "get",
			Tags:     []string{" API "},
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, result, created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "user-1", created.UserID)
		assert.Equal(t, "/api/ping", created.Endpoint)
		assert.Equal(t, "GET", created.Method)
		assert.Equal(t, 200, created.StatusCode)
		assert.Equal(t, model.MockStatusActive, created.Status)
		assert.Equal(t, []string{"api"}, created.Tags)
		assert.Equal(t, json.RawMessage("{}"), created.Response)
		assert.Equal(t, int64(0), created.AccessCount)
		repo.AssertExpectations(t)
	})

	t.Run("validation failure never reaches the repository", func(t *testing.T) {
		service, repo, _ := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		_, err := service.Create(ctx, "user-1", mockapp.CreateRequest{
			Name:     "Bad",
			Endpoint: "/api/bad",
			Method:   "TRACE",
		})

		assert.ErrorIs(t, err, mockapp.ErrValidation)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate route from repository", func(t *testing.T) {
		service, repo, _ := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Mock")).
			Return(repository.ErrMockExists).Once()

		_, err := service.Create(ctx, "user-1", mockapp.CreateRequest{
			Name:     "Ping",
			Endpoint: "/api/ping",
			Method:   "GET",
		})

		assert.ErrorIs(t, err, repository.ErrMockExists)
		repo.AssertExpectations(t)
	})
}

func TestMockService_Get(t *testing.T) {
	t.Run("owner reads private mock", func(t *testing.T) {
		service, repo, cache := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		stored := &model.Mock{ID: "m1", UserID: "user-1", IsPublic: false}

		cache.On("Get", mock.Anything, "mock:m1", mock.AnythingOfType("*model.Mock")).
			Return(false, nil).Once()
		repo.On("GetByID", mock.Anything, "m1").Return(stored, nil).Once()
		cache.On("Set", mock.Anything, "mock:m1", stored, 5*time.Minute).Return(nil).Once()

		got, err := service.Get(ctx, "m1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, stored, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("private mock hidden from other users", func(t *testing.T) {
		service, repo, cache := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		stored := &model.Mock{ID: "m1", UserID: "user-1", IsPublic: false}

		cache.On("Get", mock.Anything, "mock:m1", mock.AnythingOfType("*model.Mock")).
			Return(false, nil).Once()
		repo.On("GetByID", mock.Anything, "m1").Return(stored, nil).Once()
		cache.On("Set", mock.Anything, "mock:m1", stored, 5*time.Minute).Return(nil).Once()

		_, err := service.Get(ctx, "m1", "user-2")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		service, repo, cache := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		cache.On("Get", mock.Anything, "mock:m1", mock.AnythingOfType("*model.Mock")).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*model.Mock)
				*dest = model.Mock{ID: "m1", UserID: "user-1", IsPublic: true}
			}).
			Return(true, nil).Once()

		got, err := service.Get(ctx, "m1", "")
		require.NoError(t, err)
		assert.Equal(t, "m1", got.ID)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestMockService_Update(t *testing.T) {
	t.Run("non owner gets not found", func(t *testing.T) {
		service, repo, _ := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		repo.On("GetByID", mock.Anything, "m1").
			Return(&model.Mock{ID: "m1", UserID: "user-1"}, nil).Once()

		_, err := service.Update(ctx, "m1", "user-2", mockapp.CreateRequest{
			Name: "X", Endpoint: "/x", Method: "GET",
		})

		assert.ErrorIs(t, err, repository.ErrMockNotFound)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("preserves status and counters", func(t *testing.T) {
		service, repo, cache := newService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		accessed := time.Now().UTC()
		existing := &model.Mock{
			ID:           "m1",
			UserID:       "user-1",
			Status:       model.MockStatusInactive,
			AccessCount:  7,
			LastAccessed: &accessed,
		}

		var updated *model.Mock
		repo.On("GetByID", mock.Anything, "m1").Return(existing, nil).Twice()
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Mock")).
			Run(func(args mock.Arguments) {
				updated = args.Get(1).(*model.Mock)
			}).
			Return(nil).Once()
		cache.On("Delete", mock.Anything, "mock:m1").Return(nil).Once()

		_, err := service.Update(ctx, "m1", "user-1", mockapp.CreateRequest{
			Name:     "Renamed",
			Endpoint: "/api/renamed",
			Method:   "PUT",
		})

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "m1", updated.ID)
		assert.Equal(t, "user-1", updated.UserID)
		assert.Equal(t, model.MockStatusInactive, updated.Status)
		assert.Equal(t, int64(7), updated.AccessCount)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}

func TestMockService_Delete(t *testing.T) {
	service, repo, cache := newService(t)
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	repo.On("Delete", mock.Anything, "m1", "user-1").Return(nil).Once()
	cache.On("Delete", mock.Anything, "mock:m1").Return(nil).Once()

	require.NoError(t, service.Delete(ctx, "m1", "user-1"))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestMockService_BulkDelete(t *testing.T) {
	service, repo, cache := newService(t)
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	repo.On("Delete", mock.Anything, "ok-1", "user-1").Return(nil).Once()
	repo.On("Delete", mock.Anything, "missing", "user-1").Return(repository.ErrMockNotFound).Once()
	repo.On("Delete", mock.Anything, "ok-2", "user-1").Return(nil).Once()
	cache.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	results := service.BulkDelete(ctx, []string{"ok-1", "missing", "ok-2"}, "user-1")

	require.Len(t, results, 3)
	assert.True(t, results[0].Deleted)
	assert.False(t, results[1].Deleted)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].Deleted)
	repo.AssertExpectations(t)
}

func TestMockService_ToggleStatus(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"active becomes inactive", model.MockStatusActive, model.MockStatusInactive},
		{"inactive becomes active", model.MockStatusInactive, model.MockStatusActive},
		{"draft becomes active", model.MockStatusDraft, model.MockStatusActive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, repo, cache := newService(t)
			ctx, cancel := testutils.ContextWithTimeout(t)
			defer cancel()

			repo.On("GetByID", mock.Anything, "m1").
				Return(&model.Mock{ID: "m1", UserID: "user-1", Status: tc.from}, nil).Once()
			repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Mock")).Return(nil).Once()
			cache.On("Delete", mock.Anything, "mock:m1").Return(nil).Once()

			got, err := service.ToggleStatus(ctx, "m1", "user-1")
			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Status)
		})
	}
}

func TestMockService_Duplicate(t *testing.T) {
	service, repo, _ := newService(t)
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	accessed := time.Now().UTC()
	source := &model.Mock{
		ID:           "m1",
		UserID:       "user-1",
		Name:         "Ping",
		Endpoint:     "/api/ping",
		Method:       "GET",
		IsPublic:     true,
		Status:       model.MockStatusActive,
		AccessCount:  42,
		LastAccessed: &accessed,
	}

	var copied *model.Mock
	repo.On("GetByID", mock.Anything, "m1").Return(source, nil).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Mock")).
		Run(func(args mock.Arguments) {
			copied = args.Get(1).(*model.Mock)
		}).
		Return(nil).Once()

	got, err := service.Duplicate(ctx, "m1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, copied)
	assert.Equal(t, got, copied)
	assert.NotEqual(t, "m1", copied.ID)
	assert.Equal(t, "Ping (Copy)", copied.Name)
	assert.Equal(t, "/api/ping-copy", copied.Endpoint)
	assert.Equal(t, model.MockStatusDraft, copied.Status)
	assert.False(t, copied.IsPublic)
	assert.Equal(t, int64(0), copied.AccessCount)
	assert.Nil(t, copied.LastAccessed)
	repo.AssertExpectations(t)
}

func TestMockService_List_NormalizesPagination(t *testing.T) {
	service, repo, _ := newService(t)
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	repo.On("List", mock.Anything, repository.MockFilter{UserID: "user-1", Page: 1, Limit: 20}).
		Return([]*model.Mock{}, int64(0), nil).Once()
	repo.On("List", mock.Anything, repository.MockFilter{UserID: "user-1", Page: 3, Limit: 100}).
		Return([]*model.Mock{}, int64(0), nil).Once()

	_, _, err := service.List(ctx, "user-1", mockapp.ListOptions{Page: 0, Limit: -5})
	require.NoError(t, err)

	_, _, err = service.List(ctx, "user-1", mockapp.ListOptions{Page: 3, Limit: 5000})
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestMockService_ListPublic(t *testing.T) {
	service, repo, _ := newService(t)
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	expectedErr := errors.New("database down")
	repo.On("List", mock.Anything, repository.MockFilter{PublicOnly: true, Page: 1, Limit: 20}).
		Return(nil, int64(0), expectedErr).Once()

	_, _, err := service.ListPublic(ctx, mockapp.ListOptions{})
	assert.Equal(t, expectedErr, err)
}
