package database_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SamuelOshin/mockbox-api/internal/adapter/database"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
)

func setupMockRepo(t *testing.T) repository.MockRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Uma única conexão para que todas as operações vejam o mesmo banco em memória
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.MockEntity{}))

	return database.NewMockRepository(db, zaptest.NewLogger(t))
}

func newMock(userID, endpoint, method string) *model.Mock {
	return &model.Mock{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       "Mock " + endpoint,
		Endpoint:   endpoint,
		Method:     method,
		Response:   json.RawMessage(`{"ok":true}`),
		Headers:    map[string]string{"X-Env": "test"},
		StatusCode: 200,
		IsPublic:   false,
		Tags:       []string{"api", "test"},
		Status:     model.MockStatusActive,
	}
}

func TestMockRepository_CreateAndGet(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	m := newMock("user-1", "/api/ping", "GET")
	require.NoError(t, repo.Create(ctx, m))
	assert.False(t, m.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "/api/ping", got.Endpoint)
	assert.Equal(t, "GET", got.Method)
	assert.JSONEq(t, `{"ok":true}`, string(got.Response))
	assert.Equal(t, map[string]string{"X-Env": "test"}, got.Headers)
	assert.Equal(t, []string{"api", "test"}, got.Tags)
	assert.Equal(t, int64(0), got.AccessCount)
	assert.Nil(t, got.LastAccessed)
}

func TestMockRepository_GetByID_NotFound(t *testing.T) {
	repo := setupMockRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, repository.ErrMockNotFound)
}

func TestMockRepository_Create_DuplicateRoute(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMock("user-1", "/api/ping", "GET")))

	t.Run("same owner, same route", func(t *testing.T) {
		err := repo.Create(ctx, newMock("user-1", "/api/ping", "GET"))
		assert.ErrorIs(t, err, repository.ErrMockExists)
	})

	t.Run("same owner, different method", func(t *testing.T) {
		assert.NoError(t, repo.Create(ctx, newMock("user-1", "/api/ping", "POST")))
	})

	t.Run("different owner, same route", func(t *testing.T) {
		assert.NoError(t, repo.Create(ctx, newMock("user-2", "/api/ping", "GET")))
	})
}

func TestMockRepository_Update(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	m := newMock("user-1", "/api/orders", "GET")
	m.IsPublic = true
	m.DelayMs = 500
	require.NoError(t, repo.Create(ctx, m))

	t.Run("zero values are persisted", func(t *testing.T) {
		m.IsPublic = false
		m.DelayMs = 0
		m.StatusCode = 204
		require.NoError(t, repo.Update(ctx, m))

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPublic)
		assert.Equal(t, 0, got.DelayMs)
		assert.Equal(t, 204, got.StatusCode)
	})

	t.Run("update by non owner affects nothing", func(t *testing.T) {
		other := *m
		other.UserID = "user-2"
		err := repo.Update(ctx, &other)
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("route collision with another mock", func(t *testing.T) {
		second := newMock("user-1", "/api/orders/new", "GET")
		require.NoError(t, repo.Create(ctx, second))

		second.Endpoint = "/api/orders"
		err := repo.Update(ctx, second)
		assert.ErrorIs(t, err, repository.ErrMockExists)
	})
}

func TestMockRepository_Delete(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	m := newMock("user-1", "/api/ping", "GET")
	require.NoError(t, repo.Create(ctx, m))

	t.Run("non owner cannot delete", func(t *testing.T) {
		err := repo.Delete(ctx, m.ID, "user-2")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)

		_, err = repo.GetByID(ctx, m.ID)
		assert.NoError(t, err)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, m.ID, "user-1"))

		_, err := repo.GetByID(ctx, m.ID)
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("already deleted", func(t *testing.T) {
		err := repo.Delete(ctx, m.ID, "user-1")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})
}

func TestMockRepository_List(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	mine := newMock("user-1", "/api/users", "GET")
	mine.Tags = []string{"users"}
	require.NoError(t, repo.Create(ctx, mine))

	inactive := newMock("user-1", "/api/legacy", "GET")
	inactive.Status = model.MockStatusInactive
	require.NoError(t, repo.Create(ctx, inactive))

	public := newMock("user-2", "/api/products", "GET")
	public.IsPublic = true
	public.Description = "catálogo de produtos"
	require.NoError(t, repo.Create(ctx, public))

	t.Run("by owner", func(t *testing.T) {
		mocks, total, err := repo.List(ctx, repository.MockFilter{UserID: "user-1", Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, mocks, 2)
	})

	t.Run("public only", func(t *testing.T) {
		mocks, total, err := repo.List(ctx, repository.MockFilter{PublicOnly: true, Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, mocks, 1)
		assert.Equal(t, "/api/products", mocks[0].Endpoint)
	})

	t.Run("status filter", func(t *testing.T) {
		mocks, total, err := repo.List(ctx, repository.MockFilter{
			UserID: "user-1", Status: model.MockStatusInactive, Page: 1, Limit: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, mocks, 1)
		assert.Equal(t, "/api/legacy", mocks[0].Endpoint)
	})

	t.Run("search matches description", func(t *testing.T) {
		_, total, err := repo.List(ctx, repository.MockFilter{
			PublicOnly: true, Search: "produtos", Page: 1, Limit: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("tag filter", func(t *testing.T) {
		mocks, total, err := repo.List(ctx, repository.MockFilter{
			UserID: "user-1", Tags: []string{"users"}, Page: 1, Limit: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, mocks, 1)
		assert.Equal(t, "/api/users", mocks[0].Endpoint)
	})

	t.Run("pagination", func(t *testing.T) {
		mocks, total, err := repo.List(ctx, repository.MockFilter{UserID: "user-1", Page: 2, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, mocks, 1)
	})
}

func TestMockRepository_FindForSimulation(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	private := newMock("owner", "/api/ping", "GET")
	require.NoError(t, repo.Create(ctx, private))

	public := newMock("other", "/api/ping", "GET")
	public.IsPublic = true
	require.NoError(t, repo.Create(ctx, public))

	t.Run("owner mock takes precedence over public", func(t *testing.T) {
		got, err := repo.FindForSimulation(ctx, "/api/ping", "GET", "owner")
		require.NoError(t, err)
		assert.Equal(t, private.ID, got.ID)
	})

	t.Run("anonymous caller resolves public mock", func(t *testing.T) {
		got, err := repo.FindForSimulation(ctx, "/api/ping", "GET", "")
		require.NoError(t, err)
		assert.Equal(t, public.ID, got.ID)
	})

	t.Run("third user falls back to public mock", func(t *testing.T) {
		got, err := repo.FindForSimulation(ctx, "/api/ping", "GET", "someone-else")
		require.NoError(t, err)
		assert.Equal(t, public.ID, got.ID)
	})

	t.Run("method must match", func(t *testing.T) {
		_, err := repo.FindForSimulation(ctx, "/api/ping", "POST", "owner")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("inactive mock is not simulated", func(t *testing.T) {
		paused := newMock("owner", "/api/paused", "GET")
		paused.Status = model.MockStatusInactive
		require.NoError(t, repo.Create(ctx, paused))

		_, err := repo.FindForSimulation(ctx, "/api/paused", "GET", "owner")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("draft mock is not simulated", func(t *testing.T) {
		draft := newMock("owner", "/api/draft", "GET")
		draft.Status = model.MockStatusDraft
		require.NoError(t, repo.Create(ctx, draft))

		_, err := repo.FindForSimulation(ctx, "/api/draft", "GET", "owner")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("private mock invisible to others", func(t *testing.T) {
		secret := newMock("owner", "/api/secret", "GET")
		require.NoError(t, repo.Create(ctx, secret))

		_, err := repo.FindForSimulation(ctx, "/api/secret", "GET", "someone-else")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)

		_, err = repo.FindForSimulation(ctx, "/api/secret", "GET", "")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})
}

func TestMockRepository_IncrementAccess(t *testing.T) {
	repo := setupMockRepo(t)
	ctx := context.Background()

	m := newMock("user-1", "/api/ping", "GET")
	require.NoError(t, repo.Create(ctx, m))

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		const n = 25

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.IncrementAccess(ctx, m.ID, time.Now().UTC()))
			}()
		}
		wg.Wait()

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.AccessCount)
		require.NotNil(t, got.LastAccessed)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := repo.IncrementAccess(ctx, uuid.New().String(), time.Now().UTC())
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})
}
