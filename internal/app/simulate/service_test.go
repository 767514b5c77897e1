package simulate_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelOshin/mockbox-api/internal/app/simulate"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"github.com/SamuelOshin/mockbox-api/internal/mocks"
	"github.com/SamuelOshin/mockbox-api/internal/testutils"
)

func newSimulateService(t *testing.T) (*simulate.Service, *mocks.MockRepository) {
	repo := new(mocks.MockRepository)
	return simulate.NewService(repo, testutils.TestLogger(t), model.MaxDelayMs), repo
}

func TestSimulateService_Resolve(t *testing.T) {
	service, repo := newSimulateService(t)

	t.Run("normalizes endpoint before lookup", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expected := &model.Mock{ID: "m1", Endpoint: "/api/ping", Method: "GET"}
		repo.On("FindForSimulation", mock.Anything, "/api/ping", "GET", "user-1").
			Return(expected, nil).Once()

		got, err := service.Resolve(ctx, "api/ping", "GET", "user-1")
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		repo.On("FindForSimulation", mock.Anything, "/api/missing", "GET", "").
			Return(nil, repository.ErrMockNotFound).Once()

		_, err := service.Resolve(ctx, "/api/missing", "GET", "")
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})
}

func TestSimulateService_Run(t *testing.T) {
	t.Run("increments access and returns configured response", func(t *testing.T) {
		service, repo := newSimulateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		m := &model.Mock{
			ID:         "m1",
			Endpoint:   "/api/ping",
			Method:     "GET",
			Response:   json.RawMessage(`{"pong":true}`),
			Headers:    map[string]string{"X-Mock": "1"},
			StatusCode: 201,
		}

		repo.On("IncrementAccess", mock.Anything, "m1", mock.AnythingOfType("time.Time")).
			Return(nil).Once()

		result, err := service.Run(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, 201, result.StatusCode)
		assert.Equal(t, "1", result.Headers["X-Mock"])
		assert.JSONEq(t, `{"pong":true}`, string(result.Body))
		repo.AssertExpectations(t)
	})

	t.Run("mock deleted during delay", func(t *testing.T) {
		service, repo := newSimulateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		m := &model.Mock{ID: "gone", StatusCode: 200, Response: json.RawMessage(`{}`)}
		repo.On("IncrementAccess", mock.Anything, "gone", mock.AnythingOfType("time.Time")).
			Return(repository.ErrMockNotFound).Once()

		_, err := service.Run(ctx, m)
		assert.ErrorIs(t, err, repository.ErrMockNotFound)
	})

	t.Run("delay respects context cancellation", func(t *testing.T) {
		service, repo := newSimulateService(t)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		m := &model.Mock{
			ID:         "slow",
			DelayMs:    model.MaxDelayMs,
			StatusCode: 200,
			Response:   json.RawMessage(`{}`),
		}

		start := time.Now()
		_, err := service.Run(ctx, m)
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, elapsed, 2*time.Second, "cancelamento não pode esperar o delay inteiro")
		repo.AssertNotCalled(t, "IncrementAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delayed mock does not block a concurrent fast one", func(t *testing.T) {
		service, repo := newSimulateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		slow := &model.Mock{ID: "slow", DelayMs: 500, StatusCode: 200, Response: json.RawMessage(`{}`)}
		fast := &model.Mock{ID: "fast", StatusCode: 200, Response: json.RawMessage(`{}`)}

		repo.On("IncrementAccess", mock.Anything, "slow", mock.AnythingOfType("time.Time")).Return(nil).Once()
		repo.On("IncrementAccess", mock.Anything, "fast", mock.AnythingOfType("time.Time")).Return(nil).Once()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := service.Run(ctx, slow)
			assert.NoError(t, err)
		}()

		start := time.Now()
		_, err := service.Run(ctx, fast)
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 200*time.Millisecond, "simulação sem delay não pode esperar a lenta")
		<-done
	})

	t.Run("corrupted stored response", func(t *testing.T) {
		service, repo := newSimulateService(t)
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		m := &model.Mock{ID: "bad", StatusCode: 200, Response: json.RawMessage(`{"broken":`)}
		repo.On("IncrementAccess", mock.Anything, "bad", mock.AnythingOfType("time.Time")).
			Return(nil).Once()

		_, err := service.Run(ctx, m)
		assert.Error(t, err)
	})
}

func TestSimulateService_Preview(t *testing.T) {
	service, repo := newSimulateService(t)

	t.Run("defaults for empty draft", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		result, err := service.Preview(ctx, simulate.Draft{})
		require.NoError(t, err)
		assert.Equal(t, 200, result.StatusCode)
		assert.JSONEq(t, `{}`, string(result.Body))
		assert.NotNil(t, result.Headers)
	})

	t.Run("never touches counters", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		_, err := service.Preview(ctx, simulate.Draft{
			Response:   json.RawMessage(`{"draft":true}`),
			StatusCode: 418,
		})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "IncrementAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid status code", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		_, err := service.Preview(ctx, simulate.Draft{StatusCode: 99})
		assert.Error(t, err)
	})

	t.Run("delay above the limit", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		_, err := service.Preview(ctx, simulate.Draft{DelayMs: model.MaxDelayMs + 1})
		assert.Error(t, err)
	})

	t.Run("invalid draft response", func(t *testing.T) {
		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		_, err := service.Preview(ctx, simulate.Draft{Response: json.RawMessage(`not-json`)})
		assert.Error(t, err)
	})
}
