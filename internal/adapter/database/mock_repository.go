package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockRepository implementa repository.MockRepository
type MockRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewMockRepository cria um novo repositório de mocks
func NewMockRepository(db *gorm.DB, logger *zap.Logger) repository.MockRepository {
	tracer := otel.GetTracerProvider().Tracer("mockbox.repository.mock")

	return &MockRepository{
		db:     db,
		logger: logger,
		tracer: tracer,
	}
}

// Create persiste um novo mock
func (r *MockRepository) Create(ctx context.Context, mock *model.Mock) error {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.Create",
		trace.WithAttributes(
			attribute.String("db.operation", "insert"),
			attribute.String("db.table", "mocks"),
			attribute.String("mock.endpoint", mock.Endpoint),
			attribute.String("mock.method", mock.Method),
		),
	)
	defer span.End()

	// Verificar duplicidade de (user_id, endpoint, method); o índice único
	// cobre a corrida entre a verificação e o insert
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.MockEntity{}).
		Where("user_id = ? AND endpoint = ? AND method = ?", mock.UserID, mock.Endpoint, mock.Method).
		Count(&count).Error; err != nil {
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao verificar duplicidade: %w", err)
	}
	if count > 0 {
		span.SetStatus(codes.Error, "mock already exists")
		return repository.ErrMockExists
	}

	entity, err := mockToEntity(mock)
	if err != nil {
		span.SetStatus(codes.Error, "conversion error")
		return fmt.Errorf("falha ao converter modelo para entidade: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			span.SetStatus(codes.Error, "mock already exists")
			return repository.ErrMockExists
		}
		r.logger.Error("falha ao criar mock",
			zap.String("endpoint", mock.Endpoint),
			zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		span.SetAttributes(
			attribute.Bool("error", true),
			attribute.String("error.message", err.Error()),
		)
		return fmt.Errorf("falha ao criar mock: %w", err)
	}

	mock.CreatedAt = entity.CreatedAt
	mock.UpdatedAt = entity.UpdatedAt

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID obtém um mock pelo identificador
func (r *MockRepository) GetByID(ctx context.Context, id string) (*model.Mock, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.GetByID",
		trace.WithAttributes(
			attribute.String("db.operation", "select"),
			attribute.String("db.table", "mocks"),
			attribute.String("mock.id", id),
		),
	)
	defer span.End()

	var entity model.MockEntity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "mock not found")
			span.SetAttributes(attribute.Bool("mock.found", false))
			return nil, repository.ErrMockNotFound
		}
		r.logger.Error("falha ao buscar mock", zap.String("id", id), zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		return nil, fmt.Errorf("falha ao buscar mock: %w", err)
	}

	span.SetAttributes(attribute.Bool("mock.found", true))

	mock, err := entityToMock(&entity)
	if err != nil {
		span.SetStatus(codes.Error, "conversion error")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return mock, nil
}

// Update substitui os campos mutáveis de um mock existente.
// id, user_id, access_count e created_at são preservados.
func (r *MockRepository) Update(ctx context.Context, mock *model.Mock) error {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.Update",
		trace.WithAttributes(
			attribute.String("db.operation", "update"),
			attribute.String("db.table", "mocks"),
			attribute.String("mock.id", mock.ID),
		),
	)
	defer span.End()

	// Outro mock do mesmo dono não pode ocupar o mesmo (endpoint, method)
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.MockEntity{}).
		Where("user_id = ? AND endpoint = ? AND method = ? AND id <> ?",
			mock.UserID, mock.Endpoint, mock.Method, mock.ID).
		Count(&count).Error; err != nil {
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao verificar duplicidade: %w", err)
	}
	if count > 0 {
		span.SetStatus(codes.Error, "mock already exists")
		return repository.ErrMockExists
	}

	entity, err := mockToEntity(mock)
	if err != nil {
		span.SetStatus(codes.Error, "conversion error")
		return fmt.Errorf("falha ao converter modelo para entidade: %w", err)
	}

	// Updates via mapa para gravar também valores zero (is_public=false, delay_ms=0)
	result := r.db.WithContext(ctx).Model(&model.MockEntity{}).
		Where("id = ? AND user_id = ?", mock.ID, mock.UserID).
		Updates(map[string]interface{}{
			"name":        entity.Name,
			"description": entity.Description,
			"endpoint":    entity.Endpoint,
			"method":      entity.Method,
			"response":    entity.ResponseJSON,
			"headers":     entity.HeadersJSON,
			"status_code": entity.StatusCode,
			"delay_ms":    entity.DelayMs,
			"is_public":   entity.IsPublic,
			"tags":        entity.TagsJSON,
			"status":      entity.Status,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("falha ao atualizar mock",
			zap.String("id", mock.ID),
			zap.Error(result.Error))

		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao atualizar mock: %w", result.Error)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", result.RowsAffected))

	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "no rows affected")
		span.SetAttributes(attribute.Bool("mock.found", false))
		return repository.ErrMockNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete remove um mock do dono informado
func (r *MockRepository) Delete(ctx context.Context, id, userID string) error {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.Delete",
		trace.WithAttributes(
			attribute.String("db.operation", "delete"),
			attribute.String("db.table", "mocks"),
			attribute.String("mock.id", id),
		),
	)
	defer span.End()

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.MockEntity{})
	if result.Error != nil {
		r.logger.Error("falha ao excluir mock",
			zap.String("id", id),
			zap.Error(result.Error))

		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao excluir mock: %w", result.Error)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", result.RowsAffected))

	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "no rows affected")
		return repository.ErrMockNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// List obtém mocks com filtros e paginação
func (r *MockRepository) List(ctx context.Context, filter repository.MockFilter) ([]*model.Mock, int64, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.List",
		trace.WithAttributes(
			attribute.String("db.operation", "select"),
			attribute.String("db.table", "mocks"),
			attribute.Int("filter.page", filter.Page),
			attribute.Int("filter.limit", filter.Limit),
		),
	)
	defer span.End()

	query := r.db.WithContext(ctx).Model(&model.MockEntity{})

	if filter.PublicOnly {
		query = query.Where("is_public = ?", true)
	} else if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ? OR endpoint LIKE ?", like, like, like)
	}
	for _, tag := range filter.Tags {
		// Tags ficam serializadas como JSON; o LIKE no valor entre aspas
		// é suficiente para correspondência exata de tag
		query = query.Where("tags LIKE ?", "%\""+strings.ToLower(tag)+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.SetStatus(codes.Error, "database error")
		return nil, 0, fmt.Errorf("falha ao contar mocks: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	var entities []model.MockEntity
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&entities).Error; err != nil {
		r.logger.Error("falha ao listar mocks", zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		return nil, 0, fmt.Errorf("falha ao listar mocks: %w", err)
	}

	mocks := make([]*model.Mock, 0, len(entities))
	for _, entity := range entities {
		mock, err := entityToMock(&entity)
		if err != nil {
			r.logger.Error("falha ao converter entidade para modelo",
				zap.String("id", entity.ID),
				zap.Error(err))
			span.AddEvent("error.conversion",
				trace.WithAttributes(
					attribute.String("entity.id", entity.ID),
					attribute.String("error.message", err.Error()),
				),
			)
			continue
		}
		mocks = append(mocks, mock)
	}

	span.SetAttributes(
		attribute.Int("mocks.count", len(mocks)),
		attribute.Int64("mocks.total", total),
	)
	span.SetStatus(codes.Ok, "")
	return mocks, total, nil
}

// FindForSimulation resolve o mock ativo para (endpoint, method). O mock do
// próprio chamador tem precedência sobre mocks públicos de outros donos.
func (r *MockRepository) FindForSimulation(ctx context.Context, endpoint, method, callerID string) (*model.Mock, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.FindForSimulation",
		trace.WithAttributes(
			attribute.String("db.operation", "select"),
			attribute.String("db.table", "mocks"),
			attribute.String("mock.endpoint", endpoint),
			attribute.String("mock.method", method),
		),
	)
	defer span.End()

	var entity model.MockEntity

	if callerID != "" {
		err := r.db.WithContext(ctx).
			Where("endpoint = ? AND method = ? AND status = ? AND user_id = ?",
				endpoint, method, model.MockStatusActive, callerID).
			First(&entity).Error
		if err == nil {
			span.SetAttributes(attribute.Bool("mock.owned", true))
			span.SetStatus(codes.Ok, "")
			return entityToMock(&entity)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "database error")
			return nil, fmt.Errorf("falha ao resolver mock: %w", err)
		}
	}

	err := r.db.WithContext(ctx).
		Where("endpoint = ? AND method = ? AND status = ? AND is_public = ?",
			endpoint, method, model.MockStatusActive, true).
		Order("created_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "mock not found")
			span.SetAttributes(attribute.Bool("mock.found", false))
			return nil, repository.ErrMockNotFound
		}
		r.logger.Error("falha ao resolver mock para simulação",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		return nil, fmt.Errorf("falha ao resolver mock: %w", err)
	}

	span.SetAttributes(attribute.Bool("mock.found", true))
	span.SetStatus(codes.Ok, "")
	return entityToMock(&entity)
}

// IncrementAccess incrementa access_count atomicamente no banco. O UPDATE
// relativo garante que simulações concorrentes não percam incrementos.
func (r *MockRepository) IncrementAccess(ctx context.Context, id string, at time.Time) error {
	ctx, span := r.tracer.Start(
		ctx,
		"MockRepository.IncrementAccess",
		trace.WithAttributes(
			attribute.String("db.operation", "update"),
			attribute.String("db.table", "mocks"),
			attribute.String("mock.id", id),
		),
	)
	defer span.End()

	result := r.db.WithContext(ctx).Model(&model.MockEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_count":  gorm.Expr("access_count + 1"),
			"last_accessed": at,
		})
	if result.Error != nil {
		r.logger.Error("falha ao incrementar contador de acesso",
			zap.String("id", id),
			zap.Error(result.Error))

		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao incrementar contador de acesso: %w", result.Error)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", result.RowsAffected))

	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "no rows affected")
		return repository.ErrMockNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// isUniqueViolation detecta violação de índice único nos três drivers suportados
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// entityToMock converte uma entidade em um modelo
func entityToMock(entity *model.MockEntity) (*model.Mock, error) {
	var headers map[string]string
	if entity.HeadersJSON != "" {
		if err := json.Unmarshal([]byte(entity.HeadersJSON), &headers); err != nil {
			return nil, fmt.Errorf("headers corrompidos no mock %s: %w", entity.ID, err)
		}
	}
	if headers == nil {
		headers = map[string]string{}
	}

	var tags []string
	if entity.TagsJSON != "" {
		if err := json.Unmarshal([]byte(entity.TagsJSON), &tags); err != nil {
			return nil, fmt.Errorf("tags corrompidas no mock %s: %w", entity.ID, err)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	return &model.Mock{
		ID:           entity.ID,
		UserID:       entity.UserID,
		Name:         entity.Name,
		Description:  entity.Description,
		Endpoint:     entity.Endpoint,
		Method:       entity.Method,
		Response:     json.RawMessage(entity.ResponseJSON),
		Headers:      headers,
		StatusCode:   entity.StatusCode,
		DelayMs:      entity.DelayMs,
		IsPublic:     entity.IsPublic,
		Tags:         tags,
		Status:       entity.Status,
		AccessCount:  entity.AccessCount,
		LastAccessed: entity.LastAccessed,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}, nil
}

// mockToEntity converte um modelo em uma entidade
func mockToEntity(mock *model.Mock) (*model.MockEntity, error) {
	headersJSON, err := json.Marshal(mock.Headers)
	if err != nil {
		return nil, err
	}

	tagsJSON, err := json.Marshal(mock.Tags)
	if err != nil {
		return nil, err
	}

	response := mock.Response
	if len(response) == 0 {
		response = json.RawMessage("{}")
	}

	return &model.MockEntity{
		ID:           mock.ID,
		UserID:       mock.UserID,
		Name:         mock.Name,
		Description:  mock.Description,
		Endpoint:     mock.Endpoint,
		Method:       mock.Method,
		ResponseJSON: string(response),
		HeadersJSON:  string(headersJSON),
		StatusCode:   mock.StatusCode,
		DelayMs:      mock.DelayMs,
		IsPublic:     mock.IsPublic,
		TagsJSON:     string(tagsJSON),
		Status:       mock.Status,
		AccessCount:  mock.AccessCount,
		LastAccessed: mock.LastAccessed,
	}, nil
}
