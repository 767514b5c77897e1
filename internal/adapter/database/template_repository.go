package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"github.com/SamuelOshin/mockbox-api/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TemplateRepository implementa repository.TemplateRepository
type TemplateRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewTemplateRepository cria um novo repositório de templates
func NewTemplateRepository(db *gorm.DB, logger *zap.Logger) repository.TemplateRepository {
	tracer := otel.GetTracerProvider().Tracer("mockbox.repository.template")

	return &TemplateRepository{
		db:     db,
		logger: logger,
		tracer: tracer,
	}
}

// GetByID obtém um template pelo identificador
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"TemplateRepository.GetByID",
		trace.WithAttributes(
			attribute.String("db.operation", "select"),
			attribute.String("db.table", "mock_templates"),
			attribute.String("template.id", id),
		),
	)
	defer span.End()

	var entity model.TemplateEntity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "template not found")
			return nil, repository.ErrTemplateNotFound
		}
		r.logger.Error("falha ao buscar template", zap.String("id", id), zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		return nil, fmt.Errorf("falha ao buscar template: %w", err)
	}

	template, err := entityToTemplate(&entity)
	if err != nil {
		span.SetStatus(codes.Error, "conversion error")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return template, nil
}

// List obtém templates públicos com filtros e paginação
func (r *TemplateRepository) List(ctx context.Context, filter repository.TemplateFilter) ([]*model.Template, int64, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"TemplateRepository.List",
		trace.WithAttributes(
			attribute.String("db.operation", "select"),
			attribute.String("db.table", "mock_templates"),
			attribute.Int("filter.page", filter.Page),
			attribute.Int("filter.limit", filter.Limit),
		),
	)
	defer span.End()

	query := r.db.WithContext(ctx).Model(&model.TemplateEntity{}).Where("is_public = ?", true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	for _, tag := range filter.Tags {
		query = query.Where("tags LIKE ?", "%\""+strings.ToLower(tag)+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.SetStatus(codes.Error, "database error")
		return nil, 0, fmt.Errorf("falha ao contar templates: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	var entities []model.TemplateEntity
	if err := query.Order("usage_count DESC, name ASC").Offset(offset).Limit(filter.Limit).Find(&entities).Error; err != nil {
		r.logger.Error("falha ao listar templates", zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		return nil, 0, fmt.Errorf("falha ao listar templates: %w", err)
	}

	templates := make([]*model.Template, 0, len(entities))
	for _, entity := range entities {
		template, err := entityToTemplate(&entity)
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
		templates = append(templates, template)
	}

	span.SetAttributes(
		attribute.Int("templates.count", len(templates)),
		attribute.Int64("templates.total", total),
	)
	span.SetStatus(codes.Ok, "")
	return templates, total, nil
}

// Create persiste um template (carga do catálogo)
func (r *TemplateRepository) Create(ctx context.Context, template *model.Template) error {
	ctx, span := r.tracer.Start(
		ctx,
		"TemplateRepository.Create",
		trace.WithAttributes(
			attribute.String("db.operation", "insert"),
			attribute.String("db.table", "mock_templates"),
			attribute.String("template.name", template.Name),
		),
	)
	defer span.End()

	entity, err := templateToEntity(template)
	if err != nil {
		span.SetStatus(codes.Error, "conversion error")
		return fmt.Errorf("falha ao converter modelo para entidade: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			span.SetStatus(codes.Error, "template already exists")
			return fmt.Errorf("template %q já existe", template.Name)
		}
		r.logger.Error("falha ao criar template",
			zap.String("name", template.Name),
			zap.Error(err))

		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao criar template: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// IncrementUsage incrementa usage_count atomicamente
func (r *TemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(
		ctx,
		"TemplateRepository.IncrementUsage",
		trace.WithAttributes(
			attribute.String("db.operation", "update"),
			attribute.String("db.table", "mock_templates"),
			attribute.String("template.id", id),
		),
	)
	defer span.End()

	result := r.db.WithContext(ctx).Model(&model.TemplateEntity{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		r.logger.Error("falha ao incrementar uso do template",
			zap.String("id", id),
			zap.Error(result.Error))

		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao incrementar uso do template: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "no rows affected")
		return repository.ErrTemplateNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// entityToTemplate converte uma entidade em um modelo
func entityToTemplate(entity *model.TemplateEntity) (*model.Template, error) {
	var tags []string
	if entity.TagsJSON != "" {
		if err := json.Unmarshal([]byte(entity.TagsJSON), &tags); err != nil {
			return nil, fmt.Errorf("tags corrompidas no template %s: %w", entity.ID, err)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	return &model.Template{
		ID:           entity.ID,
		Name:         entity.Name,
		Description:  entity.Description,
		Category:     entity.Category,
		Tags:         tags,
		IsPublic:     entity.IsPublic,
		UsageCount:   entity.UsageCount,
		TemplateData: json.RawMessage(entity.TemplateDataJSON),
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}, nil
}

// templateToEntity converte um modelo em uma entidade
func templateToEntity(template *model.Template) (*model.TemplateEntity, error) {
	tagsJSON, err := json.Marshal(template.Tags)
	if err != nil {
		return nil, err
	}

	if len(template.TemplateData) == 0 || !json.Valid(template.TemplateData) {
		return nil, errors.New("template_data ausente ou inválido")
	}

	return &model.TemplateEntity{
		ID:               template.ID,
		Name:             template.Name,
		Description:      template.Description,
		Category:         template.Category,
		TagsJSON:         string(tagsJSON),
		IsPublic:         template.IsPublic,
		UsageCount:       template.UsageCount,
		TemplateDataJSON: string(template.TemplateData),
	}, nil
}
