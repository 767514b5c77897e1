package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"go.uber.org/zap"
)

// templateSeed é o formato dos arquivos JSON do catálogo
type templateSeed struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Tags         []string        `json:"tags"`
	IsPublic     *bool           `json:"is_public"`
	TemplateData json.RawMessage `json:"template_data"`
}

// JSONTemplateLoader carrega o catálogo de templates de um diretório de arquivos JSON
type JSONTemplateLoader struct {
	db     *Database
	logger *zap.Logger
}

// NewJSONTemplateLoader cria um novo carregador de templates JSON
func NewJSONTemplateLoader(db *Database, logger *zap.Logger) *JSONTemplateLoader {
	return &JSONTemplateLoader{
		db:     db,
		logger: logger,
	}
}

// LoadTemplatesFromDir percorre o diretório e insere os templates que ainda não
// existem no catálogo. Templates já carregados são mantidos intactos (o catálogo
// é imutável; usage_count não deve ser sobrescrito pela carga).
func (l *JSONTemplateLoader) LoadTemplatesFromDir(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		l.logger.Warn("Diretório de templates não encontrado", zap.String("path", dirPath))
		return nil // Não é erro, apenas não há catálogo para carregar
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		l.logger.Error("Erro ao ler diretório de templates", zap.String("path", dirPath), zap.Error(err))
		return err
	}

	repo := NewTemplateRepository(l.db.DB(), l.logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dirPath, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Error("Erro ao ler arquivo de template", zap.String("path", path), zap.Error(err))
			continue
		}

		var seed templateSeed
		if err := json.Unmarshal(data, &seed); err != nil {
			l.logger.Error("Erro ao deserializar template", zap.String("path", path), zap.Error(err))
			continue
		}
		if seed.Name == "" || len(seed.TemplateData) == 0 {
			l.logger.Warn("Template sem name ou template_data, ignorando", zap.String("path", path))
			continue
		}

		isPublic := true
		if seed.IsPublic != nil {
			isPublic = *seed.IsPublic
		}

		template := &model.Template{
			ID:           uuid.New().String(),
			Name:         seed.Name,
			Description:  seed.Description,
			Category:     seed.Category,
			Tags:         model.NormalizeTags(seed.Tags),
			IsPublic:     isPublic,
			TemplateData: seed.TemplateData,
		}

		// Valida a estrutura de endpoints antes de persistir
		if _, err := template.ParseData(); err != nil {
			l.logger.Error("Template com template_data inválido, ignorando",
				zap.String("path", path), zap.Error(err))
			continue
		}

		if err := repo.Create(ctx, template); err != nil {
			// Nome duplicado significa que a carga já aconteceu
			if isUniqueViolation(err) || strings.Contains(err.Error(), "já existe") {
				l.logger.Debug("Template já carregado", zap.String("name", seed.Name))
				continue
			}
			l.logger.Error("Erro ao inserir template", zap.String("name", seed.Name), zap.Error(err))
			continue
		}
		loaded++
	}

	l.logger.Info("Catálogo de templates carregado",
		zap.Int("loaded", loaded),
		zap.String("dir", dirPath))
	return nil
}
