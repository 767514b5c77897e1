package model

import (
	"time"
)

// TemplateEntity é a representação de banco de dados de um template
type TemplateEntity struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"index;size:64"`
	TagsJSON    string `gorm:"column:tags;type:json"`
	// Sem default no schema: com default o gorm omite o valor zero no INSERT
	// e um template privado (IsPublic=false) seria gravado como público.
	IsPublic         bool      `gorm:"index"`
	UsageCount       int64     `gorm:"default:0"`
	TemplateDataJSON string    `gorm:"column:template_data;type:json;not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (TemplateEntity) TableName() string {
	return "mock_templates"
}
