package model

import (
	"time"
)

// MockEntity é a representação de banco de dados de um mock
type MockEntity struct {
	ID           string `gorm:"primaryKey;size:36"`
	UserID       string `gorm:"index;not null;size:36;uniqueIndex:idx_mocks_owner_route"`
	Name         string `gorm:"not null"`
	Description  string `gorm:"type:text"`
	Endpoint     string `gorm:"not null;uniqueIndex:idx_mocks_owner_route"`
	Method       string `gorm:"not null;size:8;uniqueIndex:idx_mocks_owner_route"`
	ResponseJSON string `gorm:"column:response;type:json;not null"`
	HeadersJSON  string `gorm:"column:headers;type:json"`
	StatusCode   int    `gorm:"not null;default:200"`
	DelayMs      int    `gorm:"default:0"`
	IsPublic     bool   `gorm:"default:false;index"`
	TagsJSON     string `gorm:"column:tags;type:json"`
	Status       string `gorm:"default:'active';index;size:16"`
	AccessCount  int64  `gorm:"default:0"`
	LastAccessed *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (MockEntity) TableName() string {
	return "mocks"
}
