package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Template é a representação de domínio de um template de catálogo (somente leitura)
type Template struct {
	ID           string          // Identificador (UUID)
	Name         string          // Nome do template
	Description  string          // Descrição
	Category     string          // Categoria do catálogo, ex: "e-commerce"
	Tags         []string        // Tags do catálogo
	IsPublic     bool            // Templates privados não aparecem na listagem pública
	UsageCount   int64           // Incrementado a cada aplicação
	TemplateData json.RawMessage // Definição crua dos endpoints do cenário
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TemplateResponse é uma variante de resposta dentro de um endpoint do template
type TemplateResponse struct {
	Name       string            `json:"name,omitempty"`
	Response   json.RawMessage   `json:"response,omitempty"`
	StatusCode *int              `json:"status_code,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	DelayMs    *int              `json:"delay_ms,omitempty"`
}

// TemplateEndpoint é uma definição de endpoint dentro de template_data
type TemplateEndpoint struct {
	Name       string             `json:"name,omitempty"`
	Endpoint   string             `json:"endpoint"`
	Method     string             `json:"method"`
	Response   json.RawMessage    `json:"response,omitempty"`
	StatusCode *int               `json:"status_code,omitempty"`
	Headers    map[string]string  `json:"headers,omitempty"`
	DelayMs    *int               `json:"delay_ms,omitempty"`
	Responses  []TemplateResponse `json:"responses,omitempty"`
}

// TemplateData é o conteúdo estruturado de template_data
type TemplateData struct {
	Endpoints []TemplateEndpoint `json:"endpoints"`
}

// ParseData decodifica template_data
func (t *Template) ParseData() (*TemplateData, error) {
	if len(t.TemplateData) == 0 {
		return nil, errors.New("template_data vazio")
	}
	var data TemplateData
	if err := json.Unmarshal(t.TemplateData, &data); err != nil {
		return nil, fmt.Errorf("template_data inválido: %w", err)
	}
	if len(data.Endpoints) == 0 {
		return nil, errors.New("template não possui endpoints")
	}
	return &data, nil
}

// IsSimple indica se o template tem exatamente um endpoint com no máximo uma
// variante de resposta — nesse caso a aplicação dispensa seleção explícita
func (t *Template) IsSimple() bool {
	data, err := t.ParseData()
	if err != nil {
		return false
	}
	return len(data.Endpoints) == 1 && len(data.Endpoints[0].Responses) <= 1
}
