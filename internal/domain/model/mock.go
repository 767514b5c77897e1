package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status de ciclo de vida de um mock
const (
	MockStatusActive   = "active"
	MockStatusInactive = "inactive"
	MockStatusDraft    = "draft"
)

// Limite superior para o atraso artificial configurável (ms)
const MaxDelayMs = 10000

var allowedMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"DELETE":  {},
	"PATCH":   {},
	"HEAD":    {},
	"OPTIONS": {},
}

// Mock é a representação de domínio de um endpoint simulado
type Mock struct {
	ID           string            // Identificador (UUID), atribuído pelo servidor
	UserID       string            // Dono do mock, imutável após a criação
	Name         string            // Nome legível
	Description  string            // Descrição opcional
	Endpoint     string            // Caminho, ex: /api/users/profile
	Method       string            // Método HTTP (GET, POST, ...)
	Response     json.RawMessage   // Corpo JSON retornado na simulação, armazenado verbatim
	Headers      map[string]string // Cabeçalhos mesclados na resposta simulada
	StatusCode   int               // Código HTTP configurado [100, 599]
	DelayMs      int               // Latência artificial em milissegundos [0, MaxDelayMs]
	IsPublic     bool              // Se a simulação dispensa autenticação
	Tags         []string          // Tags normalizadas (minúsculas, sem espaços)
	Status       string            // active | inactive | draft
	AccessCount  int64             // Incrementado apenas pela simulação
	LastAccessed *time.Time        // Atualizado apenas pela simulação
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsMethodAllowed verifica se um método HTTP é aceito pelo contrato
func IsMethodAllowed(method string) bool {
	_, ok := allowedMethods[strings.ToUpper(method)]
	return ok
}

// NormalizeEndpoint garante o prefixo "/" e remove espaços
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}

// NormalizeTags remove espaços, converte para minúsculas e descarta entradas vazias
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	return normalized
}

// Normalize aplica as normalizações de escrita: endpoint com "/",
// método em maiúsculas, tags limpas e response padrão "{}"
func (m *Mock) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Endpoint = NormalizeEndpoint(m.Endpoint)
	m.Method = strings.ToUpper(strings.TrimSpace(m.Method))
	m.Tags = NormalizeTags(m.Tags)
	if len(m.Response) == 0 {
		m.Response = json.RawMessage("{}")
	}
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
}

// Validate verifica se o mock respeita o contrato
func (m *Mock) Validate() error {
	if m.Name == "" {
		return errors.New("name é obrigatório")
	}
	if m.Endpoint == "" {
		return errors.New("endpoint é obrigatório")
	}
	if !strings.HasPrefix(m.Endpoint, "/") {
		return errors.New("endpoint deve iniciar com '/'")
	}
	if m.Method == "" {
		return errors.New("method é obrigatório")
	}
	if !IsMethodAllowed(m.Method) {
		return fmt.Errorf("método HTTP não suportado: %s", m.Method)
	}
	if m.StatusCode < 100 || m.StatusCode > 599 {
		return fmt.Errorf("status_code deve estar entre 100 e 599, recebido %d", m.StatusCode)
	}
	if m.DelayMs < 0 || m.DelayMs > MaxDelayMs {
		return fmt.Errorf("delay_ms deve estar entre 0 e %d, recebido %d", MaxDelayMs, m.DelayMs)
	}
	switch m.Status {
	case MockStatusActive, MockStatusInactive, MockStatusDraft:
	default:
		return fmt.Errorf("status inválido: %s", m.Status)
	}
	if !json.Valid(m.Response) {
		return errors.New("response deve ser um JSON válido")
	}
	return nil
}

// VisibleTo verifica se o mock pode ser lido pelo chamador
func (m *Mock) VisibleTo(callerID string) bool {
	return m.IsPublic || (callerID != "" && m.UserID == callerID)
}
