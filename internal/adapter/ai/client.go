package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SamuelOshin/mockbox-api/pkg/resilience"
	"go.uber.org/zap"
)

// ErrDisabled é retornado quando o gerador de IA não está configurado
var ErrDisabled = errors.New("geração por IA está desabilitada")

// Config contém as configurações do provedor de IA
type Config struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client é um pass-through para o provedor externo de geração de respostas.
// A qualidade do conteúdo gerado não é responsabilidade deste serviço; o
// cliente apenas encaminha o prompt e devolve o JSON recebido, protegido por
// circuit breaker para não cascatear instabilidade do provedor.
type Client struct {
	config  Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
	logger  *zap.Logger
}

// NewClient cria um novo cliente de geração por IA
func NewClient(config Config, breaker *resilience.CircuitBreaker, logger *zap.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Enabled indica se o provedor está configurado
func (c *Client) Enabled() bool {
	return c.config.Enabled && c.config.Endpoint != ""
}

type generateRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

// GenerateResponse encaminha a descrição ao provedor e devolve o corpo JSON
// sugerido para o mock
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if prompt == "" {
		return nil, errors.New("prompt é obrigatório")
	}

	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.call(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("Provedor de IA indisponível, circuito aberto")
		}
		return nil, err
	}

	return result.(json.RawMessage), nil
}

func (c *Client) call(ctx context.Context, prompt string) (json.RawMessage, error) {
	payload, err := json.Marshal(generateRequest{Model: c.config.Model, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha ao chamar provedor de IA: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("falha ao ler resposta do provedor: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provedor de IA retornou status %d", resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, errors.New("provedor de IA retornou JSON inválido")
	}

	return json.RawMessage(body), nil
}
