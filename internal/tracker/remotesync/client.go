// Package remotesync busca um snapshot remoto (GET {base}/api/state) para substituir o estado local.
package remotesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radieske/bet-tracker/internal/tracker/interchange"
)

const (
	statePath    = "/api/state"
	apiKeyHeader = "x-api-key"
	maxBodyBytes = 16 << 20
)

var ErrNotConfigured = errors.New("remote sync not configured")

// Client faz o pull do estado remoto
type Client struct {
	Base   string
	APIKey string
	HTTP   *http.Client
}

// New cria o client; base e chave vazios deixam o sync desligado
func New(base, apiKey string, timeout time.Duration) *Client {
	return &Client{
		Base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		APIKey: strings.TrimSpace(apiKey),
		HTTP:   &http.Client{Timeout: timeout},
	}
}

// Enabled indica se endpoint e credencial estão presentes
func (c *Client) Enabled() bool { return c != nil && c.Base != "" && c.APIKey != "" }

// Fetch baixa e valida o snapshot remoto. Só retorna documento estruturalmente válido
// (mapa de tipsters e sequência de apostas).
func (c *Client) Fetch(ctx context.Context) (*interchange.Document, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+statePath, nil)
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("sync request: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read sync body: %w", err)
	}
	doc, err := interchange.ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("remote snapshot: %w", err)
	}
	return doc, nil
}
