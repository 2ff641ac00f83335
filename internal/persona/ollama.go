package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/helix-rec/helix-backend/pkg/config"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/sethvargo/go-retry"
)

// OllamaClient talks to a local Ollama server for persona generation.
type OllamaClient struct {
	baseURL    string
	model      string
	temp       float64
	maxRetries uint64
	httpClient *http.Client
	probe      *http.Client
}

// NewOllamaClient builds a client from configuration.
func NewOllamaClient(cfg config.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		temp:       cfg.Temperature,
		maxRetries: uint64(cfg.MaxRetries),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		probe:      &http.Client{Timeout: cfg.ProbeTimeout},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// CheckConnection probes the server's tag listing endpoint.
func (c *OllamaClient) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Generate submits a prompt and returns the raw completion text. Transient
// failures are retried with exponential backoff up to the configured count.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: c.temp},
	})
	if err != nil {
		return "", err
	}

	var completion string
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			_, _ = io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(fmt.Errorf("ollama returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("ollama returned status %d", resp.StatusCode)
		}

		var parsed generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		completion = parsed.Response
		return nil
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeCapabilityUnavailable, err, "generating completion")
	}
	return completion, nil
}
