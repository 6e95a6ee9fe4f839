package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
)

// anthropicEndpoint is the messages endpoint; overridable per instance for
// tests.
const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicVersion pins the API revision sent with every request.
const anthropicVersion = "2023-06-01"

// anthropicRequest is the messages request body.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

// anthropicMessage is one entry of the conversation payload.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the subset of the messages response we consume.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Anthropic is the Claude-backed translation provider.
type Anthropic struct {
	apiKey string
	model  string
	table  *glossary.Table

	endpoint string
	client   *http.Client
}

// NewAnthropic constructs an Anthropic provider. Like NewOpenAI, a missing
// key produces an unavailable provider rather than an error.
func NewAnthropic(apiKey, model string, table *glossary.Table) *Anthropic {
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	return &Anthropic{
		apiKey:   apiKey,
		model:    model,
		table:    table,
		endpoint: anthropicEndpoint,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Name implements Provider.
func (p *Anthropic) Name() string { return "Claude-" + p.model }

// Available implements Provider.
func (p *Anthropic) Available() bool {
	return p.apiKey != "" && p.apiKey != placeholderKey
}

// Translate implements Provider by calling the messages API with the shared
// interpreter prompt.
func (p *Anthropic) Translate(ctx context.Context, text, sourceLang, targetLang, contextTag string) (string, error) {
	if !p.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: 1024,
		System:    systemPrompt(contextTag, p.table, sourceLang, targetLang),
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt(text, sourceLang, targetLang)},
		},
	})
	if err != nil {
		return "", &PermanentError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &PermanentError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TransientError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, payload)
	}

	var out anthropicResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Error != nil {
		return "", &PermanentError{Err: errors.New(out.Error.Message)}
	}
	for _, block := range out.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", &PermanentError{Err: errors.New("no text block in response")}
}
