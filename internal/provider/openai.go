package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
)

// openAIEndpoint is the chat completions endpoint; overridable per instance
// for tests.
const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// placeholderKey is the value scaffolding tools leave in .env files; treat it
// the same as no key at all.
const placeholderKey = "your-api-key-here"

// defaultHTTPTimeout bounds a single provider call. The orchestrator owns
// retries; a hung call must not stall past one attempt window.
const defaultHTTPTimeout = 30 * time.Second

// openAIRequest is the chat completions request body.
type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []openAIMessage `json:"messages"`
}

// openAIMessage is one entry of the conversation payload.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIResponse is the subset of the chat completions response we consume.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAI is the GPT-backed translation provider.
type OpenAI struct {
	apiKey      string
	model       string
	temperature float64
	table       *glossary.Table

	endpoint string
	client   *http.Client
}

// NewOpenAI constructs an OpenAI provider. An empty or placeholder apiKey
// yields a provider that reports itself unavailable instead of failing
// construction; degradation is the orchestrator's decision.
func NewOpenAI(apiKey, model string, temperature float64, table *glossary.Table) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		table:       table,
		endpoint:    openAIEndpoint,
		client:      &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Name implements Provider. The model is part of the identity because cache
// entries from different models must not collide.
func (p *OpenAI) Name() string { return "OpenAI-" + p.model }

// Available implements Provider.
func (p *OpenAI) Available() bool {
	return p.apiKey != "" && p.apiKey != placeholderKey
}

// Translate implements Provider by calling the chat completions API with the
// shared interpreter prompt.
func (p *OpenAI) Translate(ctx context.Context, text, sourceLang, targetLang, contextTag string) (string, error) {
	if !p.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(openAIRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   1024,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt(contextTag, p.table, sourceLang, targetLang)},
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
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

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

	var out openAIResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Error != nil {
		return "", &PermanentError{Err: errors.New(out.Error.Message)}
	}
	if len(out.Choices) == 0 {
		return "", &PermanentError{Err: errors.New("empty completion")}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// classifyTransport maps a failed round trip into the retry taxonomy.
// Anything that never produced a response (timeouts, refused connections,
// DNS failures) is worth retrying; an explicitly cancelled context is not.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return &PermanentError{Err: err}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &ne) {
		return &TransientError{Err: err}
	}
	return &TransientError{Err: err}
}

// classifyStatus maps an HTTP error status into the retry taxonomy:
// throttling and upstream 5xx are transient, everything else is a rejected
// request and must not be retried.
func classifyStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	err := fmt.Errorf("upstream status %d: %s", status, msg)

	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return &TransientError{Err: err}
	default:
		return &PermanentError{Err: err}
	}
}
