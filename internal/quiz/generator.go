package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Provider produces a themed question set. Implementations may fail; the
// Service wrapper is what guarantees a usable set.
type Provider interface {
	GenerateQuestions(ctx context.Context, themeLabel string) ([]Question, error)
}

// ProviderConfig holds settings for the HTTP text-generation provider.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPProvider calls an OpenAI-compatible chat completions endpoint and
// parses the reply into a question set.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewHTTPProvider creates a provider from config. Zero-value fields get
// sensible defaults except the API key, which stays empty.
func NewHTTPProvider(cfg ProviderConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const promptTemplate = `Buatkan tepat %d soal kuis pilihan ganda bertema "%s" dalam bahasa Indonesia.
Balas HANYA dengan array JSON, tanpa teks lain. Setiap elemen berbentuk:
{"question": "...", "options": [{"label": "A", "text": "..."}, {"label": "B", "text": "..."}, {"label": "C", "text": "..."}, {"label": "D", "text": "..."}], "correct": "A"}`

// GenerateQuestions asks the model for a themed set and validates the result.
func (p *HTTPProvider) GenerateQuestions(ctx context.Context, themeLabel string) ([]Question, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, QuestionsPerQuiz, themeLabel)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status code: %d, response: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provider response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("provider response has no choices")
	}

	questions, err := parseQuestionJSON(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := ValidateSet(questions); err != nil {
		return nil, fmt.Errorf("invalid question set: %w", err)
	}
	return questions, nil
}

// parseQuestionJSON extracts the JSON array from the model reply. Models
// sometimes wrap the array in code fences or prose, so it cuts to the
// outermost brackets first.
func parseQuestionJSON(content string) ([]Question, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in provider reply")
	}
	var questions []Question
	if err := json.Unmarshal([]byte(content[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return questions, nil
}

// Service wraps a Provider and guarantees every call yields a complete,
// valid set: on any provider failure it substitutes the built-in fallback.
type Service struct {
	provider Provider
	timeout  time.Duration
}

// NewService creates a quiz generation service around the given provider.
func NewService(provider Provider, timeout time.Duration) *Service {
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &Service{provider: provider, timeout: timeout}
}

// Generate returns the themed question set, falling back to the static set
// when the provider errors out. Failures are logged, never propagated.
func (s *Service) Generate(ctx context.Context, theme Theme) []Question {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	questions, err := s.provider.GenerateQuestions(ctx, theme.Label())
	if err != nil {
		log.Warn().
			Err(err).
			Str("theme", string(theme)).
			Msg("question generation failed, using fallback set")
		return FallbackSet()
	}

	log.Info().
		Str("theme", string(theme)).
		Int("questions", len(questions)).
		Msg("question set generated")
	return questions
}
