package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

var (
	// ErrLLMUnavailable means no synthesizer call could be completed.
	ErrLLMUnavailable = errors.New("llm unavailable")
	// ErrMalformedAnalysis means the model answered with something that is not a valid analysis.
	ErrMalformedAnalysis = errors.New("malformed analysis")
)

const (
	defaultChatModel   = "gpt-4-turbo-preview"
	defaultLLMTimeout  = 20 * time.Second
	synthesisTemp      = 0.3
	synthesisMaxTokens = 1000
)

// OpenAISynthesizer turns prompts into analyses through the chat completions API.
type OpenAISynthesizer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// NewOpenAISynthesizer creates a synthesizer. Empty values fall back to the defaults.
func NewOpenAISynthesizer(apiKey, baseURL, model string, timeout time.Duration) (*OpenAISynthesizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultChatModel
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &OpenAISynthesizer{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Synthesize sends both prompts and parses the JSON answer.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, systemPrompt, userPrompt string) (*types.RAGAnalysis, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    synthesisTemp,
		MaxTokens:      synthesisMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrLLMUnavailable, resp.StatusCode, strings.TrimSpace(string(preview)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrMalformedAnalysis, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedAnalysis)
	}
	return ParseAnalysis(parsed.Choices[0].Message.Content)
}

// rawAnalysis accepts both the snake_case keys the prompt asks for and the
// camelCase keys of the response type.
type rawAnalysis struct {
	Suitability            string           `json:"suitability"`
	Score                  json.RawMessage  `json:"score"`
	Recommendations        []string         `json:"recommendations"`
	Alternatives           []rawAlternative `json:"alternatives"`
	NutritionalAdvice      string           `json:"nutritional_advice"`
	NutritionalAdviceCamel string           `json:"nutritionalAdvice"`
}

type rawAlternative struct {
	ProductName      string `json:"product_name"`
	ProductNameCamel string `json:"productName"`
	Reason           string `json:"reason"`
}

// ParseAnalysis parses a model answer, tolerating markdown fences and a score
// sent as a string. Anything that would break the verdict invariants is
// rejected with ErrMalformedAnalysis.
func ParseAnalysis(content string) (*types.RAGAnalysis, error) {
	content = stripCodeFence(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedAnalysis)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}

	suitability := types.Suitability(strings.ToLower(strings.TrimSpace(raw.Suitability)))
	if !suitability.Valid() {
		return nil, fmt.Errorf("%w: unknown suitability %q", ErrMalformedAnalysis, raw.Suitability)
	}
	score, err := parseScore(raw.Score)
	if err != nil {
		return nil, err
	}

	out := &types.RAGAnalysis{
		Suitability:       suitability,
		Score:             score,
		Recommendations:   raw.Recommendations,
		Alternatives:      make([]types.Alternative, 0, len(raw.Alternatives)),
		NutritionalAdvice: firstNonBlank(raw.NutritionalAdvice, raw.NutritionalAdviceCamel),
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	for _, alt := range raw.Alternatives {
		out.Alternatives = append(out.Alternatives, types.Alternative{
			ProductName: firstNonBlank(alt.ProductName, alt.ProductNameCamel),
			Reason:      alt.Reason,
		})
	}
	return out, nil
}

func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("%w: missing score", ErrMalformedAnalysis)
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("%w: invalid score", ErrMalformedAnalysis)
		}
		value, err = strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid score %q", ErrMalformedAnalysis, str)
		}
	}
	if math.IsNaN(value) || value < 0 || value > 100 {
		return 0, fmt.Errorf("%w: score %v out of range", ErrMalformedAnalysis, value)
	}
	return int(math.Round(value)), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
