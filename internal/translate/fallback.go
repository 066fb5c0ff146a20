package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const defaultFallbackModel = "x-ai/grok-4.1-fast:free"

// Fallback translates free text that the pattern rules could not handle.
// Implementations must honour the context deadline.
type Fallback interface {
	Translate(ctx context.Context, text string) (Query, error)
}

// LLMTranslator asks an OpenRouter-hosted model to produce a structured
// query. It makes exactly one attempt per call; retry policy belongs to
// the caller, which in practice degrades to the generic query instead.
type LLMTranslator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	calls atomic.Int64
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents the API request structure
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// NewLLMTranslator creates a new fallback translator
func NewLLMTranslator(apiKey, model, baseURL string, timeout time.Duration) *LLMTranslator {
	if model == "" {
		model = defaultFallbackModel
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	return &LLMTranslator{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Calls returns how many requests have been issued. Used to assert that
// the fallback stays idle when pattern matching succeeds.
func (t *LLMTranslator) Calls() int64 {
	return t.calls.Load()
}

// Translate sends the user text to the model and parses the returned
// JSON into a query.
func (t *LLMTranslator) Translate(ctx context.Context, text string) (Query, error) {
	t.calls.Add(1)

	body, err := json.Marshal(&Request{
		Model: t.model,
		Messages: []Message{
			{Role: "system", Content: buildFallbackPrompt()},
			{Role: "user", Content: text},
		},
		Stream: false,
	})
	if err != nil {
		return Query{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Query{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("X-Title", "Charge Finder")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return Query{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Query{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Query{}, fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return Query{}, fmt.Errorf("no choices in API response")
	}

	return parseQueryJSON(apiResp.Choices[0].Message.Content)
}

// buildFallbackPrompt creates the translation prompt
func buildFallbackPrompt() string {
	return `You translate Portuguese requests about EV charging stations into a JSON query.

Return ONLY a valid JSON object with this structure:

{
  "city": "lowercase city name without accents",
  "address": "street or place reference",
  "min_power_kw": integer,
  "max_price": "decimal string like 0.35",
  "only_available": true or false,
  "connector": "type2|chademo|ccs",
  "network": "mobie|galp|edp|tesla",
  "order_by": "price_asc|power_desc|composite",
  "limit": integer between 1 and 5
}

Omit every field that does not apply; order_by and limit are required.

RULES:
- Use "price_asc" when the user cares about cost, "power_desc" for speed, "composite" for both or for "melhor".
- Lowercase everything, strip accents (lisboa not Lisboa).
- Use limit 1 for a single best answer, 5 when the request is vague.
- No markdown formatting, no explanations, JSON only.`
}

// parseQueryJSON extracts and parses JSON from the model response
func parseQueryJSON(content string) (Query, error) {
	content = strings.TrimSpace(content)

	// Remove markdown code blocks if present
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Find JSON object boundaries
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return Query{}, fmt.Errorf("no valid JSON found in response")
	}

	var q Query
	if err := json.Unmarshal([]byte(content[start:end+1]), &q); err != nil {
		return Query{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if q.OrderBy == "" {
		q.OrderBy = OrderPriceAsc
	}
	if q.Limit <= 0 || q.Limit > DefaultGenericLimit {
		q.Limit = 1
	}
	return q, nil
}
