package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/entrhq/retrace/pkg/types"
	"github.com/openai/openai-go"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	systemPrompt = "You are a precise analysis engine. Always answer with exactly the JSON object requested, nothing else."
)

// Client implements Oracle against any OpenAI-compatible chat completions
// endpoint.
type Client struct {
	httpClient      *http.Client
	apiKey          string
	baseURL         string
	model           string
	maxPromptTokens int
	counter         *TokenCounter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel sets the model used for oracle calls.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithBaseURL points the client at a non-default OpenAI-compatible API. An
// empty value keeps the default, so hosts can pass an unset config field
// through without losing the OPENAI_BASE_URL fallback.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL == "" {
			return
		}
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMaxPromptTokens bounds the size of any single prompt.
func WithMaxPromptTokens(n int) ClientOption {
	return func(c *Client) { c.maxPromptTokens = n }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates an oracle client. If apiKey is empty it falls back to the
// OPENAI_API_KEY environment variable.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("oracle: API key is required (parameter or OPENAI_API_KEY)")
	}

	c := &Client{
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		apiKey:          apiKey,
		baseURL:         DefaultBaseURL,
		model:           "gpt-4o",
		maxPromptTokens: 6000,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == DefaultBaseURL {
		if env := os.Getenv("OPENAI_BASE_URL"); env != "" {
			c.baseURL = strings.TrimRight(env, "/")
		}
	}

	// Estimate mode is acceptable; an exact tokenizer is not worth failing
	// client construction over.
	counter, _ := NewTokenCounter()
	c.counter = counter

	return c, nil
}

// SessionBoundary implements Oracle.
func (c *Client) SessionBoundary(ctx context.Context, prev, curr *types.ContentAnalysis) (*BoundaryDecision, error) {
	prompt := fmt.Sprintf(boundaryPrompt, analysisDigest(prev), analysisDigest(curr))
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	decision, err := Decode[BoundaryDecision](raw)
	if err != nil {
		return nil, err
	}
	decision.Decision = strings.ToUpper(strings.TrimSpace(decision.Decision))
	if decision.Decision != "NEW" && decision.Decision != "SAME" {
		return nil, fmt.Errorf("oracle: unexpected boundary decision %q", decision.Decision)
	}
	return &decision, nil
}

// NameWorkflowTheme implements Oracle.
func (c *Client) NameWorkflowTheme(ctx context.Context, steps []string) (string, error) {
	prompt := fmt.Sprintf(themePrompt, strings.Join(steps, "\n"))
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	out, err := Decode[struct {
		Theme string `json:"theme"`
	}](raw)
	if err != nil {
		return "", err
	}
	theme := strings.TrimSpace(out.Theme)
	if theme == "" {
		return "", fmt.Errorf("oracle: empty theme")
	}
	return theme, nil
}

// SummarizeTopic implements Oracle.
func (c *Client) SummarizeTopic(ctx context.Context, category string, pages []string) (*TopicSummary, error) {
	prompt := fmt.Sprintf(topicPrompt, category, len(pages), strings.Join(pages, "\n---\n"))
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	summary, err := Decode[TopicSummary](raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary.Summary) == "" {
		return nil, fmt.Errorf("oracle: empty topic summary")
	}
	if len(summary.Insights) > 3 {
		summary.Insights = summary.Insights[:3]
	}
	return &summary, nil
}

// AnalyzeCompletion implements Oracle.
func (c *Client) AnalyzeCompletion(ctx context.Context, session *types.BrowsingSession) (*CompletionAnalysis, error) {
	prompt := fmt.Sprintf(completionPrompt, sessionDigest(session))
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	analysis, err := Decode[CompletionAnalysis](raw)
	if err != nil {
		return nil, err
	}
	if analysis.CompletionScore < 0 || analysis.CompletionScore > 1 {
		return nil, fmt.Errorf("oracle: completion score %v out of range", analysis.CompletionScore)
	}
	return &analysis, nil
}

// ConfirmRelatedness implements Oracle.
func (c *Client) ConfirmRelatedness(ctx context.Context, intent string, session *types.BrowsingSession) (*RelatednessDecision, error) {
	prompt := fmt.Sprintf(relatednessPrompt, intent, sessionDigest(session))
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	decision, err := Decode[RelatednessDecision](raw)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// complete sends one chat completion request and returns the raw assistant
// content. Prompts are truncated to the configured token budget first.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	prompt = c.counter.Truncate(prompt, c.maxPromptTokens)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(prompt),
	}
	reqBody := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"temperature": 0.2,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("oracle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("oracle: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oracle: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle: API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("oracle: decode response envelope: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("oracle: empty choices in response")
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("oracle: empty content in response")
	}
	return content, nil
}

// analysisDigest flattens a content analysis into prompt text.
func analysisDigest(a *types.ContentAnalysis) string {
	if a == nil {
		return "(no analysis)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\n", a.URL)
	fmt.Fprintf(&sb, "Category: %s", a.Category)
	if a.Subcategory != "" {
		fmt.Fprintf(&sb, " / %s", a.Subcategory)
	}
	if a.Brand != "" {
		fmt.Fprintf(&sb, " (%s)", a.Brand)
	}
	sb.WriteByte('\n')
	if a.PageDescription != "" {
		fmt.Fprintf(&sb, "Description: %s\n", a.PageDescription)
	}
	return strings.TrimSpace(sb.String())
}

// sessionDigest flattens a session into prompt text: the visited pages in
// order with their analyses where present.
func sessionDigest(s *types.BrowsingSession) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Duration: %s, %d activities\n", s.Duration.Round(time.Second), len(s.Activities))
	for i := range s.Activities {
		ea := &s.Activities[i]
		fmt.Fprintf(&sb, "%d. %s", i+1, ea.URL())
		if title := ea.Activity.Title(); title != "" {
			fmt.Fprintf(&sb, " (%s)", title)
		}
		sb.WriteByte('\n')
		if ea.Analysis != nil && ea.Analysis.PageDescription != "" {
			fmt.Fprintf(&sb, "   %s\n", ea.Analysis.PageDescription)
		}
	}
	return strings.TrimSpace(sb.String())
}
