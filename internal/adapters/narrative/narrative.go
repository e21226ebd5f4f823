// Package narrative turns a finished plan into prose via an OpenAI-compatible
// chat completions endpoint. Every public method degrades to a deterministic
// template when the endpoint is unreachable, so report generation never fails
// on network trouble.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"girder/internal/domain/plan"
	"girder/internal/project"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second

	completionsPath = "/v1/chat/completions"
)

// Usage accumulates token spend across all requests made by a Client.
type Usage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the endpoint base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModel sets the model identifier sent with each request.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAPIKey sets the bearer token for authenticated endpoints.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(lg logger.Logger) Option {
	return func(c *Client) {
		if lg != nil {
			c.logger = lg
		}
	}
}

// Client generates plan narratives.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger

	mu    sync.Mutex
	usage Usage
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("narrative"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Usage returns the accumulated token usage.
func (c *Client) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// ExecutiveSummary produces a short overview of the plan. On endpoint
// failure it returns a template built from the plan figures.
func (c *Client) ExecutiveSummary(ctx context.Context, def *project.Definition, result *plan.Result) string {
	prompt := fmt.Sprintf(
		"Write a three paragraph executive summary for the project plan %q. "+
			"It schedules %d activities across %d resources, completes on %s against a deadline of %s (%s), "+
			"and costs %.2f against a budget of %.2f (%s). Critical path activities: %v. "+
			"Be factual and concise; do not invent numbers.",
		result.ProjectName, result.Activities, result.ResourcesUsed,
		formatDate(result.Completion), formatDate(result.Deadline), result.TimelineStatus,
		result.TotalCost, result.BudgetLimit, result.BudgetStatus, result.CriticalPath,
	)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Warn(ctx, "narrative endpoint unavailable, using template summary", logger.Error(err))
		return c.fallbackSummary(def, result)
	}
	return text
}

// Conclusions produces closing remarks and recommendations for the plan.
func (c *Client) Conclusions(ctx context.Context, def *project.Definition, result *plan.Result) string {
	mitigation := "no mitigation strategy was selected"
	if result.Risks.Strategy != nil {
		mitigation = fmt.Sprintf(
			"the selected mitigation strategy costs %.2f and yields an expected benefit of %.2f",
			result.Risks.Strategy.TotalCost, result.Risks.Strategy.ExpectedReduction,
		)
	}
	prompt := fmt.Sprintf(
		"Write the conclusions section for the project plan %q. "+
			"Completion is %s (%s, buffer %d days); total cost %.2f (%s); %s. "+
			"Expected risk exposure is %.2f before mitigation and %.2f after. "+
			"Offer two or three concrete recommendations. Be factual; do not invent numbers.",
		result.ProjectName,
		formatDate(result.Completion), result.TimelineStatus, result.BufferDays,
		result.TotalCost, result.BudgetStatus, mitigation,
		result.Risks.ExpectedValue.Cost, result.Risks.Residual.Cost,
	)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Warn(ctx, "narrative endpoint unavailable, using template conclusions", logger.Error(err))
		return c.fallbackConclusions(def, result)
	}
	return text
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordNarrativeRequest("error")
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RecordNarrativeRequest("error")
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordNarrativeRequest("error")
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.RecordNarrativeRequest("error")
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		metrics.RecordNarrativeRequest("error")
		return "", fmt.Errorf("chat endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		metrics.RecordNarrativeRequest("error")
		return "", fmt.Errorf("chat response had no choices")
	}

	c.mu.Lock()
	c.usage.Requests++
	c.usage.InputTokens += parsed.Usage.PromptTokens
	c.usage.OutputTokens += parsed.Usage.CompletionTokens
	c.mu.Unlock()

	metrics.RecordNarrativeRequest("ok")
	metrics.RecordNarrativeTokens("input", parsed.Usage.PromptTokens)
	metrics.RecordNarrativeTokens("output", parsed.Usage.CompletionTokens)

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *Client) fallbackSummary(def *project.Definition, result *plan.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The plan for %q schedules %d activities using %d resources.\n",
		result.ProjectName, result.Activities, result.ResourcesUsed)
	fmt.Fprintf(&b, "Work completes on %s against a deadline of %s; the project is %s with a buffer of %d days.\n",
		formatDate(result.Completion), formatDate(result.Deadline), result.TimelineStatus, result.BufferDays)
	fmt.Fprintf(&b, "The total cost is %.2f against a limit of %.2f including reserve; the project is %s.\n",
		result.TotalCost, result.BudgetLimit, result.BudgetStatus)
	if len(result.CriticalPath) > 0 {
		fmt.Fprintf(&b, "Critical path activities: %v.\n", result.CriticalPath)
	}
	if len(result.Unscheduled) > 0 {
		fmt.Fprintf(&b, "Warning: activities %v could not be scheduled because their dependencies never resolve.\n", result.Unscheduled)
	}
	return b.String()
}

func (c *Client) fallbackConclusions(def *project.Definition, result *plan.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Expected risk exposure is %.2f before mitigation and %.2f after.\n",
		result.Risks.ExpectedValue.Cost, result.Risks.Residual.Cost)
	if result.Risks.Strategy != nil {
		fmt.Fprintf(&b, "The selected mitigation strategy costs %.2f for a net benefit of %.2f.\n",
			result.Risks.Strategy.TotalCost, result.Risks.Strategy.NetBenefit)
	} else {
		b.WriteString("No mitigation strategy fits the available budget; all risks are carried unmitigated.\n")
	}
	switch result.TimelineStatus {
	case plan.StatusDelayed:
		fmt.Fprintf(&b, "The plan misses the deadline by %d days; consider adding capacity on the critical path.\n", -result.BufferDays)
	default:
		fmt.Fprintf(&b, "The schedule holds %d days of buffer before the deadline.\n", result.BufferDays)
	}
	if result.BudgetStatus == plan.StatusOverBudget {
		fmt.Fprintf(&b, "Costs exceed the reserve-adjusted budget of %.2f; review resource rates and mitigation spend.\n", result.BudgetLimit)
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unscheduled"
	}
	return t.Format("2006-01-02")
}
