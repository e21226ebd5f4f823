// Package biblio fetches bibliography entries for report appendices from a
// Crossref-compatible works endpoint. Lookups are best-effort: when the
// endpoint is unreachable a curated static list is returned instead.
package biblio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"girder/pkg/logger"
)

const (
	defaultBaseURL = "https://api.crossref.org"
	defaultRows    = 3
	defaultTimeout = 30 * time.Second
)

// Reference is one bibliography entry.
type Reference struct {
	Title   string
	Authors string
	Venue   string
	Year    int
	DOI     string
}

// String renders the reference in a citation-like single line.
func (r Reference) String() string {
	parts := make([]string, 0, 4)
	if r.Authors != "" {
		parts = append(parts, r.Authors)
	}
	if r.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", r.Year))
	}
	parts = append(parts, r.Title)
	if r.Venue != "" {
		parts = append(parts, r.Venue)
	}
	line := strings.Join(parts, ". ")
	if r.DOI != "" {
		line += ". doi:" + r.DOI
	}
	return line
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

// WithRows sets how many works each query requests.
func WithRows(rows int) Option {
	return func(c *Client) {
		if rows > 0 {
			c.rows = rows
		}
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

// Client queries the works endpoint.
type Client struct {
	baseURL    string
	rows       int
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		rows:       defaultRows,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("biblio"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type worksResponse struct {
	Message struct {
		Items []struct {
			Title          []string `json:"title"`
			ContainerTitle []string `json:"container-title"`
			DOI            string   `json:"DOI"`
			Author         []struct {
				Given  string `json:"given"`
				Family string `json:"family"`
			} `json:"author"`
			Issued struct {
				DateParts [][]int `json:"date-parts"`
			} `json:"issued"`
		} `json:"items"`
	} `json:"message"`
}

// Search queries the endpoint for works matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Reference, error) {
	endpoint := fmt.Sprintf("%s/works?query=%s&rows=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(c.rows))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build works request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("works request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read works response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("works endpoint returned %d", resp.StatusCode)
	}

	var parsed worksResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode works response: %w", err)
	}

	refs := make([]Reference, 0, len(parsed.Message.Items))
	for _, item := range parsed.Message.Items {
		ref := Reference{DOI: item.DOI}
		if len(item.Title) > 0 {
			ref.Title = item.Title[0]
		}
		if len(item.ContainerTitle) > 0 {
			ref.Venue = item.ContainerTitle[0]
		}
		names := make([]string, 0, len(item.Author))
		for _, a := range item.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name != "" {
				names = append(names, name)
			}
		}
		ref.Authors = strings.Join(names, ", ")
		if parts := item.Issued.DateParts; len(parts) > 0 && len(parts[0]) > 0 {
			ref.Year = parts[0][0]
		}
		if ref.Title != "" {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// Gather collects references for every topic, falling back to the static
// list when all lookups fail or return nothing.
func (c *Client) Gather(ctx context.Context, topics []string) []Reference {
	var refs []Reference
	for _, topic := range topics {
		found, err := c.Search(ctx, topic)
		if err != nil {
			c.logger.Warn(ctx, "bibliography lookup failed",
				logger.String("topic", topic), logger.Error(err))
			continue
		}
		refs = append(refs, found...)
	}
	if len(refs) == 0 {
		c.logger.Info(ctx, "using static bibliography")
		return fallbackReferences()
	}
	return refs
}

func fallbackReferences() []Reference {
	return []Reference{
		{
			Title:   "A Guide to the Project Management Body of Knowledge (PMBOK Guide)",
			Authors: "Project Management Institute",
			Year:    2021,
		},
		{
			Title:   "Critical Path Planning and Scheduling",
			Authors: "James E. Kelley, Morgan R. Walker",
			Venue:   "Proceedings of the Eastern Joint Computer Conference",
			Year:    1959,
		},
		{
			Title:   "Project Management: A Systems Approach to Planning, Scheduling, and Controlling",
			Authors: "Harold Kerzner",
			Year:    2017,
		},
	}
}
