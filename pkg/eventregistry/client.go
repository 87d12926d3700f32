// Package eventregistry provides a client for the Event Registry analytics
// named-entity recognition endpoint.
package eventregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/sells-group/coverage-cli/internal/resilience"
)

// DefaultBaseURL is the public analytics API root.
const DefaultBaseURL = "https://analytics.eventregistry.org/api/v1"

// Client defines the analytics operations.
type Client interface {
	// NER extracts named entities from text.
	NER(ctx context.Context, text string) ([]Entity, error)
}

// Entity is one recognized span. Label is the canonical name when the
// service provides one; Text is the surface form.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

// Name returns the label, falling back to the surface text.
func (e Entity) Name() string {
	if l := strings.TrimSpace(e.Label); l != "" {
		return l
	}
	return strings.TrimSpace(e.Text)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithBreaker routes calls through a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
	breaker *resilience.Breaker
	timeout time.Duration
}

// NewClient creates a new analytics client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.DefaultPolicy(),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.LogRetries("eventregistry")
	}
	return c
}

type nerRequest struct {
	Text   string `json:"text"`
	APIKey string `json:"apiKey"`
}

// NER posts text to {baseURL}/ner. Transient failures are retried; an open
// breaker fails fast with resilience.ErrOpen.
func (c *httpClient) NER(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	body, err := json.Marshal(nerRequest{Text: text, APIKey: c.apiKey})
	if err != nil {
		return nil, eris.Wrap(err, "eventregistry: marshal ner request")
	}

	return resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]Entity, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]Entity, error) {
			return c.nerOnce(ctx, body)
		})
	})
}

func (c *httpClient) nerOnce(ctx context.Context, body []byte) ([]Entity, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "eventregistry: rate limit wait")
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ner", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "eventregistry: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "eventregistry: ner request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "eventregistry: read response"), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("eventregistry: ner status %d: %s", resp.StatusCode, truncate(string(raw), 200))
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}
	return parseEntities(raw)
}

// parseEntities accepts {"entities":[...]} or a list whose first element
// has that shape. Entries that are not objects are skipped.
func parseEntities(raw []byte) ([]Entity, error) {
	if !gjson.ValidBytes(raw) {
		return nil, eris.New("eventregistry: invalid ner response")
	}
	root := gjson.ParseBytes(raw)
	if root.IsArray() {
		root = root.Get("0")
	}
	if errMsg := root.Get("error"); errMsg.Exists() && errMsg.String() != "" {
		return nil, eris.Errorf("eventregistry: ner error: %s", errMsg.String())
	}

	var out []Entity
	for _, e := range root.Get("entities").Array() {
		if !e.IsObject() {
			continue
		}
		out = append(out, Entity{
			Label: e.Get("label").String(),
			Text:  e.Get("text").String(),
			Type:  e.Get("type").String(),
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
