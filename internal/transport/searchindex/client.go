// Package searchindex is the client for the hosted search index: an
// eventually-consistent, denormalized projection of writer records optimized
// for free-text lookup. The store remains authoritative; every failure here
// is soft and callers fall back to it.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/repertoire/internal/domain"
	domwriter "github.com/kailas-cloud/repertoire/internal/domain/writer"
	"github.com/kailas-cloud/repertoire/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Config holds the search index connection settings. SearchKey is a
// search-only credential: it cannot write to or delete from the index.
type Config struct {
	Endpoint  string
	Index     string
	SearchKey string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client queries the hosted search index over HTTP.
type Client struct {
	httpClient *http.Client
	endpoint   string
	index      string
	searchKey  string
	logger     *zap.Logger
}

// NewClient creates a search index client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		index:      cfg.Index,
		searchKey:  cfg.SearchKey,
		logger:     logger,
	}
}

type queryRequest struct {
	Query                string   `json:"query"`
	Page                 int      `json:"page"`
	HitsPerPage          int      `json:"hitsPerPage"`
	AttributesToRetrieve []string `json:"attributesToRetrieve"`
}

type hit struct {
	ObjectID    string `json:"objectID"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Affiliation string `json:"affiliation"`
	IPI         string `json:"ipi"`
	Email       string `json:"email"`
	CreatedAt   string `json:"created_at"`
	Active      bool   `json:"active"`
}

type queryResponse struct {
	Hits   []hit `json:"hits"`
	NbHits int   `json:"nbHits"`
}

var retrievedAttributes = []string{
	"objectID", "first_name", "last_name", "affiliation", "ipi", "email", "created_at", "active",
}

// Search queries the index. A blank query returns (nil, nil): no search
// performed, the caller should list from the store instead. Any transport or
// non-2xx failure returns an error wrapping domain.ErrIndexUnavailable.
// page is 1-based; the index wire format is 0-based.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (*domwriter.Page, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	if page < 1 {
		page = 1
	}

	body, err := json.Marshal(queryRequest{
		Query:                trimmed,
		Page:                 page - 1,
		HitsPerPage:          pageSize,
		AttributesToRetrieve: retrievedAttributes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal index query: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/query", c.endpoint, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Search-Key", c.searchKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IndexRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("index query: %v: %w", err, domain.ErrIndexUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.IndexRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log line, then discard.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("search index returned non-success",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail),
		)
		return nil, fmt.Errorf("index query status %d: %w", resp.StatusCode, domain.ErrIndexUnavailable)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode index response: %v: %w", err, domain.ErrIndexUnavailable)
	}

	writers := make([]domwriter.Writer, 0, len(qr.Hits))
	for _, h := range qr.Hits {
		writers = append(writers, hitToWriter(h))
	}
	return &domwriter.Page{Writers: writers, Total: qr.NbHits}, nil
}

// HealthCheck probes index reachability via the index settings endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/indexes/%s", c.endpoint, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build index health request: %w", err)
	}
	req.Header.Set("X-Search-Key", c.searchKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("index health status %d: %w", resp.StatusCode, domain.ErrIndexUnavailable)
	}
	return nil
}

// hitToWriter converts a denormalized index hit into a domain writer.
// Hits are projections: a malformed created_at degrades to zero time.
func hitToWriter(h hit) domwriter.Writer {
	createdAt, _ := time.Parse(time.RFC3339, h.CreatedAt)
	return domwriter.Reconstruct(h.ObjectID, domwriter.Fields{
		FirstName:   h.FirstName,
		LastName:    h.LastName,
		Affiliation: h.Affiliation,
		IPI:         h.IPI,
		Email:       h.Email,
		Active:      h.Active,
	}, createdAt)
}
