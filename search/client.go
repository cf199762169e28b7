// Package search implements the client for the external data-lookup
// provider. The provider returns, per source database, a list of field maps;
// everything else in its response is discarded.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Record is one result entry: field name to display value
type Record map[string]string

// Source groups the records returned by one source database
type Source struct {
	Name    string
	Records []Record
}

// Provider is the lookup interface the dispatcher depends on
type Provider interface {
	Lookup(ctx context.Context, query string) ([]Source, error)
}

const (
	defaultLimit   = 300
	defaultLang    = "en"
	requestTimeout = 30 * time.Second
)

// Client calls the lookup provider over HTTP
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a provider client with a bounded request timeout
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type lookupRequest struct {
	Token   string `json:"token"`
	Request string `json:"request"`
	Limit   int    `json:"limit"`
	Lang    string `json:"lang"`
}

type lookupResponse struct {
	ErrorCode json.RawMessage `json:"Error code"`
	List      map[string]struct {
		Data []map[string]any `json:"Data"`
	} `json:"List"`
}

// Lookup queries the provider. Only the first line of the query is sent.
// Sources come back sorted by name so page order is stable.
func (c *Client) Lookup(ctx context.Context, query string) ([]Source, error) {
	cleaned := strings.TrimSpace(strings.SplitN(query, "\n", 2)[0])

	body, err := json.Marshal(lookupRequest{
		Token:   c.token,
		Request: cleaned,
		Limit:   defaultLimit,
		Lang:    defaultLang,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup request failed: HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup response: %w", err)
	}

	var payload lookupResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	if len(payload.ErrorCode) > 0 && string(payload.ErrorCode) != "null" {
		return nil, fmt.Errorf("lookup provider error: %s", payload.ErrorCode)
	}

	if payload.List == nil {
		return nil, fmt.Errorf("lookup response missing result list")
	}

	names := make([]string, 0, len(payload.List))
	for name := range payload.List {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		entry := payload.List[name]
		records := make([]Record, 0, len(entry.Data))
		for _, data := range entry.Data {
			record := make(Record, len(data))
			for field, value := range data {
				record[field] = fmt.Sprint(value)
			}
			records = append(records, record)
		}
		sources = append(sources, Source{Name: name, Records: records})
	}

	return sources, nil
}
