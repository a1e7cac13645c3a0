// Package govinfo provides a client for the GovInfo Congressional Record
// API plus the text-normalization helpers used on fetched speeches.
package govinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/commonground-hq/commonground/internal/resilience"
)

// Client defines the GovInfo operations used by speech ingestion.
type Client interface {
	// ListSpeechGranules returns every HOUSE and SENATE granule of the
	// Congressional Record for a date. A missing record (weekend, recess)
	// is a legitimate empty result, not an error.
	ListSpeechGranules(ctx context.Context, date time.Time) ([]GranuleSummary, error)
	// FetchGranuleHTML returns the full HTML text of one granule.
	FetchGranuleHTML(ctx context.Context, date time.Time, granuleID string) (string, error)
}

// GranuleSummary is one entry in a granule listing.
type GranuleSummary struct {
	GranuleID    string `json:"granuleId"`
	Title        string `json:"title"`
	DateIssued   string `json:"dateIssued"`
	Category     string `json:"category"`
	GranuleClass string `json:"granuleClass"` // HOUSE, SENATE, EXTENSIONS, DIGEST
}

type granuleListResponse struct {
	Count    int              `json:"count"`
	Offset   string           `json:"offset"`
	PageSize int              `json:"pageSize"`
	NextPage string           `json:"nextPage,omitempty"`
	Granules []GranuleSummary `json:"granules"`
}

// Option configures the GovInfo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryPolicy overrides the backoff used for transient failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates a GovInfo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.govinfo.gov",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetch performs one GET with retry on transient failures; the final
// status and body are returned for the caller to interpret.
func (c *httpClient) fetch(ctx context.Context, reqURL, op string) (int, []byte, error) {
	var status int
	var body []byte
	err := resilience.Do(ctx, c.retry, op, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return eris.Wrap(err, "govinfo: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "govinfo: request failed")
		}

		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return eris.Wrap(err, "govinfo: read response body")
		}

		status = resp.StatusCode
		if se := (&resilience.StatusError{Code: status, Body: string(body)}); se.Retryable() {
			return se
		}
		return nil
	})
	if err != nil {
		var se *resilience.StatusError
		if errors.As(err, &se) {
			// Retries exhausted; hand the final status back to the caller.
			return se.Code, []byte(se.Body), nil
		}
		return 0, nil, err
	}
	return status, body, nil
}

// packageID returns the Congressional Record package identifier for a date.
func packageID(date time.Time) string {
	return "CREC-" + date.Format("2006-01-02")
}

func (c *httpClient) ListSpeechGranules(ctx context.Context, date time.Time) ([]GranuleSummary, error) {
	var all []GranuleSummary
	offset := "*"

	for {
		reqURL := fmt.Sprintf("%s/packages/%s/granules?offsetMark=%s&pageSize=100&api_key=%s",
			c.baseURL, packageID(date), url.QueryEscape(offset), c.apiKey)

		status, body, err := c.fetch(ctx, reqURL, "govinfo.granules")
		if err != nil {
			return nil, err
		}

		// No Congressional Record published for this date.
		if status == http.StatusNotFound {
			return nil, nil
		}
		if status != http.StatusOK {
			return nil, eris.Errorf("govinfo: unexpected status %d: %s", status, string(body))
		}

		var page granuleListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, eris.Wrap(err, "govinfo: unmarshal granule list")
		}

		// Floor speeches only; EXTENSIONS and DIGEST sections are skipped.
		for _, g := range page.Granules {
			if g.GranuleClass == "HOUSE" || g.GranuleClass == "SENATE" {
				all = append(all, g)
			}
		}

		if page.NextPage == "" {
			break
		}
		next, err := url.Parse(page.NextPage)
		if err != nil {
			return nil, eris.Wrap(err, "govinfo: parse next page URL")
		}
		offset = next.Query().Get("offsetMark")
		if offset == "" {
			offset = "*"
		}
	}

	return all, nil
}

func (c *httpClient) FetchGranuleHTML(ctx context.Context, date time.Time, granuleID string) (string, error) {
	reqURL := fmt.Sprintf("%s/packages/%s/granules/%s/htm?api_key=%s",
		c.baseURL, packageID(date), granuleID, c.apiKey)

	status, body, err := c.fetch(ctx, reqURL, "govinfo.granule_html")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", eris.Errorf("govinfo: fetch granule %s: status %d", granuleID, status)
	}

	return string(body), nil
}
