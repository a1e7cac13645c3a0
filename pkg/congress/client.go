// Package congress provides a client for the congress.gov v3 bill API and
// the deterministic bill scoring helpers built on top of it.
package congress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/commonground-hq/commonground/internal/resilience"
)

// Client defines the congress.gov operations used by the bill sync flow.
type Client interface {
	// ListRecentBills returns recent bills of one type sorted by update
	// date, newest first.
	ListRecentBills(ctx context.Context, congress, billType string, limit int) ([]BillListItem, error)
	// GetBillDetail returns full detail for a single bill.
	GetBillDetail(ctx context.Context, congress, billType, number string) (*BillDetail, error)
	// GetBillCosponsors returns the cosponsor roster for a bill.
	GetBillCosponsors(ctx context.Context, congress, billType, number string) ([]Cosponsor, error)
	// GetBillSubjects returns the legislative subjects and policy area for a bill.
	GetBillSubjects(ctx context.Context, congress, billType, number string) (*BillSubjects, error)
}

// LatestAction is a bill's most recent recorded legislative action.
type LatestAction struct {
	ActionDate string `json:"actionDate"`
	Text       string `json:"text"`
}

// BillListItem is one entry in a bill listing response.
type BillListItem struct {
	Congress     int           `json:"congress"`
	Type         string        `json:"type"`
	Number       int           `json:"number"`
	Title        string        `json:"title"`
	LatestAction *LatestAction `json:"latestAction,omitempty"`
	URL          string        `json:"url"`
}

// Sponsor identifies a bill's sponsor.
type Sponsor struct {
	BioguideID string `json:"bioguideId"`
	FullName   string `json:"fullName"`
	Party      string `json:"party"`
	State      string `json:"state"`
}

// BillDetail is the full detail record for a bill.
type BillDetail struct {
	Congress       int           `json:"congress"`
	Type           string        `json:"type"`
	Number         int           `json:"number"`
	OriginChamber  string        `json:"originChamber"`
	Title          string        `json:"title"`
	IntroducedDate string        `json:"introducedDate"`
	Sponsors       []Sponsor     `json:"sponsors"`
	PolicyArea     *NamedItem    `json:"policyArea,omitempty"`
	LatestAction   *LatestAction `json:"latestAction,omitempty"`
}

// NamedItem is a {name} wrapper used throughout the congress.gov API.
type NamedItem struct {
	Name string `json:"name"`
}

// Cosponsor is one entry in a bill's cosponsor roster.
type Cosponsor struct {
	BioguideID          string `json:"bioguideId"`
	FullName            string `json:"fullName"`
	Party               string `json:"party"`
	State               string `json:"state"`
	SponsorshipDate     string `json:"sponsorshipDate"`
	IsOriginalCosponsor bool   `json:"isOriginalCosponsor"`
}

// BillSubjects holds a bill's legislative subjects and policy area.
type BillSubjects struct {
	LegislativeSubjects []NamedItem `json:"legislativeSubjects"`
	PolicyArea          *NamedItem  `json:"policyArea,omitempty"`
}

// Option configures the congress.gov client.
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

// WithRateLimit overrides the request pacing. congress.gov asks clients to
// stay rate-considerate, so the default allows ten requests per second.
func WithRateLimit(l rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(l, burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a congress.gov API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.congress.gov/v3",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		retry:   resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, url string, out any) error {
	err := resilience.Do(ctx, c.retry, "congress.get", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "congress: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrap(err, "congress: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "congress: request failed")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "congress: read response body")
		}

		if resp.StatusCode != http.StatusOK {
			return &resilience.StatusError{Code: resp.StatusCode, Body: string(body)}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrap(err, "congress: unmarshal response")
		}
		return nil
	})
	if err != nil {
		var se *resilience.StatusError
		if errors.As(err, &se) {
			return eris.Wrap(err, "congress: request failed")
		}
		return err
	}
	return nil
}

func (c *httpClient) ListRecentBills(ctx context.Context, congress, billType string, limit int) ([]BillListItem, error) {
	if limit > 250 {
		limit = 250
	}
	url := fmt.Sprintf("%s/bill/%s/%s?api_key=%s&limit=%d&sort=updateDate+desc",
		c.baseURL, congress, billType, c.apiKey, limit)

	var result struct {
		Bills []BillListItem `json:"bills"`
	}
	if err := c.get(ctx, url, &result); err != nil {
		return nil, eris.Wrapf(err, "congress: list %s bills", billType)
	}
	return result.Bills, nil
}

func (c *httpClient) GetBillDetail(ctx context.Context, congress, billType, number string) (*BillDetail, error) {
	url := fmt.Sprintf("%s/bill/%s/%s/%s?api_key=%s", c.baseURL, congress, billType, number, c.apiKey)

	var result struct {
		Bill BillDetail `json:"bill"`
	}
	if err := c.get(ctx, url, &result); err != nil {
		return nil, eris.Wrapf(err, "congress: bill detail %s-%s", billType, number)
	}
	return &result.Bill, nil
}

func (c *httpClient) GetBillCosponsors(ctx context.Context, congress, billType, number string) ([]Cosponsor, error) {
	url := fmt.Sprintf("%s/bill/%s/%s/%s/cosponsors?api_key=%s&limit=250",
		c.baseURL, congress, billType, number, c.apiKey)

	var result struct {
		Cosponsors []Cosponsor `json:"cosponsors"`
	}
	if err := c.get(ctx, url, &result); err != nil {
		return nil, eris.Wrapf(err, "congress: cosponsors %s-%s", billType, number)
	}
	return result.Cosponsors, nil
}

func (c *httpClient) GetBillSubjects(ctx context.Context, congress, billType, number string) (*BillSubjects, error) {
	url := fmt.Sprintf("%s/bill/%s/%s/%s/subjects?api_key=%s", c.baseURL, congress, billType, number, c.apiKey)

	var result BillSubjects
	if err := c.get(ctx, url, &result); err != nil {
		return nil, eris.Wrapf(err, "congress: subjects %s-%s", billType, number)
	}
	return &result, nil
}
