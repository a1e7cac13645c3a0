package congress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/commonground-hq/commonground/internal/resilience"
)

func testClient(srvURL string) Client {
	return NewClient("test-key",
		WithBaseURL(srvURL),
		WithRateLimit(rate.Inf, 1),
		WithRetryPolicy(resilience.Policy{Attempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
}

func TestListRecentBills_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"bills": []any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListRecentBills(context.Background(), "119", "hr", 50)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListRecentBills_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bill/119/hr", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]any{
			"bills": []map[string]any{
				{
					"congress": 119,
					"type":     "HR",
					"number":   1234,
					"title":    "Lower Drug Costs Act",
					"latestAction": map[string]string{
						"actionDate": "2026-08-12",
						"text":       "Reported by the Committee on Energy and Commerce.",
					},
				},
			},
		})
	}))
	defer srv.Close()

	bills, err := testClient(srv.URL).ListRecentBills(context.Background(), "119", "hr", 50)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, 1234, bills[0].Number)
	assert.Equal(t, "Lower Drug Costs Act", bills[0].Title)
	require.NotNil(t, bills[0].LatestAction)
	assert.Contains(t, bills[0].LatestAction.Text, "Reported")
}

func TestListRecentBills_CapsLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "250", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]any{"bills": []any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListRecentBills(context.Background(), "119", "s", 999)
	require.NoError(t, err)
}

func TestListRecentBills_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListRecentBills(context.Background(), "119", "hr", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGetBillDetail_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bill/119/hr/1234", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"bill": map[string]any{
				"congress": 119,
				"type":     "HR",
				"number":   1234,
				"title":    "Lower Drug Costs Act",
				"sponsors": []map[string]string{
					{"bioguideId": "A000001", "fullName": "Rep. Alvarez", "party": "D", "state": "NM"},
				},
				"policyArea":   map[string]string{"name": "Health"},
				"latestAction": map[string]string{"actionDate": "2026-08-12", "text": "Passed House."},
			},
		})
	}))
	defer srv.Close()

	detail, err := testClient(srv.URL).GetBillDetail(context.Background(), "119", "hr", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Lower Drug Costs Act", detail.Title)
	require.Len(t, detail.Sponsors, 1)
	assert.Equal(t, "D", detail.Sponsors[0].Party)
	require.NotNil(t, detail.PolicyArea)
	assert.Equal(t, "Health", detail.PolicyArea.Name)
}

func TestGetBillCosponsors_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bill/119/hr/1234/cosponsors", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"cosponsors": []map[string]any{
				{"bioguideId": "B000002", "fullName": "Rep. Barnes", "party": "R", "state": "OH", "isOriginalCosponsor": true},
				{"bioguideId": "C000003", "fullName": "Rep. Chen", "party": "D", "state": "CA", "isOriginalCosponsor": false},
			},
		})
	}))
	defer srv.Close()

	cosponsors, err := testClient(srv.URL).GetBillCosponsors(context.Background(), "119", "hr", "1234")
	require.NoError(t, err)
	require.Len(t, cosponsors, 2)
	assert.Equal(t, "R", cosponsors[0].Party)
	assert.True(t, cosponsors[0].IsOriginalCosponsor)
}

func TestGetBillSubjects_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bill/119/hr/1234/subjects", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"legislativeSubjects": []map[string]string{
				{"name": "Prescription drugs"},
				{"name": "Health care costs and insurance"},
			},
			"policyArea": map[string]string{"name": "Health"},
		})
	}))
	defer srv.Close()

	subjects, err := testClient(srv.URL).GetBillSubjects(context.Background(), "119", "hr", "1234")
	require.NoError(t, err)
	require.Len(t, subjects.LegislativeSubjects, 2)
	assert.Equal(t, "Prescription drugs", subjects.LegislativeSubjects[0].Name)
	require.NotNil(t, subjects.PolicyArea)
	assert.Equal(t, "Health", subjects.PolicyArea.Name)
}
