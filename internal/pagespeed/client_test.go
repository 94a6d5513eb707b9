package pagespeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geacyber/cyberbot/internal/vendor"
)

const sampleBody = `{
  "id": "https://example.com/",
  "analysisUTCTimestamp": "2024-06-01T10:00:00.000Z",
  "lighthouseResult": {
    "categories": {
      "performance": {"id": "performance", "score": 0.42},
      "accessibility": {"id": "accessibility", "score": 0.97},
      "best-practices": {"id": "best-practices", "score": 1},
      "seo": {"id": "seo", "score": 0.9}
    },
    "audits": {
      "largest-contentful-paint": {"id": "largest-contentful-paint", "score": 0.2, "numericValue": 4100.7, "displayValue": "4.1 s"},
      "cumulative-layout-shift": {"id": "cumulative-layout-shift", "score": 0.99, "numericValue": 0.0123},
      "unused-javascript": {"id": "unused-javascript", "title": "Reduce unused JavaScript", "score": 0.3,
        "details": {"type": "opportunity", "overallSavingsMs": 900}},
      "dom-size": {"id": "dom-size", "title": "Avoid an excessive DOM size", "score": 0.4, "details": {"type": "table"}}
    }
  }
}`

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "https://example.com", q.Get("url"))
		assert.Equal(t, "desktop", q.Get("strategy"))
		assert.Equal(t, Categories, q["category"])
		assert.Equal(t, "k", q.Get("key"))
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	res, err := c.Analyze(context.Background(), "https://example.com", Desktop)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/", res.URL)
	assert.Equal(t, 42, res.Scores.Performance)
	assert.Equal(t, 4101, res.CoreWebVitals.LCP)
	assert.Equal(t, 0.012, res.CoreWebVitals.CLS)
	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, "unused-javascript", res.Opportunities[0].ID)
	require.Len(t, res.Diagnostics, 1)
}

func TestAuditDefaultsToMobile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mobile", r.URL.Query().Get("strategy"))
		assert.False(t, r.URL.Query().Has("key"))
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	rep, err := c.Audit(context.Background(), "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, Mobile, rep.Strategy)
	assert.Equal(t, RatingPoor, rep.Metrics.LargestContentfulPaint.Rating)
	require.Len(t, rep.Opportunities, 1)
	assert.Equal(t, "900ms", rep.Opportunities[0].Savings)
}

func TestInvalidURLNeverCallsVendor(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	for _, target := range []string{"example.com", "ftp://example.com", ""} {
		_, err := c.Analyze(context.Background(), target, Mobile)
		ve, ok := vendor.As(err)
		require.True(t, ok, target)
		assert.Equal(t, 400, ve.StatusCode)
	}
	assert.False(t, called)
}

func TestRateLimitMessageDependsOnKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Analyze(context.Background(), "https://example.com", Mobile)
	ve, _ := vendor.As(err)
	require.NotNil(t, ve)
	assert.Contains(t, ve.Message, "PAGESPEED_API_KEY")

	_, err = NewClient("k", WithBaseURL(srv.URL)).Analyze(context.Background(), "https://example.com", Mobile)
	ve, _ = vendor.As(err)
	require.NotNil(t, ve)
	assert.Equal(t, "PageSpeed API rate limit exceeded. Please try again later.", ve.Message)
	assert.Equal(t, 429, ve.HTTPStatus())
}

func TestBadRequestUsesVendorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Lighthouse returned error: FAILED_DOCUMENT_REQUEST"}}`))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	_, err := c.Analyze(context.Background(), "https://example.com", Mobile)
	ve, _ := vendor.As(err)
	require.NotNil(t, ve)
	assert.Equal(t, "Lighthouse returned error: FAILED_DOCUMENT_REQUEST", ve.Message)
	assert.NotNil(t, ve.DetailsValue())
}

func TestLimiterHonoursContext(t *testing.T) {
	c := NewClient("", WithRequestsPerMinute(1))
	require.NotNil(t, c.limiter)
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, "https://example.com", Mobile)
	ve, ok := vendor.As(err)
	require.True(t, ok)
	assert.Equal(t, vendor.KindTransport, ve.Kind)
}
