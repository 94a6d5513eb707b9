package pagespeed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestNormalizeScoresRounding(t *testing.T) {
	s := NormalizeScores(map[string]Category{
		"performance":    {Score: f(0.42)},
		"accessibility":  {Score: f(0.005)},
		"best-practices": {Score: f(1)},
	})
	assert.Equal(t, 42, s.Performance)
	assert.Equal(t, 1, s.Accessibility)
	assert.Equal(t, 100, s.BestPractices)
	assert.Equal(t, 0, s.SEO, "missing category scores 0")
}

func TestNormalizeVitals(t *testing.T) {
	v := NormalizeVitals(map[string]RawAudit{
		"largest-contentful-paint": {NumericValue: f(2499.5)},
		"max-potential-fid":        {NumericValue: f(120.2)},
		"cumulative-layout-shift":  {NumericValue: f(0.123456)},
		"first-contentful-paint":   {NumericValue: f(900)},
	})
	assert.Equal(t, CoreWebVitals{LCP: 2500, FID: 120, CLS: 0.123, FCP: 900, TTFB: 0}, v)
}

func TestWorstAuditsFiltersSortsAndCaps(t *testing.T) {
	audits := map[string]RawAudit{
		"perfect":    {ID: "perfect", Score: f(1), Details: &AuditDetails{Type: "opportunity"}},
		"unscored":   {ID: "unscored", Details: &AuditDetails{Type: "opportunity"}},
		"table-only": {ID: "table-only", Score: f(0), Details: &AuditDetails{Type: "table"}},
	}
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("opp-%d", i)
		audits[id] = RawAudit{ID: id, Score: f(float64(7-i) / 10), Details: &AuditDetails{Type: "opportunity"}}
	}

	items := worstAudits(audits, "opportunity")
	require.Len(t, items, 5)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Score, items[i].Score)
	}
	assert.Equal(t, "opp-6", items[0].ID)
	for _, it := range items {
		assert.NotEqual(t, "perfect", it.ID)
		assert.NotEqual(t, "unscored", it.ID)
		assert.NotEqual(t, "table-only", it.ID)
	}

	diag := worstAudits(audits, "table")
	require.Len(t, diag, 1)
	assert.Equal(t, "table-only", diag[0].ID)
}

func TestNormalize(t *testing.T) {
	r := Normalize(&Response{
		ID:                   "https://example.com/",
		AnalysisUTCTimestamp: "2024-06-01T00:00:00Z",
		LighthouseResult: LighthouseResult{
			Categories: map[string]Category{"performance": {Score: f(0.91)}},
		},
	}, Desktop)

	assert.Equal(t, "https://example.com/", r.URL)
	assert.Equal(t, Desktop, r.Strategy)
	assert.Equal(t, 91, r.Scores.Performance)
	assert.NotNil(t, r.Opportunities)
	assert.NotNil(t, r.Diagnostics)
}

func TestParseStrategy(t *testing.T) {
	s, ok := ParseStrategy("")
	assert.True(t, ok)
	assert.Equal(t, Mobile, s)

	s, ok = ParseStrategy("desktop")
	assert.True(t, ok)
	assert.Equal(t, Desktop, s)

	_, ok = ParseStrategy("tablet")
	assert.False(t, ok)
}
