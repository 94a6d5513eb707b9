package pagespeed

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// maxAuditItems caps the opportunities and diagnostics in a Result.
const maxAuditItems = 5

// roundHalfUp rounds .5 toward +Inf, matching the vendor's own dashboards.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

func categoryScore(cats map[string]Category, id string) int {
	c, ok := cats[id]
	if !ok || c.Score == nil {
		return 0
	}
	return roundHalfUp(*c.Score * 100)
}

// NormalizeScores converts 0-1 category scores to integers 0-100. A missing
// category scores 0.
func NormalizeScores(cats map[string]Category) Scores {
	return Scores{
		Performance:   categoryScore(cats, "performance"),
		Accessibility: categoryScore(cats, "accessibility"),
		BestPractices: categoryScore(cats, "best-practices"),
		SEO:           categoryScore(cats, "seo"),
	}
}

func numericValue(audits map[string]RawAudit, id string) float64 {
	a, ok := audits[id]
	if !ok || a.NumericValue == nil {
		return 0
	}
	return *a.NumericValue
}

// NormalizeVitals extracts the core web vitals. FID is approximated by
// max-potential-fid and TTFB by server-response-time.
func NormalizeVitals(audits map[string]RawAudit) CoreWebVitals {
	return CoreWebVitals{
		LCP:  roundHalfUp(numericValue(audits, "largest-contentful-paint")),
		FID:  roundHalfUp(numericValue(audits, "max-potential-fid")),
		CLS:  math.Floor(numericValue(audits, "cumulative-layout-shift")*1000+0.5) / 1000,
		FCP:  roundHalfUp(numericValue(audits, "first-contentful-paint")),
		TTFB: roundHalfUp(numericValue(audits, "server-response-time")),
	}
}

// worstAudits returns the scored, imperfect audits of the given details type,
// lowest score first, capped at maxAuditItems.
func worstAudits(audits map[string]RawAudit, detailsType string) []AuditItem {
	items := []AuditItem{}
	for id, a := range audits {
		if a.detailsType() != detailsType || a.Score == nil || *a.Score >= 1 {
			continue
		}
		if a.ID == "" {
			a.ID = id
		}
		items = append(items, AuditItem{
			ID:           a.ID,
			Title:        a.Title,
			Description:  a.Description,
			Score:        *a.Score,
			DisplayValue: a.DisplayValue,
		})
	}
	slices.SortFunc(items, func(x, y AuditItem) int {
		if c := cmp.Compare(x.Score, y.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	if len(items) > maxAuditItems {
		items = items[:maxAuditItems]
	}
	return items
}

// Normalize builds the compact Result.
func Normalize(resp *Response, strategy Strategy) *Result {
	lr := resp.LighthouseResult
	return &Result{
		URL:           resp.ID,
		FetchTime:     resp.AnalysisUTCTimestamp,
		Strategy:      strategy,
		Scores:        NormalizeScores(lr.Categories),
		CoreWebVitals: NormalizeVitals(lr.Audits),
		Opportunities: worstAudits(lr.Audits, "opportunity"),
		Diagnostics:   worstAudits(lr.Audits, "table"),
	}
}

// Summary is a one-line digest used in logs and the CLI.
func (r *Result) Summary() string {
	return fmt.Sprintf("performance %d, accessibility %d, best practices %d, seo %d",
		r.Scores.Performance, r.Scores.Accessibility, r.Scores.BestPractices, r.Scores.SEO)
}
