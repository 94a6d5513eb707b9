package pagespeed

import (
	"fmt"
	"slices"
)

// opportunityAudits are the audits reported as opportunities, in report order
// before impact sorting.
var opportunityAudits = []string{
	"render-blocking-resources",
	"unused-css-rules",
	"unused-javascript",
	"modern-image-formats",
	"offscreen-images",
	"unminified-css",
	"unminified-javascript",
	"efficient-animated-content",
	"duplicated-javascript",
	"legacy-javascript",
}

var diagnosticAudits = []string{
	"mainthread-work-breakdown",
	"bootup-time",
	"uses-long-cache-ttl",
	"total-byte-weight",
	"dom-size",
	"critical-request-chains",
	"redirects",
	"uses-responsive-images",
	"server-response-time",
}

var impactOrder = map[Impact]int{ImpactHigh: 0, ImpactMedium: 1, ImpactLow: 2}

func scoreOf(a RawAudit) float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// RateScore maps an audit score to good (>=0.9), needs-improvement (>=0.5) or
// poor.
func RateScore(score float64) Rating {
	switch {
	case score >= 0.9:
		return RatingGood
	case score >= 0.5:
		return RatingNeedsImprovement
	default:
		return RatingPoor
	}
}

func normalizeMetric(audits map[string]RawAudit, id string) MetricValue {
	a, ok := audits[id]
	if !ok {
		return MetricValue{Unit: "ms", DisplayValue: "N/A", Rating: RatingPoor}
	}
	m := MetricValue{
		Unit:         a.NumericUnit,
		DisplayValue: a.DisplayValue,
		Rating:       RateScore(scoreOf(a)),
	}
	if a.NumericValue != nil {
		m.Value = *a.NumericValue
	}
	if m.Unit == "" {
		m.Unit = "ms"
	}
	if m.DisplayValue == "" {
		m.DisplayValue = "N/A"
	}
	return m
}

// NormalizeMetrics rates the five lab metrics.
func NormalizeMetrics(audits map[string]RawAudit) Metrics {
	return Metrics{
		FirstContentfulPaint:   normalizeMetric(audits, "first-contentful-paint"),
		LargestContentfulPaint: normalizeMetric(audits, "largest-contentful-paint"),
		TotalBlockingTime:      normalizeMetric(audits, "total-blocking-time"),
		CumulativeLayoutShift:  normalizeMetric(audits, "cumulative-layout-shift"),
		SpeedIndex:             normalizeMetric(audits, "speed-index"),
	}
}

// Opportunities lists imperfect opportunity audits, highest impact first.
func Opportunities(audits map[string]RawAudit) []Opportunity {
	out := []Opportunity{}
	for _, id := range opportunityAudits {
		a, ok := audits[id]
		if !ok || a.Score == nil || *a.Score >= 1 {
			continue
		}
		savings := a.DisplayValue
		if a.Details != nil && a.Details.OverallSavingsMs != nil && *a.Details.OverallSavingsMs != 0 {
			savings = fmt.Sprintf("%dms", roundHalfUp(*a.Details.OverallSavingsMs))
		}
		if savings == "" {
			savings = "Unknown"
		}
		impact := ImpactLow
		switch {
		case *a.Score < 0.5:
			impact = ImpactHigh
		case *a.Score < 0.9:
			impact = ImpactMedium
		}
		out = append(out, Opportunity{
			ID:          id,
			Title:       a.Title,
			Description: a.Description,
			Savings:     savings,
			Impact:      impact,
		})
	}
	slices.SortStableFunc(out, func(x, y Opportunity) int {
		return impactOrder[x.Impact] - impactOrder[y.Impact]
	})
	return out
}

// Diagnostics lists diagnostic audits scoring under 0.9.
func Diagnostics(audits map[string]RawAudit) []Diagnostic {
	out := []Diagnostic{}
	for _, id := range diagnosticAudits {
		a, ok := audits[id]
		if !ok || a.Score == nil || *a.Score >= 0.9 {
			continue
		}
		severity := SeverityWarning
		if *a.Score < 0.5 {
			severity = SeverityCritical
		}
		out = append(out, Diagnostic{
			ID:          id,
			Title:       a.Title,
			Description: a.Description,
			Severity:    severity,
		})
	}
	return out
}

// ReportRecommendations derives advice from category scores and lab metrics.
func ReportRecommendations(scores Scores, audits map[string]RawAudit) []string {
	var recs []string

	switch {
	case scores.Performance < 50:
		recs = append(recs, "CRITICAL: Performance score is very low. Focus on reducing JavaScript execution time and optimizing images.")
	case scores.Performance < 90:
		recs = append(recs, "Performance needs improvement. Consider lazy loading images and deferring non-critical JavaScript.")
	}

	exceeds := func(id string, limit float64) bool {
		a, ok := audits[id]
		return ok && a.NumericValue != nil && *a.NumericValue > limit
	}
	if exceeds("largest-contentful-paint", 2500) {
		recs = append(recs, "Largest Contentful Paint is slow. Optimize your largest image or text block above the fold.")
	}
	if exceeds("total-blocking-time", 300) {
		recs = append(recs, "Total Blocking Time is high. Reduce JavaScript execution time and break up long tasks.")
	}
	if exceeds("cumulative-layout-shift", 0.1) {
		recs = append(recs, "Cumulative Layout Shift detected. Add size attributes to images and avoid inserting content above existing content.")
	}

	if scores.Accessibility < 90 {
		recs = append(recs, "Improve accessibility: Add alt text to images, ensure proper heading hierarchy, and verify color contrast.")
	}
	if scores.SEO < 90 {
		recs = append(recs, "Enhance SEO: Ensure meta descriptions exist, use descriptive link text, and verify mobile-friendliness.")
	}
	if scores.BestPractices < 90 {
		recs = append(recs, "Follow best practices: Use HTTPS, avoid deprecated APIs, and ensure proper image aspect ratios.")
	}

	below := func(id string, limit float64) bool {
		a, ok := audits[id]
		return ok && a.Score != nil && *a.Score < limit
	}
	if below("modern-image-formats", 1) || below("uses-optimized-images", 1) {
		recs = append(recs, "Optimize images: Convert to WebP/AVIF format and compress images without losing quality.")
	}
	if below("uses-long-cache-ttl", 0.9) {
		recs = append(recs, "Improve caching: Set proper cache headers for static resources to reduce repeat visitor load times.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Great job! All scores are good. Keep monitoring and maintaining these standards.")
	}
	return recs
}

// NormalizeReport builds the detailed Report for the URL the caller asked for.
func NormalizeReport(resp *Response, requestedURL string, strategy Strategy) *Report {
	lr := resp.LighthouseResult
	scores := NormalizeScores(lr.Categories)
	return &Report{
		URL:             requestedURL,
		Strategy:        strategy,
		AnalyzedAt:      resp.AnalysisUTCTimestamp,
		Scores:          scores,
		Metrics:         NormalizeMetrics(lr.Audits),
		Opportunities:   Opportunities(lr.Audits),
		Diagnostics:     Diagnostics(lr.Audits),
		Recommendations: ReportRecommendations(scores, lr.Audits),
	}
}
