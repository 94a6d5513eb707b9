package sonar

import (
	"fmt"
	"math"
	"strconv"
)

// MetricKeys are the measures requested for a full analysis.
var MetricKeys = []string{
	"bugs",
	"vulnerabilities",
	"security_hotspots",
	"code_smells",
	"coverage",
	"duplicated_lines_density",
	"ncloc",
	"sqale_index",
	"reliability_rating",
	"security_rating",
	"sqale_rating",
}

var ratingLetters = map[string]string{
	"1": "A",
	"2": "B",
	"3": "C",
	"4": "D",
	"5": "E",
}

// RatingToGrade maps a 1-5 rating to A-E. Anything else passes through.
func RatingToGrade(rating string) string {
	if letter, ok := ratingLetters[rating]; ok {
		return letter
	}
	return rating
}

func findMeasure(measures []Measure, key string) (Measure, bool) {
	for _, m := range measures {
		if m.Metric == key {
			return m, true
		}
	}
	return Measure{}, false
}

func metricValue(measures []Measure, key string) float64 {
	m, ok := findMeasure(measures, key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(m.Value, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// NormalizeSummary extracts the headline metrics. Missing or unparsable
// values become 0.
func NormalizeSummary(measures []Measure) Summary {
	return Summary{
		Bugs:                 metricValue(measures, "bugs"),
		Vulnerabilities:      metricValue(measures, "vulnerabilities"),
		SecurityHotspots:     metricValue(measures, "security_hotspots"),
		CodeSmells:           metricValue(measures, "code_smells"),
		Coverage:             metricValue(measures, "coverage"),
		Duplication:          metricValue(measures, "duplicated_lines_density"),
		LinesOfCode:          metricValue(measures, "ncloc"),
		TechnicalDebtMinutes: metricValue(measures, "sqale_index"),
	}
}

// NormalizeRatings converts the three ratings to letters, NotReported when
// the vendor left one out.
func NormalizeRatings(measures []Measure) Ratings {
	rating := func(key string) string {
		m, ok := findMeasure(measures, key)
		if !ok {
			return NotReported
		}
		return RatingToGrade(m.Value)
	}
	return Ratings{
		Reliability:     rating("reliability_rating"),
		Security:        rating("security_rating"),
		Maintainability: rating("sqale_rating"),
	}
}

// CategorizeIssues places every issue in exactly one bucket:
// BLOCKER/CRITICAL → critical, MAJOR → high, MINOR → medium, rest → low.
func CategorizeIssues(issues []Issue) IssueBuckets {
	b := IssueBuckets{
		Critical: []Issue{},
		High:     []Issue{},
		Medium:   []Issue{},
		Low:      []Issue{},
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityBlocker, SeverityCritical:
			b.Critical = append(b.Critical, issue)
		case SeverityMajor:
			b.High = append(b.High, issue)
		case SeverityMinor:
			b.Medium = append(b.Medium, issue)
		default:
			b.Low = append(b.Low, issue)
		}
	}
	return b
}

// Recommendations derives advice from fixed thresholds. It always returns at
// least one entry.
func Recommendations(s Summary, issues IssueBuckets) []string {
	var recs []string

	if s.Coverage < 80 {
		recs = append(recs, fmt.Sprintf(
			"Code coverage is %s%%. Consider increasing test coverage to at least 80%%.", fixed1(s.Coverage)))
	}
	if s.Bugs > 0 {
		recs = append(recs, fmt.Sprintf(
			"Found %s %s. Prioritize fixing bugs to improve reliability.",
			num(s.Bugs), plural(s.Bugs, "bug", "bugs")))
	}
	if s.Vulnerabilities > 0 {
		recs = append(recs, fmt.Sprintf(
			"Found %s security %s. Address immediately.",
			num(s.Vulnerabilities), plural(s.Vulnerabilities, "vulnerability", "vulnerabilities")))
	}
	if s.SecurityHotspots > 0 {
		recs = append(recs, fmt.Sprintf(
			"Review %s security %s for potential vulnerabilities.",
			num(s.SecurityHotspots), plural(s.SecurityHotspots, "hotspot", "hotspots")))
	}
	if s.CodeSmells > 50 {
		recs = append(recs, fmt.Sprintf(
			"High number of code smells (%s). Consider refactoring to improve maintainability.", num(s.CodeSmells)))
	}
	if s.Duplication > 5 {
		recs = append(recs, fmt.Sprintf(
			"Code duplication is %s%%. Look for opportunities to reduce duplication.", fixed1(s.Duplication)))
	}
	if debtHours := s.TechnicalDebtMinutes / 60; debtHours > 40 {
		recs = append(recs, fmt.Sprintf(
			"Technical debt is approximately %d hours. Plan refactoring efforts to reduce debt.", roundHalfUp(debtHours)))
	}
	if n := len(issues.Critical); n > 0 {
		recs = append(recs, fmt.Sprintf(
			"Address %d critical %s as highest priority.", n, plural(float64(n), "issue", "issues")))
	}

	if len(recs) == 0 {
		recs = append(recs, "Code quality metrics look good! Continue maintaining current standards.")
	}
	return recs
}

// Normalize assembles the full report from raw vendor data.
func Normalize(projectKey string, repo RepoRef, project Project, measures []Measure, issues []Issue) *Analysis {
	lastAnalysis := project.LastAnalysisDate
	if lastAnalysis == "" {
		lastAnalysis = NotReported
	}
	summary := NormalizeSummary(measures)
	buckets := CategorizeIssues(issues)
	return &Analysis{
		Repository: AnalysisRepo{
			GitHubURL:        repo.GitHubURL,
			SonarProjectKey:  projectKey,
			DisplayName:      repo.DisplayName,
			LastAnalysisDate: lastAnalysis,
		},
		Summary:         summary,
		Ratings:         NormalizeRatings(measures),
		Issues:          buckets,
		IssueCounts:     buckets.Counts(),
		Recommendations: Recommendations(summary, buckets),
	}
}

// WithoutIssueDetail drops the per-issue lists, keeping the counts.
func (a *Analysis) WithoutIssueDetail() *Analysis {
	cp := *a
	cp.Issues = IssueBuckets{
		Critical: []Issue{},
		High:     []Issue{},
		Medium:   []Issue{},
		Low:      []Issue{},
	}
	return &cp
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func plural(n float64, one, many string) string {
	if n > 1 {
		return many
	}
	return one
}

// fixed1 formats with one decimal, rounding halves up.
func fixed1(f float64) string {
	return strconv.FormatFloat(math.Floor(f*10+0.5)/10, 'f', 1, 64)
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
