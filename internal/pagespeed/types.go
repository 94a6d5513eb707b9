package pagespeed

// Strategy selects the device profile Lighthouse emulates.
type Strategy string

const (
	Mobile  Strategy = "mobile"
	Desktop Strategy = "desktop"
)

// ParseStrategy accepts "mobile", "desktop" or empty (mobile).
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case "", Mobile:
		return Mobile, true
	case Desktop:
		return Desktop, true
	}
	return "", false
}

// Categories requested on every call.
var Categories = []string{"performance", "accessibility", "best-practices", "seo"}

// Response is the subset of the runPagespeed body the normalisers read.
type Response struct {
	ID                   string           `json:"id"`
	AnalysisUTCTimestamp string           `json:"analysisUTCTimestamp"`
	LighthouseResult     LighthouseResult `json:"lighthouseResult"`
}

type LighthouseResult struct {
	FinalURL   string              `json:"finalUrl"`
	FetchTime  string              `json:"fetchTime"`
	Categories map[string]Category `json:"categories"`
	Audits     map[string]RawAudit `json:"audits"`
}

type Category struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// RawAudit is one Lighthouse audit. Score is nil for informative audits.
type RawAudit struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Score            *float64      `json:"score"`
	ScoreDisplayMode string        `json:"scoreDisplayMode"`
	DisplayValue     string        `json:"displayValue"`
	NumericValue     *float64      `json:"numericValue"`
	NumericUnit      string        `json:"numericUnit"`
	Details          *AuditDetails `json:"details"`
}

type AuditDetails struct {
	Type             string   `json:"type"`
	OverallSavingsMs *float64 `json:"overallSavingsMs"`
}

func (a RawAudit) detailsType() string {
	if a.Details == nil {
		return ""
	}
	return a.Details.Type
}

// Scores are category scores on a 0-100 scale.
type Scores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"bestPractices"`
	SEO           int `json:"seo"`
}

// Result is the compact report: scores, core web vitals and the five worst
// opportunities and diagnostics.
type Result struct {
	URL           string        `json:"url"`
	FetchTime     string        `json:"fetchTime"`
	Strategy      Strategy      `json:"strategy"`
	Scores        Scores        `json:"scores"`
	CoreWebVitals CoreWebVitals `json:"coreWebVitals"`
	Opportunities []AuditItem   `json:"opportunities"`
	Diagnostics   []AuditItem   `json:"diagnostics"`
}

// CoreWebVitals are in milliseconds except CLS, which is unitless.
type CoreWebVitals struct {
	LCP  int     `json:"lcp"`
	FID  int     `json:"fid"`
	CLS  float64 `json:"cls"`
	FCP  int     `json:"fcp"`
	TTFB int     `json:"ttfb"`
}

type AuditItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Score        float64 `json:"score"`
	DisplayValue string  `json:"displayValue,omitempty"`
}

// Report is the detailed variant with per-metric ratings, classified
// opportunities and diagnostics, and recommendations.
type Report struct {
	URL             string        `json:"url"`
	Strategy        Strategy      `json:"strategy"`
	AnalyzedAt      string        `json:"analyzedAt"`
	Scores          Scores        `json:"scores"`
	Metrics         Metrics       `json:"metrics"`
	Opportunities   []Opportunity `json:"opportunities"`
	Diagnostics     []Diagnostic  `json:"diagnostics"`
	Recommendations []string      `json:"recommendations"`
}

type Metrics struct {
	FirstContentfulPaint   MetricValue `json:"firstContentfulPaint"`
	LargestContentfulPaint MetricValue `json:"largestContentfulPaint"`
	TotalBlockingTime      MetricValue `json:"totalBlockingTime"`
	CumulativeLayoutShift  MetricValue `json:"cumulativeLayoutShift"`
	SpeedIndex             MetricValue `json:"speedIndex"`
}

type Rating string

const (
	RatingGood             Rating = "good"
	RatingNeedsImprovement Rating = "needs-improvement"
	RatingPoor             Rating = "poor"
)

type MetricValue struct {
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	DisplayValue string  `json:"displayValue"`
	Rating       Rating  `json:"rating"`
}

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

type Opportunity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Savings     string `json:"savings"`
	Impact      Impact `json:"impact"`
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type Diagnostic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}
