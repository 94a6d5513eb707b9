package sonar

// Project is an entry of /projects/search.
type Project struct {
	Key              string `json:"key"`
	Name             string `json:"name"`
	Qualifier        string `json:"qualifier,omitempty"`
	Visibility       string `json:"visibility,omitempty"`
	LastAnalysisDate string `json:"lastAnalysisDate,omitempty"`
	Revision         string `json:"revision,omitempty"`
}

// Measure is a single metric value. SonarCloud reports every value as a
// string, including numbers and ratings.
type Measure struct {
	Metric    string `json:"metric"`
	Value     string `json:"value"`
	BestValue bool   `json:"bestValue,omitempty"`
}

// Component is the body of /measures/component.
type Component struct {
	ID        string    `json:"id,omitempty"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Qualifier string    `json:"qualifier,omitempty"`
	Measures  []Measure `json:"measures"`
}

// Issue is an entry of /issues/search.
type Issue struct {
	Key          string `json:"key"`
	Rule         string `json:"rule"`
	Severity     string `json:"severity"`
	Component    string `json:"component"`
	Line         int    `json:"line,omitempty"`
	Message      string `json:"message"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	CreationDate string `json:"creationDate"`
}

// Hotspot is an entry of /hotspots/search.
type Hotspot struct {
	Key                      string `json:"key"`
	Component                string `json:"component"`
	SecurityCategory         string `json:"securityCategory,omitempty"`
	VulnerabilityProbability string `json:"vulnerabilityProbability,omitempty"`
	Status                   string `json:"status"`
	Line                     int    `json:"line,omitempty"`
	Message                  string `json:"message"`
}

// Issue severities.
const (
	SeverityBlocker  = "BLOCKER"
	SeverityCritical = "CRITICAL"
	SeverityMajor    = "MAJOR"
	SeverityMinor    = "MINOR"
	SeverityInfo     = "INFO"
)

// NotReported marks a rating or date the vendor did not return.
const NotReported = "N/A"

// RepoRef identifies the repository an analysis is for.
type RepoRef struct {
	GitHubURL   string
	DisplayName string
}

// Analysis is the normalised code-quality report handed to the assistant.
type Analysis struct {
	Repository      AnalysisRepo `json:"repository"`
	Summary         Summary      `json:"summary"`
	Ratings         Ratings      `json:"ratings"`
	Issues          IssueBuckets `json:"issues"`
	IssueCounts     IssueCounts  `json:"issueCounts"`
	Recommendations []string     `json:"recommendations"`
}

type AnalysisRepo struct {
	GitHubURL        string `json:"githubUrl"`
	SonarProjectKey  string `json:"sonarProjectKey"`
	DisplayName      string `json:"displayName"`
	LastAnalysisDate string `json:"lastAnalysisDate"`
}

type Summary struct {
	Bugs                 float64 `json:"bugs"`
	Vulnerabilities      float64 `json:"vulnerabilities"`
	SecurityHotspots     float64 `json:"securityHotspots"`
	CodeSmells           float64 `json:"codeSmells"`
	Coverage             float64 `json:"coverage"`
	Duplication          float64 `json:"duplication"`
	LinesOfCode          float64 `json:"linesOfCode"`
	TechnicalDebtMinutes float64 `json:"technicalDebtMinutes"`
}

type Ratings struct {
	Reliability     string `json:"reliability"`
	Security        string `json:"security"`
	Maintainability string `json:"maintainability"`
}

// IssueBuckets groups issues by normalised severity.
type IssueBuckets struct {
	Critical []Issue `json:"critical"`
	High     []Issue `json:"high"`
	Medium   []Issue `json:"medium"`
	Low      []Issue `json:"low"`
}

type IssueCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Counts tallies the buckets.
func (b IssueBuckets) Counts() IssueCounts {
	c := IssueCounts{
		Critical: len(b.Critical),
		High:     len(b.High),
		Medium:   len(b.Medium),
		Low:      len(b.Low),
	}
	c.Total = c.Critical + c.High + c.Medium + c.Low
	return c
}
