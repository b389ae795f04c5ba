package finding

import "strings"

// Severity is the severity level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold reports whether s is at or above the named threshold.
// An empty or "none" threshold matches nothing.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "" || threshold == "none" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// NormalizeSeverity maps a free-form backend severity label onto the
// canonical set. Unknown labels default to low.
func NormalizeSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityHigh, "critical", "error":
		return SeverityHigh
	case SeverityMedium, "warning", "moderate":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Category is the kind of issue a finding reports.
type Category string

const (
	CategoryBug             Category = "bug"
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryCorrectness     Category = "correctness"
	CategoryStyle           Category = "style"
	CategoryMaintainability Category = "maintainability"
	CategoryTesting         Category = "testing"
	CategoryDocs            Category = "docs"
)

// categorySynonyms maps common free-form backend labels to canonical
// categories. Keys are lowercased.
var categorySynonyms = map[string]Category{
	"logic":            CategoryBug,
	"error":            CategoryBug,
	"defect":           CategoryBug,
	"race condition":   CategoryBug,
	"resource leak":    CategoryBug,
	"memory":           CategoryBug,
	"vulnerability":    CategorySecurity,
	"sec":              CategorySecurity,
	"input validation": CategorySecurity,
	"perf":             CategoryPerformance,
	"efficiency":       CategoryPerformance,
	"formatting":       CategoryStyle,
	"naming":           CategoryStyle,
	"readability":      CategoryMaintainability,
	"complexity":       CategoryMaintainability,
	"maintenance":      CategoryMaintainability,
	"best practice":    CategoryMaintainability,
	"best practices":   CategoryMaintainability,
	"code smell":       CategoryMaintainability,
	"design":           CategoryMaintainability,
	"test":             CategoryTesting,
	"tests":            CategoryTesting,
	"documentation":    CategoryDocs,
	"doc":              CategoryDocs,
	"comment":          CategoryDocs,
}

// NormalizeCategory maps a free-form backend label onto the canonical
// category set. It is a pure function: same label in, same category out.
// Unknown labels fall back to correctness, the least specific bucket.
func NormalizeCategory(raw string) Category {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch Category(label) {
	case CategoryBug, CategorySecurity, CategoryPerformance, CategoryCorrectness,
		CategoryStyle, CategoryMaintainability, CategoryTesting, CategoryDocs:
		return Category(label)
	}
	if c, ok := categorySynonyms[label]; ok {
		return c
	}
	return CategoryCorrectness
}

// Finding is a single issue reported by an analysis backend for one chunk.
// Line is 1-indexed relative to the chunk's own body.
type Finding struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Line        int      `json:"line"`
	Description string   `json:"description"`
	Reasoning   string   `json:"reasoning"`
	Confidence  float64  `json:"confidence,omitempty"`
}

// MergedFinding is a finding remapped into file-absolute coordinates.
// Chunks lists the indices of every chunk that reported it.
type MergedFinding struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Line        int      `json:"line"`
	Description string   `json:"description"`
	Reasoning   string   `json:"reasoning"`
	Confidence  float64  `json:"confidence,omitempty"`
	Chunks      []int    `json:"chunks"`
}

// SeverityCounts holds finding counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary is an overview of a set of merged findings.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
}

// Summarize computes severity counts over merged findings.
func Summarize(findings []MergedFinding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityLow:
			s.Counts.Low++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityHigh:
			s.Counts.High++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
