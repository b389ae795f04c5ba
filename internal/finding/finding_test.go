package finding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loupe/internal/finding"
)

func TestNormalizeCategoryCanonicalPassThrough(t *testing.T) {
	for _, c := range []finding.Category{
		finding.CategoryBug, finding.CategorySecurity, finding.CategoryPerformance,
		finding.CategoryCorrectness, finding.CategoryStyle, finding.CategoryMaintainability,
		finding.CategoryTesting, finding.CategoryDocs,
	} {
		assert.Equal(t, c, finding.NormalizeCategory(string(c)))
	}
}

func TestNormalizeCategorySynonyms(t *testing.T) {
	cases := map[string]finding.Category{
		"logic":          finding.CategoryBug,
		"Vulnerability":  finding.CategorySecurity,
		"  perf  ":       finding.CategoryPerformance,
		"readability":    finding.CategoryMaintainability,
		"BEST PRACTICES": finding.CategoryMaintainability,
		"documentation":  finding.CategoryDocs,
	}
	for raw, want := range cases {
		assert.Equal(t, want, finding.NormalizeCategory(raw), "label %q", raw)
	}
}

func TestNormalizeCategoryUnknownIsDeterministic(t *testing.T) {
	first := finding.NormalizeCategory("quantum entanglement")
	assert.Equal(t, finding.CategoryCorrectness, first)
	assert.Equal(t, first, finding.NormalizeCategory("quantum entanglement"))
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, finding.SeverityHigh, finding.NormalizeSeverity("CRITICAL"))
	assert.Equal(t, finding.SeverityMedium, finding.NormalizeSeverity("warning"))
	assert.Equal(t, finding.SeverityLow, finding.NormalizeSeverity("info"))
	assert.Equal(t, finding.SeverityLow, finding.NormalizeSeverity(""))
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.Greater(t, finding.SeverityRank(finding.SeverityHigh), finding.SeverityRank(finding.SeverityMedium))
	assert.Greater(t, finding.SeverityRank(finding.SeverityMedium), finding.SeverityRank(finding.SeverityLow))
	assert.Greater(t, finding.SeverityRank(finding.SeverityLow), finding.SeverityRank(""))
}

func TestMeetsThreshold(t *testing.T) {
	assert.True(t, finding.MeetsThreshold(finding.SeverityHigh, "medium"))
	assert.True(t, finding.MeetsThreshold(finding.SeverityMedium, "medium"))
	assert.False(t, finding.MeetsThreshold(finding.SeverityLow, "medium"))
	assert.False(t, finding.MeetsThreshold(finding.SeverityHigh, "none"))
	assert.False(t, finding.MeetsThreshold(finding.SeverityHigh, ""))
}

func TestSummarize(t *testing.T) {
	s := finding.Summarize([]finding.MergedFinding{
		{Severity: finding.SeverityLow},
		{Severity: finding.SeverityMedium},
		{Severity: finding.SeverityMedium},
		{Severity: finding.SeverityHigh},
	})
	assert.Equal(t, 1, s.Counts.Low)
	assert.Equal(t, 2, s.Counts.Medium)
	assert.Equal(t, 1, s.Counts.High)
	assert.Equal(t, finding.SeverityHigh, s.HighestSeverity)
}

func TestSummarizeEmpty(t *testing.T) {
	s := finding.Summarize(nil)
	assert.Equal(t, finding.SeverityCounts{}, s.Counts)
	assert.Empty(t, s.HighestSeverity)
}
