package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"loupe/internal/finding"
)

type rawFinding struct {
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Line        int     `json:"line"`
	Description string  `json:"description"`
	Reasoning   string  `json:"reasoning"`
	Confidence  float64 `json:"confidence"`
}

// ParseFindings decodes a backend response into findings, stripping
// markdown code fences when the model wraps its output despite
// instructions. Category and severity labels are normalized onto the
// canonical sets. Anything that is not a JSON array of findings is an
// error; the caller records it as a chunk failure.
func ParseFindings(content string) ([]finding.Finding, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			content = strings.Join(lines[1:end], "\n")
		}
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid findings JSON: %w", err)
	}

	findings := make([]finding.Finding, 0, len(raw))
	for _, r := range raw {
		if r.Description == "" && r.Reasoning == "" {
			continue
		}
		findings = append(findings, finding.Finding{
			Category:    finding.NormalizeCategory(r.Category),
			Severity:    finding.NormalizeSeverity(r.Severity),
			Line:        r.Line,
			Description: r.Description,
			Reasoning:   r.Reasoning,
			Confidence:  r.Confidence,
		})
	}
	return findings, nil
}
