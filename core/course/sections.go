package course

import (
	"regexp"
	"strings"
)

const (
	HeadingAudience   = "Who is this course for?"
	HeadingObjectives = "Learning Objectives"
)

// Sections splits a free text description by its conventional headings.
type Sections struct {
	Summary    string   `json:"summary"`
	Audience   []string `json:"audience"`
	Objectives []string `json:"objectives"`
}

var headingLine = regexp.MustCompile(`^[A-Za-z\s]+:?$`)

func ParseSections(desc string) Sections {
	desc = strings.ReplaceAll(desc, "\r\n", "\n")

	summary, _, _ := strings.Cut(desc, "\n\n")

	return Sections{
		Summary:    strings.TrimSpace(summary),
		Audience:   section(desc, HeadingAudience),
		Objectives: section(desc, HeadingObjectives),
	}
}

// section collects the lines following title up to the next heading-like
// line. List markers are stripped and blank lines dropped.
func section(desc string, title string) []string {
	lines := strings.Split(desc, "\n")

	start := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), strings.ToLower(title)) {
			start = i
			break
		}
	}
	if start == -1 {
		return []string{}
	}

	items := []string{}
	for i := start + 1; i < len(lines); i++ {
		if i != start+1 && headingLine.MatchString(lines[i]) {
			break
		}

		it := strings.TrimSpace(lines[i])
		it = strings.TrimSpace(strings.TrimPrefix(it, "-"))
		if it != "" {
			items = append(items, it)
		}
	}
	return items
}
