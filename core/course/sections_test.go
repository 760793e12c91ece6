package course

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSections(t *testing.T) {
	desc := "Learn Go from scratch.\nBuild real services.\n\n" +
		"Who is this course for?\n" +
		"- Backend developers\n" +
		"\n" +
		"- Students\n" +
		"Learning Objectives:\n" +
		"- Write idiomatic code\n" +
		"- Ship a service\n"

	got := ParseSections(desc)
	exp := Sections{
		Summary:    "Learn Go from scratch.\nBuild real services.",
		Audience:   []string{"Backend developers", "Students"},
		Objectives: []string{"Write idiomatic code", "Ship a service"},
	}

	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("wrong sections, diff: %s", diff)
	}
}

func TestParseSectionsMissingHeadings(t *testing.T) {
	got := ParseSections("Just a summary.")
	exp := Sections{
		Summary:    "Just a summary.",
		Audience:   []string{},
		Objectives: []string{},
	}

	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("wrong sections, diff: %s", diff)
	}
}

func TestParseSectionsCRLF(t *testing.T) {
	got := ParseSections("Intro\r\n\r\nLearning Objectives\r\n- One\r\n- Two\r\n")

	if diff := cmp.Diff([]string{"One", "Two"}, got.Objectives); diff != "" {
		t.Fatalf("wrong objectives, diff: %s", diff)
	}
	if got.Summary != "Intro" {
		t.Fatalf("expected summary %q, got %q", "Intro", got.Summary)
	}
}
