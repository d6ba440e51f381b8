package outline

import (
	"strings"
	"testing"

	"github.com/tatamihq/tatami/internal/models"
)

const sample = `---
name: White Belt Fundamentals
discipline: judo
notes: First grading cycle.
---

# Week 1

- Warm-up and breakfalls -- five minutes each side
- [[technique:tech-1]] focus on grip fighting
- [[asset:asset-1]]

Some prose between lists is ignored.

* Cool-down
`

func TestParseSample(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Name != "White Belt Fundamentals" {
		t.Errorf("name = %q", doc.Name)
	}
	if doc.Discipline != "judo" {
		t.Errorf("discipline = %q", doc.Discipline)
	}
	if doc.Notes != "First grading cycle." {
		t.Errorf("notes = %q", doc.Notes)
	}
	if len(doc.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(doc.Items))
	}

	first := doc.Items[0]
	if first.Kind != models.ElementKindText || first.Title != "Warm-up and breakfalls" || first.Details != "five minutes each side" {
		t.Errorf("first item = %+v", first)
	}

	second := doc.Items[1]
	if second.Kind != models.ElementKindTechnique || second.TechniqueID != "tech-1" {
		t.Errorf("second item = %+v", second)
	}
	if second.Details != "focus on grip fighting" {
		t.Errorf("second details = %q", second.Details)
	}

	third := doc.Items[2]
	if third.Kind != models.ElementKindAsset || third.AssetID != "asset-1" || third.Details != "" {
		t.Errorf("third item = %+v", third)
	}

	fourth := doc.Items[3]
	if fourth.Kind != models.ElementKindText || fourth.Title != "Cool-down" {
		t.Errorf("fourth item = %+v", fourth)
	}
}

func TestParseMissingName(t *testing.T) {
	_, err := Parse([]byte("---\ndiscipline: judo\n---\n- item\n"))
	if err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected missing-name error, got %v", err)
	}
}

func TestParseNoFrontmatter(t *testing.T) {
	_, err := Parse([]byte("# Just a heading\n- item\n"))
	if err == nil {
		t.Fatal("expected error for missing frontmatter")
	}
}

func TestParseUnterminatedFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\nname: x\n"))
	if err == nil {
		t.Fatal("expected error for unterminated frontmatter")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\nname: [unclosed\n---\n- item\n"))
	if err == nil {
		t.Fatal("expected error for invalid frontmatter YAML")
	}
}

func TestParseRefWithAlias(t *testing.T) {
	doc, err := Parse([]byte("---\nname: x\n---\n- [[technique:tech-9|Seoi Nage]]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Items) != 1 || doc.Items[0].TechniqueID != "tech-9" {
		t.Fatalf("items = %+v", doc.Items)
	}
}

func TestParseSkipsEmptyBullets(t *testing.T) {
	doc, err := Parse([]byte("---\nname: x\n---\n- \n- real item\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Items) != 1 || doc.Items[0].Title != "real item" {
		t.Fatalf("items = %+v", doc.Items)
	}
}
