// Package outline parses Markdown curriculum outlines into importable
// drafts. An outline has YAML frontmatter (name, discipline, optional
// notes) and a body whose list items become curriculum elements:
//
//	---
//	name: White Belt Fundamentals
//	discipline: judo
//	---
//	# Week 1
//	- Warm-up and breakfalls
//	- [[technique:8f2c...]] focus on grip
//	- [[asset:1b9d...]]
//	- Cool-down -- partner stretching
//
// A [[technique:ID]] or [[asset:ID]] reference makes the item a technique
// or asset element (trailing text becomes details); anything else is a
// text element, with an optional " -- " separator splitting title from
// details.
package outline

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tatamihq/tatami/internal/models"
)

var refRe = regexp.MustCompile(`\[\[(technique|asset):([^\]|]+)(?:\|[^\]]*)?\]\]`)

// Item is one parsed outline entry, ready to append as an element.
type Item struct {
	Kind        models.ElementKind
	TechniqueID string
	AssetID     string
	Title       string
	Details     string
}

// Document is a parsed curriculum outline.
type Document struct {
	Name       string
	Discipline string
	Notes      string
	Items      []Item
}

type frontmatter struct {
	Name       string `yaml:"name"`
	Discipline string `yaml:"discipline"`
	Notes      string `yaml:"notes"`
}

// Parse extracts the frontmatter and list items from raw outline bytes.
func Parse(data []byte) (*Document, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	if fm.Name == "" {
		return nil, fmt.Errorf("outline: frontmatter is missing name")
	}

	doc := &Document{
		Name:       fm.Name,
		Discipline: fm.Discipline,
		Notes:      fm.Notes,
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") && !strings.HasPrefix(trimmed, "* ") {
			// Headings and prose between lists are ignored.
			continue
		}
		item, ok := parseItem(strings.TrimSpace(trimmed[2:]))
		if ok {
			doc.Items = append(doc.Items, item)
		}
	}
	return doc, nil
}

// splitFrontmatter separates the YAML frontmatter (between leading ---
// delimiters) from the Markdown body.
func splitFrontmatter(data []byte) (frontmatter, string, error) {
	const delim = "---"
	var fm frontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, "", fmt.Errorf("outline: missing frontmatter")
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, "", fmt.Errorf("outline: unterminated frontmatter")
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return fm, "", fmt.Errorf("outline: invalid frontmatter: %w", err)
	}
	return fm, body, nil
}

// parseItem turns one bullet's text into an Item. Empty bullets are
// dropped.
func parseItem(text string) (Item, bool) {
	if text == "" {
		return Item{}, false
	}

	if m := refRe.FindStringSubmatch(text); m != nil {
		details := strings.TrimSpace(refRe.ReplaceAllString(text, ""))
		id := strings.TrimSpace(m[2])
		if id == "" {
			return Item{}, false
		}
		switch m[1] {
		case "technique":
			return Item{Kind: models.ElementKindTechnique, TechniqueID: id, Details: details}, true
		case "asset":
			return Item{Kind: models.ElementKindAsset, AssetID: id, Details: details}, true
		}
	}

	title, details := text, ""
	if i := strings.Index(text, " -- "); i >= 0 {
		title = strings.TrimSpace(text[:i])
		details = strings.TrimSpace(text[i+4:])
	}
	if title == "" {
		return Item{}, false
	}
	return Item{Kind: models.ElementKindText, Title: title, Details: details}, true
}
