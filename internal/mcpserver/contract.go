package mcpserver

// OutlineFormatContract describes the canonical Markdown outline format
// that LLM consumers should follow when importing curricula.
const OutlineFormatContract = `# Tatami Curriculum Outline Format

Every outline passed to the import_curriculum tool MUST follow this structure.

## Structure

` + "```" + `markdown
---
name: White Belt Fundamentals       # REQUIRED – the curriculum name
discipline: judo                    # REQUIRED – discipline id or name (case-insensitive)
notes: First grading cycle.         # OPTIONAL – free-form notes
---

# Headings and prose are ignored; only list items become elements.

- Warm-up and breakfalls -- five minutes each side
- [[technique:TECHNIQUE_ID]] optional details after the reference
- [[asset:ASSET_ID]]
- A plain text element
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must open the
   document, and both ` + "`" + `name` + "`" + ` and ` + "`" + `discipline` + "`" + ` are required.
2. **The discipline must already exist.** Match by id or by name
   (case-insensitive); the import fails otherwise.
3. **Each list item becomes one element**, appended in document order.
   Both ` + "`" + `-` + "`" + ` and ` + "`" + `*` + "`" + ` bullets are accepted.
4. **Technique and asset references** use double brackets with a kind
   prefix: ` + "`" + `[[technique:ID]]` + "`" + ` or ` + "`" + `[[asset:ID]]` + "`" + `. The referenced
   entity should exist; a dangling reference is stored but resolves to null.
   Text remaining on the line becomes the element's details.
5. **Plain items become text elements.** The item text is the title; an
   optional ` + "`" + ` -- ` + "`" + ` separator splits title from details.
6. **Ordering is controlled by the document.** Elements are appended
   top to bottom; use the reorder_elements tool to change positions later.

## Example

` + "```" + `markdown
---
name: Blue Belt Throws
discipline: judo
---

# Session 1

- Warm-up -- light randori
- [[technique:8f2c1d0a]] focus on kuzushi
- [[asset:1b9de774]]
- Cool-down and stretching
` + "```" + `
`
