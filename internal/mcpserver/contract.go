package mcpserver

// DocumentFormatContract describes the Markdown document format that LLM
// consumers should follow when creating documents.
const DocumentFormatContract = `# Lorebook Document Format Contract

A Lorebook document is a Markdown file named after its slug. The slug is
derived from the title: lowercase, accents folded, apostrophes dropped and
every other run of non-alphanumeric characters replaced by a single hyphen.
"Dragon's Lair" becomes ` + "`" + `dragons-lair` + "`" + `.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # set from the title you pass; do not repeat it
tags:                               # OPTIONAL - YAML list; used for filtering
  - faction
---

Body text in standard Markdown.

Reference other documents by title: [[House Stark]].
Use [[House Stark|the Starks]] when the visible text differs from the title.
` + "```" + `

## Rules

1. **References** use double brackets around a document title. The target is
   matched by slug, so case and accents do not matter: ` + "`" + `[[house stark]]` + "`" + `
   and ` + "`" + `[[House Stark]]` + "`" + ` point at the same document.
2. A reference to a title that does not exist yet is allowed. It is reported as
   broken and resolves as soon as that document is created.
3. References cannot be nested and cannot span lines. ` + "`" + `[[]]` + "`" + ` is ignored.
4. **Headings** are never turned into references by link suggestions, so put
   names you want linked in the body text.
5. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `noble-house` + "`" + `).
6. **Encoding** is UTF-8.
7. Every change made through Lorebook keeps the previous version as a revision;
   use ` + "`" + `list_revisions` + "`" + ` and ` + "`" + `diff_revisions` + "`" + ` to inspect history.

## Example

` + "```" + `markdown
---
title: Winterfell
tags:
  - location
  - the-north
---

# Winterfell

Ancestral seat of [[House Stark]], north of [[The Neck|the Neck]].

## History

Built by [[Brandon the Builder]].
` + "```" + `
`
