package mcpserver

// TaggingRules describes how folder tags are written and propagated so
// LLM consumers set tags the engine accepts.
const TaggingRules = `# Folder Tagging Rules

Folders carry tags. Notes inside a folder receive the folder's effective
tags in their front matter.

## Tags

1. A tag is a single token: no whitespace and no ` + "`" + `#` + "`" + ` inside it.
2. A leading ` + "`" + `#` + "`" + ` is accepted and dropped (` + "`" + `#work` + "`" + ` is ` + "`" + `work` + "`" + `).
3. Purely numeric tags (` + "`" + `2024` + "`" + `) are rejected.
4. Duplicates collapse; order of first appearance is kept.
5. The vault root cannot hold tags.

## Inheritance

The effective tags of a folder depend on the inheritance mode:

- ` + "`" + `none` + "`" + `: the folder's own tags only.
- ` + "`" + `immediate` + "`" + `: the folder's tags plus its direct parent's.
- ` + "`" + `all` + "`" + `: the tags of every ancestor up to the vault root.

Excluded folders contribute nothing, in every mode.

## Note format

Tags are written as a list under the ` + "`" + `tags` + "`" + ` key of the leading
metadata block. Other keys and the body are never touched.

` + "```" + `markdown
---
title: Weekly standup
tags:
  - work
  - meeting
---

Body text. Inline tags such as #urgent are read but never rewritten
except when a tag is removed.
` + "```" + `

When the plain-text form is configured, tags are a run of ` + "`" + `#tag` + "`" + ` tokens on
the first line of the note, followed by a blank line.
`
