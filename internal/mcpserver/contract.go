package mcpserver

// AgentFormatContract describes the artifact format the agents component
// accepts. Other components copy their files without inspecting content.
const AgentFormatContract = `# Agent File Format

Every agent definition installed by claudekit MUST follow this structure.

## Structure

` + "```" + `markdown
---
name: backend-engineer              # REQUIRED, non-empty
description: Designs server APIs    # REQUIRED, non-empty; shown in summaries
tools: Read, Edit, Bash             # OPTIONAL
model: sonnet                       # OPTIONAL
color: blue                         # OPTIONAL
---

System prompt for the agent, in Markdown.
` + "```" + `

## Rules

1. **Frontmatter is mandatory.** The file MUST start with a ` + "`" + `---` + "`" + ` line, with no
   leading blank lines. The block ends at the next line starting with ` + "`" + `---` + "`" + `.
2. **` + "`" + `name` + "`" + ` and ` + "`" + `description` + "`" + ` are required** and must not be empty.
   The name is what gets recorded in the installed agents list.
3. The block is read as YAML. When it is not valid YAML, only simple
   ` + "`" + `key: value` + "`" + ` lines for name and description are recognized.
4. **File names** end with ` + "`" + `.md` + "`" + `. ` + "`" + `README.md` + "`" + ` is never installed.
5. **Encoding** is UTF-8. CRLF line endings are accepted.
`
