package mcpserver

// LayoutContract describes how arbor lays notes out on disk and how order
// is recorded, for LLM consumers that read or write the workspace directly.
const LayoutContract = `# Arbor Workspace Layout

A workspace is a directory tree of notes. Every note is a pair:

- ` + "`" + `<name>.md` + "`" + ` holds the note's content. It may be missing until the note is first edited.
- ` + "`" + `<name>.md.d/` + "`" + ` holds the note's children. It always exists once the note does.

Note "Arbor" under "Projects" therefore lives at ` + "`" + `Projects.md.d/Arbor.md` + "`" + `
with children in ` + "`" + `Projects.md.d/Arbor.md.d/` + "`" + `.

## Note paths

Tools address notes by note path: the note names from the root, joined by
"/", e.g. ` + "`" + `Projects/Arbor` + "`" + `. The empty path is the workspace root.

## Names

Names must be non-empty and must not contain ` + "`" + `< > : " / \ | ? *` + "`" + ` or control
characters, end with a dot or space, be "." or "..", or be a reserved device
name such as ` + "`" + `CON` + "`" + `.

## Order and expansion

Child order and expansion state live in ` + "`" + `vscode-tree.json` + "`" + ` at the root:

` + "```" + `json
{ "sort": { "<absolute dir>": { "open": true, "children": ["<absolute dir>", ...] } } }
` + "```" + `

Children not recorded there are listed after the recorded ones, sorted by
name. Never edit the file by hand while the server runs; use move_note.

## Deletion

delete_note moves both halves of the note to ` + "`" + `.arbor-trash/` + "`" + ` at the root.
Nothing is removed permanently.
`
