package noteservice

import (
	"fmt"
	"io"
	"strings"
)

// WriteTo renders the outline as an indented list, one note per line.
// Notes with children are marked "+" when collapsed and "v" when expanded;
// leaves are marked "-". The root is shown as "/".
func (n *OutlineNode) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	n.render(&b, 0)
	written, err := io.WriteString(w, b.String())
	return int64(written), err
}

// String returns the rendered outline.
func (n *OutlineNode) String() string {
	var b strings.Builder
	n.render(&b, 0)
	return b.String()
}

func (n *OutlineNode) render(b *strings.Builder, depth int) {
	name := n.Name
	if n.Path == "" {
		name = "/"
	}
	marker := "-"
	if len(n.Children) > 0 {
		marker = "+"
		if n.Expanded {
			marker = "v"
		}
	}
	fmt.Fprintf(b, "%s%s %s\n", strings.Repeat("  ", depth), marker, name)
	for _, c := range n.Nodes {
		c.render(b, depth+1)
	}
}
