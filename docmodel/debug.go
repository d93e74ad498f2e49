package docmodel

import (
	"fmt"
	"strings"
)

// Debug returns an indented dump of the tree, one node per line.
func Debug(n Node, indent int) string {
	var b strings.Builder
	writeDebug(&b, n, indent)
	return b.String()
}

func writeDebug(b *strings.Builder, n Node, indent int) {
	prefix := strings.Repeat("  ", indent)
	if n.IsZero() {
		b.WriteString(prefix + "<nil>\n")
		return
	}
	if text, ok := n.Text(); ok {
		fmt.Fprintf(b, "%stext %q\n", prefix, text)
		return
	}
	b.WriteString(prefix + string(n.Kind))
	if n.Payload != nil {
		fmt.Fprintf(b, " %v", n.Payload)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		writeDebug(b, c, indent+1)
	}
	if len(n.Children) == 0 {
		b.WriteString(prefix + "  <empty>\n")
	}
}
