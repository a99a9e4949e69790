package svgdom

import (
	"bufio"
	"io"
	"strings"
)

// Serialize returns the XML markup of n and its descendants.
func Serialize(n *Node) string {
	var b strings.Builder
	_, _ = WriteTo(&b, n)
	return b.String()
}

// WriteTo writes the XML markup of n to w. Attributes are written in order
// with their qualified names; no namespace declarations are synthesized.
// Elements without children are written in self-closing form.
func WriteTo(w io.Writer, n *Node) (int64, error) {
	cw := &countWriter{w: bufio.NewWriter(w)}
	writeNode(cw, n)
	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

type countWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countWriter) str(s string) {
	if c.err != nil {
		return
	}
	m, err := c.w.WriteString(s)
	c.n += int64(m)
	c.err = err
}

func writeNode(w *countWriter, n *Node) {
	switch n.Type {
	case DocumentNode:
		for _, c := range n.Children {
			writeNode(w, c)
		}
	case ElementNode:
		w.str("<")
		w.str(n.Name)
		for _, a := range n.Attrs {
			w.str(" ")
			w.str(a.Name)
			w.str(`="`)
			w.str(attrEscaper.Replace(a.Value))
			w.str(`"`)
		}
		if len(n.Children) == 0 {
			w.str("/>")
			return
		}
		w.str(">")
		for _, c := range n.Children {
			writeNode(w, c)
		}
		w.str("</")
		w.str(n.Name)
		w.str(">")
	case TextNode:
		w.str(textEscaper.Replace(n.Data))
	case CommentNode:
		w.str("<!--")
		w.str(n.Data)
		w.str("-->")
	case ProcInstNode:
		w.str("<?")
		w.str(n.Name)
		if n.Data != "" {
			w.str(" ")
			w.str(n.Data)
		}
		w.str("?>")
	case DirectiveNode:
		w.str("<!")
		w.str(n.Data)
		w.str(">")
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\t", "&#9;",
		"\n", "&#10;",
		"\r", "&#13;",
	)
)
