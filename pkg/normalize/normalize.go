// Package normalize turns a browser-rendered SVG fragment into a standalone
// SVG document.
//
// The render stage serializes an svg element that lived inside an HTML page,
// so it may depend on namespace bindings the page supplied implicitly and it
// embeds labels as foreignObject content, which many rasterizers ignore.
// [Document] repairs both:
//
//   - [ResolveRoot] gives the root explicit namespace declarations and a
//     version attribute.
//   - [Traverse] lists every element in document order, skipping script
//     subtrees.
//   - [ResolveForeignObject] swaps a foreignObject for a text/tspan pair
//     holding its plain text.
package normalize

import (
	"strings"

	"github.com/seqrender/seqrender/pkg/svgdom"
)

// Replacement label geometry. These approximate an embedded label at the
// default scale; they are not derived from the foreignObject.
const (
	LabelStyle = `font-size: 11.5pt; font-family: "sans-serif";`
	LabelX     = "0"
	LabelY     = "14.5"
)

// Document normalizes doc in place and returns the number of foreignObject
// elements that were replaced.
func Document(doc *svgdom.Document) int {
	if root := doc.DocumentElement(); root != nil {
		ResolveRoot(root)
	}

	replaced := 0
	for _, n := range Traverse(doc) {
		if ResolveForeignObject(n) {
			replaced++
		}
	}
	return replaced
}

// ResolveRoot makes el a self-contained SVG root: version 1.1 plus real
// xmlns and xmlns:xlink declarations. Plain attributes named xmlns or xlink
// are removed first so they cannot double up with the declarations.
// Applying it more than once yields the same attribute set.
func ResolveRoot(el *svgdom.Node) {
	el.SetAttribute("version", "1.1")

	el.RemoveAttribute("xmlns")
	el.RemoveAttribute("xlink")

	if !el.HasAttributeNS(svgdom.NamespaceXMLNS, "xmlns") {
		el.SetAttributeNS(svgdom.NamespaceXMLNS, "xmlns", svgdom.NamespaceSVG)
	}
	if !el.HasAttributeNS(svgdom.NamespaceXMLNS, "xlink") {
		el.SetAttributeNS(svgdom.NamespaceXMLNS, "xmlns:xlink", svgdom.NamespaceXLink)
	}
}

// Traverse returns n followed by its element descendants in pre-order.
// Script elements and everything beneath them are left out.
//
// The result is materialized before any caller mutates the tree, so
// replacing nodes while ranging over it neither skips nor repeats nodes.
func Traverse(n *svgdom.Node) []*svgdom.Node {
	tree := []*svgdom.Node{n}

	var visit func(*svgdom.Node)
	visit = func(node *svgdom.Node) {
		for _, child := range node.Children {
			if child.Type != svgdom.ElementNode || isScript(child) {
				continue
			}
			tree = append(tree, child)
			visit(child)
		}
	}
	visit(n)

	return tree
}

// ResolveForeignObject replaces a foreignObject element with a text element
// holding its flattened text, and reports whether it did. The replacement
// is appended as the last child of the former parent, so it does not keep
// the original position among its siblings. Any other node is left alone.
func ResolveForeignObject(n *svgdom.Node) bool {
	if n.Type != svgdom.ElementNode || n.Name != "foreignObject" || n.Parent == nil {
		return false
	}
	parent := n.Parent

	span := svgdom.CreateElement("tspan")
	span.SetAttribute("x", LabelX)
	span.SetAttribute("y", LabelY)
	span.SetAttribute("style", LabelStyle)
	span.SetTextContent(n.TextContent())

	text := svgdom.CreateElement("text")
	text.AppendChild(span)

	parent.AppendChild(text)
	parent.RemoveChild(n)
	return true
}

func isScript(n *svgdom.Node) bool {
	return strings.EqualFold(n.LocalName(), "script")
}
