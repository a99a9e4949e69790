package svgdom

import "strings"

// Well-known namespace URIs.
const (
	NamespaceSVG   = "http://www.w3.org/2000/svg"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
	NamespaceXMLNS = "http://www.w3.org/2000/xmlns/"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Attr is a single attribute. Space is the namespace URI the attribute
// belongs to ("" for plain attributes); Name is the qualified name as
// written, e.g. "xmlns:xlink".
type Attr struct {
	Space string
	Name  string
	Value string
}

// LocalName returns the part of the qualified name after the prefix.
func (a Attr) LocalName() string {
	return localName(a.Name)
}

// Prefix returns the namespace prefix of the qualified name, or "".
func (a Attr) Prefix() string {
	if i := strings.IndexByte(a.Name, ':'); i >= 0 {
		return a.Name[:i]
	}
	return ""
}

// Node is a node in an SVG document tree.
//
// Parent is a back-reference only; a node is owned by the Children slice
// of its parent.
type Node struct {
	Type     NodeType
	Name     string // qualified tag name for elements, target for processing instructions
	Space    string // resolved namespace URI for elements
	Data     string // character data for text, comment, processing instruction and directive nodes
	Attrs    []Attr
	Children []*Node
	Parent   *Node
}

// Document is the root of a parsed tree.
type Document = Node

// NewDocument returns an empty document node.
func NewDocument() *Document {
	return &Node{Type: DocumentNode}
}

// CreateElement returns a detached element in the SVG namespace.
func CreateElement(name string) *Node {
	return &Node{Type: ElementNode, Name: name, Space: NamespaceSVG}
}

// CreateTextNode returns a detached text node.
func CreateTextNode(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// LocalName returns the tag name without its prefix.
func (n *Node) LocalName() string {
	return localName(n.Name)
}

// DocumentElement returns the first element child of n, or nil.
func (n *Node) DocumentElement() *Node {
	for _, c := range n.Children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// HasChildNodes reports whether n has any children.
func (n *Node) HasChildNodes() bool {
	return len(n.Children) > 0
}

// AppendChild detaches child from its current parent, if any, and appends
// it as the last child of n.
func (n *Node) AppendChild(child *Node) *Node {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	return child
}

// RemoveChild removes child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// TextContent returns the concatenated character data of all text
// descendants, in document order. Comments are not included.
func (n *Node) TextContent() string {
	switch n.Type {
	case TextNode, CommentNode, ProcInstNode:
		return n.Data
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(m *Node) {
		for _, c := range m.Children {
			switch c.Type {
			case TextNode:
				b.WriteString(c.Data)
			case ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// SetTextContent replaces all children of n with a single text node.
// An empty string leaves n without children.
func (n *Node) SetTextContent(s string) {
	if n.Type != ElementNode && n.Type != DocumentNode {
		n.Data = s
		return
	}
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	if s != "" {
		n.AppendChild(CreateTextNode(s))
	}
}

// GetAttribute returns the value of the first attribute with the given
// qualified name.
func (n *Node) GetAttribute(name string) (string, bool) {
	if i := n.attrIndex(name); i >= 0 {
		return n.Attrs[i].Value, true
	}
	return "", false
}

// HasAttribute reports whether an attribute with the qualified name exists.
func (n *Node) HasAttribute(name string) bool {
	return n.attrIndex(name) >= 0
}

// SetAttribute sets a plain attribute by qualified name. An existing
// attribute with that qualified name keeps its position; otherwise the
// attribute is appended without a namespace.
func (n *Node) SetAttribute(name, value string) {
	if i := n.attrIndex(name); i >= 0 {
		n.Attrs[i].Value = value
		return
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttribute removes the first attribute whose qualified name matches,
// regardless of its namespace.
func (n *Node) RemoveAttribute(name string) {
	if i := n.attrIndex(name); i >= 0 {
		n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
	}
}

// HasAttributeNS reports whether an attribute with the given namespace URI
// and local name exists.
func (n *Node) HasAttributeNS(space, local string) bool {
	return n.attrIndexNS(space, local) >= 0
}

// GetAttributeNS returns the value of the attribute with the given namespace
// URI and local name.
func (n *Node) GetAttributeNS(space, local string) (string, bool) {
	if i := n.attrIndexNS(space, local); i >= 0 {
		return n.Attrs[i].Value, true
	}
	return "", false
}

// SetAttributeNS sets a namespaced attribute. If an attribute with the same
// namespace and local name exists its name and value are replaced in place.
func (n *Node) SetAttributeNS(space, qname, value string) {
	if i := n.attrIndexNS(space, localName(qname)); i >= 0 {
		n.Attrs[i].Name = qname
		n.Attrs[i].Value = value
		return
	}
	n.Attrs = append(n.Attrs, Attr{Space: space, Name: qname, Value: value})
}

func (n *Node) attrIndex(name string) int {
	for i, a := range n.Attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (n *Node) attrIndexNS(space, local string) int {
	for i, a := range n.Attrs {
		if a.Space == space && a.LocalName() == local {
			return i
		}
	}
	return -1
}

func localName(qname string) string {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}
