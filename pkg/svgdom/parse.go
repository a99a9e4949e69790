package svgdom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoRoot is returned when the input contains no element.
var ErrNoRoot = errors.New("svgdom: document has no root element")

// ParseString parses an XML document from s.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads a well-formed XML document from r and builds a tree.
//
// Prefixes are kept exactly as written so that serialization reproduces the
// input names; namespace URIs are resolved separately into Node.Space and
// Attr.Space. Namespace declarations (xmlns and xmlns:*) are attributes in the
// xmlns namespace.
//
// An element that repeats an attribute, by qualified name or by namespace
// and local name, is not well-formed and fails to parse.
func Parse(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	doc := NewDocument()

	cur := doc
	scopes := []map[string]string{{
		"xml":   NamespaceXML,
		"xmlns": NamespaceXMLNS,
	}}

	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svgdom: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			scope := pushScope(scopes[len(scopes)-1], t.Attr)
			scopes = append(scopes, scope)

			el := &Node{
				Type:  ElementNode,
				Name:  qualified(t.Name),
				Space: scope[t.Name.Space],
			}
			for _, a := range t.Attr {
				attr := Attr{
					Space: attrSpace(a.Name, scope),
					Name:  qualified(a.Name),
					Value: a.Value,
				}
				if el.hasDuplicate(attr) {
					return nil, fmt.Errorf("svgdom: duplicate attribute %s on <%s> at line %d", attr.Name, el.Name, line(d))
				}
				el.Attrs = append(el.Attrs, attr)
			}
			cur.AppendChild(el)
			cur = el

		case xml.EndElement:
			if cur.Type != ElementNode || cur.Name != qualified(t.Name) {
				return nil, fmt.Errorf("svgdom: unexpected end element </%s> at line %d", qualified(t.Name), line(d))
			}
			cur = cur.Parent
			scopes = scopes[:len(scopes)-1]

		case xml.CharData:
			if cur.Type == DocumentNode {
				continue
			}
			if n := len(cur.Children); n > 0 && cur.Children[n-1].Type == TextNode {
				cur.Children[n-1].Data += string(t)
				continue
			}
			cur.AppendChild(CreateTextNode(string(t)))

		case xml.Comment:
			cur.AppendChild(&Node{Type: CommentNode, Data: string(t)})

		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			cur.AppendChild(&Node{Type: ProcInstNode, Name: t.Target, Data: string(t.Inst)})

		case xml.Directive:
			cur.AppendChild(&Node{Type: DirectiveNode, Data: string(t)})
		}
	}

	if cur != doc {
		return nil, fmt.Errorf("svgdom: unclosed element <%s>", cur.Name)
	}
	if doc.DocumentElement() == nil {
		return nil, ErrNoRoot
	}
	return doc, nil
}

// pushScope returns the namespace bindings in effect for an element with the
// given attributes. The parent scope is copied only when the element
// declares something.
func pushScope(parent map[string]string, attrs []xml.Attr) map[string]string {
	var scope map[string]string
	for _, a := range attrs {
		var prefix string
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix = ""
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		default:
			continue
		}
		if scope == nil {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
		}
		scope[prefix] = a.Value
	}
	if scope == nil {
		return parent
	}
	return scope
}

func attrSpace(name xml.Name, scope map[string]string) string {
	switch {
	case name.Space == "" && name.Local == "xmlns":
		return NamespaceXMLNS
	case name.Space == "":
		return ""
	default:
		return scope[name.Space]
	}
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func line(d *xml.Decoder) int {
	l, _ := d.InputPos()
	return l
}

// hasDuplicate reports whether n already carries a by qualified name, or by
// namespace URI and local name for namespaced attributes.
func (n *Node) hasDuplicate(a Attr) bool {
	for _, b := range n.Attrs {
		if b.Name == a.Name {
			return true
		}
		if a.Space != "" && b.Space == a.Space && localName(b.Name) == localName(a.Name) {
			return true
		}
	}
	return false
}
