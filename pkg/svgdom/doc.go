// Package svgdom provides a small mutable XML tree for SVG documents.
//
// The tree follows the DOM attribute model closely enough to tell a plain
// attribute named "xmlns" apart from a real namespace declaration: every
// [Attr] carries the namespace URI it belongs to, and declarations parsed
// from markup live in the [NamespaceXMLNS] namespace.
//
//	doc, err := svgdom.ParseString(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
//	root := doc.DocumentElement()
//	root.HasAttributeNS(svgdom.NamespaceXMLNS, "xmlns") // true
//	root.SetAttribute("version", "1.1")
//	out := svgdom.Serialize(doc)
package svgdom
