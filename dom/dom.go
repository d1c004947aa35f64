// Package dom gathers the small set of tree helpers the binding engine needs
// on top of golang.org/x/net/html nodes: fragment parsing, text and attribute
// access, class lists, cloning and rendering.
package dom

import (
	"bytes"
	"errors"
	"strings"

	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrEmptyFragment = errors.New("dom: fragment has no nodes")
)

// bodyContext is the parsing context used for fragments: anything valid
// inside a <body> element is accepted.
func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// Domify parses an HTML fragment. A fragment with a single top-level node
// returns that node, detached. Several top-level nodes are returned as the
// children of a DocumentNode acting as a fragment container.
func Domify(markup string) (*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext())
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, ErrEmptyFragment
	case 1:
		return nodes[0], nil
	}
	frag := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		frag.AppendChild(n)
	}
	return frag, nil
}

// MustDomify is like Domify but panics on error. Meant for fixtures and
// package level templates.
func MustDomify(markup string) *html.Node {
	n, err := Domify(markup)
	if err != nil {
		panic("dom: " + err.Error() + " in " + markup)
	}
	return n
}

// ChildNodes returns a snapshot of all the direct children of n, whatever
// their type. Mutating the tree while ranging over it is safe.
func ChildNodes(n *html.Node) []*html.Node {
	var list []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		list = append(list, c)
	}
	return list
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var list []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			list = append(list, c)
		}
	}
	return list
}

// TextContent concatenates the data of every text node under n.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(c.Data)
			case html.ElementNode, html.DocumentNode:
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}

// SetTextContent replaces every child of n with a single text node.
// On a text node, the data is replaced in place.
func SetTextContent(n *html.Node, text string) {
	if n.Type == html.TextNode {
		n.Data = text
		return
	}
	RemoveChildren(n)
	n.AppendChild(NewText(text))
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// SetInnerHTML parses markup in the context of n and makes the result the
// new children of n.
func SetInnerHTML(n *html.Node, markup string) error {
	ctx := n
	if n.Type != html.ElementNode {
		ctx = bodyContext()
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// OuterHTML renders n and its subtree. A fragment container renders its
// children only.
func OuterHTML(n *html.Node) string {
	if n.Type == html.DocumentNode {
		return InnerHTML(n)
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// Format renders n as indented markup.
func Format(n *html.Node) string {
	return gohtml.Format(OuterHTML(n))
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// NewComment creates a detached comment node.
func NewComment(data string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: data}
}

// Clone returns a deep copy of n. The copy is detached.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if n.Attr != nil {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// InsertBefore inserts n as a child of parent, before ref. A nil ref appends.
// n is detached from its current parent first.
func InsertBefore(parent, n, ref *html.Node) {
	Detach(n)
	if ref == nil {
		parent.AppendChild(n)
		return
	}
	parent.InsertBefore(n, ref)
}

// Replace puts n in place of old in the tree. old ends up detached.
func Replace(old, n *html.Node) bool {
	parent := old.Parent
	if parent == nil {
		return false
	}
	Detach(n)
	parent.InsertBefore(n, old)
	parent.RemoveChild(old)
	return true
}

// Walk visits n and its descendants depth first. Returning false from fn
// prunes the subtree of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range ChildNodes(n) {
		Walk(c, fn)
	}
}

// QueryAll returns the elements under n, n included, carrying the attribute.
func QueryAll(n *html.Node, attr string) []*html.Node {
	var list []*html.Node
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && HasAttr(c, attr) {
			list = append(list, c)
		}
		return true
	})
	return list
}
