package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// Match reports whether a node satisfies a selection rule.
type Match func(*html.Node) bool

// Element matches element nodes by tag name; an empty tag matches any element.
func Element(tag string) Match {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && (tag == "" || n.Data == tag)
	}
}

// WithClass matches elements with the given tag (or any tag) carrying class.
func WithClass(tag, class string) Match {
	el := Element(tag)
	return func(n *html.Node) bool {
		return el(n) && HasClass(n, class)
	}
}

// WithAttr matches elements carrying the attribute key, whatever its value.
func WithAttr(tag, key string) Match {
	el := Element(tag)
	return func(n *html.Node) bool {
		if !el(n) {
			return false
		}
		_, ok := Attr(n, key)
		return ok
	}
}

func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func HasClass(n *html.Node, class string) bool {
	val, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}

// FindAll returns every descendant of root (root excluded) matching m, in document order.
func FindAll(root *html.Node, m Match) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// FindFirst returns the first descendant of root matching m, or nil.
func FindFirst(root *html.Node, m Match) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := FindFirst(c, m); found != nil {
			return found
		}
	}
	return nil
}

// Children returns the direct element children of n matching m.
func Children(n *html.Node, m Match) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			out = append(out, c)
		}
	}
	return out
}

// Text joins the trimmed, non-empty text nodes under n with sep.
func Text(n *html.Node, sep string) string {
	if n == nil {
		return ""
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if trimmed := strings.TrimSpace(node.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
			return
		}
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}

// CollapseSpace replaces every run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fragment parses an HTML fragment into a document root.
func Fragment(markup string) (*html.Node, error) {
	return html.Parse(strings.NewReader(markup))
}
