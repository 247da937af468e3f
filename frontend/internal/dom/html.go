package dom

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render writes e as HTML. Hidden elements get the hidden attribute, disabled
// controls the disabled attribute; HTML content is parsed as a fragment so that
// only well-formed markup reaches the output.
func Render(w io.Writer, e *Element) error {
	return html.Render(w, e.node())
}

func (e *Element) String() string {
	var sb strings.Builder
	if err := Render(&sb, e); err != nil {
		return ""
	}
	return sb.String()
}

func (e *Element) node() *html.Node {
	tag := e.Tag
	if tag == "" {
		tag = "div"
	}
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}

	if e.ID != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: e.ID})
	}
	if len(e.Classes) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: strings.Join(e.Classes, " ")})
	}
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: e.Attrs[k]})
	}
	if e.Value != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "value", Val: e.Value})
	}
	if e.Hidden {
		n.Attr = append(n.Attr, html.Attribute{Key: "hidden"})
	}
	if e.Disabled {
		n.Attr = append(n.Attr, html.Attribute{Key: "disabled"})
	}

	if e.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.Text})
	}
	if e.HTML != "" {
		context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		if nodes, err := html.ParseFragment(strings.NewReader(e.HTML), context); err == nil {
			for _, c := range nodes {
				n.AppendChild(c)
			}
		}
	}
	for _, c := range e.children {
		n.AppendChild(c.node())
	}
	return n
}

func stripTags(markup string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			sb.WriteByte(' ')
		}
	}
}
