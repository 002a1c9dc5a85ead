package markup

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var allowedElements = map[string]bool{
	"p": true, "br": true, "hr": true, "div": true, "span": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"strong": true, "b": true, "em": true, "i": true, "u": true, "small": true,
	"sub": true, "sup": true, "blockquote": true, "pre": true, "code": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true,
	"th": true, "td": true, "caption": true, "a": true, "abbr": true,
}

// dropped elements disappear together with everything inside them.
var droppedElements = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "embed": true,
	"template": true, "noscript": true, "svg": true, "math": true,
	"textarea": true, "select": true, "title": true, "frameset": true, "frame": true,
}

var voidElements = map[string]bool{"br": true, "hr": true}

var globalAttrs = map[string]bool{"title": true, "class": true}

var elementAttrs = map[string]map[string]bool{
	"a":  {"href": true},
	"td": {"colspan": true, "rowspan": true},
	"th": {"colspan": true, "rowspan": true, "scope": true},
	"ol": {"start": true},
}

var blockElements = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "blockquote": true, "pre": true, "ul": true, "ol": true,
	"dl": true, "dt": true, "dd": true, "table": true, "tr": true, "caption": true, "hr": true,
}

func parse(raw string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(raw), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
}

// Sanitize reduces report markup to the allow-list. Unknown elements are
// unwrapped, dangerous ones removed with their content, comments dropped.
func Sanitize(raw string) string {
	nodes, err := parse(raw)
	if err != nil {
		return html.EscapeString(raw)
	}
	var b strings.Builder
	for _, n := range nodes {
		writeSanitized(&b, n)
	}
	return b.String()
}

func writeSanitized(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
	case html.ElementNode:
		tag := n.Data
		if n.Namespace != "" || droppedElements[tag] {
			return
		}
		if !allowedElements[tag] {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				writeSanitized(b, c)
			}
			return
		}
		b.WriteByte('<')
		b.WriteString(tag)
		writeAttrs(b, tag, n.Attr)
		b.WriteByte('>')
		if voidElements[tag] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeSanitized(b, c)
		}
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
}

func writeAttrs(b *strings.Builder, tag string, attrs []html.Attribute) {
	link := false
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" || !(globalAttrs[key] || elementAttrs[tag][key]) {
			continue
		}
		if key == "href" {
			if !safeURL(a.Val) {
				continue
			}
			link = true
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	if link {
		b.WriteString(` rel="noopener noreferrer"`)
	}
}

func safeURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "#") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return u.Opaque != ""
	default:
		return false
	}
}

// PlainText flattens report markup for surfaces that cannot render HTML.
// Block elements become line breaks and control characters are removed, so
// the service cannot smuggle terminal escape sequences through the report.
func PlainText(raw string) string {
	var b strings.Builder
	nodes, err := parse(raw)
	if err != nil {
		b.WriteString(raw)
	} else {
		for _, n := range nodes {
			writeText(&b, n)
		}
	}

	var lines []string
	for _, line := range strings.Split(stripControl(b.String()), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Namespace != "" || droppedElements[n.Data] {
			return
		}
		switch {
		case n.Data == "br":
			b.WriteByte('\n')
			return
		case n.Data == "li":
			b.WriteString("\n- ")
		case n.Data == "td" || n.Data == "th":
			b.WriteByte(' ')
		case blockElements[n.Data]:
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(b, c)
		}
		if blockElements[n.Data] || n.Data == "li" {
			b.WriteByte('\n')
		}
	}
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case r < 0x20, r == 0x7f, r >= 0x80 && r <= 0x9f:
			return -1
		default:
			return r
		}
	}, s)
}
