package chat

import (
	"bytes"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

var (
	allowedTags = []string{
		"p", "br", "strong", "em", "u", "del", "s", "strike",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "dl", "dt", "dd",
		"blockquote", "pre", "code",
		"table", "thead", "tbody", "tr", "th", "td",
		"a", "img", "hr", "div", "span", "sup", "sub", "mark", "small",
	}
	allowedAttrs = []string{
		"href", "title", "alt", "src", "class", "id", "target", "rel", "colspan", "rowspan",
	}

	tagClasses = map[string]string{
		"h1":         "mt-4 mb-3 text-primary",
		"h2":         "mt-4 mb-3 text-primary",
		"h3":         "mt-3 mb-2 text-primary",
		"h4":         "mt-3 mb-2 text-secondary",
		"h5":         "mt-2 mb-1 text-secondary",
		"h6":         "mt-2 mb-1",
		"table":      "table table-bordered table-sm my-3",
		"blockquote": "border-start border-primary ps-3 ms-3 fst-italic",
		"pre":        "bg-light p-3 rounded",
		"code":       "bg-light px-1 rounded",
		"ul":         "mb-2",
		"ol":         "mb-2",
		"hr":         "my-3",
		"img":        "img-fluid rounded my-2",
		"a":          "text-primary",
	}
)

// Markdown converts assistant replies to sanitised HTML.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
	)

	policy := bluemonday.NewPolicy()
	policy.AllowElements(allowedTags...)
	policy.AllowAttrs(allowedAttrs...).Globally()
	policy.AllowStandardURLs()

	return &Markdown{md: md, policy: policy}
}

func (m *Markdown) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return decorate(m.policy.SanitizeReader(&buf).String())
}

// decorate adds the display classes to bare elements.
func decorate(fragment string) (string, error) {
	var out strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return out.String(), nil
		}

		tok := z.Token()
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok.Attr = withClasses(tok.Data, tok.Attr)
		}
		out.WriteString(tok.String())
	}
}

func withClasses(tag string, attrs []html.Attribute) []html.Attribute {
	class, ok := tagClasses[tag]
	if !ok {
		return attrs
	}

	if tag == "a" {
		if hasAttr(attrs, "target") {
			return attrs
		}
		attrs = setAttr(attrs, "rel", "noopener noreferrer")
		attrs = setAttr(attrs, "class", class)
		return setAttr(attrs, "target", "_blank")
	}

	if hasAttr(attrs, "class") {
		return attrs
	}
	return append(attrs, html.Attribute{Key: "class", Val: class})
}

func hasAttr(attrs []html.Attribute, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}
