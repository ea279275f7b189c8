// Package markdown renders repository markdown (READMEs, .md blobs) into
// sanitised HTML for the preview pane.
package markdown

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"repo-nav/helpers"
)

// Renderer turns markdown into HTML that is safe to inject into a page.
// It is safe for concurrent use.
type Renderer struct {
	policy     *bluemonday.Policy
	extensions parser.Extensions
	flags      mdhtml.Flags
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	return &Renderer{
		policy:     policy,
		extensions: parser.CommonExtensions | parser.AutoHeadingIDs,
		flags:      mdhtml.CommonFlags,
	}
}

// Render converts src to HTML. Relative image sources are rewritten to live
// under /{owner}/{repository}.
func (r *Renderer) Render(src, owner, repository string) (string, error) {
	p := parser.NewWithExtensions(r.extensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: r.flags})
	out := markdown.ToHTML([]byte(src), p, renderer)
	safe := r.policy.SanitizeBytes(out)
	return rewriteImageSources(string(safe), owner, repository)
}

func rewriteImageSources(doc, owner, repository string) (string, error) {
	var b strings.Builder
	b.Grow(len(doc))

	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return b.String(), nil
			}
			return "", fmt.Errorf("rewriting image sources: %w", z.Err())
		}

		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}

		tok := z.Token()
		if tok.DataAtom != atom.Img {
			b.WriteString(raw)
			continue
		}

		for i, attr := range tok.Attr {
			if attr.Key == "src" && isRelative(attr.Val) {
				tok.Attr[i].Val = prependNamespace(attr.Val, owner, repository)
			}
		}
		b.WriteString(tok.String())
	}
}

func isRelative(link string) bool {
	return !strings.HasPrefix(link, "https://") &&
		!strings.HasPrefix(link, "http://") &&
		!strings.HasPrefix(link, "//")
}

func prependNamespace(link, owner, repository string) string {
	link = strings.TrimPrefix(link, "./")
	link = strings.TrimPrefix(link, "/")
	return "/" + helpers.JoinSegments(owner, repository) + "/" + link
}
