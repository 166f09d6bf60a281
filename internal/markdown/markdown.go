// Package markdown turns user-authored remark text into safe HTML and finds
// the @mentions in it.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer converts markdown to sanitized HTML. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer returns a GitHub-flavoured renderer whose output passes
// through the bluemonday user-generated-content policy.
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^mention$`)).OnElements("span")
	return &Renderer{md: newMarkdown(), policy: policy}
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(mentionTransformer{}, 500)),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(mentionRenderer{}, 500)),
		),
	)
}

// Render converts src to sanitized HTML with mentions wrapped in
// <span class="mention">.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// mentionPattern matches @username not preceded by a word character, so
// e-mail addresses are not mistaken for mentions.
var mentionPattern = regexp.MustCompile(`(^|[^\w@/])@([A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9]|[A-Za-z0-9])`)

var extractor = newMarkdown()

// ExtractMentions returns the distinct lowercased usernames mentioned in src
// in order of first appearance. It sees exactly the mentions Render
// highlights, so code, raw HTML and image alt text are ignored.
func ExtractMentions(src string) []string {
	source := []byte(src)
	doc := extractor.Parser().Parse(text.NewReader(source))
	seen := make(map[string]bool)
	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		m, ok := n.(*mentionNode)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		name := strings.ToLower(string(m.Name))
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

var kindMention = ast.NewNodeKind("Mention")

type mentionNode struct {
	ast.BaseInline
	Name []byte
}

func (n *mentionNode) Kind() ast.NodeKind { return kindMention }

func (n *mentionNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": string(n.Name)}, nil)
}

// mentionTransformer splits text nodes around mentions. Code, raw HTML,
// autolinks and images are left alone; image children become alt text.
type mentionTransformer struct{}

func (mentionTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var texts []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock,
			*ast.RawHTML, *ast.AutoLink, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			texts = append(texts, n)
		}
		return ast.WalkContinue, nil
	})
	for _, t := range texts {
		splitMentions(t, source)
	}
}

func splitMentions(t *ast.Text, source []byte) {
	seg := t.Segment
	value := seg.Value(source)
	matches := mentionPattern.FindAllSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return
	}
	parent := t.Parent()
	pos := 0
	for _, m := range matches {
		at := m[4] - 1
		if at > pos {
			parent.InsertBefore(parent, t, ast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Start+at)))
		}
		parent.InsertBefore(parent, t, &mentionNode{Name: value[m[4]:m[5]]})
		pos = m[5]
	}
	rest := ast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Stop))
	rest.SetSoftLineBreak(t.SoftLineBreak())
	rest.SetHardLineBreak(t.HardLineBreak())
	parent.ReplaceChild(parent, t, rest)
}

type mentionRenderer struct{}

func (mentionRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindMention, renderMention)
}

func renderMention(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<span class="mention">@`)
		_, _ = w.Write(util.EscapeHTML(n.(*mentionNode).Name))
		_, _ = w.WriteString(`</span>`)
	}
	return ast.WalkSkipChildren, nil
}
