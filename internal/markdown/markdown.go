// Package markdown converts user authored Markdown into sanitized HTML.
//
// Raw HTML in the source is never passed through and the text inside inline
// script or style tags is dropped with it. Every link carries
// rel="noopener noreferrer nofollow". The converted HTML always runs through
// an allow-list sanitizer before it is returned.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"regexp"
	"strings"
)

// ErrRenderFailed is matched by every error returned from Render.
var ErrRenderFailed = errors.New("markdown rendering failed")

// RenderError reports the stage of the pipeline that could not process the input.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRenderFailed.Error(), e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func (e *RenderError) Is(target error) bool {
	return target == ErrRenderFailed
}

const (
	StageConvert  = "convert"
	StageSanitize = "sanitize"

	// LinkRel is set on every anchor of the rendered output; the sanitizer requires nofollow as well
	LinkRel = "noopener noreferrer nofollow"

	DefaultHighlightStyle = "monokai"
)

// Renderer holds the configured Markdown converter and sanitizer policy.
// It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

var defaultRenderer = NewRenderer()

// NewRenderer builds a Renderer with GitHub flavored Markdown, smart typography
// and class based syntax highlighting. options are applied after the defaults.
func NewRenderer(options ...goldmark.Option) *Renderer {
	defaults := []goldmark.Option{
		goldmark.WithExtensions(
			extension.Linkify,
			// the sanitizer keeps align attributes but strips style
			extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
			extension.Strikethrough,
			extension.TaskList,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(DefaultHighlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&linkRelTransformer{}, 100),
				util.Prioritized(&rawContentTransformer{}, 100),
			),
		),
		// html.WithUnsafe is left off: raw HTML becomes an omitted comment the sanitizer drops
	}

	md := goldmark.New(append(defaults, options...)...)

	return &Renderer{md: md, policy: newPolicy()}
}

// Render converts text into sanitized HTML. Empty input yields "".
func (r *Renderer) Render(source string) (string, error) {
	if len(source) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", &RenderError{Stage: StageConvert, Err: err}
	}

	sanitized, err := r.sanitize(&buf)
	if err != nil {
		return "", &RenderError{Stage: StageSanitize, Err: err}
	}

	return sanitized, nil
}

// Sanitize runs already rendered HTML through the allow-list policy.
// Sanitizing the output of Render again returns it unchanged.
func (r *Renderer) Sanitize(unsafe string) string {
	return r.policy.Sanitize(unsafe)
}

// Validate renders source and discards the result, reporting only whether rendering succeeds.
func (r *Renderer) Validate(source string) error {
	_, err := r.Render(source)
	return err
}

func (r *Renderer) sanitize(buf *bytes.Buffer) (string, error) {
	var out strings.Builder
	if err := r.policy.SanitizeReaderToWriter(buf, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Render converts source with the package default Renderer.
func Render(source string) (string, error) {
	return defaultRenderer.Render(source)
}

// Sanitize sanitizes html with the package default Renderer.
func Sanitize(unsafe string) string {
	return defaultRenderer.Sanitize(unsafe)
}

// Validate validates source with the package default Renderer.
func Validate(source string) error {
	return defaultRenderer.Validate(source)
}

// StyleSheet returns the CSS matching the highlight classes for the named chroma style.
func StyleSheet(style string) (string, error) {
	s, ok := styles.Registry[strings.ToLower(style)]
	if !ok {
		return "", fmt.Errorf("unknown highlight style: %s", style)
	}

	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	classNames  = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)
	rawOpenTag  = regexp.MustCompile(`(?i)^<(script|style)[\s>]`)
	rawCloseTag = regexp.MustCompile(`(?i)^</(script|style)\s*>`)
	linkRels    = regexp.MustCompile(`^(noopener|noreferrer|nofollow)( (noopener|noreferrer|nofollow))*$`)
	checkbox    = regexp.MustCompile(`^checkbox$`)
	alignment   = regexp.MustCompile(`^(left|right|center)$`)
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowStandardURLs()
	p.RequireParseableURLs(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr",
		"em", "strong", "del", "s",
		"ul", "ol", "li",
		"blockquote",
		"table", "thead", "tbody", "tr",
	)
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("align").Matching(alignment).OnElements("th", "td")
	p.AllowElements("th", "td")

	// highlighted code
	p.AllowAttrs("class").Matching(classNames).OnElements("pre", "code", "span")
	p.AllowElements("pre", "code", "span")

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("rel").Matching(linkRels).OnElements("a")
	p.AllowAttrs("title").OnElements("a")

	p.AllowImages()
	p.AllowAttrs("title").OnElements("img")

	// task lists
	p.AllowAttrs("type").Matching(checkbox).OnElements("input")
	p.AllowAttrs("checked", "disabled").Matching(regexp.MustCompile(`^(|checked|disabled)$`)).OnElements("input")

	return p
}

// linkRelTransformer adds LinkRel to every link and autolink.
type linkRelTransformer struct{}

func (t *linkRelTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink:
			n.SetAttributeString("rel", []byte(LinkRel))
		}
		return ast.WalkContinue, nil
	})
}

// rawContentTransformer removes the nodes enclosed by inline script and style tags.
// Without a closing tag everything up to the end of the paragraph goes.
type rawContentTransformer struct{}

func (t *rawContentTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var enclosed []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || !isRawTag(n, source, rawOpenTag) {
			return ast.WalkContinue, nil
		}
		for s := n.NextSibling(); s != nil && !isRawTag(s, source, rawCloseTag); s = s.NextSibling() {
			enclosed = append(enclosed, s)
		}
		return ast.WalkContinue, nil
	})

	for _, n := range enclosed {
		if parent := n.Parent(); parent != nil {
			parent.RemoveChild(parent, n)
		}
	}
}

func isRawTag(n ast.Node, source []byte, tag *regexp.Regexp) bool {
	raw, ok := n.(*ast.RawHTML)
	if !ok {
		return false
	}

	var buf bytes.Buffer
	for i := 0; i < raw.Segments.Len(); i++ {
		segment := raw.Segments.At(i)
		buf.Write(segment.Value(source))
	}
	return tag.Match(buf.Bytes())
}
