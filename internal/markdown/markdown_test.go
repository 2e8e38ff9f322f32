package markdown_test

import (
	"errors"
	"fmt"
	"milk2meat/internal/markdown"
	"regexp"
	"strings"
	"testing"
)

func TestRender_EmptyInput(t *testing.T) {
	got, err := markdown.Render("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestRender_StripsScripts(t *testing.T) {
	inputs := []string{
		"# Title\n\n<script>alert('x')</script>",
		"inline <script>alert('x')</script> script",
		"<iframe src=\"https://evil.example\"></iframe>\n\ntext",
		"```\ncode\n```\n\n<SCRIPT SRC=//evil.example/x.js></SCRIPT>",
	}

	for i, in := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			got, err := markdown.Render(in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			lower := strings.ToLower(got)
			if strings.Contains(lower, "<script") {
				t.Errorf("output contains a script tag: %s", got)
			}
			if strings.Contains(lower, "<iframe") {
				t.Errorf("output contains an iframe: %s", got)
			}
		})
	}
}

func TestRender_TitleWithScript(t *testing.T) {
	got, err := markdown.Render("# Title\n\n<script>alert('x')</script>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(got, "<h1>Title</h1>") {
		t.Errorf("want <h1>Title</h1> in %s", got)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("want no alert in %s", got)
	}
}

func TestRender_StripsEventHandlers(t *testing.T) {
	inputs := []string{
		`<p onclick="steal()">click</p>`,
		`text <img src="x.png" onerror="steal()"> more`,
		`<a href="https://example.com" onmouseover="steal()">hover</a>`,
		`<div onload=steal()>x</div>`,
	}

	handler := regexp.MustCompile(`(?i)\son[a-z]+\s*=`)
	for i, in := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			got, err := markdown.Render(in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if handler.MatchString(got) {
				t.Errorf("output contains an event handler attribute: %s", got)
			}
		})
	}
}

func TestRender_LinksCarryRel(t *testing.T) {
	inputs := []string{
		"[text](http://example.com)",
		"see <https://example.com/autolink>",
		"bare www.example.com link",
		"[relative](/books/1)",
	}

	anchor := regexp.MustCompile(`<a [^>]*>`)
	for i, in := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			got, err := markdown.Render(in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tags := anchor.FindAllString(got, -1)
			if len(tags) == 0 {
				t.Fatalf("want an anchor in %s", got)
			}
			for _, tag := range tags {
				if !strings.Contains(tag, `rel="`+markdown.LinkRel+`"`) {
					t.Errorf("want rel %q on %s", markdown.LinkRel, tag)
				}
			}
		})
	}
}

func TestRender_InlineScriptContentDropped(t *testing.T) {
	tests := []string{
		"hello <script>alert('x')</script> there",
		"hello <SCRIPT type=\"text/javascript\">alert('x')</SCRIPT> there",
		"hello <style>p { color: red }</style> there",
	}

	for _, in := range tests {
		got, err := markdown.Render(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(got, "alert") || strings.Contains(got, "color") {
			t.Errorf("want enclosed content dropped from %s", got)
		}
		if !strings.Contains(got, "hello") || !strings.Contains(got, "there") {
			t.Errorf("want surrounding text kept in %s", got)
		}
	}
}

func TestRender_UnclosedInlineScript(t *testing.T) {
	got, err := markdown.Render("before <script>alert('x')\n\nnext paragraph")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("want unclosed script content dropped from %s", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "<p>next paragraph</p>") {
		t.Errorf("want other text kept in %s", got)
	}
}

func TestRender_TableAlignment(t *testing.T) {
	got, err := markdown.Render("| Book | Chapters |\n|:--|--:|\n| Ruth | 4 |")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{`<th align="left">Book</th>`, `<th align="right">Chapters</th>`, `<td align="right">4</td>`} {
		if !strings.Contains(got, want) {
			t.Errorf("want %q in %s", want, got)
		}
	}
	if strings.Contains(got, "style=") {
		t.Errorf("want no style attribute in %s", got)
	}
}

func TestRender_DangerousUrlsRemoved(t *testing.T) {
	got, err := markdown.Render("[x](javascript:alert(1))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(strings.ToLower(got), "javascript:") {
		t.Errorf("want javascript url removed, got %s", got)
	}
}

func TestRender_SupportedSyntax(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "heading", input: "## Outline", want: []string{"<h2>Outline</h2>"}},
		{name: "emphasis", input: "**bold** and *italic*", want: []string{"<strong>bold</strong>", "<em>italic</em>"}},
		{name: "unordered list", input: "- one\n- two", want: []string{"<ul>", "<li>one</li>"}},
		{name: "ordered list", input: "1. one\n2. two", want: []string{"<ol>", "<li>two</li>"}},
		{name: "blockquote", input: "> Romans 8:28", want: []string{"<blockquote>"}},
		{name: "table", input: "| Book | Chapters |\n|---|---|\n| Ruth | 4 |", want: []string{"<table>", "<th>Book</th>", "<td>4</td>"}},
		{name: "task list", input: "- [x] read Ruth\n- [ ] read Esther", want: []string{`type="checkbox"`, "checked"}},
		{name: "strikethrough", input: "~~old~~", want: []string{"<del>old</del>"}},
		{name: "highlighted code", input: "```go\nfunc main() {}\n```", want: []string{"<pre", `class="chroma"`, "<code"}},
		{name: "smart quotes", input: `He said "grace"`, want: []string{"“grace”"}},
		{name: "smart dashes", input: "Genesis -- Exodus", want: []string{"–"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := markdown.Render(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("want %q in %s", w, got)
				}
			}
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	in := "# Study\n\nSome *text* with [a link](https://example.com).\n\n```python\nprint('x')\n```"

	first, err := markdown.Render(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := markdown.Render(in)
		if again != first {
			t.Fatalf("render %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	in := strings.Join([]string{
		"# Romans",
		"Paul's letter \"to the church\" -- in Rome & beyond.",
		"| Chapter | Theme |\n|---|---|\n| 8 | Life in the Spirit |",
		"- [x] read\n- [ ] memorize",
		"```js\nconst a = \"<b>\" && 1;\n```",
		"[link](https://example.com/?a=1&b=2) and <https://example.org>",
		"![map](/static/map.png \"Map\")",
		"<span onclick=\"x()\">raw</span>",
	}, "\n\n")

	rendered, err := markdown.Render(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again := markdown.Sanitize(rendered)
	if again != rendered {
		t.Errorf("sanitize is not idempotent:\nfirst:  %s\nsecond: %s", rendered, again)
	}
}

func TestSanitize_StripsDisallowedMarkup(t *testing.T) {
	got := markdown.Sanitize(`<p style="color:red" onclick="x()">hi</p><object data="x"></object><form><input type="text"></form>`)
	if strings.Contains(got, "style=") || strings.Contains(got, "onclick") || strings.Contains(got, "<object") || strings.Contains(got, "<form") {
		t.Errorf("disallowed markup survived: %s", got)
	}
	if strings.Contains(got, `type="text"`) {
		t.Errorf("want only checkbox inputs, got %s", got)
	}
	if !strings.Contains(got, "<p>hi</p>") {
		t.Errorf("want paragraph kept, got %s", got)
	}
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&markdown.RenderError{Stage: markdown.StageConvert, Err: cause})

	if !errors.Is(err, markdown.ErrRenderFailed) {
		t.Error("want RenderError to match ErrRenderFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("want RenderError to unwrap to its cause")
	}

	var renderErr *markdown.RenderError
	if !errors.As(err, &renderErr) || renderErr.Stage != markdown.StageConvert {
		t.Errorf("want stage %s, got %v", markdown.StageConvert, renderErr)
	}
}

func TestStyleSheet(t *testing.T) {
	css, err := markdown.StyleSheet(markdown.DefaultHighlightStyle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("want .chroma rules, got %s", css)
	}

	if _, err = markdown.StyleSheet("no-such-style"); err == nil {
		t.Error("want error for unknown style")
	}
}
