package html_test

import (
	"testing"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/html"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizer_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"well formed":     `<div class="a"><p>Hi &amp; bye<br><img src="x.png"/></p></div>`,
		"doctype":         "<!DOCTYPE html><html><!-- note --><body>\r\n x </body></html>",
		"script":          `<script>if (a < b && c > d) { x = "</div>"; }</script><p>after</p>`,
		"stray brackets":  `a < b > c <<>> d`,
		"unterminated":    `<div><p>text<span`,
		"stray end tags":  `</p></div>text</span>`,
		"text only":       "just some text",
		"mismatched":      `<b><i>bold italic</b></i>`,
		"unquoted attrs":  `<td width=10 nowrap>cell</td>`,
		"trailing angle":  `<p>x</p><`,
		"comment at end":  `<p>x</p><!-- unterminated`,
		"unicode content": `<p>Zürich – 東京</p>`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			page := html.Parse(input)

			require.NotZero(t, page.Len())
			assert.Equal(t, input, page.Markup(0, page.Len()-1))
			for i := 1; i < page.Len(); i++ {
				assert.Equal(t, page.Tokens[i-1].End, page.Tokens[i].Start, "gap before token %d", i)
			}
		})
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	t.Parallel()

	page := html.Parse("")

	assert.Equal(t, 0, page.Len())
	assert.Equal(t, "", page.Markup(0, 0))
	assert.Equal(t, "", page.Text(0, 0))
}

func TestTokenizer_Structure(t *testing.T) {
	t.Parallel()

	page := html.Parse(`<DIV id="x"><br><P>a</P></DIV>`)

	require.Equal(t, 6, page.Len())
	tok := page.Tokens

	assert.Equal(t, scrapely.StartTagToken, tok[0].Kind)
	assert.Equal(t, "div", tok[0].Tag)
	assert.Equal(t, 0, tok[0].Depth)
	assert.Equal(t, -1, tok[0].Parent)
	assert.Equal(t, 5, tok[0].Match)

	assert.Equal(t, scrapely.SelfClosingTagToken, tok[1].Kind)
	assert.Equal(t, "br", tok[1].Tag)
	assert.Equal(t, 1, tok[1].Depth)
	assert.Equal(t, 0, tok[1].Parent)

	assert.Equal(t, scrapely.StartTagToken, tok[2].Kind)
	assert.Equal(t, 4, tok[2].Match)

	assert.Equal(t, scrapely.TextToken, tok[3].Kind)
	assert.Equal(t, 2, tok[3].Depth)
	assert.Equal(t, 2, tok[3].Parent)

	assert.Equal(t, scrapely.EndTagToken, tok[4].Kind)
	assert.Equal(t, "p", tok[4].Tag)
	assert.Equal(t, 1, tok[4].Depth)
	assert.Equal(t, 2, tok[4].Match)

	assert.Equal(t, scrapely.EndTagToken, tok[5].Kind)
	assert.Equal(t, 0, tok[5].Depth)
	assert.Equal(t, 0, tok[5].Match)

	for i, tk := range tok {
		assert.Equal(t, i, tk.Index)
	}
}

func TestTokenizer_Attributes(t *testing.T) {
	t.Parallel()

	page := html.Parse(`<a HREF="/x" class="one" CLASS="two" title="a &amp; b">link</a>`)

	require.NotZero(t, page.Len())
	assert.Equal(t, []scrapely.Attr{
		{Name: "href", Value: "/x"},
		{Name: "class", Value: "two"},
		{Name: "title", Value: "a & b"},
	}, page.Tokens[0].Attrs)

	v, ok := page.Tokens[0].Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "two", v)
	_, ok = page.Tokens[0].Attr("id")
	assert.False(t, ok)
}

func TestTokenizer_ImpliedEnds(t *testing.T) {
	t.Parallel()

	page := html.Parse(`<ul><li>one<li>two</ul>`)

	require.Equal(t, 6, page.Len())
	assert.Equal(t, -1, page.Tokens[1].Match)
	assert.Equal(t, 1, page.Tokens[3].Depth)
	assert.Equal(t, 0, page.Tokens[3].Parent)
	assert.Equal(t, 2, page.ElementEnd(1))
	assert.Equal(t, 4, page.ElementEnd(3))
	assert.Equal(t, 0, page.Tokens[5].Match)
	assert.Equal(t, 5, page.ElementEnd(0))
}

func TestTokenizer_MisnestedEndTags(t *testing.T) {
	t.Parallel()

	page := html.Parse(`<b><i>x</b></i>`)

	require.Equal(t, 5, page.Len())
	// </b> closes both open elements; </i> is left unpaired.
	assert.Equal(t, 3, page.Tokens[0].Match)
	assert.Equal(t, -1, page.Tokens[1].Match)
	assert.Equal(t, -1, page.Tokens[4].Match)
	assert.Equal(t, 0, page.Tokens[4].Depth)
}

func TestTokenizer_StrayEndTag(t *testing.T) {
	t.Parallel()

	page := html.Parse(`</span>text`)

	require.Equal(t, 2, page.Len())
	assert.Equal(t, scrapely.EndTagToken, page.Tokens[0].Kind)
	assert.Equal(t, -1, page.Tokens[0].Match)
	assert.Equal(t, 0, page.Tokens[1].Depth)
}

func TestTokenizer_RawText(t *testing.T) {
	t.Parallel()

	page := html.Parse(`<script>var a = "<b>";</script><b>x</b>`)

	require.Equal(t, 6, page.Len())
	assert.True(t, page.Tokens[1].RawText)
	assert.False(t, page.IsVisibleText(1))
	assert.False(t, page.Tokens[4].RawText)
	assert.True(t, page.IsVisibleText(4))
	assert.Equal(t, "x", page.Text(0, page.Len()-1))
}

func TestTokenizer_Comments(t *testing.T) {
	t.Parallel()

	page := html.Parse(`<!DOCTYPE html><!-- hi --><p>x</p>`)

	require.Equal(t, 5, page.Len())
	assert.Equal(t, scrapely.CommentToken, page.Tokens[0].Kind)
	assert.Equal(t, scrapely.CommentToken, page.Tokens[1].Kind)
	assert.True(t, page.IsNoise(0))
	assert.True(t, page.IsNoise(1))
	assert.False(t, page.IsNoise(2))
}

func TestTokenizer_Tokenize(t *testing.T) {
	t.Parallel()

	t.Run("decodes declared encoding", func(t *testing.T) {
		t.Parallel()

		body := []byte("<p>caf\xe9</p>")
		page := html.NewTokenizer().Tokenize("https://example.com/", body, "windows-1252")

		assert.Equal(t, "<p>café</p>", page.Body)
		assert.Equal(t, "windows-1252", page.Encoding)
		assert.Equal(t, "https://example.com/", page.URL)
	})

	t.Run("sniffs meta charset when no label", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<meta charset="iso-8859-1"><p>caf` + "\xe9" + `</p>`)
		page := html.NewTokenizer().Tokenize("", body, "")

		assert.Contains(t, page.Body, "café")
		assert.Equal(t, "windows-1252", page.Encoding)
	})

	t.Run("falls back to sniffing for unknown label", func(t *testing.T) {
		t.Parallel()

		page := html.NewTokenizer().Tokenize("", []byte("<p>ok</p>"), "no-such-charset")

		assert.Equal(t, "<p>ok</p>", page.Body)
		assert.NotEmpty(t, page.Encoding)
	})

	t.Run("replaces invalid utf-8", func(t *testing.T) {
		t.Parallel()

		page := html.NewTokenizer().Tokenize("", []byte("<p>a\xffb</p>"), "utf-8")

		assert.Equal(t, "<p>a\uFFFDb</p>", page.Body)
		assert.Equal(t, page.Body, page.Markup(0, page.Len()-1))
	})
}

func TestTokenizer_ByteOrderMark(t *testing.T) {
	t.Parallel()

	body := "\uFEFF<div><h1>Blue Widget</h1></div>"

	t.Run("Parse and Tokenize agree", func(t *testing.T) {
		t.Parallel()

		parsed := html.Parse(body)
		tokenized := html.NewTokenizer().Tokenize("", []byte(body), "utf-8")

		assert.Equal(t, "<div><h1>Blue Widget</h1></div>", parsed.Body)
		assert.Equal(t, tokenized.Body, parsed.Body)
		assert.Equal(t, tokenized.Tokens, parsed.Tokens)
	})

	t.Run("template offsets survive a stored round trip", func(t *testing.T) {
		t.Parallel()

		page := html.Parse(body)
		tmpl := &scrapely.Template{Page: page, Annotations: []scrapely.Annotation{
			{Field: "title", Start: 2, End: 2, Weight: 1},
		}}

		restored, err := scrapely.NewTemplateFromRecord(tmpl.Record(), html.NewTokenizer())

		require.NoError(t, err)
		assert.Equal(t, "Blue Widget", restored.Page.Text(2, 2))
		assert.Equal(t, page.Raw(2), restored.Page.Raw(2))
	})
}

func TestPage_Text(t *testing.T) {
	t.Parallel()

	page := html.Parse("<p>Fish &amp; Chips</p><p>  Salt\n vinegar </p><span>a</span><span>b</span>")

	assert.Equal(t, "Fish & Chips Salt vinegar ab", page.Text(0, page.Len()-1))
	assert.Equal(t, "Fish & Chips", page.Text(1, 1))
}
