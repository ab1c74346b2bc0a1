package scrapely

import "html"

// TokenKind identifies the variant of a Token.
type TokenKind int

// Token kinds. CommentToken covers comments and doctype directives; it keeps
// the token sequence gap-free but carries no structure or content.
const (
	TextToken TokenKind = iota
	StartTagToken
	EndTagToken
	SelfClosingTagToken
	CommentToken
)

// String returns a short name for the kind.
func (k TokenKind) String() string {
	switch k {
	case TextToken:
		return "text"
	case StartTagToken:
		return "start"
	case EndTagToken:
		return "end"
	case SelfClosingTagToken:
		return "self-closing"
	case CommentToken:
		return "comment"
	default:
		return "unknown"
	}
}

// IsTag reports whether the kind is one of the tag variants.
func (k TokenKind) IsTag() bool {
	return k == StartTagToken || k == EndTagToken || k == SelfClosingTagToken
}

// Attr is a single tag attribute. Names are lowercase.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Token is an atomic unit of a tokenized page.
type Token struct {
	// Index is the position of the token in its page's token sequence.
	Index int

	Kind TokenKind

	// Start and End are byte offsets into Page.Body (half-open).
	Start int
	End   int

	// Tag is the lowercase tag name. Empty for text and comments.
	Tag   string
	Attrs []Attr

	// Depth is the number of open elements enclosing the token.
	// A start tag and its matching end tag share the same depth.
	Depth int

	// Parent is the index of the enclosing start tag, or -1.
	Parent int

	// Match is the index of the paired end tag for a start tag, of the paired
	// start tag for an end tag, and -1 otherwise.
	Match int

	// RawText marks text inside script and style elements.
	RawText bool
}

// Attr returns the value of the named attribute.
func (t *Token) Attr(name string) (string, bool) {
	for _, a := range t.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Tokenizer parses raw markup into a Page.
type Tokenizer interface {
	// Tokenize never fails: malformed markup degrades to best-effort tokens.
	// The encoding is a label hint (e.g. "utf-8", "windows-1252"); when empty
	// or unknown the implementation sniffs it from the content.
	Tokenize(url string, body []byte, encoding string) *Page
}

// Page is a tokenized markup document. Pages are immutable once built and
// safe to share between goroutines.
type Page struct {
	URL string

	// Body is the UTF-8 markup the tokens point into.
	Body string

	// Encoding is the name of the encoding Body was decoded from.
	Encoding string

	Tokens []Token
}

// Len returns the number of tokens in the page.
func (p *Page) Len() int {
	return len(p.Tokens)
}

// Raw returns the verbatim markup of a single token.
func (p *Page) Raw(i int) string {
	t := &p.Tokens[i]
	return p.Body[t.Start:t.End]
}

// Markup returns the verbatim markup covered by tokens start through end
// (inclusive). Out of range bounds are clamped; an empty range yields "".
func (p *Page) Markup(start, end int) string {
	start, end, ok := p.clamp(start, end)
	if !ok {
		return ""
	}
	return p.Body[p.Tokens[start].Start:p.Tokens[end].End]
}

// Text returns the visible text covered by tokens start through end
// (inclusive): text runs are entity-decoded and concatenated, block-level
// tags act as word separators and whitespace is collapsed.
func (p *Page) Text(start, end int) string {
	start, end, ok := p.clamp(start, end)
	if !ok {
		return ""
	}
	buf := make([]byte, 0, p.Tokens[end].End-p.Tokens[start].Start)
	for i := start; i <= end; i++ {
		t := &p.Tokens[i]
		switch {
		case t.Kind == TextToken && !t.RawText:
			buf = append(buf, html.UnescapeString(p.Body[t.Start:t.End])...)
		case t.Kind.IsTag() && IsBlockTag(t.Tag):
			buf = append(buf, ' ')
		}
	}
	return CollapseSpace(string(buf))
}

// IsVisibleText reports whether token i is a text run that renders
// non-whitespace content.
func (p *Page) IsVisibleText(i int) bool {
	t := &p.Tokens[i]
	if t.Kind != TextToken || t.RawText {
		return false
	}
	return !isBlank(p.Body[t.Start:t.End])
}

// IsNoise reports whether token i carries neither structure nor content:
// comments, doctypes and whitespace-only text runs.
func (p *Page) IsNoise(i int) bool {
	t := &p.Tokens[i]
	switch t.Kind {
	case CommentToken:
		return true
	case TextToken:
		return isBlank(p.Body[t.Start:t.End])
	}
	return false
}

// ElementEnd returns the index of the last token belonging to the element
// opened at token i. For anything other than a start tag it returns i.
// Unclosed elements extend over every following token nested deeper.
func (p *Page) ElementEnd(i int) int {
	t := &p.Tokens[i]
	if t.Kind != StartTagToken {
		return i
	}
	if t.Match >= 0 {
		return t.Match
	}
	j := i + 1
	for j < len(p.Tokens) && p.Tokens[j].Depth > t.Depth {
		j++
	}
	return j - 1
}

func (p *Page) clamp(start, end int) (int, int, bool) {
	if start < 0 {
		start = 0
	}
	if end >= len(p.Tokens) {
		end = len(p.Tokens) - 1
	}
	return start, end, start <= end
}
