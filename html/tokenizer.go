// Package html implements scrapely.Tokenizer on top of the
// golang.org/x/net/html tokenizer.
package html

import (
	"strings"

	"github.com/fwojciec/scrapely"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

var _ scrapely.Tokenizer = (*Tokenizer)(nil)

// voidElements never have content or an end tag.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// impliedEnds lists, for an opening tag, the open elements it closes when
// they sit on top of the stack.
var impliedEnds = map[atom.Atom][]atom.Atom{
	atom.Li:     {atom.Li, atom.P},
	atom.Dt:     {atom.Dt, atom.Dd, atom.P},
	atom.Dd:     {atom.Dt, atom.Dd, atom.P},
	atom.Tr:     {atom.Td, atom.Th, atom.Tr},
	atom.Td:     {atom.Td, atom.Th},
	atom.Th:     {atom.Td, atom.Th},
	atom.Option: {atom.Option},
	atom.P:      {atom.P},
	atom.Div:    {atom.P},
	atom.Ul:     {atom.P},
	atom.Ol:     {atom.P},
	atom.Table:  {atom.P},
	atom.H1:     {atom.P},
	atom.H2:     {atom.P},
	atom.H3:     {atom.P},
	atom.H4:     {atom.P},
	atom.H5:     {atom.P},
	atom.H6:     {atom.P},
}

// Tokenizer converts raw markup into scrapely pages.
// It never fails: malformed markup yields best-effort tokens.
type Tokenizer struct{}

// NewTokenizer returns a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize decodes body using the encoding label (sniffing it when empty or
// unknown) and tokenizes the result.
func (t *Tokenizer) Tokenize(url string, body []byte, encoding string) *scrapely.Page {
	text, name := decode(body, encoding)
	page := tokenize(text)
	page.URL = url
	page.Encoding = name
	return page
}

// Parse tokenizes UTF-8 markup. The body is cleaned the same way Tokenize
// cleans UTF-8 input, so offsets survive a round trip through a stored
// template record.
func Parse(body string) *scrapely.Page {
	page := tokenize(normalize(body))
	page.Encoding = "utf-8"
	return page
}

func decode(body []byte, label string) (string, string) {
	if label != "" {
		if enc, name := charset.Lookup(label); enc != nil {
			if name == "utf-8" {
				return validUTF8(body), name
			}
			if b, err := enc.NewDecoder().Bytes(body); err == nil {
				return normalize(string(b)), name
			}
		}
	}
	enc, name, _ := charset.DetermineEncoding(body, "text/html")
	if name != "utf-8" {
		if b, err := enc.NewDecoder().Bytes(body); err == nil {
			return normalize(string(b)), name
		}
	}
	return validUTF8(body), "utf-8"
}

func validUTF8(body []byte) string {
	return normalize(string(body))
}

// normalize replaces invalid UTF-8 and drops a leading byte order mark.
func normalize(s string) string {
	return strings.TrimPrefix(strings.ToValidUTF8(s, "\uFFFD"), "\uFEFF")
}

type builder struct {
	page  *scrapely.Page
	stack []int
}

func tokenize(body string) *scrapely.Page {
	b := &builder{page: &scrapely.Page{Body: body}}
	z := html.NewTokenizer(strings.NewReader(body))
	cursor := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		start := cursor
		cursor += len(z.Raw())
		var tok html.Token
		if tt != html.TextToken {
			tok = z.Token()
		}
		b.add(tt, tok, start, cursor)
	}
	if cursor < len(body) {
		b.add(html.TextToken, html.Token{Type: html.TextToken}, cursor, len(body))
	}
	return b.page
}

func (b *builder) top() int {
	if len(b.stack) == 0 {
		return -1
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) topTag() string {
	if i := b.top(); i >= 0 {
		return b.page.Tokens[i].Tag
	}
	return ""
}

func (b *builder) add(tt html.TokenType, tok html.Token, start, end int) {
	t := scrapely.Token{
		Index: len(b.page.Tokens),
		Start: start,
		End:   end,
		Match: -1,
	}
	switch tt {
	case html.TextToken:
		t.Kind = scrapely.TextToken
		tag := b.topTag()
		t.RawText = tag == "script" || tag == "style"
	case html.StartTagToken, html.SelfClosingTagToken:
		t.Tag = strings.ToLower(tok.Data)
		t.Attrs = attrs(tok.Attr)
		a := atom.Lookup([]byte(t.Tag))
		if tt == html.SelfClosingTagToken || voidElements[a] {
			t.Kind = scrapely.SelfClosingTagToken
		} else {
			t.Kind = scrapely.StartTagToken
			b.closeImplied(a)
		}
	case html.EndTagToken:
		t.Kind = scrapely.EndTagToken
		t.Tag = strings.ToLower(tok.Data)
		if k := b.find(t.Tag); k >= 0 {
			open := b.stack[k]
			b.stack = b.stack[:k+1]
			t.Match = open
			b.page.Tokens[open].Match = t.Index
		}
	default:
		t.Kind = scrapely.CommentToken
	}

	if t.Kind == scrapely.EndTagToken && t.Match >= 0 {
		open := &b.page.Tokens[t.Match]
		t.Depth = open.Depth
		t.Parent = open.Parent
		b.stack = b.stack[:len(b.stack)-1]
	} else {
		t.Depth = len(b.stack)
		t.Parent = b.top()
	}
	b.page.Tokens = append(b.page.Tokens, t)
	if t.Kind == scrapely.StartTagToken {
		b.stack = append(b.stack, t.Index)
	}
}

// closeImplied pops open elements that the opening tag a ends implicitly.
func (b *builder) closeImplied(a atom.Atom) {
	ends := impliedEnds[a]
	for len(b.stack) > 0 {
		top := atom.Lookup([]byte(b.topTag()))
		closed := false
		for _, e := range ends {
			if top == e {
				closed = true
				break
			}
		}
		if !closed {
			return
		}
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// find returns the stack position of the innermost open element named tag.
func (b *builder) find(tag string) int {
	for k := len(b.stack) - 1; k >= 0; k-- {
		if b.page.Tokens[b.stack[k]].Tag == tag {
			return k
		}
	}
	return -1
}

// attrs lowercases names and resolves duplicates last-write-wins, keeping the
// position of the first occurrence.
func attrs(in []html.Attribute) []scrapely.Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]scrapely.Attr, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, a := range in {
		name := strings.ToLower(a.Key)
		if a.Namespace != "" {
			name = strings.ToLower(a.Namespace) + ":" + name
		}
		if i, ok := pos[name]; ok {
			out[i].Value = a.Val
			continue
		}
		pos[name] = len(out)
		out = append(out, scrapely.Attr{Name: name, Value: a.Val})
	}
	return out
}
