package scrapely

import (
	"html"
	"strings"
	"unicode"
)

// blockTags are elements whose boundaries separate words when rendering text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "caption": true, "dd": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "option": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"td": true, "tfoot": true, "th": true, "thead": true, "title": true,
	"tr": true, "ul": true,
}

// IsBlockTag reports whether tag starts a new line when rendered.
func IsBlockTag(tag string) bool {
	return blockTags[tag]
}

// NormalizeText decodes character references and collapses whitespace.
// It is applied to training values and page text alike so both sides of a
// comparison are in the same form.
func NormalizeText(s string) string {
	if strings.IndexByte(s, '&') >= 0 {
		s = html.UnescapeString(s)
	}
	return CollapseSpace(s)
}

// CollapseSpace replaces every run of whitespace with a single space and
// trims both ends.
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if IsSpace(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsSpace reports whether r is whitespace for text comparison purposes.
// unicode.IsSpace already covers U+00A0; zero-width spaces are added on top.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200b'
}

func isBlank(s string) bool {
	if strings.IndexByte(s, '&') >= 0 {
		s = html.UnescapeString(s)
	}
	for _, r := range s {
		if !IsSpace(r) {
			return false
		}
	}
	return true
}
