// Package richtext turns rich-text journal bodies into plain text.
package richtext

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from a rich-text journal body and collapses
// whitespace. Script and style contents are dropped.
func PlainText(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				b.WriteString(" ")
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTag(name) {
				skip++
			}
			b.WriteString(" ")
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTag(name) && skip > 0 {
				skip--
			}
			b.WriteString(" ")
		case html.SelfClosingTagToken:
			b.WriteString(" ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}
