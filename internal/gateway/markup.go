package gateway

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup снимает HTML-разметку сообщения Teams и возвращает плоский текст.
// Для тегов <emoji> подставляется альтернативный текст, как его видит чат.
func StripMarkup(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))

	var b strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.WriteString(tokenizer.Token().Data)
			b.WriteByte(' ')
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data == "emoji" {
				for _, attr := range token.Attr {
					if attr.Key == "alt" {
						b.WriteString(attr.Val)
						b.WriteByte(' ')
					}
				}
			}
		}
	}
}
