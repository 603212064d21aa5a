package model

import (
	"strings"

	"golang.org/x/net/html"
)

// SanitizeName strips every HTML tag from a deck name, keeping only
// its text content, before the name is ever persisted. There is no
// sanitizer library in reach here, so this walks the token stream
// golang.org/x/net/html already gives the rest of the dependency
// graph (pulled in transitively by the HTTP stack) rather than
// hand-rolling a regex tag-stripper: a script tag survives a naive
// regex in ways a real tokenizer doesn't.
func SanitizeName(input string) string {
	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(input))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
		}
	}
}
