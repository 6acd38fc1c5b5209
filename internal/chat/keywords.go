package chat

import (
	"strings"
	"unicode"
)

// stopwords are dropped during keyword extraction. The set mixes
// English and Japanese function words because the theory catalog and
// its users span both.
var stopwords = map[string]struct{}{
	// English
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "am": {}, "do": {}, "does": {}, "did": {}, "can": {},
	"could": {}, "will": {}, "would": {}, "should": {}, "what": {}, "which": {},
	"who": {}, "how": {}, "when": {}, "where": {}, "why": {}, "i": {}, "you": {},
	"me": {}, "my": {}, "it": {}, "this": {}, "that": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "about": {}, "and": {},
	"or": {}, "not": {}, "no": {}, "please": {}, "tell": {}, "explain": {},
	"want": {}, "know": {}, "like": {}, "need": {}, "help": {},
	// Japanese
	"は": {}, "が": {}, "を": {}, "に": {}, "の": {}, "で": {}, "と": {},
	"も": {}, "や": {}, "から": {}, "まで": {}, "より": {}, "って": {},
	"です": {}, "ます": {}, "ました": {}, "でしょうか": {}, "ですか": {},
	"ください": {}, "教えて": {}, "何": {}, "どう": {}, "なに": {},
	"とは": {}, "について": {}, "こと": {}, "もの": {}, "それ": {},
	"これ": {}, "あれ": {}, "する": {}, "した": {}, "して": {},
	"それとも": {}, "または": {},
}

// punctuation treated as token separators in addition to whitespace.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("?？!！。、.,;:()（）「」『』\"'", r)
}

// ExtractKeywords splits the query into tokens, drops stop words and
// single-rune tokens, and lowercases the rest. When nothing survives,
// the trimmed raw query itself is the only keyword so retrieval still
// has something to match on.
func ExtractKeywords(query string) []string {
	var keywords []string
	seen := make(map[string]struct{})

	for _, token := range strings.FieldsFunc(query, isSeparator) {
		token = strings.ToLower(token)
		if _, ok := stopwords[token]; ok {
			continue
		}
		if len([]rune(token)) <= 1 {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	if len(keywords) == 0 {
		trimmed := strings.TrimSpace(query)
		if trimmed != "" {
			keywords = []string{strings.ToLower(trimmed)}
		}
	}
	return keywords
}
