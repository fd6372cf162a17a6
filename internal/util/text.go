package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reNewlines = regexp.MustCompile(`\r\n|\r|\n`)
	reSpaces   = regexp.MustCompile(` {2,}`)

	diacritics = strings.NewReplacer(
		"ą", "a", "č", "c", "ę", "e", "ė", "e", "į", "i", "š", "s", "ų", "u", "ū", "u", "ž", "z",
		"á", "a", "à", "a", "ä", "a", "é", "e", "è", "e", "ë", "e", "í", "i", "ì", "i", "ï", "i",
		"ó", "o", "ò", "o", "ö", "o", "ú", "u", "ù", "u", "ü", "u",
	)
)

// NormalizeHeader trims a raw column header, turns embedded line breaks into
// spaces and collapses repeated spaces.
func NormalizeHeader(input string) string {
	s := strings.TrimSpace(input)
	s = reNewlines.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return s
}

func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// FoldDiacritics lowercases input and maps Lithuanian and common Latin
// accented letters to ASCII. Letters outside that set are kept as is.
func FoldDiacritics(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = norm.NFC.String(s)
	return diacritics.Replace(s)
}

func IsBlank(input string) bool {
	return strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " ")) == ""
}
