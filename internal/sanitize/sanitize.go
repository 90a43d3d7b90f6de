// Package sanitize cleans and validates raw chat input before it is
// classified and stored.
//
// Checks run in a fixed order (length, URL validity, sanitization, emptiness)
// and the first failure wins. None of the functions have side effects.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

var (
	angleBrackets  = regexp.MustCompile(`[<>]`)
	disallowedURIs = regexp.MustCompile(`(?i)(javascript|data):`)
	urlCandidates  = regexp.MustCompile(`https?://\S*`)
	allowedSchemes = map[string]bool{"http": true, "https": true}
)

// Sanitize strips angle brackets and the javascript:/data: schemes and trims
// surrounding whitespace.
//
// Removal is repeated until nothing changes, so input crafted to reassemble a
// forbidden scheme after one pass (e.g. "javajavascript:script:") is still
// cleaned and Sanitize(Sanitize(x)) == Sanitize(x) for every x.
func Sanitize(raw string) string {
	s := raw
	for {
		next := angleBrackets.ReplaceAllString(s, "")
		next = disallowedURIs.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// ValidateLength fails with common.ErrTooLong when raw exceeds
// common.MaxMessageLength runes.
func ValidateLength(raw string) error {
	if utf8.RuneCountInString(raw) > common.MaxMessageLength {
		return common.ErrTooLong
	}
	return nil
}

// ValidateURLs extracts every http(s) URL candidate from raw and fails with
// common.ErrInvalidURL if any of them does not parse as an absolute http or
// https URL with a host.
func ValidateURLs(raw string) error {
	for _, candidate := range urlCandidates.FindAllString(raw, -1) {
		u, err := url.Parse(candidate)
		if err != nil || !allowedSchemes[strings.ToLower(u.Scheme)] || u.Host == "" {
			return common.ErrInvalidURL
		}
	}
	return nil
}

// Prepare runs the full validation pipeline and returns the sanitized text.
func Prepare(raw string) (string, error) {
	if err := ValidateLength(raw); err != nil {
		return "", err
	}
	if err := ValidateURLs(raw); err != nil {
		return "", err
	}
	text := Sanitize(raw)
	if text == "" {
		return "", common.ErrEmptyContent
	}
	return text, nil
}
