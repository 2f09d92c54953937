package services

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// Only allow digits, spaces, +, -, (, )
	reAllowed = regexp.MustCompile(`^[0-9+\-\s\(\)\.]+$`)
)

// NormPhone normalizes a phone number to +E.164 form.
// Rules: strip spaces/dashes/dots/parens; 00.. -> +..; a national 0.. gets
// dialCode; a bare number starting with dialCode gets a +.
// Returns "" for input that cannot be a phone number.
func NormPhone(p, dialCode string) string {
	s := strings.TrimSpace(p)
	if s == "" || reLetters.MatchString(s) || !reAllowed.MatchString(s) {
		return ""
	}

	repl := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\n", "", "\r", "", "\t", "")
	s = repl.Replace(s)
	dialCode = digitsOnly(dialCode)

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case strings.HasPrefix(s, "0") && dialCode != "":
		s = "+" + dialCode + s[1:]
	default:
		s = "+" + s
	}
	if strings.Count(s, "+") != 1 {
		return ""
	}
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
