package parse

import (
	"regexp"
	"strings"
	"time"
)

// Normalizer canonicalizes a raw matched value. Normalizers are referenced by
// name from rule definitions so a rule set loaded from config can use them.
type Normalizer func(string) string

var normalizers = map[string]Normalizer{
	"text":  cleanText,
	"date":  normalizeDate,
	"zip":   normalizeZip,
	"phone": normalizePhone,
	"email": normalizeEmail,
	"hours": normalizeHours,
}

// normalizerByName returns the named normalizer, falling back to cleanText.
func normalizerByName(name string) Normalizer {
	if n, ok := normalizers[name]; ok {
		return n
	}
	return cleanText
}

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reBoxNoise = regexp.MustCompile(`[\x{2500}-\x{257F}_]{2,}`) // box-drawing runs, underscore rules
	rePipeWord = regexp.MustCompile(`([A-Za-z])\|`)
	reWordPipe = regexp.MustCompile(`\|([A-Za-z])`)
	reDigits   = regexp.MustCompile(`\d+(\.\d+)?`)
	reZip5     = regexp.MustCompile(`\d{5}`)
	rePhoneNum = regexp.MustCompile(`\d`)
)

// cleanText collapses whitespace, strips box-drawing noise, and fixes the
// pipe-for-I confusion Tesseract produces inside words.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = reBoxNoise.ReplaceAllString(s, " ")
	s = rePipeWord.ReplaceAllString(s, "${1}I")
	s = reWordPipe.ReplaceAllString(s, "I${1}")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// dateLayouts are tried in order. Two-digit years resolve per Go's convention
// (69 -> 1969, 25 -> 2025).
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"January 2, 2006",
	"Jan 2, 2006",
}

// normalizeDate canonicalizes a scanned date to ISO 2006-01-02. Unparseable
// input is cleaned and passed through so the validator can flag it instead of
// the parser silently dropping it.
func normalizeDate(s string) string {
	s = cleanText(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func normalizeZip(s string) string {
	if m := reZip5.FindString(s); m != "" {
		return m
	}
	return cleanText(s)
}

// normalizePhone keeps the canonical US form when ten digits survive the scan.
func normalizePhone(s string) string {
	digits := strings.Join(rePhoneNum.FindAllString(s, -1), "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) == 10 {
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
	return cleanText(s)
}

func normalizeEmail(s string) string {
	s = cleanText(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToLower(s)
}

// normalizeHours extracts the leading numeric amount from a contact-time
// value ("2 hrs" -> "2").
func normalizeHours(s string) string {
	if m := reDigits.FindString(s); m != "" {
		return m
	}
	return cleanText(s)
}
