package ocr

import (
	"regexp"
	"strings"

	"github.com/scanwell/consult-intake/internal/entity"
)

var (
	reDate  = regexp.MustCompile(`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	reZip   = regexp.MustCompile(`\b\d{5}\b`)
	reLabel = regexp.MustCompile(`(?i)\b(business|contact|consultation|advisor|session|name)\b`)
)

func hasDatePattern(s string) bool  { return reDate.MatchString(s) }
func hasZipPattern(s string) bool   { return reZip.MatchString(s) }
func hasLabelPattern(s string) bool { return reLabel.MatchString(s) }

// PageConfidence scores OCR output for one page in 0..1. Mean word confidence
// is used when the engine reported per-token data; otherwise a naive text
// heuristic based on common consultation-form artifacts.
func PageConfidence(text entity.PageText) float64 {
	words := text.Words()
	if len(words) > 0 {
		var sum float64
		for _, w := range words {
			sum += w.Confidence
		}
		return sum / float64(len(words))
	}
	return heuristicConfidence(strings.Join(text.Lines(), "\n"))
}

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float64 {
	// boost if we see form artifacts (date-ish, zip-ish, label keywords)
	txtL := strings.ToLower(txt)
	score := 0.2 // base
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasZipPattern(txtL) {
		score += 0.15
	}
	if hasLabelPattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
