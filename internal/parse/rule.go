// Package parse turns noisy OCR page text into a structured consultation
// record by evaluating an ordered, declarative rule set per field. Rules are
// data (pattern + confidence tier + normalizer), so the set can change
// without touching orchestration logic.
package parse

import (
	"regexp"
	"strings"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/entity"
)

// Kind tags the rule variants the evaluator understands.
type Kind string

const (
	// KindAnchored matches a label immediately followed by its value on the
	// same line. The most specific variant, tried first.
	KindAnchored Kind = "anchored"
	// KindProximity finds a keyword line, then looks for the value pattern
	// within a window of following lines.
	KindProximity Kind = "proximity"
	// KindPositional applies the value pattern only within a fractional line
	// region of the page (e.g. the bottom third).
	KindPositional Kind = "positional"
	// KindChoice detects a selection mark (X or a checkmark glyph) adjacent
	// to one of a fixed set of option labels.
	KindChoice Kind = "choice"
	// KindSection captures a labelled free-text section: the keyword line,
	// then every following line until a blank line or end of page.
	KindSection Kind = "section"
)

// Rule is one declarative extraction rule. Construct via the New* helpers or
// a rule-set config; zero values are not usable.
type Rule struct {
	Name       string
	Kind       Kind
	Confidence constants.Confidence

	pattern   *regexp.Regexp // value pattern (anchored/proximity/positional)
	keyword   *regexp.Regexp // anchor line (proximity/section)
	window    int            // proximity line window
	fromFrac  float64        // positional region start, fraction of page lines
	toFrac    float64        // positional region end
	options   []string       // choice labels, in priority order
	optionRes []*regexp.Regexp
	minLen    int // section: minimum captured length
	normalize Normalizer
}

// Match is one candidate value with its source line on a page.
type Match struct {
	Value string
	Line  int
}

// selection marks the scanner produces for filled checkboxes.
const markClass = `[Xx✓✗⌧]`

// NewAnchored builds a label-and-value-on-one-line rule. pattern must have a
// capture group for the value.
func NewAnchored(name, pattern string, conf constants.Confidence, norm string) *Rule {
	return &Rule{
		Name:       name,
		Kind:       KindAnchored,
		Confidence: conf,
		pattern:    regexp.MustCompile(pattern),
		normalize:  normalizerByName(norm),
	}
}

// NewProximity builds a keyword-then-value rule searching window lines below
// (and including) the keyword line.
func NewProximity(name, keyword, pattern string, window int, conf constants.Confidence, norm string) *Rule {
	if window <= 0 {
		window = 3
	}
	return &Rule{
		Name:       name,
		Kind:       KindProximity,
		Confidence: conf,
		keyword:    regexp.MustCompile(keyword),
		pattern:    regexp.MustCompile(pattern),
		window:     window,
		normalize:  normalizerByName(norm),
	}
}

// NewPositional builds a rule restricted to a fractional line region of the
// page; from and to are in [0,1] with from < to.
func NewPositional(name, pattern string, from, to float64, conf constants.Confidence, norm string) *Rule {
	return &Rule{
		Name:       name,
		Kind:       KindPositional,
		Confidence: conf,
		pattern:    regexp.MustCompile(pattern),
		fromFrac:   from,
		toFrac:     to,
		normalize:  normalizerByName(norm),
	}
}

// NewChoice builds a marked-option rule over a fixed option set. When marked
// is false the rule accepts a bare mention of an option label instead, which
// belongs in a lower confidence tier.
func NewChoice(name string, options []string, marked bool, conf constants.Confidence) *Rule {
	res := make([]*regexp.Regexp, len(options))
	for i, opt := range options {
		lab := flexibleLabel(opt)
		if marked {
			// mark may sit inside box glyphs: [X], (X), or bare X
			res[i] = regexp.MustCompile(`(?i)[\[\(]?` + markClass + `[\]\)]?\s*` + lab + `|` + lab + `\s*` + markClass + `\b`)
		} else {
			res[i] = regexp.MustCompile(`(?i)\b` + lab + `\b`)
		}
	}
	return &Rule{
		Name:       name,
		Kind:       KindChoice,
		Confidence: conf,
		options:    append([]string(nil), options...),
		optionRes:  res,
		normalize:  normalizerByName("text"),
	}
}

// NewSection builds a labelled free-text section rule.
func NewSection(name, keyword string, minLen int, conf constants.Confidence) *Rule {
	return &Rule{
		Name:       name,
		Kind:       KindSection,
		Confidence: conf,
		keyword:    regexp.MustCompile(keyword),
		minLen:     minLen,
		normalize:  normalizerByName("text"),
	}
}

// flexibleLabel turns an option label into a pattern tolerating whitespace
// and slash/hyphen variance from the scan.
func flexibleLabel(opt string) string {
	parts := strings.Fields(opt)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pat := strings.Join(parts, `[\s/\-]*`)
	// treat slashes and hyphens inside the quoted parts loosely too
	pat = strings.ReplaceAll(pat, `/`, `[\s/\-]*`)
	pat = strings.ReplaceAll(pat, `\-`, `[\s/\-]*`)
	return pat
}

// Eval evaluates the rule against one page, returning the first (earliest
// line) normalized non-empty match.
func (r *Rule) Eval(page entity.PageText) (Match, bool) {
	switch r.Kind {
	case KindAnchored:
		return r.evalPattern(page, 0, page.LineCount())
	case KindProximity:
		return r.evalProximity(page)
	case KindPositional:
		n := page.LineCount()
		from := int(r.fromFrac * float64(n))
		to := int(r.toFrac * float64(n))
		if to > n {
			to = n
		}
		return r.evalPattern(page, from, to)
	case KindChoice:
		return r.evalChoice(page)
	case KindSection:
		return r.evalSection(page)
	default:
		return Match{}, false
	}
}

func (r *Rule) evalPattern(page entity.PageText, from, to int) (Match, bool) {
	for i := from; i < to; i++ {
		if m := r.pattern.FindStringSubmatch(page.Line(i)); m != nil {
			v := r.normalize(captured(m))
			if v != "" {
				return Match{Value: v, Line: i}, true
			}
		}
	}
	return Match{}, false
}

func (r *Rule) evalProximity(page entity.PageText) (Match, bool) {
	n := page.LineCount()
	for i := 0; i < n; i++ {
		if !r.keyword.MatchString(page.Line(i)) {
			continue
		}
		end := i + r.window
		if end > n {
			end = n
		}
		if m, ok := r.evalPattern(page, i, end); ok {
			return m, true
		}
	}
	return Match{}, false
}

func (r *Rule) evalChoice(page entity.PageText) (Match, bool) {
	best := Match{Line: -1}
	for idx, re := range r.optionRes {
		for i := 0; i < page.LineCount(); i++ {
			if re.MatchString(page.Line(i)) {
				if best.Line == -1 || i < best.Line {
					best = Match{Value: r.options[idx], Line: i}
				}
				break
			}
		}
	}
	if best.Line == -1 {
		return Match{}, false
	}
	return best, true
}

func (r *Rule) evalSection(page entity.PageText) (Match, bool) {
	n := page.LineCount()
	for i := 0; i < n; i++ {
		line := page.Line(i)
		loc := r.keyword.FindStringIndex(line)
		if loc == nil {
			continue
		}
		var parts []string
		// text after the label on the keyword line itself
		if rest := cleanText(line[loc[1]:]); rest != "" {
			parts = append(parts, rest)
		}
		for j := i + 1; j < n; j++ {
			l := cleanText(page.Line(j))
			if l == "" {
				break
			}
			parts = append(parts, l)
		}
		v := r.normalize(strings.Join(parts, " "))
		if len(v) >= r.minLen {
			return Match{Value: v, Line: i}, true
		}
	}
	return Match{}, false
}

// captured returns the first non-empty capture group, or the whole match when
// the pattern has no groups.
func captured(m []string) string {
	if len(m) > 1 {
		for _, g := range m[1:] {
			if g != "" {
				return g
			}
		}
		return ""
	}
	return m[0]
}
