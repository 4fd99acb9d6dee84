package parse

import (
	"log/slog"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/entity"
)

// Result is the parser's output for one logical form: the assembled record,
// one FieldExtraction per schema field (always the full fixed shape, nulls
// included), and any cross-page conflicts found while merging.
type Result struct {
	Record      entity.ConsultationRecord
	Extractions []entity.FieldExtraction
	Conflicts   []entity.FieldConflict
}

// Parser evaluates a rule set against ordered page text. Parsing is pure:
// the same pages and rules always produce an identical Result, and record
// identity/timestamps are stamped by the caller on emission.
type Parser struct {
	rules  *RuleSet
	logger *slog.Logger
}

func NewParser(rules *RuleSet, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &Parser{rules: rules, logger: logger}
}

// Rules exposes the active rule set (for the validator's required list).
func (p *Parser) Rules() *RuleSet { return p.rules }

// Parse applies the rule set to the pages of one logical form. For each
// field the rules run in order and the first rule matching anywhere wins;
// among that rule's per-page matches the earliest page (then earliest line)
// supplies the value. Differing values for the same field on different pages
// become a FieldConflict instead of being silently resolved.
func (p *Parser) Parse(pages []entity.PageText) Result {
	res := Result{
		Extractions: make([]entity.FieldExtraction, 0, len(entity.FieldKeys)),
	}

	for _, field := range entity.FieldKeys {
		ext, conflict := p.parseField(field, pages)
		res.Extractions = append(res.Extractions, ext)
		if conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
		}
	}

	res.Record = assemble(res.Extractions)
	return res
}

type pageMatch struct {
	page int
	m    Match
}

func (p *Parser) parseField(field string, pages []entity.PageText) (entity.FieldExtraction, *entity.FieldConflict) {
	for _, rule := range p.rules.Fields[field] {
		var matches []pageMatch
		for _, page := range pages {
			if m, ok := rule.Eval(page); ok {
				matches = append(matches, pageMatch{page: page.Index(), m: m})
			}
		}
		if len(matches) == 0 {
			continue
		}

		// earliest page wins; Eval already returns the earliest line per page
		win := matches[0]
		value := win.m.Value

		conflict := collectConflict(field, matches)

		p.logger.Debug("field matched",
			"field", field, "rule", rule.Name,
			"page", win.page, "line", win.m.Line, "confidence", rule.Confidence)

		return entity.FieldExtraction{
			Field:      field,
			Value:      &value,
			Page:       win.page,
			Line:       win.m.Line,
			Rule:       rule.Name,
			Confidence: rule.Confidence,
		}, conflict
	}

	// no rule matched: the field stays in the output schema as an explicit null
	return entity.FieldExtraction{
		Field:      field,
		Value:      nil,
		Page:       -1,
		Line:       -1,
		Confidence: constants.ConfidenceNone,
	}, nil
}

// collectConflict reports distinct values for one field across pages, or nil
// when all pages agree.
func collectConflict(field string, matches []pageMatch) *entity.FieldConflict {
	if len(matches) < 2 {
		return nil
	}
	seen := map[string]struct{}{}
	var values []string
	var pageIdx []int
	for _, pm := range matches {
		if _, dup := seen[pm.m.Value]; dup {
			continue
		}
		seen[pm.m.Value] = struct{}{}
		values = append(values, pm.m.Value)
		pageIdx = append(pageIdx, pm.page)
	}
	if len(values) < 2 {
		return nil
	}
	return &entity.FieldConflict{Field: field, Values: values, Pages: pageIdx}
}
