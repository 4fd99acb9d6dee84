package parse

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scanwell/consult-intake/constants"
)

// ruleSpec is the YAML shape of one rule.
type ruleSpec struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Pattern    string   `yaml:"pattern"`
	Keyword    string   `yaml:"keyword"`
	Window     int      `yaml:"window"`
	From       float64  `yaml:"from"`
	To         float64  `yaml:"to"`
	Options    []string `yaml:"options"`
	Marked     bool     `yaml:"marked"`
	MinLength  int      `yaml:"min_length"`
	Confidence string   `yaml:"confidence"`
	Normalizer string   `yaml:"normalizer"`
}

type ruleSetSpec struct {
	Required []string              `yaml:"required"`
	Fields   map[string][]ruleSpec `yaml:"fields"`
}

// LoadRuleSet reads a YAML rule set from path. Fields present in the file
// replace the default rules for that field; absent fields keep the defaults.
// An empty required list keeps the default required fields.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}

	var spec ruleSetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}

	rs := DefaultRuleSet()
	if len(spec.Required) > 0 {
		rs.Required = spec.Required
	}
	for field, specs := range spec.Fields {
		rules := make([]*Rule, 0, len(specs))
		for i, s := range specs {
			r, err := compileRule(field, i, s)
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		}
		rs.Fields[field] = rules
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func compileRule(field string, idx int, s ruleSpec) (*Rule, error) {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("%s_rule_%d", field, idx)
	}

	conf, err := parseConfidence(s.Confidence)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}

	for _, pat := range []string{s.Pattern, s.Keyword} {
		if pat != "" {
			if _, err := regexp.Compile(pat); err != nil {
				return nil, fmt.Errorf("rule %s: bad pattern %q: %w", name, pat, err)
			}
		}
	}

	switch Kind(strings.ToLower(s.Kind)) {
	case KindAnchored:
		if s.Pattern == "" {
			return nil, fmt.Errorf("rule %s: anchored rule needs a pattern", name)
		}
		return NewAnchored(name, s.Pattern, conf, s.Normalizer), nil
	case KindProximity:
		if s.Pattern == "" || s.Keyword == "" {
			return nil, fmt.Errorf("rule %s: proximity rule needs keyword and pattern", name)
		}
		return NewProximity(name, s.Keyword, s.Pattern, s.Window, conf, s.Normalizer), nil
	case KindPositional:
		if s.Pattern == "" || s.To <= s.From {
			return nil, fmt.Errorf("rule %s: positional rule needs a pattern and from < to", name)
		}
		return NewPositional(name, s.Pattern, s.From, s.To, conf, s.Normalizer), nil
	case KindChoice:
		if len(s.Options) == 0 {
			return nil, fmt.Errorf("rule %s: choice rule needs options", name)
		}
		return NewChoice(name, s.Options, s.Marked, conf), nil
	case KindSection:
		if s.Keyword == "" {
			return nil, fmt.Errorf("rule %s: section rule needs a keyword", name)
		}
		return NewSection(name, s.Keyword, s.MinLength, conf), nil
	default:
		return nil, fmt.Errorf("rule %s: unknown kind %q", name, s.Kind)
	}
}

func parseConfidence(s string) (constants.Confidence, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return constants.ConfidenceHigh, nil
	case "MEDIUM", "":
		return constants.ConfidenceMedium, nil
	case "LOW":
		return constants.ConfidenceLow, nil
	default:
		return "", fmt.Errorf("unknown confidence %q", s)
	}
}
