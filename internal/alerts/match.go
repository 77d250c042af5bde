// Package alerts evaluates opportunities against users' saved alert rules
// and manages those rules.
package alerts

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/govcon-cli/internal/model"
)

// MatchesAlert reports whether opp satisfies every criterion alert sets.
// A criterion the alert leaves empty always holds.
func MatchesAlert(opp *model.Opportunity, alert *model.OpportunityAlert) bool {
	return matchesNAICS(opp.NAICSCode, alert.NAICSCodes) &&
		matchesKeywords(opp.Title, opp.Description, alert.Keywords) &&
		matchesValue(opp.ComparisonValue(), alert.MinValue, alert.MaxValue)
}

// matchesNAICS holds when the code starts with any alert prefix.
func matchesNAICS(code string, prefixes []string) bool {
	prefixes = nonBlank(prefixes)
	if len(prefixes) == 0 {
		return true
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// matchesKeywords holds when any keyword occurs, case-insensitively, in the
// title or description.
func matchesKeywords(title, description string, keywords []string) bool {
	keywords = nonBlank(keywords)
	if len(keywords) == 0 {
		return true
	}
	fold := cases.Fold()
	text := fold.String(title) + "\n" + fold.String(description)
	for _, kw := range keywords {
		if strings.Contains(text, fold.String(kw)) {
			return true
		}
	}
	return false
}

// matchesValue checks the inclusive [min, max] range. An opportunity with no
// resolvable value fails whenever either bound is set.
func matchesValue(value, minValue, maxValue *float64) bool {
	if minValue == nil && maxValue == nil {
		return true
	}
	if value == nil {
		return false
	}
	if minValue != nil && *value < *minValue {
		return false
	}
	if maxValue != nil && *value > *maxValue {
		return false
	}
	return true
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
