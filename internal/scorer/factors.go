package scorer

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/sells-group/govcon-cli/internal/model"
)

// scoreNAICS returns 100 for a primary code, 80 for a secondary code, 50 when
// the first four digits match either list, else 0.
func scoreNAICS(code string, primary, secondary []string) float64 {
	code = strings.TrimSpace(code)
	if code == "" || (len(primary) == 0 && len(secondary) == 0) {
		return 0
	}
	if slices.Contains(primary, code) {
		return 100
	}
	if slices.Contains(secondary, code) {
		return 80
	}
	if len(code) < 4 {
		return 0
	}
	prefix := code[:4]
	for _, c := range slices.Concat(primary, secondary) {
		if len(c) >= 4 && c[:4] == prefix {
			return 50
		}
	}
	return 0
}

// scoreCapability measures how much of the opportunity description the
// capability statement covers. Missing text on either side is neutral.
func scoreCapability(capabilities, description string) float64 {
	capWords := wordSet(capabilities)
	descWords := wordSet(description)
	if len(capWords) == 0 || len(descWords) == 0 {
		return 50
	}

	var shared int
	for w := range descWords {
		if _, ok := capWords[w]; ok {
			shared++
		}
	}
	return math.Min(100, 200*float64(shared)/float64(len(descWords)))
}

// wordSet splits text on anything that is not a letter or digit and
// case-folds each word.
func wordSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// scorePastPerformance is a placeholder until contract history is modelled.
func scorePastPerformance(summary string) float64 {
	if strings.TrimSpace(summary) != "" {
		return 70
	}
	return 30
}

func scoreGeographic(state, headquarters string, regions []string) float64 {
	if state == "" {
		return 100
	}
	if strings.EqualFold(state, headquarters) {
		return 100
	}
	for _, r := range regions {
		if strings.EqualFold(state, strings.TrimSpace(r)) {
			return 80
		}
	}
	return 40
}

// setAsideCategory is the certification a set-aside is reserved for.
type setAsideCategory int

const (
	setAsideNone setAsideCategory = iota
	setAsideSmallBusiness
	setAsideEightA
	setAsideHUBZone
	setAsideVeteran
	setAsideWoman
	setAsideOther
)

// setAsideCodes maps SAM.gov typeOfSetAside codes to categories.
var setAsideCodes = map[string]setAsideCategory{
	"SBA":      setAsideSmallBusiness,
	"SBP":      setAsideSmallBusiness,
	"8A":       setAsideEightA,
	"8AN":      setAsideEightA,
	"HZC":      setAsideHUBZone,
	"HZS":      setAsideHUBZone,
	"SDVOSBC":  setAsideVeteran,
	"SDVOSBS":  setAsideVeteran,
	"VSA":      setAsideVeteran,
	"VSS":      setAsideVeteran,
	"WOSB":     setAsideWoman,
	"WOSBSS":   setAsideWoman,
	"EDWOSB":   setAsideWoman,
	"EDWOSBSS": setAsideWoman,
}

// classifySetAside resolves a set-aside code or description to a category.
func classifySetAside(setAside string) setAsideCategory {
	s := strings.TrimSpace(setAside)
	if s == "" || strings.EqualFold(s, "NONE") {
		return setAsideNone
	}
	if c, ok := setAsideCodes[strings.ToUpper(s)]; ok {
		return c
	}

	folded := cases.Fold().String(s)
	switch {
	case strings.Contains(folded, "8(a)") || strings.Contains(folded, "8a "):
		return setAsideEightA
	case strings.Contains(folded, "hubzone"):
		return setAsideHUBZone
	case strings.Contains(folded, "veteran"):
		return setAsideVeteran
	case strings.Contains(folded, "women") || strings.Contains(folded, "woman"):
		return setAsideWoman
	case strings.Contains(folded, "small business"):
		return setAsideSmallBusiness
	}
	return setAsideOther
}

// scoreCertification returns 100 when the profile holds the certification
// the set-aside names, 90 when a small-business set-aside is met only through
// a socio-economic certification (those firms are small by definition), and
// 0 otherwise.
func scoreCertification(setAside string, p *model.CompanyProfile) float64 {
	socioEconomic := p.EightA || p.HUBZone || p.VeteranOwned || p.WomanOwned

	switch classifySetAside(setAside) {
	case setAsideNone:
		return 100
	case setAsideSmallBusiness:
		if p.SmallBusiness {
			return 100
		}
		if socioEconomic {
			return 90
		}
	case setAsideEightA:
		if p.EightA {
			return 100
		}
	case setAsideHUBZone:
		if p.HUBZone {
			return 100
		}
	case setAsideVeteran:
		if p.VeteranOwned {
			return 100
		}
	case setAsideWoman:
		if p.WomanOwned {
			return 100
		}
	}
	return 0
}

// scoreClearance averages pass/fail over the requirements that apply.
func scoreClearance(opp *model.Opportunity, p *model.CompanyProfile) float64 {
	var total, n float64
	if opp.RequiresClearance {
		n++
		if p.FacilityClearance {
			total += 100
		}
	}
	if opp.RequiresITAR {
		n++
		if p.ITARRegistered {
			total += 100
		}
	}
	if n == 0 {
		return 100
	}
	return total / n
}

// contractValue is the estimated value, falling back to the award amount.
func contractValue(opp *model.Opportunity) *float64 {
	if v := opp.EstimatedValue(); v != nil {
		return v
	}
	return opp.AwardAmount
}

// scoreContractSize compares contract value to annual revenue. Contracts
// under 5% of revenue score 50.
func scoreContractSize(value, revenue *float64) float64 {
	if value == nil || revenue == nil || *revenue <= 0 || *value < 0 {
		return 70
	}
	ratio := *value / *revenue
	switch {
	case ratio > 1.0:
		return 30
	case ratio > 0.5:
		return 70
	case ratio >= 0.05:
		return 100
	default:
		return 50
	}
}
