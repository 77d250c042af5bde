package scorer

import (
	"github.com/sells-group/govcon-cli/internal/model"
)

// Tag codes.
const (
	TagNAICSStrong      = "naics_strong"
	TagNAICSRelated     = "naics_related"
	TagNAICSMismatch    = "naics_mismatch"
	TagCapabilityStrong = "capability_strong"
	TagCapabilityWeak   = "capability_weak"
	TagNoPastPerf       = "no_past_performance"
	TagHomeState        = "home_state"
	TagServiceRegion    = "service_region"
	TagOutOfRegion      = "out_of_region"
	TagSetAsideEligible = "set_aside_eligible"
	TagSetAsideBlocked  = "set_aside_ineligible"
	TagClearanceGap     = "clearance_gap"
	TagITARGap          = "itar_gap"
	TagSizeFit          = "contract_size_fit"
	TagSizeOver         = "contract_size_over"
	TagIncumbent        = "incumbent"
)

func reason(code string, sev model.Severity, text string) model.MatchTag {
	return model.MatchTag{Code: code, Kind: model.TagReason, Severity: sev, Text: text}
}

func risk(code string, sev model.Severity, text string) model.MatchTag {
	return model.MatchTag{Code: code, Kind: model.TagRisk, Severity: sev, Text: text}
}

// BuildTags applies the reason and risk rules in a fixed order so the
// rendered strings are stable across recomputes.
func BuildTags(opp *model.Opportunity, p *model.CompanyProfile, c Components) []model.MatchTag {
	var tags []model.MatchTag

	switch {
	case c.NAICS >= 80:
		tags = append(tags, reason(TagNAICSStrong, model.SeverityHigh, "Strong NAICS code alignment"))
	case c.NAICS >= 50:
		tags = append(tags, reason(TagNAICSRelated, model.SeverityMedium, "Related NAICS industry group"))
	case opp.NAICSCode != "":
		tags = append(tags, risk(TagNAICSMismatch, model.SeverityMedium, "NAICS code outside company profile"))
	}

	if p.Capabilities != "" && opp.Description != "" {
		switch {
		case c.Capability >= 60:
			tags = append(tags, reason(TagCapabilityStrong, model.SeverityMedium, "Capabilities match the requirement"))
		case c.Capability < 20:
			tags = append(tags, risk(TagCapabilityWeak, model.SeverityLow, "Limited capability overlap"))
		}
	}

	if c.PastPerf < 50 {
		tags = append(tags, risk(TagNoPastPerf, model.SeverityLow, "No past performance on record"))
	}

	if opp.PlaceOfPerformanceState != "" {
		switch {
		case c.Geographic >= 100:
			tags = append(tags, reason(TagHomeState, model.SeverityLow, "Performed in headquarters state"))
		case c.Geographic >= 80:
			tags = append(tags, reason(TagServiceRegion, model.SeverityLow, "Within service regions"))
		default:
			tags = append(tags, risk(TagOutOfRegion, model.SeverityLow, "Outside service regions"))
		}
	}

	if classifySetAside(opp.SetAside) != setAsideNone {
		if c.Certification > 0 {
			tags = append(tags, reason(TagSetAsideEligible, model.SeverityHigh, "Eligible for "+opp.SetAside+" set-aside"))
		} else {
			tags = append(tags, risk(TagSetAsideBlocked, model.SeverityHigh, "Not eligible for "+opp.SetAside+" set-aside"))
		}
	}

	if opp.RequiresClearance && !p.FacilityClearance {
		tags = append(tags, risk(TagClearanceGap, model.SeverityHigh, "Requires facility clearance"))
	}
	if opp.RequiresITAR && !p.ITARRegistered {
		tags = append(tags, risk(TagITARGap, model.SeverityHigh, "Requires ITAR registration"))
	}

	if contractValue(opp) != nil && p.AnnualRevenue != nil {
		switch {
		case c.ContractSize >= 100:
			tags = append(tags, reason(TagSizeFit, model.SeverityMedium, "Contract size fits company revenue"))
		case c.ContractSize <= 30:
			tags = append(tags, risk(TagSizeOver, model.SeverityMedium, "Contract value exceeds annual revenue"))
		}
	}

	if opp.HasIncumbent() {
		tags = append(tags, risk(TagIncumbent, model.SeverityMedium, "Has incumbent contractor"))
	}

	return tags
}
