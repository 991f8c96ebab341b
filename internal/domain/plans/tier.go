package plans

import "strings"

const (
	TierNone = "none"
	TierPro  = "pro"
)

// PlanTier returns the tier a plan grants. The storefront sells a single
// paid tier, so any stored plan maps to pro unless explicitly marked none.
func PlanTier(p *Plan) string {
	if p == nil {
		return TierNone
	}
	if strings.EqualFold(strings.TrimSpace(p.Tier), TierNone) {
		return TierNone
	}
	return TierPro
}
