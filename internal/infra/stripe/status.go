package stripe

import "strings"

var statusAliases = map[string]string{
	"active":             "active",
	"trialing":           "trialing",
	"past_due":           "past_due",
	"unpaid":             "past_due",
	"incomplete":         "past_due",
	"canceled":           "canceled",
	"incomplete_expired": "canceled",
	"paused":             "canceled",
}

// NormalizeStripeStatus folds Stripe subscription statuses into the
// handful the storefront cares about. Unknown values pass through.
func NormalizeStripeStatus(s *string) string {
	if s == nil {
		return "none"
	}
	raw := strings.ToLower(strings.TrimSpace(*s))
	if raw == "" {
		return "none"
	}
	if v, ok := statusAliases[raw]; ok {
		return v
	}
	return raw
}
