package selector

import "options-trader/internal/config"

// ConflictRule reports whether two index tags are correlated closely enough
// that holding positions on both is double exposure.
type ConflictRule interface {
	Correlated(a, b string) bool
}

// GroupRule implements ConflictRule with static correlation groups: two
// indices conflict when they share a group. An index conflicts with itself.
type GroupRule struct {
	groups map[string]string
}

// NewGroupRule creates a rule from the configured correlation groups.
func NewGroupRule(params config.StrategyParams) *GroupRule {
	return &GroupRule{groups: params.CorrelationGroups}
}

// Correlated reports whether a and b share a correlation group.
func (r *GroupRule) Correlated(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ga, ok := r.groups[a]
	if !ok {
		return false
	}
	gb, ok := r.groups[b]
	return ok && ga == gb
}
