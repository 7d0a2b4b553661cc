package registry

import (
	"regexp"
	"strings"
)

// parentheticalRe drops qualifiers like "(1:0)" or "(2.5)" from selection
// names before label matching.
var parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)

// ClassifyMarket maps a provider-local market name/id pair to a canonical
// market type. Provider market names are inconsistent free text, so this is
// heuristic substring matching with a known-id fallback, not a parser.
// Returns false for markets it cannot place.
func (r *Registry) ClassifyMarket(marketName, marketID string) (CanonicalMarketType, bool) {
	name := strings.ToLower(strings.TrimSpace(marketName))

	switch {
	case name == "":
		// fall through to id lookup
	case strings.Contains(name, "handicap") || strings.Contains(name, "hcp") || strings.Contains(name, "spread"):
		return Handicap, true
	case strings.Contains(name, "1x2") || strings.Contains(name, "winner") || strings.Contains(name, "match") || name == "1":
		return MatchResult, true
	case strings.Contains(name, "over") || strings.Contains(name, "under") || strings.Contains(name, "total"):
		return OverUnder, true
	case strings.Contains(name, "double") || strings.Contains(name, "chance"):
		return DoubleChance, true
	case strings.Contains(name, "both") || strings.Contains(name, "btts") || strings.Contains(name, "gg") || strings.Contains(name, "goal"):
		return BothTeamsToScore, true
	}

	if t, ok := r.idTypes[marketID]; ok {
		return t, true
	}
	return "", false
}

// ResolveOutcomeLabel maps a provider-local selection name to a canonical
// outcome label. The source provider's own outcome table is consulted first
// (name may match either a label or a raw id); a fixed heuristic table covers
// the common free-text spellings. Parenthetical qualifiers are stripped, so
// "Home (1:0)" resolves as "home". Returns false when nothing matches.
func (r *Registry) ResolveOutcomeLabel(selectionName string, source ProviderMarket) (OutcomeLabel, bool) {
	name := strings.ToLower(strings.TrimSpace(parentheticalRe.ReplaceAllString(selectionName, "")))
	if name == "" {
		return "", false
	}

	for label, id := range source.Outcomes {
		if name == strings.ToLower(string(label)) || name == strings.ToLower(id) {
			return label, true
		}
	}

	switch {
	case oneOf(name, "1", "home", "w1", "h", "1.0"):
		return LabelHome, true
	case oneOf(name, "2", "away", "w2", "a", "2.0"):
		return LabelAway, true
	case oneOf(name, "x", "draw", "d", "0"):
		return LabelDraw, true
	case strings.Contains(name, "over") || name == "o":
		return LabelOver, true
	case strings.Contains(name, "under") || name == "u":
		return LabelUnder, true
	case strings.Contains(name, "both teams to score - yes") || strings.Contains(name, "btts - yes") ||
		oneOf(name, "yes", "gg", "y", "btts yes"):
		return LabelYes, true
	case strings.Contains(name, "both teams to score - no") || strings.Contains(name, "btts - no") ||
		oneOf(name, "no", "ng", "n", "btts no"):
		return LabelNo, true
	case oneOf(name, "1x", "home or draw", "hd"):
		return Label1X, true
	case oneOf(name, "12", "home or away", "ha", "1 or 2"):
		return Label12, true
	case oneOf(name, "x2", "2x", "draw or away", "da"):
		return LabelX2, true
	}

	return "", false
}

func oneOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
