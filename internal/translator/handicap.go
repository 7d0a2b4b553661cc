package translator

import (
	"strconv"
	"strings"

	"betbridge/internal/registry"
)

// Handicap lines travel in two encodings: a colon pair ("1:0", sometimes
// prefixed as "hcp=1:0") giving the (home, away) goals directly, or a single
// signed parameter relative to the selected side. The sign convention for
// the parameter form is reconstructed from observed provider behavior, not
// documentation: param = home-away when the Home/Draw side is selected,
// away-home when the Away/X2 side is selected. Do not "fix" perceived
// inconsistencies here without validating against live provider responses.

// homeSide reports whether the selected label bets on the home side of the
// handicap. Draw and 1X ride with home; unknown labels default to home.
func homeSide(label registry.OutcomeLabel) bool {
	switch label {
	case registry.LabelAway, registry.LabelX2:
		return false
	default:
		return true
	}
}

// parseHandicap normalizes whichever encoding the source used into a
// canonical (home, away) integer pair.
func parseHandicap(specifier string, label registry.OutcomeLabel) (home, away int, ok bool) {
	spec := strings.TrimSpace(specifier)
	if spec == "" {
		return 0, 0, false
	}
	// Strip a "key=" prefix ("hcp=1:0" -> "1:0").
	if i := strings.LastIndexByte(spec, '='); i >= 0 {
		spec = spec[i+1:]
	}

	if strings.ContainsRune(spec, ':') {
		parts := strings.SplitN(spec, ":", 2)
		h, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
		a, errA := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errH != nil || errA != nil {
			return 0, 0, false
		}
		return h, a, true
	}

	param, err := strconv.Atoi(strings.TrimPrefix(spec, "+"))
	if err != nil {
		return 0, 0, false
	}
	if !homeSide(label) {
		param = -param
	}
	// param is now home-away; spread it over a zero baseline.
	if param >= 0 {
		return param, 0, true
	}
	return 0, -param, true
}

// encodeHandicap renders the canonical pair in the target provider's
// encoding. Split-param providers get the market id swapped to their
// away-handicap market when the away side is selected.
func encodeHandicap(home, away int, label registry.OutcomeLabel, target registry.ProviderMarket) (marketID, specifier string) {
	marketID = target.MarketID
	pair := strconv.Itoa(home) + ":" + strconv.Itoa(away)

	switch target.Specifier {
	case registry.SpecifierColon:
		return marketID, pair
	case registry.SpecifierHcpToken:
		return marketID, "hcp=" + pair
	case registry.SpecifierSplitParam:
		param := home - away
		if !homeSide(label) {
			param = -param
			if target.AwayMarketID != "" {
				marketID = target.AwayMarketID
			}
		}
		return marketID, strconv.Itoa(param)
	default:
		return marketID, pair
	}
}
