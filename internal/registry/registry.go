// Package registry holds the static cross-provider dictionaries: team name
// aliases and canonical market tables (per-provider market ids, outcome
// label to id maps, specifier encoding rules). Loaded once at startup,
// read-only afterwards.
package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed data/team_aliases.json data/market_mappings.json
var dataFS embed.FS

// CanonicalMarketType is the provider-independent translation pivot.
type CanonicalMarketType string

const (
	MatchResult      CanonicalMarketType = "match_result"
	DoubleChance     CanonicalMarketType = "double_chance"
	OverUnder        CanonicalMarketType = "over_under"
	BothTeamsToScore CanonicalMarketType = "both_teams_to_score"
	Handicap         CanonicalMarketType = "handicap"
)

// marketTypeOrder fixes iteration order for deterministic id-based lookups.
var marketTypeOrder = []CanonicalMarketType{
	MatchResult, DoubleChance, OverUnder, BothTeamsToScore, Handicap,
}

// OutcomeLabel is a canonical outcome within a market type.
type OutcomeLabel string

const (
	LabelHome  OutcomeLabel = "Home"
	LabelAway  OutcomeLabel = "Away"
	LabelDraw  OutcomeLabel = "Draw"
	LabelOver  OutcomeLabel = "Over"
	LabelUnder OutcomeLabel = "Under"
	LabelYes   OutcomeLabel = "Yes"
	LabelNo    OutcomeLabel = "No"
	Label1X    OutcomeLabel = "1X"
	Label12    OutcomeLabel = "12"
	LabelX2    OutcomeLabel = "X2"
)

// SpecifierMode says how a provider encodes market parameters for a market.
type SpecifierMode string

const (
	// SpecifierNone: market takes no parameter.
	SpecifierNone SpecifierMode = "none"
	// SpecifierTotalToken: goal line as "total=2.5".
	SpecifierTotalToken SpecifierMode = "total_token"
	// SpecifierBareParam: bare numeric parameter, "2.5".
	SpecifierBareParam SpecifierMode = "bare_param"
	// SpecifierColon: handicap line as a colon pair, "1:0".
	SpecifierColon SpecifierMode = "colon"
	// SpecifierHcpToken: handicap colon pair with prefix, "hcp=1:0".
	SpecifierHcpToken SpecifierMode = "hcp_token"
	// SpecifierSplitParam: signed numeric parameter relative to the selected
	// side, with the market id swapped between a home-handicap and an
	// away-handicap market.
	SpecifierSplitParam SpecifierMode = "split_param"
)

// ProviderMarket is one provider's encoding of a canonical market type.
// AwayMarketID is set only for split-handicap providers.
type ProviderMarket struct {
	MarketID     string                  `json:"market_id"`
	AwayMarketID string                  `json:"away_market_id,omitempty"`
	Specifier    SpecifierMode           `json:"specifier"`
	Outcomes     map[OutcomeLabel]string `json:"outcomes"`
}

// Registry is the loaded alias and market dictionary. Immutable after Load.
type Registry struct {
	aliases map[string][]string
	// aliasKeys fixes lookup order; Go map iteration is randomized and
	// alias resolution must be deterministic.
	aliasKeys []string
	markets   map[CanonicalMarketType]map[string]ProviderMarket
	// idTypes maps known provider market ids to their canonical type,
	// built from the market tables; used as a classification fallback
	// when the market name is unrecognizable.
	idTypes map[string]CanonicalMarketType
}

// Load parses the embedded dictionaries. Call once at process start.
func Load() (*Registry, error) {
	r := &Registry{
		idTypes: make(map[string]CanonicalMarketType),
	}

	aliasData, err := dataFS.ReadFile("data/team_aliases.json")
	if err != nil {
		return nil, fmt.Errorf("read team aliases: %w", err)
	}
	if err := json.Unmarshal(aliasData, &r.aliases); err != nil {
		return nil, fmt.Errorf("parse team aliases: %w", err)
	}
	r.aliasKeys = make([]string, 0, len(r.aliases))
	for k := range r.aliases {
		r.aliasKeys = append(r.aliasKeys, k)
	}
	sort.Strings(r.aliasKeys)

	marketData, err := dataFS.ReadFile("data/market_mappings.json")
	if err != nil {
		return nil, fmt.Errorf("read market mappings: %w", err)
	}
	if err := json.Unmarshal(marketData, &r.markets); err != nil {
		return nil, fmt.Errorf("parse market mappings: %w", err)
	}

	for _, mt := range marketTypeOrder {
		for _, pm := range r.markets[mt] {
			if pm.MarketID != "" {
				if _, ok := r.idTypes[pm.MarketID]; !ok {
					r.idTypes[pm.MarketID] = mt
				}
			}
			if pm.AwayMarketID != "" {
				if _, ok := r.idTypes[pm.AwayMarketID]; !ok {
					r.idTypes[pm.AwayMarketID] = mt
				}
			}
		}
	}

	return r, nil
}

// ProviderMarket returns the target encoding of a canonical market type for
// one provider, or false when the provider does not support the type.
func (r *Registry) ProviderMarket(t CanonicalMarketType, provider string) (ProviderMarket, bool) {
	byProvider, ok := r.markets[t]
	if !ok {
		return ProviderMarket{}, false
	}
	pm, ok := byProvider[provider]
	return pm, ok
}
