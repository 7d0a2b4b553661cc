// Package translator converts one selection's market, outcome and specifier
// from a source provider's encoding to a target provider's, pivoting through
// the canonical market type. It is stateless: everything it needs comes from
// the selection and the alias registry.
package translator

import (
	"log/slog"
	"regexp"

	"betbridge/internal/pkg/models"
	"betbridge/internal/registry"
)

type Translator struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Translator {
	return &Translator{reg: reg}
}

// Translate re-stamps the selection's market id, outcome id and specifier
// for the target provider and sets a terminal status. Classification
// failures are hard stops (unmapped_market / target_unsupported); an
// unresolvable outcome label degrades to passing the raw source outcome id
// through and the translation continues.
func (t *Translator) Translate(sel models.Selection, sourceProvider, targetProvider string) models.Selection {
	marketType, ok := t.reg.ClassifyMarket(sel.Market.Name, sel.Market.ID)
	if !ok {
		sel.Status = models.StatusUnmappedMarket
		return sel
	}

	targetMarket, ok := t.reg.ProviderMarket(marketType, targetProvider)
	if !ok {
		sel.Status = models.StatusTargetUnsupported
		return sel
	}
	sourceMarket, _ := t.reg.ProviderMarket(marketType, sourceProvider)

	label, labelOK := t.reg.ResolveOutcomeLabel(sel.Outcome.Name, sourceMarket)

	targetOutcomeID := ""
	if labelOK {
		targetOutcomeID = targetMarket.Outcomes[label]
	}
	if targetOutcomeID == "" {
		// Best-effort pass-through of the source id. Almost certainly wrong
		// on a foreign id space, but the original behavior is to try anyway
		// rather than fail the leg.
		targetOutcomeID = sel.Outcome.ID
		slog.Warn("Translator: outcome label unresolved, passing raw id through",
			"selection", sel.Outcome.Name, "raw_id", targetOutcomeID, "market_type", string(marketType))
	}

	targetMarketID := targetMarket.MarketID
	targetSpecifier := ""

	switch marketType {
	case registry.OverUnder:
		line := extractLine(sel.Outcome.Name, sel.Market.Specifier)
		targetSpecifier = encodeLine(line, targetMarket.Specifier)
	case registry.Handicap:
		home, away, parsed := parseHandicap(sel.Market.Specifier, label)
		if parsed {
			targetMarketID, targetSpecifier = encodeHandicap(home, away, label, targetMarket)
		}
	}

	sel.Market.ID = targetMarketID
	sel.Market.Specifier = targetSpecifier
	sel.Outcome.ID = targetOutcomeID
	sel.Status = models.StatusMapped
	return sel
}

var numberRe = regexp.MustCompile(`(\d+\.?\d*)`)

// extractLine pulls the goal line out of a selection name ("Over 2.5") or an
// existing specifier ("total=2.5"); the first numeric token wins.
func extractLine(selectionName, specifier string) string {
	if m := numberRe.FindString(selectionName); m != "" {
		return m
	}
	if m := numberRe.FindString(specifier); m != "" {
		return m
	}
	return ""
}

func encodeLine(line string, mode registry.SpecifierMode) string {
	if line == "" {
		return ""
	}
	switch mode {
	case registry.SpecifierTotalToken:
		return "total=" + line
	default:
		return line
	}
}
