// Package matcher resolves "the same match" across providers that share no
// common event identifier. It scores candidate events against a source event
// on team names, full name string and start time, and keeps the best
// candidate over a threshold.
package matcher

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"betbridge/internal/pkg/models"
	"betbridge/internal/registry"
)

// Options weighs the score components. dateWeight + teamWeight +
// itemNameWeight should sum to 1.
type Options struct {
	Threshold      float64
	DateWeight     float64
	TeamWeight     float64
	ItemNameWeight float64
}

// Presets tuned on observed provider data. Strict for critical conversions,
// Relaxed for broader searches.
var (
	Strict  = Options{Threshold: 0.75, DateWeight: 0.3, TeamWeight: 0.5, ItemNameWeight: 0.2}
	Default = Options{Threshold: 0.65, DateWeight: 0.2, TeamWeight: 0.6, ItemNameWeight: 0.2}
	Relaxed = Options{Threshold: 0.55, DateWeight: 0.1, TeamWeight: 0.7, ItemNameWeight: 0.2}
)

// PresetByName resolves a config value to a preset, defaulting to Default.
func PresetByName(name string) Options {
	switch strings.ToLower(name) {
	case "strict":
		return Strict
	case "relaxed":
		return Relaxed
	default:
		return Default
	}
}

// SourceEvent describes the event we are trying to locate on another
// provider. ItemName and SportID are optional.
type SourceEvent struct {
	Home     string
	Away     string
	Date     time.Time
	ItemName string
	SportID  string
}

// Matcher scores event descriptors. Team names are normalized through the
// alias registry before comparison.
type Matcher struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Matcher {
	return &Matcher{reg: reg}
}

// Similarity scores two team names in [0,1]: 1 when the normalized forms are
// equal, 0.9 when one contains the other (partial-match boost), otherwise
// one minus the Levenshtein distance over the longer length.
func (m *Matcher) Similarity(a, b string) float64 {
	n1 := strings.ToLower(m.reg.NormalizeTeamName(a))
	n2 := strings.ToLower(m.reg.NormalizeTeamName(b))
	return rawSimilarity(n1, n2)
}

func rawSimilarity(n1, n2 string) float64 {
	if n1 == n2 {
		if n1 == "" {
			return 0
		}
		return 1
	}
	if n1 == "" || n2 == "" {
		return 0
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return 0.9
	}
	distance := fuzzy.LevenshteinDistance(n1, n2)
	maxLen := len([]rune(n1))
	if l := len([]rune(n2)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(distance)/float64(maxLen)
}

var itemNameJunkRe = regexp.MustCompile(`[^a-z0-9\s\-]`)
var vsRe = regexp.MustCompile(`(?i)\s+vs\s+`)

// normalizeItemName collapses "vs"-style separators so full name strings
// from different providers compare cleanly.
func normalizeItemName(s string) string {
	s = vsRe.ReplaceAllString(strings.ToLower(s), " - ")
	s = itemNameJunkRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// ItemNameSimilarity scores two full "Home - Away" strings.
func (m *Matcher) ItemNameSimilarity(a, b string) float64 {
	return rawSimilarity(normalizeItemName(a), normalizeItemName(b))
}

// DateProximity scores how close two start times are, in [0,1]. A zero time
// on either side is treated as unknown and scores a neutral 0.5. Beyond 12
// hours apart the score is 0, which disqualifies the candidate outright.
func DateProximity(t1, t2 time.Time) float64 {
	if t1.IsZero() || t2.IsZero() {
		return 0.5
	}
	diff := t1.Sub(t2)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 30*time.Minute:
		return 1
	case diff <= 3*time.Hour:
		return 0.8
	case diff <= 12*time.Hour:
		return 0.3
	default:
		return 0
	}
}

// FindMatchingEvent returns the highest-scoring candidate at or above the
// threshold, or nil. Candidates with a mismatched sport (when both sides
// declare one) or a disqualifying date distance are skipped.
func (m *Matcher) FindMatchingEvent(source SourceEvent, candidates []models.EventCandidate, opts Options) (*models.EventCandidate, models.MatchScore) {
	sourceItemName := source.ItemName
	if sourceItemName == "" {
		sourceItemName = source.Home + " - " + source.Away
	}

	var best *models.EventCandidate
	var bestScore models.MatchScore

	for i := range candidates {
		c := &candidates[i]

		if source.SportID != "" && c.SportID != "" && source.SportID != c.SportID {
			continue
		}

		dateScore := DateProximity(source.Date, c.Date)
		if dateScore == 0 {
			continue
		}

		teamScore := (m.Similarity(source.Home, c.Home) + m.Similarity(source.Away, c.Away)) / 2
		itemNameScore := m.ItemNameSimilarity(sourceItemName, c.Home+" - "+c.Away)

		finalScore := dateScore*opts.DateWeight + teamScore*opts.TeamWeight + itemNameScore*opts.ItemNameWeight

		if finalScore > bestScore.FinalScore && finalScore >= opts.Threshold {
			best = c
			bestScore = models.MatchScore{
				DateScore:     dateScore,
				TeamScore:     teamScore,
				ItemNameScore: itemNameScore,
				FinalScore:    finalScore,
			}
		}
	}

	if best != nil {
		slog.Debug("Matcher: candidate accepted",
			"home", best.Home, "away", best.Away,
			"final_score", bestScore.FinalScore, "team_score", bestScore.TeamScore)
	} else {
		slog.Debug("Matcher: no candidate above threshold",
			"home", source.Home, "away", source.Away, "candidates", len(candidates))
	}

	return best, bestScore
}
