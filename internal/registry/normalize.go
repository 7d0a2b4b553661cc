package registry

import (
	"regexp"
	"sort"
	"strings"
)

// Club-type tokens stripped before comparison so "RC Hades" and "Hades"
// resolve to the same name. Same idea as the prefix list used for
// cross-bookmaker match grouping; word-bounded so "Sporting" goes but
// "Sportingburg" stays.
var (
	clubTokenRe     = regexp.MustCompile(`\b(fc|ac|sc|cf|as|afc|rc|ksk|united|city|town|hotspur|real|inter|sporting|calcio|deportivo|fk|sk|nk|fsv|sv|vfb|tsg|bsc|vfl|rsc)\b`)
	leadingNumRe    = regexp.MustCompile(`\b\d+\.\s*`)
	foundingYearRe  = regexp.MustCompile(`\s+(05|04|1846|1899|1907|1909|1914|1916|1920|1948)$`)
	nonAlnumSpaceRe = regexp.MustCompile(`[^a-z0-9\s]`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]`)
)

// NormalizeTeamName resolves a provider's spelling of a club to one shared
// form. The alias dictionary is consulted on the full cleaned name first,
// then on the name with club-type tokens and founding years stripped, so
// "Manchester United" can never collapse to "manchester" and land on the
// wrong Manchester group. Containment is the last resort, runs on the
// stripped form only, and needs six or more characters to fire: "inter" and
// "sporting" are registered aliases, and containment on the unstripped name
// would swallow "Inter Miami" or "Sporting Braga" into the wrong group.
// Idempotent: canonical names resolve back to themselves.
func (r *Registry) NormalizeTeamName(name string) string {
	if name == "" {
		return ""
	}

	base := strings.ToLower(name)
	base = leadingNumRe.ReplaceAllString(base, "")
	base = nonAlnumSpaceRe.ReplaceAllString(base, "")
	base = strings.Join(strings.Fields(base), " ")

	stripped := clubTokenRe.ReplaceAllString(base, "")
	stripped = foundingYearRe.ReplaceAllString(stripped, "")
	stripped = strings.Join(strings.Fields(stripped), " ")

	baseSquash := nonAlnumRe.ReplaceAllString(base, "")
	strippedSquash := nonAlnumRe.ReplaceAllString(stripped, "")

	if c, ok := r.lookupAlias(baseSquash, true); ok {
		return c
	}
	if c, ok := r.lookupAlias(strippedSquash, true); ok {
		return c
	}
	if len(strippedSquash) >= 6 {
		if c, ok := r.lookupAlias(strippedSquash, false); ok {
			return c
		}
	}
	if stripped != "" {
		return stripped
	}
	return base
}

// lookupAlias scans alias groups in fixed order. exact requires the squashed
// forms to be equal; otherwise containment either way is enough.
func (r *Registry) lookupAlias(squashed string, exact bool) (string, bool) {
	if squashed == "" {
		return "", false
	}
	for _, canonical := range r.aliasKeys {
		names := make([]string, 0, len(r.aliases[canonical])+1)
		names = append(names, canonical)
		names = append(names, r.aliases[canonical]...)
		for _, n := range names {
			clean := nonAlnumRe.ReplaceAllString(strings.ToLower(n), "")
			if clean == "" {
				continue
			}
			if clean == squashed {
				return strings.ReplaceAll(canonical, "_", " "), true
			}
			if !exact && (strings.Contains(clean, squashed) || strings.Contains(squashed, clean)) {
				return strings.ReplaceAll(canonical, "_", " "), true
			}
		}
	}
	return "", false
}

// searchPrefixRe matches club-type abbreviations removed when building
// search queries (kept shorter than the normalization list: search engines
// handle full words like "United" fine, abbreviations they do not).
var searchPrefixRe = regexp.MustCompile(`\b(FC|SC|CF|AC|AS|AFC|SV|VfB|1\.|FSV|US|SS)\b`)

// SearchQueries builds the ordered query variants tried against a provider's
// free-text event search: alias-expanded names first (exact alias hit, then
// word-level hit), then the raw name with club tokens stripped, the raw name
// itself, and finally its longest word. Duplicates removed, order kept.
func (r *Registry) SearchQueries(team string) []string {
	var queries []string
	teamLower := strings.ToLower(strings.TrimSpace(team))

	// Exact alias match has priority so "Milan" does not pull "Inter Milan".
	if names, ok := r.aliasNames(teamLower, true); ok {
		queries = append(queries, names...)
	} else if names, ok := r.aliasNames(teamLower, false); ok {
		queries = append(queries, names...)
	}

	if len(queries) == 0 {
		cleaned := strings.TrimSpace(searchPrefixRe.ReplaceAllString(team, ""))
		cleaned = strings.Join(strings.Fields(cleaned), " ")
		if len(cleaned) > 2 {
			queries = append(queries, cleaned)
		}
		queries = append(queries, team)
		if w := longestWord(team); len(w) > 3 {
			queries = append(queries, w)
		}
	}

	return dedupe(queries)
}

// aliasNames returns up to three shortest known names for the alias group
// containing team. exact requires the full name to match; otherwise a
// word-level hit is enough.
func (r *Registry) aliasNames(teamLower string, exact bool) ([]string, bool) {
	for _, canonical := range r.aliasKeys {
		aliases := r.aliases[canonical]
		all := make([]string, 0, len(aliases)+1)
		all = append(all, strings.ReplaceAll(canonical, "_", " "))
		all = append(all, aliases...)

		hit := false
		for _, n := range all {
			n = strings.ToLower(strings.TrimSpace(n))
			if exact {
				if n == teamLower {
					hit = true
					break
				}
				continue
			}
			for _, w := range strings.Fields(n) {
				if w == teamLower {
					hit = true
					break
				}
			}
			if hit {
				break
			}
		}
		if hit {
			sorted := make([]string, len(all))
			copy(sorted, all)
			sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })
			if len(sorted) > 3 {
				sorted = sorted[:3]
			}
			return sorted, true
		}
	}
	return nil, false
}

func longestWord(s string) string {
	var longest string
	for _, w := range strings.Fields(s) {
		if len(w) > len(longest) {
			longest = w
		}
	}
	return longest
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
