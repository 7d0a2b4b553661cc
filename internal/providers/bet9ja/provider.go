// Package bet9ja adapts the Bet9ja coupon API. Booking codes are loaded
// through the desktop CouponAjax endpoint and re-booked through the
// form-encoded BookABetV2 endpoint, whose EVS payload must carry the raw
// selection objects keyed the way the coupon response keyed them.
package bet9ja

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"betbridge/internal/matcher"
	"betbridge/internal/pkg/config"
	"betbridge/internal/pkg/models"
	"betbridge/internal/providers/providerutil"
	"betbridge/internal/registry"
)

const providerName = "bet9ja"

const dateLayout = "2006-01-02 15:04:05"

type Provider struct {
	client *client
	reg    *registry.Registry
	match  *matcher.Matcher
	opts   matcher.Options
}

func New(cfg *config.Config, reg *registry.Registry, m *matcher.Matcher, cache providerutil.SearchCache) *Provider {
	pc := cfg.Providers.Bet9ja
	return &Provider{
		client: newClient(pc.CouponBaseURL, pc.APIBaseURL, pc.CacheVersion,
			cfg.ProviderTimeout(pc.Timeout), cfg.Providers.RequestsPerSec, cache, cfg.Providers.SearchCacheTTL),
		reg:   reg,
		match: m,
		opts:  matcher.PresetByName(cfg.Matcher.Preset),
	}
}

func (p *Provider) Name() string { return providerName }

var (
	colonPairRe = regexp.MustCompile(`\d+:\d+`)
	lineRe      = regexp.MustCompile(`\d+\.\d+`)
)

// deriveSpecifier pulls the line out of the market label, where Bet9ja
// embeds it ("Handicap 1:0", "Over/Under 2.5").
func deriveSpecifier(marketName string) string {
	if m := colonPairRe.FindString(marketName); m != "" {
		return m
	}
	return lineRe.FindString(marketName)
}

func (p *Provider) Extract(ctx context.Context, code string) ([]models.Selection, error) {
	body, err := p.client.getCoupon(ctx, code)
	if err != nil {
		return nil, &models.ExtractionError{Provider: providerName, Code: code, Err: err}
	}

	var rsp b9CouponRsp
	if err := json.Unmarshal(body, &rsp); err != nil {
		return nil, &models.ExtractionError{Provider: providerName, Code: code,
			Err: fmt.Errorf("decode coupon: %w", err)}
	}

	raw := rsp.selections()
	selections := make([]models.Selection, 0, len(raw))
	for _, entry := range raw {
		var item b9Item
		if err := json.Unmarshal(entry.Raw, &item); err != nil {
			slog.Warn("Bet9ja: skipping undecodable selection", "key", entry.Key, "error", err)
			continue
		}

		home, away := splitEventName(item.EName)
		league := item.GN
		if league == "" {
			league = "Unknown League"
		}
		odds, _ := item.V.Float64()
		marketID := item.MarketID
		if marketID == "" {
			marketID = item.MName
		}
		outcomeID := item.SignID
		if outcomeID == "" {
			outcomeID = item.SGN
		}

		sel := models.Selection{
			EventID: item.EID.String(),
			GameID:  item.EID.String(),
			Home:    home,
			Away:    away,
			League:  league,
			Country: "World",
			Date:    parseDate(item.StartDate),
			Market: models.Market{
				ID:        marketID,
				Name:      item.MName,
				Specifier: deriveSpecifier(item.MName),
			},
			Outcome: models.Outcome{
				ID:   outcomeID,
				Name: item.SGN,
				Odds: odds,
			},
		}
		sel.Provenance = provenanceFor(entry.Raw, entry.Key)
		selections = append(selections, sel)
	}
	return selections, nil
}

func splitEventName(name string) (home, away string) {
	parts := strings.SplitN(name, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return name, ""
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// provenanceFor re-marshals the raw selection with its map key injected,
// since the booking payload needs the key but the item itself omits it.
func provenanceFor(itemRaw json.RawMessage, key string) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(itemRaw, &fields); err != nil {
		return itemRaw
	}
	fields["id"], _ = json.Marshal(key)
	sid := ""
	if i := strings.Index(key, "$"); i >= 0 {
		sid = key[i+1:]
	}
	fields["sid"], _ = json.Marshal(sid)
	out, err := json.Marshal(fields)
	if err != nil {
		return itemRaw
	}
	return out
}

func (p *Provider) Book(ctx context.Context, selections []models.Selection) (string, error) {
	odds := make(map[string]string, len(selections))
	evs := make(map[string]json.RawMessage, len(selections))
	for _, s := range selections {
		key, raw := bookingEntry(s)
		odds[key] = strconv.FormatFloat(s.Outcome.Odds, 'f', -1, 64)
		evs[key] = raw
	}

	numLines := len(selections)
	slip := b9BetSlip{
		Bets: []b9Bet{{
			BSType:   0,
			Tab:      0,
			NumLines: numLines,
			Comb:     1,
			Type:     numLines,
			Stake:    100,
			Odds:     odds,
			Fixed:    map[string]any{},
		}},
		Evs:         evs,
		Impersonize: 0,
	}
	payload, err := json.Marshal(slip)
	if err != nil {
		return "", &models.BookingError{Provider: providerName, Err: fmt.Errorf("marshal betslip: %w", err)}
	}

	body, err := p.client.book(ctx, string(payload))
	if err != nil {
		return "", &models.BookingError{Provider: providerName, Err: err}
	}
	code, ok := parseBookResponse(body)
	if !ok {
		return "", &models.BookingError{Provider: providerName, Message: "no booking code in response"}
	}
	return code, nil
}

// bookingEntry returns the EVS key and raw object for one selection. A
// selection extracted from Bet9ja carries the original item in its
// provenance, keyed and re-sent verbatim; a converted selection gets a
// synthesized key and a minimal item built from the translated ids.
func bookingEntry(s models.Selection) (string, json.RawMessage) {
	if len(s.Provenance) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(s.Provenance, &fields); err == nil {
			if idRaw, ok := fields["id"]; ok {
				var key string
				if err := json.Unmarshal(idRaw, &key); err == nil && key != "" {
					return key, s.Provenance
				}
			}
		}
	}

	key := s.GameID + "$" + s.Outcome.ID
	item := map[string]any{
		"E_ID":   s.GameID,
		"E_NAME": s.Name(),
		"GN":     s.League,
		"M_NAME": s.Market.Name,
		"SGN":    s.Outcome.Name,
		"V":      strconv.FormatFloat(s.Outcome.Odds, 'f', -1, 64),
		"id":     key,
		"sid":    s.Outcome.ID,
	}
	raw, _ := json.Marshal(item)
	return key, raw
}

// FindEvent searches the palimpsest with ordered query variants and runs
// the results through the matcher. Never returns an error; failures
// degrade to nil.
func (p *Provider) FindEvent(ctx context.Context, home, away string, date time.Time) *models.EventCandidate {
	queries := p.reg.SearchQueries(home)

	var results []b9SearchEvent
	for _, q := range queries {
		body, err := p.client.search(ctx, q)
		if err != nil {
			slog.Debug("Bet9ja: search request failed", "query", q, "error", err)
			continue
		}
		var rsp b9SearchRsp
		if err := json.Unmarshal(body, &rsp); err != nil {
			continue
		}
		if events := rsp.events(); len(events) > 0 {
			results = events
			slog.Debug("Bet9ja: search query yielded events", "query", q, "events", len(results))
			break
		}
	}
	if len(results) == 0 {
		return nil
	}

	candidates := make([]models.EventCandidate, 0, len(results))
	for _, r := range results {
		h, a := splitEventName(r.DS)
		candidates = append(candidates, models.EventCandidate{
			ID:     r.ID.String(),
			GameID: r.ID.String(),
			Home:   h,
			Away:   a,
			Date:   parseDate(r.StartDate),
			Raw:    mustMarshal(r),
		})
	}

	best, _ := p.match.FindMatchingEvent(matcher.SourceEvent{Home: home, Away: away, Date: date}, candidates, p.opts)
	return best
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
