// Package sportybet adapts the SportyBet public share API: code extraction,
// re-booking and free-text event search. The share endpoint answers in
// JSON or XML with two observed nestings of the selection list; decoding
// runs an ordered list of shape recognizers and falls back to "no
// selections" on anything unrecognized.
package sportybet

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"betbridge/internal/matcher"
	"betbridge/internal/pkg/config"
	"betbridge/internal/pkg/models"
	"betbridge/internal/providers/providerutil"
	"betbridge/internal/registry"
)

const providerName = "sportybet"
const defaultSportID = "sr:sport:1" // football

type Provider struct {
	client *client
	reg    *registry.Registry
	match  *matcher.Matcher
	opts   matcher.Options
}

func New(cfg *config.Config, reg *registry.Registry, m *matcher.Matcher, cache providerutil.SearchCache) *Provider {
	pc := cfg.Providers.SportyBet
	return &Provider{
		client: newClient(pc.BaseURL, pc.Region, cfg.ProviderTimeout(pc.Timeout),
			cfg.Providers.RequestsPerSec, cache, cfg.Providers.SearchCacheTTL),
		reg:   reg,
		match: m,
		opts:  matcher.PresetByName(cfg.Matcher.Preset),
	}
}

func (p *Provider) Name() string { return providerName }

// shapeRecognizers are tried in order against the share response body; each
// either claims the shape and returns the selection list, or passes.
var shapeRecognizers = []struct {
	name   string
	decode func(body []byte) ([]sbOutcome, bool)
}{
	{"json data.outcomes", decodeJSONOutcomes},
	{"json data.ticket.selections", decodeJSONTicketSelections},
	{"xml data.outcomes", decodeXMLOutcomes},
	{"xml data.ticket.selections", decodeXMLTicketSelections},
}

func (p *Provider) Extract(ctx context.Context, code string) ([]models.Selection, error) {
	body, err := p.client.getShare(ctx, code)
	if err != nil {
		return nil, &models.ExtractionError{Provider: providerName, Code: code, Err: err}
	}

	if msg, ok := responseMessage(body); ok && !successMessage(msg) {
		return nil, &models.ExtractionError{Provider: providerName, Code: code,
			Err: fmt.Errorf("api error: %s", msg)}
	}

	for _, rec := range shapeRecognizers {
		outcomes, ok := rec.decode(body)
		if !ok {
			continue
		}
		slog.Debug("SportyBet: share response shape recognized", "shape", rec.name, "selections", len(outcomes))
		return p.toSelections(outcomes), nil
	}

	slog.Warn("SportyBet: unrecognized share response shape", "code", code)
	return []models.Selection{}, nil
}

// responseMessage pulls the wrapper message out of either format.
func responseMessage(body []byte) (string, bool) {
	if isXML(body) {
		var rsp sbXMLRsp
		if err := xml.Unmarshal(body, &rsp); err != nil {
			return "", false
		}
		return rsp.Message, rsp.Message != ""
	}
	var rsp sbBaseRsp
	if err := json.Unmarshal(body, &rsp); err != nil {
		return "", false
	}
	return rsp.Message, rsp.Message != ""
}

func successMessage(msg string) bool {
	return strings.EqualFold(msg, "success")
}

func isXML(body []byte) bool {
	return len(bytes.TrimSpace(body)) > 0 && bytes.TrimSpace(body)[0] == '<'
}

func decodeJSONOutcomes(body []byte) ([]sbOutcome, bool) {
	if isXML(body) {
		return nil, false
	}
	var rsp sbBaseRsp
	if err := json.Unmarshal(body, &rsp); err != nil || len(rsp.Data) == 0 {
		return nil, false
	}
	var data sbData
	if err := json.Unmarshal(rsp.Data, &data); err != nil || len(data.Outcomes) == 0 {
		return nil, false
	}
	var outcomes []sbOutcome
	if err := json.Unmarshal(data.Outcomes, &outcomes); err != nil {
		return nil, false
	}
	return outcomes, len(outcomes) > 0
}

func decodeJSONTicketSelections(body []byte) ([]sbOutcome, bool) {
	if isXML(body) {
		return nil, false
	}
	var rsp sbBaseRsp
	if err := json.Unmarshal(body, &rsp); err != nil || len(rsp.Data) == 0 {
		return nil, false
	}
	var data sbData
	if err := json.Unmarshal(rsp.Data, &data); err != nil || data.Ticket == nil || len(data.Ticket.Selections) == 0 {
		return nil, false
	}
	var outcomes []sbOutcome
	if err := json.Unmarshal(data.Ticket.Selections, &outcomes); err != nil {
		return nil, false
	}
	return outcomes, len(outcomes) > 0
}

func decodeXMLOutcomes(body []byte) ([]sbOutcome, bool) {
	if !isXML(body) {
		return nil, false
	}
	var rsp sbXMLRsp
	if err := xml.Unmarshal(body, &rsp); err != nil || len(rsp.Data.Outcomes.Outcomes) == 0 {
		return nil, false
	}
	outcomes := make([]sbOutcome, 0, len(rsp.Data.Outcomes.Outcomes))
	for _, x := range rsp.Data.Outcomes.Outcomes {
		outcomes = append(outcomes, x.toOutcome())
	}
	return outcomes, true
}

func decodeXMLTicketSelections(body []byte) ([]sbOutcome, bool) {
	if !isXML(body) {
		return nil, false
	}
	var rsp sbXMLRsp
	if err := xml.Unmarshal(body, &rsp); err != nil || len(rsp.Data.Ticket.Selections.Selections) == 0 {
		return nil, false
	}
	outcomes := make([]sbOutcome, 0, len(rsp.Data.Ticket.Selections.Selections))
	for _, x := range rsp.Data.Ticket.Selections.Selections {
		outcomes = append(outcomes, x.toOutcome())
	}
	return outcomes, true
}

func (p *Provider) toSelections(outcomes []sbOutcome) []models.Selection {
	selections := make([]models.Selection, 0, len(outcomes))
	for _, o := range outcomes {
		home := o.Home
		if home == "" {
			home = "Event " + o.EventID
		}
		gameID := o.GameID
		if gameID == "" {
			gameID = o.EventID
		}

		sel := models.Selection{
			EventID: o.EventID,
			GameID:  gameID,
			Home:    home,
			Away:    o.Away,
			League:  "Unknown League",
			Country: "World",
			Market: models.Market{
				ID:        string(o.MarketID),
				Name:      "Market",
				Specifier: o.Specifier,
			},
			Outcome: models.Outcome{
				ID:   string(o.OutcomeID),
				Name: "Selection",
				Odds: 1.0,
			},
		}
		if o.EstimateStartTime > 0 {
			sel.Date = time.UnixMilli(int64(o.EstimateStartTime)).UTC()
		}
		if o.Sport != nil {
			if n := o.Sport.Category.Tournament.Name; n != "" {
				sel.League = n
			}
			if n := o.Sport.Category.Name; n != "" {
				sel.Country = n
			}
		}

		if len(o.Markets) > 0 {
			mkt := o.Markets[0]
			sel.Market.ID = string(mkt.ID)
			if mkt.Desc != "" {
				sel.Market.Name = mkt.Desc
			} else if mkt.Name != "" {
				sel.Market.Name = mkt.Name
			}
			if mkt.Specifier != "" {
				sel.Market.Specifier = mkt.Specifier
			}
			if len(mkt.Outcomes) > 0 {
				out := mkt.Outcomes[0]
				sel.Outcome.ID = string(out.ID)
				if out.Desc != "" {
					sel.Outcome.Name = out.Desc
				} else if out.Name != "" {
					sel.Outcome.Name = out.Name
				}
				if out.Odds > 0 {
					sel.Outcome.Odds = float64(out.Odds)
				}
			}
		}

		if raw, err := json.Marshal(o); err == nil {
			sel.Provenance = raw
		}
		selections = append(selections, sel)
	}
	return selections
}

// bookSelection is one entry of the booking payload.
type bookSelection struct {
	EventID   string `json:"eventId"`
	MarketID  string `json:"marketId"`
	Specifier string `json:"specifier"`
	OutcomeID string `json:"outcomeId"`
	SportID   string `json:"sportId"`
}

func (p *Provider) Book(ctx context.Context, selections []models.Selection) (string, error) {
	payload := struct {
		Selections []bookSelection `json:"selections"`
	}{Selections: make([]bookSelection, 0, len(selections))}

	for _, s := range selections {
		eventID := s.GameID
		if eventID == "" {
			eventID = s.EventID
		}
		sportID := defaultSportID
		var prov struct {
			Sport *sbSport `json:"sport"`
		}
		if len(s.Provenance) > 0 && json.Unmarshal(s.Provenance, &prov) == nil && prov.Sport != nil && prov.Sport.ID != "" {
			sportID = prov.Sport.ID
		}
		payload.Selections = append(payload.Selections, bookSelection{
			EventID:   eventID,
			MarketID:  s.Market.ID,
			Specifier: s.Market.Specifier,
			OutcomeID: s.Outcome.ID,
			SportID:   sportID,
		})
	}

	body, err := p.client.postShare(ctx, payload)
	if err != nil {
		return "", &models.BookingError{Provider: providerName, Err: err}
	}

	if isXML(body) {
		var rsp sbXMLRsp
		if err := xml.Unmarshal(body, &rsp); err == nil && successMessage(rsp.Message) && rsp.Data.ShareCode != "" {
			return rsp.Data.ShareCode, nil
		}
		return "", &models.BookingError{Provider: providerName, Message: xmlMessage(body)}
	}

	var rsp sbBaseRsp
	if err := json.Unmarshal(body, &rsp); err != nil {
		return "", &models.BookingError{Provider: providerName, Err: fmt.Errorf("decode booking response: %w", err)}
	}
	if !successMessage(rsp.Message) {
		return "", &models.BookingError{Provider: providerName, Message: rsp.Message}
	}
	var data sbData
	if err := json.Unmarshal(rsp.Data, &data); err != nil || data.ShareCode == "" {
		return "", &models.BookingError{Provider: providerName, Message: "no share code in response"}
	}
	return data.ShareCode, nil
}

func xmlMessage(body []byte) string {
	var rsp sbXMLRsp
	if err := xml.Unmarshal(body, &rsp); err != nil {
		return "unparsable booking response"
	}
	return rsp.Message
}

// FindEvent searches SportyBet for the event, trying alias-expanded query
// variants in order and stopping at the first one the server answers with
// results. Simulated ("SRL") events are discarded. Never returns an error:
// search is advisory and any failure degrades to nil.
func (p *Provider) FindEvent(ctx context.Context, home, away string, date time.Time) *models.EventCandidate {
	queries := p.reg.SearchQueries(home)

	var events []sbSearchEvent
	for _, q := range queries {
		body, err := p.client.search(ctx, q)
		if err != nil {
			slog.Debug("SportyBet: search request failed", "query", q, "error", err)
			continue
		}
		var rsp sbSearchRsp
		if err := json.Unmarshal(body, &rsp); err != nil || rsp.BizCode != 10000 {
			continue
		}
		events = filterSimulated(append(rsp.Data.PreMatch, rsp.Data.Live...))
		if len(events) > 0 {
			slog.Debug("SportyBet: search query yielded events", "query", q, "events", len(events))
			break
		}
	}
	if len(events) == 0 {
		return nil
	}

	candidates := make([]models.EventCandidate, 0, len(events))
	for _, e := range events {
		c := models.EventCandidate{
			ID:     e.EventID,
			GameID: e.EventID,
			Home:   e.Home,
			Away:   e.Away,
		}
		if e.EstimateStartTime > 0 {
			c.Date = time.UnixMilli(int64(e.EstimateStartTime)).UTC()
		}
		if e.Sport != nil {
			c.SportID = e.Sport.ID
		}
		if raw, err := json.Marshal(e); err == nil {
			c.Raw = raw
		}
		candidates = append(candidates, c)
	}

	best, _ := p.match.FindMatchingEvent(matcher.SourceEvent{Home: home, Away: away, Date: date}, candidates, p.opts)
	return best
}

// filterSimulated drops Simulated Reality League events; they mirror real
// fixtures and routinely outscore them in the matcher.
func filterSimulated(events []sbSearchEvent) []sbSearchEvent {
	out := events[:0]
	for _, e := range events {
		name := strings.ToLower(e.Home + e.Away)
		tournament := ""
		if e.Sport != nil {
			tournament = strings.ToLower(e.Sport.Category.Tournament.Name)
		}
		if strings.Contains(name, " srl") || strings.Contains(tournament, "simulated reality") {
			continue
		}
		out = append(out, e)
	}
	return out
}
