// Package onexbet adapts the 1xBet coupon API. Coupons are fetched and
// saved through the LiveBet/Open endpoints; event search merges the
// pre-match and live SearchZip feeds. The site rotates blocked country
// domains, so the client can resolve its live base URL from a mirror link.
package onexbet

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
	"betbridge/internal/pkg/mirror"
	"betbridge/internal/pkg/models"
	"betbridge/internal/providers/providerutil"
	"betbridge/internal/registry"
)

const providerName = "onexbet"

type Provider struct {
	client *client
	reg    *registry.Registry
	match  *matcher.Matcher
	opts   matcher.Options
}

func New(cfg *config.Config, reg *registry.Registry, m *matcher.Matcher, resolver *mirror.Resolver, cache providerutil.SearchCache) *Provider {
	pc := cfg.Providers.OneXBet
	return &Provider{
		client: newClient(pc.BaseURL, pc.MirrorURL, pc.Partner, cfg.ProviderTimeout(pc.Timeout),
			cfg.Providers.RequestsPerSec, resolver, cache, cfg.Providers.SearchCacheTTL),
		reg:   reg,
		match: m,
		opts:  matcher.PresetByName(cfg.Matcher.Preset),
	}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Extract(ctx context.Context, code string) ([]models.Selection, error) {
	body, err := p.client.getCoupon(ctx, code)
	if err != nil {
		return nil, &models.ExtractionError{Provider: providerName, Code: code, Err: err}
	}

	var rsp xbCouponRsp
	if err := json.Unmarshal(body, &rsp); err != nil {
		return nil, &models.ExtractionError{Provider: providerName, Code: code,
			Err: fmt.Errorf("decode coupon: %w", err)}
	}
	if !rsp.Success {
		msg := rsp.Error
		if msg == "" {
			msg = "invalid booking code"
		}
		return nil, &models.ExtractionError{Provider: providerName, Code: code,
			Err: fmt.Errorf("api error: %s", msg)}
	}

	selections := make([]models.Selection, 0, len(rsp.Value.Events))
	for _, ev := range rsp.Value.Events {
		gameID := strconv.FormatInt(ev.GameID, 10)
		country := ev.ConstCategory
		if country == "" {
			country = "World"
		}
		outcomeName := ev.MarketName
		if outcomeName == "" {
			outcomeName = ev.CoefName
		}
		specifier := ""
		if ev.Param != 0 {
			specifier = strconv.FormatFloat(ev.Param, 'f', -1, 64)
		}

		sel := models.Selection{
			EventID: gameID,
			GameID:  gameID,
			Home:    ev.Opp1,
			Away:    ev.Opp2,
			League:  ev.Liga,
			Country: country,
			Date:    time.Unix(ev.Start, 0).UTC(),
			Market: models.Market{
				ID:        strconv.Itoa(ev.Type),
				Name:      ev.GroupName,
				Specifier: specifier,
			},
			Outcome: models.Outcome{
				ID:   strconv.FormatInt(ev.CoefID, 10),
				Name: outcomeName,
				Odds: ev.Coef,
			},
		}
		if raw, err := json.Marshal(ev); err == nil {
			sel.Provenance = raw
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

// outcomeToNumeric converts label-style outcome ids to the numeric codes
// SaveCoupon wants. Reached only on the raw-id pass-through path, where the
// id may still be a source-provider label.
var outcomeToNumeric = map[string]int{
	"w1": 1, "home": 1, "1": 1,
	"x": 2, "draw": 2,
	"w2": 3, "away": 3, "2": 3,
	"over": 9, "o": 9,
	"under": 10, "u": 10,
	"yes": 1, "gg": 1,
	"no": 2, "ng": 2,
	"1x": 1, "12": 2, "x2": 3,
}

var signedNumberRe = regexp.MustCompile(`-?\d+\.?\d*`)

func (p *Provider) Book(ctx context.Context, selections []models.Selection) (string, error) {
	events := make([]xbBookEvent, 0, len(selections))
	for _, s := range selections {
		gameID, err := strconv.ParseInt(firstNonEmpty(s.GameID, s.EventID), 10, 64)
		if err != nil {
			return "", &models.BookingError{Provider: providerName,
				Message: fmt.Sprintf("non-numeric game id %q for %s", s.GameID, s.Name())}
		}

		outcome, ok := outcomeToNumeric[strings.ToLower(s.Outcome.ID)]
		if !ok {
			if n, err := strconv.Atoi(s.Outcome.ID); err == nil {
				outcome = n
			} else {
				outcome = 1
			}
		}

		// Line parameter from the specifier, falling back to the selection
		// name ("Over 2.5").
		param := 0.0
		if m := signedNumberRe.FindString(s.Market.Specifier); m != "" {
			param, _ = strconv.ParseFloat(m, 64)
		}
		if param == 0 && s.Outcome.Name != "" {
			if m := signedNumberRe.FindString(s.Outcome.Name); m != "" {
				param, _ = strconv.ParseFloat(m, 64)
			}
		}

		events = append(events, xbBookEvent{
			GameID:      gameID,
			Type:        outcome,
			Coef:        s.Outcome.Odds,
			Param:       param,
			Kind:        3,
			PlayersDuel: xbDuel{},
		})
	}

	req := xbBookReq{
		Events:  events,
		Lng:     "en",
		Partner: p.client.partner,
		Vid:     1,
		NotWait: true,
		CheckCf: 1,
		Summ:    1000,
		Source:  p.client.partner,
	}

	body, err := p.client.saveCoupon(ctx, req)
	if err != nil {
		return "", &models.BookingError{Provider: providerName, Err: err}
	}
	var rsp xbBookRsp
	if err := json.Unmarshal(body, &rsp); err != nil {
		return "", &models.BookingError{Provider: providerName, Err: fmt.Errorf("decode booking response: %w", err)}
	}
	if !rsp.Success {
		msg := rsp.Error
		if msg == "" {
			msg = "booking rejected"
		}
		return "", &models.BookingError{Provider: providerName, Message: msg}
	}
	code := rsp.code()
	if code == "" || code == "null" {
		return "", &models.BookingError{Provider: providerName, Message: "no share code in response"}
	}
	return code, nil
}

// FindEvent searches the pre-match and live feeds with ordered query
// variants, short-circuiting on the first variant that yields results.
// Never returns an error; failures degrade to nil.
func (p *Provider) FindEvent(ctx context.Context, home, away string, date time.Time) *models.EventCandidate {
	queries := p.reg.SearchQueries(home)

	var results []xbSearchEvent
	for _, q := range queries {
		for _, feed := range []string{"LineFeed", "LiveFeed"} {
			body, err := p.client.search(ctx, feed, q)
			if err != nil {
				slog.Debug("1xBet: search request failed", "feed", feed, "query", q, "error", err)
				continue
			}
			var rsp xbSearchRsp
			if err := json.Unmarshal(body, &rsp); err != nil {
				continue
			}
			results = append(results, rsp.Value...)
		}
		if len(results) > 0 {
			slog.Debug("1xBet: search query yielded events", "query", q, "events", len(results))
			break
		}
	}
	if len(results) == 0 {
		return nil
	}

	candidates := make([]models.EventCandidate, 0, len(results))
	for _, r := range results {
		id := strconv.FormatInt(r.I, 10)
		candidates = append(candidates, models.EventCandidate{
			ID:     id,
			GameID: id,
			Home:   r.O1,
			Away:   r.O2,
			Date:   time.Unix(r.S, 0).UTC(),
		})
	}

	best, _ := p.match.FindMatchingEvent(matcher.SourceEvent{Home: home, Away: away, Date: date}, candidates, p.opts)
	return best
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
