package sportybet

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The share endpoint answers in two formats (JSON, or XML under a BaseRsp
// wrapper) and two nestings of the same logical list (data.outcomes, or
// data.ticket.selections). XML additionally double-wraps repeated elements
// (outcomes.outcomes). Everything funnels into sbOutcome.

// flexString tolerates ids arriving as JSON numbers or strings.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexFloat tolerates odds arriving as JSON numbers or numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexInt64 tolerates epoch timestamps arriving as numbers or strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt64(v)
	return nil
}

type sbSport struct {
	ID       string `json:"id" xml:"id"`
	Category struct {
		Name       string `json:"name" xml:"name"`
		Tournament struct {
			Name string `json:"name" xml:"name"`
		} `json:"tournament" xml:"tournament"`
	} `json:"category" xml:"category"`
}

type sbMarketOutcome struct {
	ID   flexString `json:"id"`
	Desc string     `json:"desc"`
	Name string     `json:"name"`
	Odds flexFloat  `json:"odds"`
}

type sbMarket struct {
	ID        flexString    `json:"id"`
	Desc      string        `json:"desc"`
	Name      string        `json:"name"`
	Specifier string        `json:"specifier"`
	Outcomes  sbOutcomeList `json:"outcomes"`
}

// sbOutcomeList accepts a bare array, a single object, or the XML-converted
// {"outcomes": ...} re-nesting.
type sbOutcomeList []sbMarketOutcome

func (l *sbOutcomeList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var arr []sbMarketOutcome
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var nested struct {
		Outcomes json.RawMessage `json:"outcomes"`
	}
	if err := json.Unmarshal(b, &nested); err == nil && len(nested.Outcomes) > 0 {
		return l.UnmarshalJSON(nested.Outcomes)
	}
	var one sbMarketOutcome
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*l = sbOutcomeList{one}
	return nil
}

// sbMarketList accepts a bare array or the {"markets": ...} re-nesting.
type sbMarketList []sbMarket

func (l *sbMarketList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var arr []sbMarket
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var nested struct {
		Markets json.RawMessage `json:"markets"`
	}
	if err := json.Unmarshal(b, &nested); err == nil && len(nested.Markets) > 0 {
		return l.UnmarshalJSON(nested.Markets)
	}
	var one sbMarket
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*l = sbMarketList{one}
	return nil
}

// sbOutcome is one selection of the booked ticket, shape-normalized.
type sbOutcome struct {
	EventID           string       `json:"eventId"`
	GameID            string       `json:"gameId"`
	Home              string       `json:"homeTeamName"`
	Away              string       `json:"awayTeamName"`
	MarketID          flexString   `json:"marketId"`
	OutcomeID         flexString   `json:"outcomeId"`
	Specifier         string       `json:"specifier"`
	EstimateStartTime flexInt64    `json:"estimateStartTime"`
	Markets           sbMarketList `json:"markets"`
	Sport             *sbSport     `json:"sport"`
}

type sbBaseRsp struct {
	BizCode int             `json:"bizCode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sbData struct {
	Outcomes  json.RawMessage `json:"outcomes"`
	ShareCode string          `json:"shareCode"`
	Ticket    *struct {
		Selections json.RawMessage `json:"selections"`
	} `json:"ticket"`
}

// XML shapes. Repeated elements come double-wrapped, so the inner element
// name repeats the wrapper name.

type sbXMLRsp struct {
	Message string `xml:"message"`
	Data    struct {
		ShareCode string `xml:"shareCode"`
		Outcomes  struct {
			Outcomes []sbXMLOutcome `xml:"outcomes"`
		} `xml:"outcomes"`
		Ticket struct {
			Selections struct {
				Selections []sbXMLOutcome `xml:"selections"`
			} `xml:"selections"`
		} `xml:"ticket"`
	} `xml:"data"`
}

type sbXMLOutcome struct {
	EventID           string  `xml:"eventId"`
	GameID            string  `xml:"gameId"`
	Home              string  `xml:"homeTeamName"`
	Away              string  `xml:"awayTeamName"`
	MarketID          string  `xml:"marketId"`
	OutcomeID         string  `xml:"outcomeId"`
	Specifier         string  `xml:"specifier"`
	EstimateStartTime int64   `xml:"estimateStartTime"`
	Sport             sbSport `xml:"sport"`
	Markets           struct {
		Markets []sbXMLMarket `xml:"markets"`
	} `xml:"markets"`
}

type sbXMLMarket struct {
	ID        string `xml:"id"`
	Desc      string `xml:"desc"`
	Specifier string `xml:"specifier"`
	Outcomes  struct {
		Outcomes []sbXMLMarketOutcome `xml:"outcomes"`
	} `xml:"outcomes"`
}

type sbXMLMarketOutcome struct {
	ID   string `xml:"id"`
	Desc string `xml:"desc"`
	Odds string `xml:"odds"`
}

// toOutcome lifts an XML selection into the normalized shape.
func (x sbXMLOutcome) toOutcome() sbOutcome {
	out := sbOutcome{
		EventID:           x.EventID,
		GameID:            x.GameID,
		Home:              x.Home,
		Away:              x.Away,
		MarketID:          flexString(x.MarketID),
		OutcomeID:         flexString(x.OutcomeID),
		Specifier:         x.Specifier,
		EstimateStartTime: flexInt64(x.EstimateStartTime),
	}
	if x.Sport.ID != "" || x.Sport.Category.Tournament.Name != "" {
		s := x.Sport
		out.Sport = &s
	}
	for _, m := range x.Markets.Markets {
		mkt := sbMarket{
			ID:        flexString(m.ID),
			Desc:      m.Desc,
			Specifier: m.Specifier,
		}
		for _, o := range m.Outcomes.Outcomes {
			odds, _ := strconv.ParseFloat(o.Odds, 64)
			mkt.Outcomes = append(mkt.Outcomes, sbMarketOutcome{
				ID:   flexString(o.ID),
				Desc: o.Desc,
				Odds: flexFloat(odds),
			})
		}
		out.Markets = append(out.Markets, mkt)
	}
	return out
}

// Search response shapes.

type sbSearchRsp struct {
	BizCode int `json:"bizCode"`
	Data    struct {
		PreMatch []sbSearchEvent `json:"preMatch"`
		Live     []sbSearchEvent `json:"live"`
	} `json:"data"`
}

type sbSearchEvent struct {
	EventID           string    `json:"eventId"`
	Home              string    `json:"homeTeamName"`
	Away              string    `json:"awayTeamName"`
	EstimateStartTime flexInt64 `json:"estimateStartTime"`
	Sport             *sbSport  `json:"sport"`
}
