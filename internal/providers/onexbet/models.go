package onexbet

import (
	"bytes"
	"encoding/json"
	"strings"
)

// GetCoupon response. Value normally wraps the events ({"Events":[...]}),
// but the list has also been observed bare; xbEvents accepts both.
type xbCouponRsp struct {
	Success bool     `json:"Success"`
	Error   string   `json:"Error"`
	Value   xbEvents `json:"Value"`
}

type xbEvents struct {
	Events []xbEvent `json:"Events"`
}

func (v *xbEvents) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		v.Events = nil
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &v.Events)
	}
	type wrapped xbEvents
	var w wrapped
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	v.Events = w.Events
	return nil
}

// xbEvent is one coupon leg. Start is unix seconds; Type is the market
// group, CoefId/CoefName the picked outcome; Param carries the line for
// total/handicap markets.
type xbEvent struct {
	GameID        int64   `json:"GameId"`
	Opp1          string  `json:"Opp1"`
	Opp2          string  `json:"Opp2"`
	Liga          string  `json:"Liga"`
	ConstCategory string  `json:"ConstCategory"`
	Start         int64   `json:"Start"`
	Type          int     `json:"Type"`
	GroupName     string  `json:"GroupName"`
	CoefID        int64   `json:"CoefId"`
	MarketName    string  `json:"MarketName"`
	CoefName      string  `json:"CoefName"`
	Coef          float64 `json:"Coef"`
	Param         float64 `json:"Param"`
}

// SaveCoupon request entry. Type is the numeric outcome id, not the market
// id; Kind 3 means pre-match.
type xbBookEvent struct {
	GameID       int64       `json:"GameId"`
	Type         int         `json:"Type"`
	Coef         float64     `json:"Coef"`
	Param        float64     `json:"Param"`
	PV           interface{} `json:"PV"`
	PlayerID     int         `json:"PlayerId"`
	Kind         int         `json:"Kind"`
	InstrumentID int         `json:"InstrumentId"`
	Seconds      int         `json:"Seconds"`
	Price        int         `json:"Price"`
	Expired      int         `json:"Expired"`
	PlayersDuel  xbDuel      `json:"PlayersDuel"`
}

type xbDuel struct {
	Team1IDs interface{} `json:"Team1Ids"`
	Team2IDs interface{} `json:"Team2Ids"`
}

type xbBookReq struct {
	Events  []xbBookEvent `json:"Events"`
	Lng     string        `json:"Lng"`
	Partner int           `json:"partner"`
	Vid     int           `json:"Vid"`
	NotWait bool          `json:"notWait"`
	CheckCf int           `json:"CheckCf"`
	Summ    int           `json:"Summ"`
	Source  int           `json:"Source"`
}

type xbBookRsp struct {
	Success bool            `json:"Success"`
	Error   string          `json:"Error"`
	Value   json.RawMessage `json:"Value"`
}

// code renders the returned share code whether it came as a string or a
// bare number.
func (r *xbBookRsp) code() string {
	return strings.Trim(string(bytes.TrimSpace(r.Value)), `"`)
}

// SearchZip result entry: I event id, O1/O2 team names, S unix seconds.
type xbSearchRsp struct {
	Value []xbSearchEvent `json:"Value"`
}

type xbSearchEvent struct {
	I  int64  `json:"I"`
	O1 string `json:"O1"`
	O2 string `json:"O2"`
	S  int64  `json:"S"`
}
