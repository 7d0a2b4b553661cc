package bet9ja

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coupon response. Selections arrive as an object keyed by the provider's
// selection key ("<eventKey>$<sid>"), normally under "D.O" but observed
// without the "D" wrapper as well. Key order follows the coupon document,
// which is the slip order, so the object is decoded into an ordered list
// rather than a Go map.
type b9CouponRsp struct {
	D *b9CouponData  `json:"D"`
	O b9OrderedItems `json:"O"`
}

type b9CouponData struct {
	O b9OrderedItems `json:"O"`
}

// selections returns whichever nesting is populated.
func (r *b9CouponRsp) selections() b9OrderedItems {
	if r.D != nil && len(r.D.O) > 0 {
		return r.D.O
	}
	return r.O
}

// b9KeyedItem is one raw selection together with its object key.
type b9KeyedItem struct {
	Key string
	Raw json.RawMessage
}

// b9OrderedItems decodes a JSON object into entries in document order.
type b9OrderedItems []b9KeyedItem

func (o *b9OrderedItems) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	var items []b9KeyedItem
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		items = append(items, b9KeyedItem{Key: key, Raw: raw})
	}
	*o = items
	return nil
}

// b9Item is one selection of the coupon. E_NAME is "Home - Away"; V is the
// odds as a string.
type b9Item struct {
	EID       json.Number `json:"E_ID"`
	EName     string      `json:"E_NAME"`
	GN        string      `json:"GN"`
	MName     string      `json:"M_NAME"`
	MarketID  string      `json:"marketId"`
	SGN       string      `json:"SGN"`
	SignID    string      `json:"signId"`
	V         json.Number `json:"V"`
	StartDate string      `json:"STARTDATE"`
}

// Booking payload, form-encoded as BETSLIP=<json>. ODDS and EVS are keyed
// by the selection key preserved from extraction.
type b9Bet struct {
	BSType   int               `json:"BSTYPE"`
	Tab      int               `json:"TAB"`
	NumLines int               `json:"NUMLINES"`
	Comb     int               `json:"COMB"`
	Type     int               `json:"TYPE"`
	Stake    int               `json:"STAKE"`
	Odds     map[string]string `json:"ODDS"`
	Fixed    map[string]any    `json:"FIXED"`
}

type b9BetSlip struct {
	Bets        []b9Bet                    `json:"BETS"`
	Evs         map[string]json.RawMessage `json:"EVS"`
	Impersonize int                        `json:"IMPERSONIZE"`
}

// Booking response: {status, data:[{RIS}]} or a bare [{RIS}].
type b9BookEntry struct {
	RIS string `json:"RIS"`
}

func parseBookResponse(body []byte) (string, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", false
	}
	if body[0] == '[' {
		var entries []b9BookEntry
		if err := json.Unmarshal(body, &entries); err != nil || len(entries) == 0 {
			return "", false
		}
		return entries[0].RIS, entries[0].RIS != ""
	}
	var wrapped struct {
		Status int           `json:"status"`
		Data   []b9BookEntry `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil || len(wrapped.Data) == 0 {
		return "", false
	}
	return wrapped.Data[0].RIS, wrapped.Data[0].RIS != ""
}

// Search response: event list under "D.E", same optional wrapper as the
// coupon. DS is the "Home - Away" display string.
type b9SearchRsp struct {
	D *b9SearchData   `json:"D"`
	E []b9SearchEvent `json:"E"`
}

type b9SearchData struct {
	E []b9SearchEvent `json:"E"`
}

func (r *b9SearchRsp) events() []b9SearchEvent {
	if r.D != nil && len(r.D.E) > 0 {
		return r.D.E
	}
	return r.E
}

type b9SearchEvent struct {
	ID        json.Number `json:"ID"`
	DS        string      `json:"DS"`
	StartDate string      `json:"STARTDATE"`
}
