package models

import (
	"encoding/json"
	"time"
)

// SelectionStatus is the terminal translation status of one selection.
// Empty means translation has not run yet.
type SelectionStatus string

const (
	StatusPending           SelectionStatus = ""
	StatusMapped            SelectionStatus = "mapped"
	StatusUnmappedMarket    SelectionStatus = "unmapped_market"
	StatusTargetUnsupported SelectionStatus = "target_unsupported"
	StatusEventNotFound     SelectionStatus = "event_not_found"
)

// Market identifies a betting market in provider-local terms.
// Specifier is free-form provider syntax for market parameters
// (goal line, handicap line), e.g. "total=2.5" or "hcp=1:0".
type Market struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specifier string `json:"specifier"`
}

// Outcome is the picked outcome within a market, in provider-local terms.
type Outcome struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Odds float64 `json:"odds"`
}

// Selection is one leg of a bet as decoded from a booking code.
// EventID and GameID are provider-internal: EventID is the public event
// identifier, GameID the identifier the booking endpoint wants (often the
// same). Provenance keeps the raw provider payload captured at extraction
// time; booking endpoints demand internal fields that have no canonical form.
type Selection struct {
	EventID    string          `json:"id"`
	GameID     string          `json:"game_id"`
	Home       string          `json:"home"`
	Away       string          `json:"away"`
	League     string          `json:"league"`
	Country    string          `json:"country"`
	Date       time.Time       `json:"date"`
	Market     Market          `json:"market"`
	Outcome    Outcome         `json:"selection"`
	Provenance json.RawMessage `json:"-"`
	Status     SelectionStatus `json:"status,omitempty"`
}

// Name returns the "Home vs Away" display string for the selection.
func (s *Selection) Name() string {
	if s.Away == "" {
		return s.Home
	}
	return s.Home + " vs " + s.Away
}

// EventCandidate is one provider event summary returned by a search.
// Consumed only by the matcher, never persisted.
type EventCandidate struct {
	ID      string
	GameID  string
	Home    string
	Away    string
	Date    time.Time
	SportID string
	Raw     json.RawMessage
}

// MatchScore breaks down how a candidate scored against a source event.
// All components are in [0,1].
type MatchScore struct {
	DateScore     float64
	TeamScore     float64
	ItemNameScore float64
	FinalScore    float64
}
