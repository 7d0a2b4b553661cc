package models

// ConversionStats summarizes a conversion attempt.
type ConversionStats struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
	Failed    int `json:"failed"`
}

// FailedSelection is a human-readable account of one selection that could
// not be re-booked. Reason strings are rendered to end users as-is.
type FailedSelection struct {
	Match  string `json:"match"`
	Reason string `json:"reason"`
}

// ConversionResult is the aggregate output of one convert call.
// Status is "success" when every selection was re-booked, "partial" when at
// least one was but others failed. Selections carries every translated
// selection in input order, each with its terminal status; FailedSelections
// repeats the failed ones with a user-facing reason.
type ConversionResult struct {
	Status           string            `json:"status"`
	OriginalCode     string            `json:"original_code"`
	ConvertedCode    string            `json:"converted_code"`
	TotalOdds        string            `json:"total_odds"`
	Stats            ConversionStats   `json:"stats"`
	Selections       []Selection       `json:"selections"`
	FailedSelections []FailedSelection `json:"failed_selections"`
}

// Failure reasons shown to users. Exactly one per failed selection.
const (
	ReasonEventNotFound      = "Match not found on target bookie"
	ReasonMarketNotSupported = "Market type not supported"
	ReasonMappingFailed      = "Mapping failed"
)

// FailureReason maps a terminal selection status to its user-facing reason.
func FailureReason(s SelectionStatus) string {
	switch s {
	case StatusEventNotFound:
		return ReasonEventNotFound
	case StatusUnmappedMarket:
		return ReasonMarketNotSupported
	default:
		return ReasonMappingFailed
	}
}
