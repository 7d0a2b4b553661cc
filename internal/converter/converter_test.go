package converter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betbridge/internal/pkg/models"
	"betbridge/internal/pkg/storage"
	"betbridge/internal/providers"
	"betbridge/internal/registry"
	"betbridge/internal/translator"
)

// recorderStub captures tickets on a channel so async recording can be
// awaited.
type recorderStub struct {
	tickets chan storage.Ticket
}

func (r *recorderStub) Record(ctx context.Context, t storage.Ticket) error {
	r.tickets <- t
	return nil
}

func (r *recorderStub) Close() error { return nil }

// fakeProvider drives the orchestrator without any network. Events are
// findable by "Home|Away" key.
type fakeProvider struct {
	name       string
	selections []models.Selection
	extractErr error
	events     map[string]*models.EventCandidate
	bookCode   string
	bookErr    error
	booked     []models.Selection
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Extract(ctx context.Context, code string) ([]models.Selection, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.selections, nil
}

func (f *fakeProvider) Book(ctx context.Context, selections []models.Selection) (string, error) {
	f.booked = selections
	if f.bookErr != nil {
		return "", f.bookErr
	}
	return f.bookCode, nil
}

func (f *fakeProvider) FindEvent(ctx context.Context, home, away string, date time.Time) *models.EventCandidate {
	return f.events[home+"|"+away]
}

func sourceSelection(home, away string, odds float64) models.Selection {
	return models.Selection{
		EventID: "src-" + home,
		GameID:  "src-" + home,
		Home:    home,
		Away:    away,
		Date:    time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
		Market:  models.Market{ID: "1", Name: "1X2"},
		Outcome: models.Outcome{ID: "1", Name: "Home", Odds: odds},
	}
}

func newConverter(t *testing.T, source, target *fakeProvider) *Converter {
	t.Helper()
	reg, err := registry.Load()
	require.NoError(t, err)
	return New(providers.NewSet(source, target), translator.New(reg), nil, nil)
}

func TestConvert_AllSelectionsSucceed(t *testing.T) {
	source := &fakeProvider{
		name: "sportybet",
		selections: []models.Selection{
			sourceSelection("Arsenal", "Chelsea", 1.50),
			sourceSelection("Liverpool", "Everton", 2.00),
		},
	}
	target := &fakeProvider{
		name: "bet9ja",
		events: map[string]*models.EventCandidate{
			"Arsenal|Chelsea":   {ID: "t1", GameID: "t1", Home: "Arsenal", Away: "Chelsea"},
			"Liverpool|Everton": {ID: "t2", GameID: "t2", Home: "Liverpool", Away: "Everton"},
		},
		bookCode: "B9J-NEW",
	}

	result, err := newConverter(t, source, target).Convert(context.Background(), "ABC123", "sportybet", "bet9ja")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "ABC123", result.OriginalCode)
	assert.Equal(t, "B9J-NEW", result.ConvertedCode)
	assert.Equal(t, "3.00", result.TotalOdds)
	assert.Equal(t, models.ConversionStats{Total: 2, Converted: 2, Failed: 0}, result.Stats)
	assert.Empty(t, result.FailedSelections)

	// The booked selections carry target identity and translated ids.
	require.Len(t, target.booked, 2)
	assert.Equal(t, "t1", target.booked[0].GameID)
	assert.Equal(t, "S_1X2", target.booked[0].Market.ID)
}

func TestConvert_PartialWhenEventMissing(t *testing.T) {
	source := &fakeProvider{
		name: "sportybet",
		selections: []models.Selection{
			sourceSelection("Arsenal", "Chelsea", 1.50),
			sourceSelection("Obscure FC", "Nowhere United", 3.10),
			sourceSelection("Liverpool", "Everton", 2.00),
		},
	}
	target := &fakeProvider{
		name: "bet9ja",
		events: map[string]*models.EventCandidate{
			"Arsenal|Chelsea":   {ID: "t1", GameID: "t1", Home: "Arsenal", Away: "Chelsea"},
			"Liverpool|Everton": {ID: "t2", GameID: "t2", Home: "Liverpool", Away: "Everton"},
		},
		bookCode: "B9J-PART",
	}

	result, err := newConverter(t, source, target).Convert(context.Background(), "ABC123", "sportybet", "bet9ja")
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, result.Status)
	assert.Equal(t, models.ConversionStats{Total: 3, Converted: 2, Failed: 1}, result.Stats)
	assert.Equal(t, "3.00", result.TotalOdds)
	require.Len(t, result.FailedSelections, 1)
	assert.Equal(t, "Obscure FC vs Nowhere United", result.FailedSelections[0].Match)
	assert.Equal(t, "Match not found on target bookie", result.FailedSelections[0].Reason)

	// The result lists every selection in input order, failed ones included,
	// and the unmatched one still carries the translated target market.
	require.Len(t, result.Selections, 3)
	assert.Equal(t, models.StatusMapped, result.Selections[0].Status)
	assert.Equal(t, models.StatusEventNotFound, result.Selections[1].Status)
	assert.Equal(t, "Obscure FC", result.Selections[1].Home)
	assert.Equal(t, "S_1X2", result.Selections[1].Market.ID)
	assert.Equal(t, models.StatusMapped, result.Selections[2].Status)

	// Only the matched selections were booked.
	require.Len(t, target.booked, 2)
	assert.Equal(t, "t1", target.booked[0].GameID)
	assert.Equal(t, "t2", target.booked[1].GameID)
}

func TestConvert_RecordsTicketUnderShareCode(t *testing.T) {
	source := &fakeProvider{
		name: "sportybet",
		selections: []models.Selection{
			sourceSelection("Arsenal", "Chelsea", 1.50),
			sourceSelection("Liverpool", "Everton", 2.00),
		},
	}
	target := &fakeProvider{
		name: "bet9ja",
		events: map[string]*models.EventCandidate{
			"Arsenal|Chelsea":   {ID: "t1", GameID: "t1", Home: "Arsenal", Away: "Chelsea"},
			"Liverpool|Everton": {ID: "t2", GameID: "t2", Home: "Liverpool", Away: "Everton"},
		},
		bookCode: "B9J-TICKET",
	}
	rec := &recorderStub{tickets: make(chan storage.Ticket, 1)}

	reg, err := registry.Load()
	require.NoError(t, err)
	conv := New(providers.NewSet(source, target), translator.New(reg), rec, nil)

	_, err = conv.Convert(context.Background(), "ABC123", "sportybet", "bet9ja")
	require.NoError(t, err)

	select {
	case ticket := <-rec.tickets:
		assert.Equal(t, "B9J-TICKET", ticket.TicketID)
		assert.Equal(t, "B9J-TICKET", ticket.BookingCode)
		assert.Equal(t, "bet9ja", ticket.Bookmaker)
		assert.Equal(t, 2, ticket.MatchCount)
		assert.Equal(t, TicketTypeConverted, ticket.TicketType)
		assert.InDelta(t, 3.00, ticket.TotalOdds, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("ticket was not recorded")
	}
}

func TestConvert_UnsupportedMarketReason(t *testing.T) {
	badMarket := sourceSelection("Arsenal", "Chelsea", 1.50)
	badMarket.Market = models.Market{ID: "999", Name: "Correct Score"}

	source := &fakeProvider{name: "sportybet", selections: []models.Selection{badMarket}}
	target := &fakeProvider{
		name: "bet9ja",
		events: map[string]*models.EventCandidate{
			"Arsenal|Chelsea": {ID: "t1", GameID: "t1", Home: "Arsenal", Away: "Chelsea"},
		},
	}

	_, err := newConverter(t, source, target).Convert(context.Background(), "ABC123", "sportybet", "bet9ja")

	var total *models.TotalConversionFailure
	require.ErrorAs(t, err, &total)
	require.Len(t, total.Failures, 1)
	assert.Equal(t, "Market type not supported", total.Failures[0].Reason)
}

func TestConvert_TotalFailureWhenNothingMatches(t *testing.T) {
	source := &fakeProvider{
		name: "sportybet",
		selections: []models.Selection{
			sourceSelection("Arsenal", "Chelsea", 1.50),
			sourceSelection("Liverpool", "Everton", 2.00),
		},
	}
	target := &fakeProvider{name: "bet9ja", events: map[string]*models.EventCandidate{}}

	_, err := newConverter(t, source, target).Convert(context.Background(), "ABC123", "sportybet", "bet9ja")

	var total *models.TotalConversionFailure
	require.ErrorAs(t, err, &total)
	assert.Equal(t, "bet9ja", total.Target)
	assert.Len(t, total.Failures, 2)
}

func TestConvert_ExtractionFailureIsFatal(t *testing.T) {
	source := &fakeProvider{
		name:       "sportybet",
		extractErr: &models.ExtractionError{Provider: "sportybet", Code: "BAD", Err: errors.New("api error")},
	}
	target := &fakeProvider{name: "bet9ja"}

	_, err := newConverter(t, source, target).Convert(context.Background(), "BAD", "sportybet", "bet9ja")

	var extraction *models.ExtractionError
	require.ErrorAs(t, err, &extraction)
}

func TestConvert_EmptyExtractionIsFatal(t *testing.T) {
	source := &fakeProvider{name: "sportybet"}
	target := &fakeProvider{name: "bet9ja"}

	_, err := newConverter(t, source, target).Convert(context.Background(), "EMPTY", "sportybet", "bet9ja")

	var extraction *models.ExtractionError
	require.ErrorAs(t, err, &extraction)
}

func TestConvert_BookingFailurePropagates(t *testing.T) {
	source := &fakeProvider{
		name:       "sportybet",
		selections: []models.Selection{sourceSelection("Arsenal", "Chelsea", 1.50)},
	}
	target := &fakeProvider{
		name: "bet9ja",
		events: map[string]*models.EventCandidate{
			"Arsenal|Chelsea": {ID: "t1", GameID: "t1", Home: "Arsenal", Away: "Chelsea"},
		},
		bookErr: &models.BookingError{Provider: "bet9ja", Message: "events finished"},
	}

	_, err := newConverter(t, source, target).Convert(context.Background(), "ABC123", "sportybet", "bet9ja")

	var booking *models.BookingError
	require.ErrorAs(t, err, &booking)
}

func TestConvert_UnknownProvider(t *testing.T) {
	source := &fakeProvider{name: "sportybet"}
	target := &fakeProvider{name: "bet9ja"}
	conv := newConverter(t, source, target)

	_, err := conv.Convert(context.Background(), "ABC", "betway", "bet9ja")
	assert.Error(t, err)

	_, err = conv.Convert(context.Background(), "ABC", "sportybet", "betway")
	assert.Error(t, err)
}
