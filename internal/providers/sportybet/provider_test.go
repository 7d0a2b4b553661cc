package sportybet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betbridge/internal/matcher"
	"betbridge/internal/pkg/config"
	"betbridge/internal/pkg/models"
	"betbridge/internal/registry"
)

func testProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	reg, err := registry.Load()
	require.NoError(t, err)
	cfg := &config.Config{}
	cfg.Providers.Timeout = 5 * time.Second
	cfg.Providers.SportyBet.BaseURL = baseURL
	cfg.Providers.SportyBet.Region = "ng"
	return New(cfg, reg, matcher.New(reg), nil)
}

const shareJSONOutcomes = `{
	"bizCode": 10000,
	"message": "success",
	"data": {
		"outcomes": [{
			"eventId": "sr:match:100",
			"gameId": "g100",
			"homeTeamName": "Arsenal",
			"awayTeamName": "Chelsea",
			"estimateStartTime": 1750000000000,
			"sport": {
				"id": "sr:sport:1",
				"category": {"name": "England", "tournament": {"name": "Premier League"}}
			},
			"markets": [{
				"id": "1",
				"desc": "1X2",
				"specifier": "",
				"outcomes": [{"id": "1", "desc": "Home", "odds": "1.85"}]
			}]
		}]
	}
}`

func TestExtract_JSONOutcomesShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/api/ng/orders/share/ABC123")
		w.Write([]byte(shareJSONOutcomes))
	}))
	defer ts.Close()

	selections, err := testProvider(t, ts.URL).Extract(context.Background(), "ABC123")
	require.NoError(t, err)
	require.Len(t, selections, 1)

	sel := selections[0]
	assert.Equal(t, "sr:match:100", sel.EventID)
	assert.Equal(t, "g100", sel.GameID)
	assert.Equal(t, "Arsenal", sel.Home)
	assert.Equal(t, "Chelsea", sel.Away)
	assert.Equal(t, "Premier League", sel.League)
	assert.Equal(t, "England", sel.Country)
	assert.Equal(t, "1", sel.Market.ID)
	assert.Equal(t, "1X2", sel.Market.Name)
	assert.Equal(t, "1", sel.Outcome.ID)
	assert.Equal(t, "Home", sel.Outcome.Name)
	assert.InDelta(t, 1.85, sel.Outcome.Odds, 1e-9)
	assert.Equal(t, time.UnixMilli(1750000000000).UTC(), sel.Date)
	assert.NotEmpty(t, sel.Provenance)
}

// Numeric ids and the ticket.selections nesting come from older app builds.
const shareJSONTicket = `{
	"bizCode": 10000,
	"message": "success",
	"data": {
		"ticket": {
			"selections": [{
				"eventId": "sr:match:200",
				"homeTeamName": "Lyon",
				"awayTeamName": "Marseille",
				"markets": [{
					"id": 18,
					"desc": "Over/Under",
					"specifier": "total=2.5",
					"outcomes": [{"id": 12, "desc": "Over 2.5", "odds": 1.44}]
				}]
			}]
		}
	}
}`

func TestExtract_TicketSelectionsShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(shareJSONTicket))
	}))
	defer ts.Close()

	selections, err := testProvider(t, ts.URL).Extract(context.Background(), "XYZ")
	require.NoError(t, err)
	require.Len(t, selections, 1)

	sel := selections[0]
	assert.Equal(t, "sr:match:200", sel.EventID)
	// GameID falls back to the event id when absent.
	assert.Equal(t, "sr:match:200", sel.GameID)
	assert.Equal(t, "18", sel.Market.ID)
	assert.Equal(t, "total=2.5", sel.Market.Specifier)
	assert.Equal(t, "12", sel.Outcome.ID)
	assert.InDelta(t, 1.44, sel.Outcome.Odds, 1e-9)
}

const shareXML = `<BaseRsp>
	<message>success</message>
	<data>
		<outcomes>
			<outcomes>
				<eventId>sr:match:300</eventId>
				<homeTeamName>Enyimba</homeTeamName>
				<awayTeamName>Kano Pillars</awayTeamName>
				<estimateStartTime>1750000000000</estimateStartTime>
				<markets>
					<markets>
						<id>1</id>
						<desc>1X2</desc>
						<outcomes>
							<outcomes>
								<id>2</id>
								<desc>Draw</desc>
								<odds>3.30</odds>
							</outcomes>
						</outcomes>
					</markets>
				</markets>
			</outcomes>
		</outcomes>
	</data>
</BaseRsp>`

func TestExtract_XMLShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(shareXML))
	}))
	defer ts.Close()

	selections, err := testProvider(t, ts.URL).Extract(context.Background(), "XMLCODE")
	require.NoError(t, err)
	require.Len(t, selections, 1)

	sel := selections[0]
	assert.Equal(t, "sr:match:300", sel.EventID)
	assert.Equal(t, "Enyimba", sel.Home)
	assert.Equal(t, "1", sel.Market.ID)
	assert.Equal(t, "2", sel.Outcome.ID)
	assert.Equal(t, "Draw", sel.Outcome.Name)
	assert.InDelta(t, 3.30, sel.Outcome.Odds, 1e-9)
}

func TestExtract_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bizCode": 19011, "message": "Order does not exist", "data": null}`))
	}))
	defer ts.Close()

	_, err := testProvider(t, ts.URL).Extract(context.Background(), "NOPE")
	var extraction *models.ExtractionError
	require.ErrorAs(t, err, &extraction)
	assert.Contains(t, extraction.Error(), "Order does not exist")
}

func TestExtract_UnrecognizedShapeYieldsNoSelections(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bizCode": 10000, "message": "success", "data": {"somethingElse": true}}`))
	}))
	defer ts.Close()

	selections, err := testProvider(t, ts.URL).Extract(context.Background(), "ODD")
	require.NoError(t, err)
	assert.Empty(t, selections)
}

func TestBook_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"bizCode": 10000, "message": "success", "data": {"shareCode": "NEW123"}}`))
	}))
	defer ts.Close()

	code, err := testProvider(t, ts.URL).Book(context.Background(), []models.Selection{{
		GameID:  "sr:match:100",
		Market:  models.Market{ID: "1"},
		Outcome: models.Outcome{ID: "1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "NEW123", code)
}

func TestBook_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bizCode": 19000, "message": "Events finished", "data": null}`))
	}))
	defer ts.Close()

	_, err := testProvider(t, ts.URL).Book(context.Background(), []models.Selection{{GameID: "x"}})
	var booking *models.BookingError
	require.ErrorAs(t, err, &booking)
	assert.Contains(t, booking.Error(), "Events finished")
}

func TestFindEvent_FiltersSimulatedLeague(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	searchBody := `{
		"bizCode": 10000,
		"data": {
			"preMatch": [
				{
					"eventId": "srl1",
					"homeTeamName": "Arsenal SRL",
					"awayTeamName": "Chelsea SRL",
					"estimateStartTime": 1773511200000,
					"sport": {"id": "sr:sport:1"}
				},
				{
					"eventId": "real1",
					"homeTeamName": "Arsenal",
					"awayTeamName": "Chelsea",
					"estimateStartTime": 1773511200000,
					"sport": {"id": "sr:sport:1"}
				}
			],
			"live": []
		}
	}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "firstSearch")
		w.Write([]byte(searchBody))
	}))
	defer ts.Close()

	got := testProvider(t, ts.URL).FindEvent(context.Background(), "Arsenal", "Chelsea", start)
	require.NotNil(t, got)
	assert.Equal(t, "real1", got.ID)
}

func TestFindEvent_NoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bizCode": 10000, "data": {"preMatch": [], "live": []}}`))
	}))
	defer ts.Close()

	got := testProvider(t, ts.URL).FindEvent(context.Background(), "Arsenal", "Chelsea", time.Now())
	assert.Nil(t, got)
}
