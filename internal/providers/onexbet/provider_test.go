package onexbet

import (
	"context"
	"encoding/json"
	"io"
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
	cfg.Providers.OneXBet.BaseURL = baseURL
	return New(cfg, reg, matcher.New(reg), nil, nil)
}

func TestEventsUnmarshal_WrappedAndBare(t *testing.T) {
	var wrapped xbEvents
	require.NoError(t, json.Unmarshal([]byte(`{"Events":[{"GameId":1},{"GameId":2}]}`), &wrapped))
	assert.Len(t, wrapped.Events, 2)

	var bare xbEvents
	require.NoError(t, json.Unmarshal([]byte(`[{"GameId":7}]`), &bare))
	require.Len(t, bare.Events, 1)
	assert.Equal(t, int64(7), bare.Events[0].GameID)

	var empty xbEvents
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.Empty(t, empty.Events)
}

func TestBookRspCode(t *testing.T) {
	quoted := xbBookRsp{Value: json.RawMessage(`"AB12CD"`)}
	assert.Equal(t, "AB12CD", quoted.code())

	numeric := xbBookRsp{Value: json.RawMessage(`99887766`)}
	assert.Equal(t, "99887766", numeric.code())
}

const couponBody = `{
	"Success": true,
	"Error": "",
	"Value": {
		"Events": [{
			"GameId": 123456,
			"Opp1": "Arsenal",
			"Opp2": "Chelsea",
			"Liga": "England. Premier League",
			"ConstCategory": "England",
			"Start": 1773511200,
			"Type": 17,
			"GroupName": "Total",
			"CoefId": 9,
			"MarketName": "Total Over 2.5",
			"Coef": 1.92,
			"Param": 2.5
		}]
	}
}`

func TestExtract_CouponLeg(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service-api/LiveBet/Open/GetCoupon", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(couponBody))
	}))
	defer ts.Close()

	selections, err := testProvider(t, ts.URL).Extract(context.Background(), "GUID-1")
	require.NoError(t, err)
	require.Len(t, selections, 1)

	sel := selections[0]
	assert.Equal(t, "123456", sel.GameID)
	assert.Equal(t, "Arsenal", sel.Home)
	assert.Equal(t, "Chelsea", sel.Away)
	assert.Equal(t, "England. Premier League", sel.League)
	assert.Equal(t, "England", sel.Country)
	assert.Equal(t, time.Unix(1773511200, 0).UTC(), sel.Date)
	assert.Equal(t, "17", sel.Market.ID)
	assert.Equal(t, "Total", sel.Market.Name)
	assert.Equal(t, "2.5", sel.Market.Specifier)
	assert.Equal(t, "9", sel.Outcome.ID)
	assert.Equal(t, "Total Over 2.5", sel.Outcome.Name)
	assert.InDelta(t, 1.92, sel.Outcome.Odds, 1e-9)
}

func TestExtract_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Success": false, "Error": "Coupon not found", "Value": null}`))
	}))
	defer ts.Close()

	_, err := testProvider(t, ts.URL).Extract(context.Background(), "BAD")
	var extraction *models.ExtractionError
	require.ErrorAs(t, err, &extraction)
	assert.Contains(t, extraction.Error(), "Coupon not found")
}

func TestBook_PayloadAndCode(t *testing.T) {
	var got xbBookReq
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service-api/LiveBet/Open/SaveCoupon", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"Success": true, "Value": "NEWCODE1"}`))
	}))
	defer ts.Close()

	code, err := testProvider(t, ts.URL).Book(context.Background(), []models.Selection{
		{
			GameID:  "123456",
			Market:  models.Market{ID: "17", Specifier: "2.5"},
			Outcome: models.Outcome{ID: "9", Name: "Total Over 2.5", Odds: 1.92},
		},
		{
			GameID:  "654321",
			Market:  models.Market{ID: "1"},
			Outcome: models.Outcome{ID: "X", Name: "Draw", Odds: 3.10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "NEWCODE1", code)

	require.Len(t, got.Events, 2)
	assert.Equal(t, int64(123456), got.Events[0].GameID)
	assert.Equal(t, 9, got.Events[0].Type)
	assert.InDelta(t, 2.5, got.Events[0].Param, 1e-9)
	assert.Equal(t, 3, got.Events[0].Kind)
	// Label-style draw id maps to the numeric code.
	assert.Equal(t, 2, got.Events[1].Type)
	assert.Equal(t, 0.0, got.Events[1].Param)
	assert.Equal(t, "en", got.Lng)
	assert.Equal(t, 159, got.Partner)
}

func TestBook_NonNumericGameID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer ts.Close()

	_, err := testProvider(t, ts.URL).Book(context.Background(), []models.Selection{
		{GameID: "sr:match:100", Outcome: models.Outcome{ID: "1"}},
	})
	var booking *models.BookingError
	require.ErrorAs(t, err, &booking)
	assert.Contains(t, booking.Error(), "non-numeric game id")
}

func TestBook_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Success": false, "Error": "Odds changed"}`))
	}))
	defer ts.Close()

	_, err := testProvider(t, ts.URL).Book(context.Background(), []models.Selection{
		{GameID: "1", Outcome: models.Outcome{ID: "1"}},
	})
	var booking *models.BookingError
	require.ErrorAs(t, err, &booking)
	assert.Contains(t, booking.Error(), "Odds changed")
}

func TestFindEvent_MergesFeeds(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/service-api/LineFeed/Web_SearchZip":
			w.Write([]byte(`{"Value": [{"I": 111, "O1": "Arsenal", "O2": "Chelsea", "S": 1773511200}]}`))
		case "/service-api/LiveFeed/Web_SearchZip":
			w.Write([]byte(`{"Value": []}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	got := testProvider(t, ts.URL).FindEvent(context.Background(), "Arsenal", "Chelsea", start)
	require.NotNil(t, got)
	assert.Equal(t, "111", got.ID)
	assert.Equal(t, "Chelsea", got.Away)
	// Both feeds queried for the first variant; results end the variant loop.
	assert.Equal(t, []string{"/service-api/LineFeed/Web_SearchZip", "/service-api/LiveFeed/Web_SearchZip"}, paths)
}

func TestFindEvent_NoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Value": []}`))
	}))
	defer ts.Close()

	got := testProvider(t, ts.URL).FindEvent(context.Background(), "Arsenal", "Chelsea", time.Now())
	assert.Nil(t, got)
}
