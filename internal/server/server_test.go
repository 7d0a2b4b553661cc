package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betbridge/internal/converter"
	"betbridge/internal/pkg/config"
	"betbridge/internal/pkg/models"
	"betbridge/internal/providers"
	"betbridge/internal/registry"
	"betbridge/internal/translator"
)

type stubProvider struct {
	name       string
	selections []models.Selection
	extractErr error
	bookCode   string
	bookErr    error
	event      *models.EventCandidate
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Extract(ctx context.Context, code string) ([]models.Selection, error) {
	return s.selections, s.extractErr
}

func (s *stubProvider) Book(ctx context.Context, sels []models.Selection) (string, error) {
	return s.bookCode, s.bookErr
}

func (s *stubProvider) FindEvent(ctx context.Context, home, away string, date time.Time) *models.EventCandidate {
	return s.event
}

func testServer(t *testing.T, provs ...providers.Provider) *Server {
	t.Helper()
	reg, err := registry.Load()
	require.NoError(t, err)
	conv := converter.New(providers.NewSet(provs...), translator.New(reg), nil, nil)
	return New(config.ServerConfig{Addr: ":0", ReadHeaderTimeout: time.Second}, conv)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestConvert_Success(t *testing.T) {
	date := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	source := &stubProvider{
		name: "sportybet",
		selections: []models.Selection{{
			EventID: "sr:match:1",
			Home:    "Arsenal",
			Away:    "Chelsea",
			Date:    date,
			Market:  models.Market{ID: "1", Name: "1X2"},
			Outcome: models.Outcome{ID: "1", Name: "Home", Odds: 1.85},
		}},
	}
	target := &stubProvider{
		name:     "bet9ja",
		bookCode: "B9J-OUT",
		event:    &models.EventCandidate{ID: "779130", GameID: "779130", Home: "Arsenal", Away: "Chelsea", Date: date},
	}

	rec := do(testServer(t, source, target), http.MethodPost, "/api/convert",
		`{"code": "ABC", "source": "sportybet", "target": "bet9ja"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"B9J-OUT"`)
	assert.Contains(t, body, `"success"`)
}

func TestConvert_MissingFields(t *testing.T) {
	rec := do(testServer(t, &stubProvider{name: "sportybet"}), http.MethodPost, "/api/convert",
		`{"code": "ABC"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvert_UnknownProvider(t *testing.T) {
	rec := do(testServer(t, &stubProvider{name: "sportybet"}), http.MethodPost, "/api/convert",
		`{"code": "ABC", "source": "sportybet", "target": "betway"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not supported")
}

func TestConvert_TotalFailureIs422(t *testing.T) {
	source := &stubProvider{
		name: "sportybet",
		selections: []models.Selection{{
			Home:    "Obscure FC",
			Away:    "Nowhere United",
			Market:  models.Market{ID: "1", Name: "1X2"},
			Outcome: models.Outcome{ID: "1", Name: "Home", Odds: 1.5},
		}},
	}
	target := &stubProvider{name: "bet9ja"} // FindEvent returns nil

	rec := do(testServer(t, source, target), http.MethodPost, "/api/convert",
		`{"code": "ABC", "source": "sportybet", "target": "bet9ja"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed_selections")
	assert.Contains(t, rec.Body.String(), "Match not found on target bookie")
}

func TestConvert_ExtractionFailureIs500(t *testing.T) {
	source := &stubProvider{
		name:       "sportybet",
		extractErr: &models.ExtractionError{Provider: "sportybet", Code: "BAD"},
	}
	rec := do(testServer(t, source, &stubProvider{name: "bet9ja"}), http.MethodPost, "/api/convert",
		`{"code": "BAD", "source": "sportybet", "target": "bet9ja"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExtract(t *testing.T) {
	source := &stubProvider{
		name: "sportybet",
		selections: []models.Selection{{
			Home: "Arsenal", Away: "Chelsea",
			Market:  models.Market{ID: "1"},
			Outcome: models.Outcome{ID: "1", Odds: 1.85},
		}},
	}
	rec := do(testServer(t, source), http.MethodPost, "/api/extract",
		`{"code": "ABC", "source": "sportybet"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selections"`)
	assert.Contains(t, rec.Body.String(), "Arsenal")
}

func TestBook_RejectionIs422(t *testing.T) {
	target := &stubProvider{
		name:    "bet9ja",
		bookErr: &models.BookingError{Provider: "bet9ja", Message: "odds expired"},
	}
	rec := do(testServer(t, target), http.MethodPost, "/api/book",
		`{"target": "bet9ja", "selections": [{"game_id": "1"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "odds expired")
}

func TestHealth(t *testing.T) {
	rec := do(testServer(t, &stubProvider{name: "sportybet"}, &stubProvider{name: "bet9ja"}),
		http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.Contains(t, rec.Body.String(), "bet9ja")
}
