package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "electionpulse/internal/errors"
	"electionpulse/internal/elections"
	"electionpulse/internal/services"
)

// stubDataService returns canned data so handler behavior can be tested
// without loading CSVs.
type stubDataService struct {
	flipsErr error
	yearsErr error
}

func (s *stubDataService) Datasets(ctx context.Context) []services.DatasetInfo {
	return []services.DatasetInfo{
		{Name: "president", Kind: "president", Races: 6, MinYear: 2016, MaxYear: 2020, States: 50},
		{Name: "senate", Kind: "senate", Races: 4, MinYear: 2016, MaxYear: 2020, States: 50},
	}
}

func (s *stubDataService) Years(ctx context.Context, name string) ([]int, error) {
	if s.yearsErr != nil {
		return nil, s.yearsErr
	}
	return []int{2016, 2020}, nil
}

func (s *stubDataService) PartyVotes(ctx context.Context, name string) ([]elections.PartyYearVotes, error) {
	return []elections.PartyYearVotes{{Year: 2020, Party: "Democrat", Votes: 100}}, nil
}

func (s *stubDataService) Turnout(ctx context.Context, name string) ([]elections.TurnoutPoint, error) {
	return []elections.TurnoutPoint{{Year: 2020, Votes: 200}}, nil
}

func (s *stubDataService) TurnoutForState(ctx context.Context, name, state string) ([]elections.StateTurnout, error) {
	return []elections.StateTurnout{{Year: 2020, StatePo: state, Votes: 50}}, nil
}

func (s *stubDataService) Winners(ctx context.Context, name string, year, compare int) (*services.WinnersResult, error) {
	if year == 1999 {
		return nil, fmt.Errorf("%w: %s has no races in %d", services.ErrYearNotFound, name, year)
	}
	return &services.WinnersResult{
		Year:    year,
		Winners: []elections.StateWinner{{StatePo: "AL", Party: "Republican"}},
	}, nil
}

func (s *stubDataService) VoteShare(ctx context.Context, name string, year int) ([]elections.PartyShare, error) {
	return []elections.PartyShare{{Party: "Democrat", Votes: 100, Share: 60}}, nil
}

func (s *stubDataService) Flips(ctx context.Context, name string, from, to int) (*services.FlipsResult, error) {
	if s.flipsErr != nil {
		return nil, s.flipsErr
	}
	return &services.FlipsResult{From: from, To: to}, nil
}

func (s *stubDataService) StateSplits(ctx context.Context, name string, year int) ([]elections.StateSplit, error) {
	return []elections.StateSplit{{StatePo: "AL", Winner: "Republican"}}, nil
}

func (s *stubDataService) Distribution(ctx context.Context, name string, year int) ([]elections.DistributionStats, error) {
	return []elections.DistributionStats{{Party: "Democrat", States: 2}}, nil
}

func (s *stubDataService) Coverage(ctx context.Context, name string, year int) (*elections.Coverage, error) {
	return &elections.Coverage{Year: year, StatesWithRaces: 2, TotalStates: 50, NoRace: 48}, nil
}

func (s *stubDataService) WriteSummaryCSV(ctx context.Context, name string, w io.Writer) error {
	_, err := w.Write([]byte("year,party,votes\n"))
	return err
}

func (s *stubDataService) WriteSummaryWorkbook(ctx context.Context, name string, w io.Writer) error {
	_, err := w.Write([]byte{'P', 'K'})
	return err
}

func newTestHandler(stub *stubDataService) *DataHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDataHandler(stub, logger, apierrors.NewErrorHandler(logger, false))
}

func doRequest(t *testing.T, h *DataHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetDatasets(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/datasets")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["count"])
}

func TestGetYears(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/years")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["count"])
}

func TestUnknownDatasetReturns404Problem(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/house/years")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.EqualValues(t, http.StatusNotFound, problem["status"])
}

func TestGetWinners(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/winners?year=2020")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2020, data["year"])
}

func TestGetWinnersMissingYear(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/winners")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWinnersYearNotFound(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/winners?year=1999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFlips(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/flips?from=2016&to=2020")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2016, data["from"])
	assert.EqualValues(t, 2020, data["to"])
}

func TestGetFlipsInvalidRange(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/flips?from=2020&to=2016")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFlipsNotSupportedForSenate(t *testing.T) {
	stub := &stubDataService{
		flipsErr: fmt.Errorf("%w: senate seats are staggered across election cycles", services.ErrFlipsNotSupported),
	}
	rec := doRequest(t, newTestHandler(stub), "/senate/flips?from=2016&to=2020")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem["detail"], "staggered")
}

func TestGetTurnoutWithStateFilter(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/turnout?state=VT")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.EqualValues(t, 1, body["count"])
}

func TestGetTurnoutBadState(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/turnout?state=Vermont")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCoverage(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/coverage?year=2020")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 50, data["total_states"])
}

func TestExportSummaryCSV(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/export/summary.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "president-summary.csv")
	assert.Contains(t, rec.Body.String(), "year,party,votes")
}

func TestExportSummaryWorkbook(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubDataService{}), "/president/export/summary.xlsx")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "president-summary.xlsx")
}

func TestServiceErrorMapsToProblem(t *testing.T) {
	stub := &stubDataService{
		yearsErr: fmt.Errorf("%w: president", services.ErrDatasetNotFound),
	}
	rec := doRequest(t, newTestHandler(stub), "/president/years")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
