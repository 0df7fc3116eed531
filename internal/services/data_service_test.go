package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electionpulse/internal/config"
)

const presidentCSV = `year,state,state_po,candidate,party_simplified,candidatevotes,totalvotes
2016,Alabama,AL,"TRUMP, DONALD J.",REPUBLICAN,1318255,2123372
2016,Alabama,AL,"CLINTON, HILLARY",DEMOCRAT,729547,2123372
2020,Alabama,AL,"TRUMP, DONALD J.",REPUBLICAN,1441170,2323282
2020,Alabama,AL,"BIDEN, JOSEPH R. JR",DEMOCRAT,849624,2323282
2020,Vermont,VT,"BIDEN, JOSEPH R. JR",DEMOCRAT,242820,367428
2020,Vermont,VT,"TRUMP, DONALD J.",REPUBLICAN,112704,367428
`

const senateCSV = `year,state,state_po,candidate,party_simplified,candidatevotes,totalvotes
2016,Alabama,AL,"SHELBY, RICHARD",REPUBLICAN,1335104,2087444
2016,Alabama,AL,"CRUMPTON, RON",DEMOCRAT,748709,2087444
2020,Alabama,AL,"TUBERVILLE, TOMMY",REPUBLICAN,1392076,2300000
2020,Alabama,AL,"JONES, DOUG",DEMOCRAT,920478,2300000
`

func writeDatasets(t *testing.T) config.DatasetConfig {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "president.csv"), []byte(presidentCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "senate.csv"), []byte(senateCSV), 0o644))
	return config.DatasetConfig{
		Dir:           dir,
		PresidentFile: "president.csv",
		SenateFile:    "senate.csv",
	}
}

func loadedService(t *testing.T) *DataService {
	t.Helper()
	ds := NewDataService(writeDatasets(t), nil)
	require.NoError(t, ds.Load(context.Background()))
	return ds
}

func TestDataServiceLoad(t *testing.T) {
	ds := loadedService(t)

	assert.True(t, ds.Ready())
	assert.False(t, ds.LoadedAt().IsZero())

	infos := ds.Datasets(context.Background())
	require.Len(t, infos, 2)
	assert.Equal(t, DatasetPresident, infos[0].Name)
	assert.Equal(t, 6, infos[0].Races)
	assert.Equal(t, 2016, infos[0].MinYear)
	assert.Equal(t, 2020, infos[0].MaxYear)
	assert.Equal(t, 4, infos[0].YearStep)
	assert.Equal(t, DatasetSenate, infos[1].Name)
	assert.Equal(t, 4, infos[1].YearStep)
}

func TestDataServiceLoadMissingFile(t *testing.T) {
	cfg := config.DatasetConfig{
		Dir:           t.TempDir(),
		PresidentFile: "absent.csv",
	}
	ds := NewDataService(cfg, nil)
	err := ds.Load(context.Background())
	require.Error(t, err)
	assert.False(t, ds.Ready())
}

func TestDataServiceReloadKeepsDataOnFailure(t *testing.T) {
	cfg := writeDatasets(t)
	ds := NewDataService(cfg, nil)
	require.NoError(t, ds.Load(context.Background()))

	// corrupt one file so the reload fails
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "president.csv"), []byte("garbage"), 0o644))

	err := ds.Reload(context.Background())
	require.Error(t, err)

	// the previous data must still answer queries
	years, err := ds.Years(context.Background(), DatasetPresident)
	require.NoError(t, err)
	assert.Equal(t, []int{2016, 2020}, years)
}

func TestDataServiceUnknownDataset(t *testing.T) {
	ds := loadedService(t)
	_, err := ds.Years(context.Background(), "house")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestDataServiceWinners(t *testing.T) {
	ds := loadedService(t)

	result, err := ds.Winners(context.Background(), DatasetPresident, 2020, 0)
	require.NoError(t, err)
	assert.Equal(t, 2020, result.Year)
	require.Len(t, result.Winners, 2)
	assert.Equal(t, "AL", result.Winners[0].StatePo)
	assert.Equal(t, "Republican", result.Winners[0].Party)
	assert.Equal(t, "VT", result.Winners[1].StatePo)
	assert.Equal(t, "Democrat", result.Winners[1].Party)
	assert.Empty(t, result.Swings)
}

func TestDataServiceWinnersWithCompare(t *testing.T) {
	ds := loadedService(t)

	result, err := ds.Winners(context.Background(), DatasetPresident, 2020, 2016)
	require.NoError(t, err)
	assert.Equal(t, 2016, result.Compare)
	assert.NotEmpty(t, result.Swings)
}

func TestDataServiceWinnersYearNotFound(t *testing.T) {
	ds := loadedService(t)

	_, err := ds.Winners(context.Background(), DatasetPresident, 1999, 0)
	assert.ErrorIs(t, err, ErrYearNotFound)

	_, err = ds.Winners(context.Background(), DatasetPresident, 2020, 1999)
	assert.ErrorIs(t, err, ErrYearNotFound)
}

func TestDataServiceFlips(t *testing.T) {
	ds := loadedService(t)

	result, err := ds.Flips(context.Background(), DatasetPresident, 2016, 2020)
	require.NoError(t, err)
	assert.Equal(t, 2016, result.From)
	assert.Equal(t, 2020, result.To)
	assert.NotEmpty(t, result.Counts)
	assert.LessOrEqual(t, len(result.Top), 10)
}

func TestDataServiceFlipsRejectedForSenate(t *testing.T) {
	ds := loadedService(t)
	_, err := ds.Flips(context.Background(), DatasetSenate, 2016, 2020)
	assert.ErrorIs(t, err, ErrFlipsNotSupported)
}

func TestDataServiceVoteShare(t *testing.T) {
	ds := loadedService(t)

	shares, err := ds.VoteShare(context.Background(), DatasetPresident, 2020)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, "Republican", shares[0].Party)
}

func TestDataServiceTurnoutForState(t *testing.T) {
	ds := loadedService(t)

	rows, err := ds.TurnoutForState(context.Background(), DatasetPresident, "VT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "VT", rows[0].StatePo)
}

func TestDataServiceCoverage(t *testing.T) {
	ds := loadedService(t)

	cov, err := ds.Coverage(context.Background(), DatasetPresident, 2020)
	require.NoError(t, err)
	assert.Equal(t, 2, cov.StatesWithRaces)
	assert.Equal(t, 50, cov.TotalStates)
}

func TestDataServiceWriteSummaryCSV(t *testing.T) {
	ds := loadedService(t)

	var buf bytes.Buffer
	require.NoError(t, ds.WriteSummaryCSV(context.Background(), DatasetPresident, &buf))
	assert.Contains(t, buf.String(), "year,party,votes")
	assert.Contains(t, buf.String(), "Democrat")
}

func TestDataServiceWriteSummaryWorkbook(t *testing.T) {
	ds := loadedService(t)

	var buf bytes.Buffer
	require.NoError(t, ds.WriteSummaryWorkbook(context.Background(), DatasetPresident, &buf))
	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
