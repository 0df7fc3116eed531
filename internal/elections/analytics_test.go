package elections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDataset covers three states over three election years with a flip in AL
// and a year without a VT contest.
func testDataset(t *testing.T) *Dataset {
	t.Helper()
	return NewDataset(KindPresident, []Race{
		{Year: 2012, State: "Alabama", StatePo: "AL", Candidate: "Dem A", Party: "Democrat", CandidateVotes: 600, TotalVotes: 1000},
		{Year: 2012, State: "Alabama", StatePo: "AL", Candidate: "Rep A", Party: "Republican", CandidateVotes: 400, TotalVotes: 1000},
		{Year: 2012, State: "Vermont", StatePo: "VT", Candidate: "Dem B", Party: "Democrat", CandidateVotes: 300, TotalVotes: 500},
		{Year: 2012, State: "Vermont", StatePo: "VT", Candidate: "Rep B", Party: "Republican", CandidateVotes: 200, TotalVotes: 500},

		{Year: 2016, State: "Alabama", StatePo: "AL", Candidate: "Rep C", Party: "Republican", CandidateVotes: 700, TotalVotes: 1200},
		{Year: 2016, State: "Alabama", StatePo: "AL", Candidate: "Dem C", Party: "Democrat", CandidateVotes: 500, TotalVotes: 1200},
		{Year: 2016, State: "Texas", StatePo: "TX", Candidate: "Rep D", Party: "Republican", CandidateVotes: 900, TotalVotes: 1500},
		{Year: 2016, State: "Texas", StatePo: "TX", Candidate: "Dem D", Party: "Democrat", CandidateVotes: 600, TotalVotes: 1500},

		{Year: 2020, State: "Alabama", StatePo: "AL", Candidate: "Rep E", Party: "Republican", CandidateVotes: 800, TotalVotes: 1400},
		{Year: 2020, State: "Alabama", StatePo: "AL", Candidate: "Dem E", Party: "Democrat", CandidateVotes: 600, TotalVotes: 1400},
		{Year: 2020, State: "Vermont", StatePo: "VT", Candidate: "Dem F", Party: "Democrat", CandidateVotes: 400, TotalVotes: 600},
		{Year: 2020, State: "Vermont", StatePo: "VT", Candidate: "Rep F", Party: "Republican", CandidateVotes: 200, TotalVotes: 600},
	})
}

func TestPartyVotesByYear(t *testing.T) {
	rows := PartyVotesByYear(testDataset(t))
	require.Len(t, rows, 6)

	// ordered by year then party
	assert.Equal(t, PartyYearVotes{Year: 2012, Party: "Democrat", Votes: 900}, rows[0])
	assert.Equal(t, PartyYearVotes{Year: 2012, Party: "Republican", Votes: 600}, rows[1])
	assert.Equal(t, PartyYearVotes{Year: 2020, Party: "Republican", Votes: 1000}, rows[5])
}

func TestTurnoutSeries(t *testing.T) {
	points := TurnoutSeries(testDataset(t))
	require.Len(t, points, 3)
	// per-row totals sum across every candidate row
	assert.Equal(t, TurnoutPoint{Year: 2012, Votes: 3000}, points[0])
	assert.Equal(t, TurnoutPoint{Year: 2016, Votes: 5400}, points[1])
	assert.Equal(t, TurnoutPoint{Year: 2020, Votes: 4000}, points[2])
}

func TestTurnoutByState(t *testing.T) {
	all := TurnoutByState(testDataset(t), "")
	assert.Len(t, all, 7)

	vt := TurnoutByState(testDataset(t), "VT")
	require.Len(t, vt, 2)
	assert.Equal(t, StateTurnout{Year: 2012, StatePo: "VT", Votes: 1000}, vt[0])
	assert.Equal(t, StateTurnout{Year: 2020, StatePo: "VT", Votes: 1200}, vt[1])
}

func TestWinnersByState(t *testing.T) {
	winners := WinnersByState(testDataset(t), 2016)
	require.Len(t, winners, 2)
	assert.Equal(t, "Republican", winners["AL"].Party)
	assert.Equal(t, "Rep C", winners["AL"].Candidate)
	assert.Equal(t, "Republican", winners["TX"].Party)
}

func TestNoRaceStates(t *testing.T) {
	noRace := NoRaceStates(testDataset(t), 2016)
	assert.Contains(t, noRace, "VT")
	assert.NotContains(t, noRace, "AL")
	assert.NotContains(t, noRace, "TX")
	// 50 display states, two contested
	assert.Len(t, noRace, 48)
}

func TestCompareWinners(t *testing.T) {
	swings := CompareWinners(testDataset(t), 2016, 2012)

	byState := make(map[string]StateSwing)
	for _, s := range swings {
		byState[s.StatePo] = s
	}

	al := byState["AL"]
	assert.True(t, al.Flipped)
	assert.Equal(t, "Democrat", al.From)
	assert.Equal(t, "Republican", al.To)

	// VT held no race in 2016
	assert.True(t, byState["VT"].NoRace)
	assert.False(t, byState["VT"].Flipped)
}

func TestFlipCounts(t *testing.T) {
	counts := FlipCounts(testDataset(t), 2012, 2020)

	byState := make(map[string]int)
	for _, c := range counts {
		byState[c.StatePo] = c.Flips
	}

	// AL: Dem 2012 -> Rep 2016 -> Rep 2020 = one flip
	assert.Equal(t, 1, byState["AL"])
	// VT skipped 2016; the gap resets the sequence so Dem->Dem is no flip
	assert.Equal(t, 0, byState["VT"])
	assert.Equal(t, 0, byState["TX"])
}

func TestRankFlips(t *testing.T) {
	counts := []StateFlips{
		{StatePo: "OH", Flips: 3},
		{StatePo: "FL", Flips: 5},
		{StatePo: "AZ", Flips: 3},
		{StatePo: "WY", Flips: 0},
	}
	top := RankFlips(counts, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "FL", top[0].StatePo)
	// ties break on postal code
	assert.Equal(t, "AZ", top[1].StatePo)
	assert.Equal(t, "OH", top[2].StatePo)
}

func TestVoteShare(t *testing.T) {
	shares := VoteShare(testDataset(t), 2012)
	require.Len(t, shares, 2)

	assert.Equal(t, "Democrat", shares[0].Party)
	assert.Equal(t, int64(900), shares[0].Votes)
	assert.InDelta(t, 60.0, shares[0].Share, 0.001)
	assert.InDelta(t, 40.0, shares[1].Share, 0.001)
}

func TestStateSplits(t *testing.T) {
	splits := StateSplits(testDataset(t), 2012)

	byState := make(map[string]StateSplit)
	for _, s := range splits {
		byState[s.StatePo] = s
	}

	al := byState["AL"]
	assert.InDelta(t, 60.0, al.DemShare, 0.001)
	assert.InDelta(t, 40.0, al.RepShare, 0.001)
	assert.InDelta(t, 20.0, al.Margin, 0.001)
	assert.Equal(t, "Democrat", al.Winner)
	assert.Equal(t, int64(1000), al.TotalVotes)

	assert.Equal(t, "No Race", byState["TX"].Winner)

	// no-race states carry margin 0 and sort ahead of AL and VT (20pt each)
	assert.Equal(t, 0.0, splits[0].Margin)
}

func TestVoteDistribution(t *testing.T) {
	stats := VoteDistribution(testDataset(t), 2016)
	require.Len(t, stats, 2)

	// ordered by party name
	dem := stats[0]
	require.Equal(t, "Democrat", dem.Party)
	assert.Equal(t, 2, dem.States)
	assert.Equal(t, 500.0, dem.Min)
	assert.Equal(t, 600.0, dem.Max)
	assert.Equal(t, 550.0, dem.Median)
	assert.Equal(t, 550.0, dem.Mean)

	rep := stats[1]
	assert.Equal(t, "Republican", rep.Party)
	assert.Equal(t, 800.0, rep.Median)
}

func TestCoverageForYear(t *testing.T) {
	cov := CoverageForYear(testDataset(t), 2016)
	assert.Equal(t, 2016, cov.Year)
	assert.Equal(t, 2, cov.StatesWithRaces)
	assert.Equal(t, 50, cov.TotalStates)
	assert.Equal(t, 48, cov.NoRace)
}
