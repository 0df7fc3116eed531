package elections

import (
	"math"
	"sort"
)

// PartyYearVotes is one bar of the animated votes-by-party chart.
type PartyYearVotes struct {
	Year  int    `json:"year"`
	Party string `json:"party"`
	Votes int64  `json:"votes"`
}

// PartyVotesByYear sums candidate votes per (year, party), ordered by year
// then party.
func PartyVotesByYear(d *Dataset) []PartyYearVotes {
	type key struct {
		year  int
		party string
	}
	sums := make(map[key]int64)
	for _, r := range d.Races {
		sums[key{r.Year, r.Party}] += r.CandidateVotes
	}

	out := make([]PartyYearVotes, 0, len(sums))
	for k, v := range sums {
		out = append(out, PartyYearVotes{Year: k.year, Party: k.party, Votes: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Party < out[j].Party
	})
	return out
}

// TurnoutPoint is one point of the national turnout line.
type TurnoutPoint struct {
	Year  int   `json:"year"`
	Votes int64 `json:"votes"`
}

// TurnoutSeries sums the reported total votes per year across all rows.
func TurnoutSeries(d *Dataset) []TurnoutPoint {
	sums := make(map[int]int64)
	for _, r := range d.Races {
		sums[r.Year] += r.TotalVotes
	}

	out := make([]TurnoutPoint, 0, len(sums))
	for y, v := range sums {
		out = append(out, TurnoutPoint{Year: y, Votes: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// StateTurnout is one point of the per-state turnout explorer.
type StateTurnout struct {
	Year    int    `json:"year"`
	StatePo string `json:"state_po"`
	Votes   int64  `json:"votes"`
}

// TurnoutByState sums total votes per (year, state). When state is non-empty
// only that state's series is returned.
func TurnoutByState(d *Dataset, state string) []StateTurnout {
	type key struct {
		year    int
		statePo string
	}
	sums := make(map[key]int64)
	for _, r := range d.Races {
		if state != "" && r.StatePo != state {
			continue
		}
		sums[key{r.Year, r.StatePo}] += r.TotalVotes
	}

	out := make([]StateTurnout, 0, len(sums))
	for k, v := range sums {
		out = append(out, StateTurnout{Year: k.year, StatePo: k.statePo, Votes: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StatePo != out[j].StatePo {
			return out[i].StatePo < out[j].StatePo
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// StateWinner is the winning row of one state's contest in a year: the
// candidate row carrying the most votes, not a party-level sum.
type StateWinner struct {
	StatePo   string `json:"state_po"`
	Party     string `json:"party"`
	Candidate string `json:"candidate"`
	Votes     int64  `json:"votes"`
}

// WinnersByState returns the winning row per state for a year, keyed by
// postal code.
func WinnersByState(d *Dataset, year int) map[string]StateWinner {
	winners := make(map[string]StateWinner)
	for _, r := range d.Races {
		if r.Year != year || r.StatePo == "" {
			continue
		}
		if w, ok := winners[r.StatePo]; !ok || r.CandidateVotes > w.Votes {
			winners[r.StatePo] = StateWinner{
				StatePo:   r.StatePo,
				Party:     r.Party,
				Candidate: r.Candidate,
				Votes:     r.CandidateVotes,
			}
		}
	}
	return winners
}

// NoRaceStates lists display states without a contest in the given year.
func NoRaceStates(d *Dataset, year int) []string {
	winners := WinnersByState(d, year)
	var out []string
	for _, s := range d.DisplayStates() {
		if _, ok := winners[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// SortedWinners flattens a winners map into postal-code order.
func SortedWinners(winners map[string]StateWinner) []StateWinner {
	out := make([]StateWinner, 0, len(winners))
	for _, w := range winners {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatePo < out[j].StatePo })
	return out
}

// StateSwing describes how one state's winner changed between two years.
type StateSwing struct {
	StatePo string `json:"state_po"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Flipped bool   `json:"flipped"`
	NoRace  bool   `json:"no_race,omitempty"`
}

// CompareWinners computes the swing between two years for every display
// state. States missing a contest in either year are marked NoRace.
func CompareWinners(d *Dataset, year, compare int) []StateSwing {
	a := WinnersByState(d, compare)
	b := WinnersByState(d, year)

	states := d.DisplayStates()
	out := make([]StateSwing, 0, len(states))
	for _, s := range states {
		wa, okA := a[s]
		wb, okB := b[s]
		swing := StateSwing{StatePo: s, From: wa.Party, To: wb.Party}
		if !okA || !okB {
			swing.NoRace = true
		} else {
			swing.Flipped = wa.Party != wb.Party
		}
		out = append(out, swing)
	}
	return out
}

// StateFlips counts how often a state's winning party changed between
// consecutive contested elections.
type StateFlips struct {
	StatePo string `json:"state_po"`
	Flips   int    `json:"flips"`
}

// FlipCounts counts party flips per display state across the election years
// in [from, to]. A year without a contest resets the sequence so a race
// reappearing later does not count as a flip.
func FlipCounts(d *Dataset, from, to int) []StateFlips {
	var years []int
	for _, y := range d.Years() {
		if y >= from && y <= to {
			years = append(years, y)
		}
	}

	winnersByYear := make(map[int]map[string]StateWinner, len(years))
	for _, y := range years {
		winnersByYear[y] = WinnersByState(d, y)
	}

	states := d.DisplayStates()
	out := make([]StateFlips, 0, len(states))
	for _, s := range states {
		prev := ""
		flips := 0
		for _, y := range years {
			w, ok := winnersByYear[y][s]
			if !ok {
				prev = ""
				continue
			}
			if prev == "" {
				prev = w.Party
				continue
			}
			if w.Party != prev {
				flips++
				prev = w.Party
			}
		}
		out = append(out, StateFlips{StatePo: s, Flips: flips})
	}
	return out
}

// RankFlips orders flip counts descending and keeps the top n. Ties break on
// postal code so the ranking is stable.
func RankFlips(counts []StateFlips, n int) []StateFlips {
	ranked := make([]StateFlips, len(counts))
	copy(ranked, counts)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Flips != ranked[j].Flips {
			return ranked[i].Flips > ranked[j].Flips
		}
		return ranked[i].StatePo < ranked[j].StatePo
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// PartyShare is one slice of the vote-share pie.
type PartyShare struct {
	Party string  `json:"party"`
	Votes int64   `json:"votes"`
	Share float64 `json:"share"`
}

// VoteShare sums candidate votes per party for a year and computes each
// party's share in percent, ordered by votes descending.
func VoteShare(d *Dataset, year int) []PartyShare {
	sums := make(map[string]int64)
	var total int64
	for _, r := range d.Races {
		if r.Year != year {
			continue
		}
		sums[r.Party] += r.CandidateVotes
		total += r.CandidateVotes
	}

	out := make([]PartyShare, 0, len(sums))
	for p, v := range sums {
		share := 0.0
		if total > 0 {
			share = float64(v) / float64(total) * 100
		}
		out = append(out, PartyShare{Party: p, Votes: v, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].Party < out[j].Party
	})
	return out
}

// StateSplit is one state's Democrat/Republican share and margin for a year.
// Margin is DemShare minus RepShare in percentage points; positive favors
// the Democrats.
type StateSplit struct {
	StatePo    string  `json:"state_po"`
	DemShare   float64 `json:"dem_share"`
	RepShare   float64 `json:"rep_share"`
	Margin     float64 `json:"margin"`
	TotalVotes int64   `json:"total_votes"`
	Winner     string  `json:"winner"`
}

// StateSplits computes the two-party split for every display state in a
// year, sorted by closeness to 50/50.
func StateSplits(d *Dataset, year int) []StateSplit {
	type tally struct{ dem, rep, other int64 }
	tallies := make(map[string]*tally)
	for _, r := range d.Races {
		if r.Year != year {
			continue
		}
		t := tallies[r.StatePo]
		if t == nil {
			t = &tally{}
			tallies[r.StatePo] = t
		}
		switch r.Party {
		case "Democrat":
			t.dem += r.CandidateVotes
		case "Republican":
			t.rep += r.CandidateVotes
		default:
			t.other += r.CandidateVotes
		}
	}

	states := d.DisplayStates()
	out := make([]StateSplit, 0, len(states))
	for _, s := range states {
		split := StateSplit{StatePo: s, Winner: "No Race"}
		if t, ok := tallies[s]; ok {
			total := t.dem + t.rep + t.other
			split.TotalVotes = total
			if total > 0 {
				split.DemShare = float64(t.dem) / float64(total) * 100
				split.RepShare = float64(t.rep) / float64(total) * 100
				split.Margin = split.DemShare - split.RepShare
				switch {
				case split.Margin > 0:
					split.Winner = "Democrat"
				case split.Margin < 0:
					split.Winner = "Republican"
				default:
					split.Winner = "Other"
				}
			}
		}
		out = append(out, split)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Margin) < math.Abs(out[j].Margin)
	})
	return out
}

// DistributionStats summarizes how one party's state-level vote totals are
// distributed across states in a year, feeding the box plot.
type DistributionStats struct {
	Party  string  `json:"party"`
	States int     `json:"states"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// VoteDistribution computes per-party box plot statistics over state-level
// vote sums for a year, ordered by party name.
func VoteDistribution(d *Dataset, year int) []DistributionStats {
	type key struct {
		statePo string
		party   string
	}
	sums := make(map[key]int64)
	for _, r := range d.Races {
		if r.Year != year {
			continue
		}
		sums[key{r.StatePo, r.Party}] += r.CandidateVotes
	}

	byParty := make(map[string][]float64)
	for k, v := range sums {
		byParty[k.party] = append(byParty[k.party], float64(v))
	}

	parties := make([]string, 0, len(byParty))
	for p := range byParty {
		parties = append(parties, p)
	}
	sort.Strings(parties)

	out := make([]DistributionStats, 0, len(parties))
	for _, p := range parties {
		values := byParty[p]
		sort.Float64s(values)
		out = append(out, DistributionStats{
			Party:  p,
			States: len(values),
			Min:    values[0],
			Q1:     quantileOf(values, 0.25),
			Median: quantileOf(values, 0.5),
			Q3:     quantileOf(values, 0.75),
			Max:    values[len(values)-1],
			Mean:   meanOf(values),
			StdDev: stdDevOf(values),
		})
	}
	return out
}

// Coverage reports how many display states held a race in a year.
type Coverage struct {
	Year            int `json:"year"`
	StatesWithRaces int `json:"states_with_races"`
	TotalStates     int `json:"total_states"`
	NoRace          int `json:"no_race"`
}

// CoverageForYear counts display states with and without a contest in a year.
func CoverageForYear(d *Dataset, year int) Coverage {
	present := make(map[string]struct{})
	for _, r := range d.Races {
		if r.Year == year && r.StatePo != "" {
			present[r.StatePo] = struct{}{}
		}
	}

	states := d.DisplayStates()
	with := 0
	for _, s := range states {
		if _, ok := present[s]; ok {
			with++
		}
	}
	return Coverage{
		Year:            year,
		StatesWithRaces: with,
		TotalStates:     len(states),
		NoRace:          len(states) - with,
	}
}

// quantileOf interpolates linearly between order statistics; values must be
// sorted ascending and non-empty.
func quantileOf(values []float64, q float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	pos := q * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return values[lo]
	}
	frac := pos - float64(lo)
	return values[lo]*(1-frac) + values[hi]*frac
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
