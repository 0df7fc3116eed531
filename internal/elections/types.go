package elections

import "sort"

// Kind identifies which results file a dataset was loaded from.
type Kind string

const (
	KindPresident Kind = "president"
	KindSenate    Kind = "senate"
)

// Race is a single results row: one candidate's outcome in one state-year
// contest. Party holds the normalized simplified party name.
type Race struct {
	Year           int    `json:"year"`
	State          string `json:"state"`
	StatePo        string `json:"state_po"`
	Candidate      string `json:"candidate"`
	Party          string `json:"party"`
	CandidateVotes int64  `json:"candidate_votes"`
	TotalVotes     int64  `json:"total_votes"`
}

// Dataset is an immutable collection of races of one kind. Reloads build a
// fresh Dataset rather than mutating an existing one.
type Dataset struct {
	Kind  Kind
	Races []Race

	years         []int
	displayStates []string
}

// NewDataset builds a dataset from parsed races, indexing the distinct years
// and the display-state list.
func NewDataset(kind Kind, races []Race) *Dataset {
	yearSet := make(map[int]struct{})
	hasDC := false
	for _, r := range races {
		yearSet[r.Year] = struct{}{}
		if r.StatePo == "DC" {
			hasDC = true
		}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	return &Dataset{
		Kind:          kind,
		Races:         races,
		years:         years,
		displayStates: displayStates(hasDC),
	}
}

// Years returns the distinct election years in ascending order.
func (d *Dataset) Years() []int {
	out := make([]int, len(d.years))
	copy(out, d.years)
	return out
}

// HasYear reports whether any race was held in the given year.
func (d *Dataset) HasYear(year int) bool {
	i := sort.SearchInts(d.years, year)
	return i < len(d.years) && d.years[i] == year
}

// MinYear returns the earliest year in the dataset, or 0 when empty.
func (d *Dataset) MinYear() int {
	if len(d.years) == 0 {
		return 0
	}
	return d.years[0]
}

// MaxYear returns the latest year in the dataset, or 0 when empty.
func (d *Dataset) MaxYear() int {
	if len(d.years) == 0 {
		return 0
	}
	return d.years[len(d.years)-1]
}

// YearStep returns the election cadence in years: the greatest common divisor
// of the gaps between successive election years (4 for presidential files,
// 2 for senate files). Zero when fewer than two years are present.
func (d *Dataset) YearStep() int {
	if len(d.years) < 2 {
		return 0
	}
	step := 0
	for i := 1; i < len(d.years); i++ {
		step = gcd(step, d.years[i]-d.years[i-1])
	}
	return step
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// DisplayStates returns the postal codes rendered on the map: the 50 states,
// plus DC when the dataset contains DC races.
func (d *Dataset) DisplayStates() []string {
	out := make([]string, len(d.displayStates))
	copy(out, d.displayStates)
	return out
}
