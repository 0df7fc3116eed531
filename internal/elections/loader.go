package elections

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNoUsableRows is returned when a file parses but yields no race rows,
// e.g. every row was malformed or missing its party.
var ErrNoUsableRows = errors.New("no usable rows in dataset")

// columnIndex maps the columns the loader cares about to their positions in
// the header row. Lookups are case-insensitive and tolerant of stray quotes.
type columnIndex struct {
	year           int
	state          int
	statePo        int
	candidate      int
	party          int
	candidateVotes int
	totalVotes     int
}

// LoadFile reads one results CSV from disk and builds a dataset.
func LoadFile(path string, kind Kind) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	races, err := Parse(bytes.NewReader(decodeBytes(data)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	slog.Info("dataset loaded",
		slog.String("path", path),
		slog.String("kind", string(kind)),
		slog.Int("rows", len(races)))

	return NewDataset(kind, races), nil
}

// Parse reads race rows from CSV content. Malformed lines are skipped, as are
// rows without a simplified party. An error is returned only when the header
// is unusable or nothing parses.
func Parse(r io.Reader) ([]Race, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var races []Race
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// bad line: skip and keep going
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		year, ok := intField(rec, cols.year)
		if !ok {
			continue
		}
		party := NormalizeParty(field(rec, cols.party))
		if party == "" {
			continue
		}
		votes, ok := intField(rec, cols.candidateVotes)
		if !ok {
			continue
		}

		total, _ := intField(rec, cols.totalVotes)
		if cols.totalVotes < 0 {
			// no turnout column in this file; candidate votes are the best
			// available stand-in, matching the chart-side column fallback
			total = votes
		}

		statePo := strings.ToUpper(field(rec, cols.statePo))
		state := field(rec, cols.state)
		if statePo == "" {
			statePo = strings.ToUpper(state)
		}

		races = append(races, Race{
			Year:           int(year),
			State:          state,
			StatePo:        statePo,
			Candidate:      field(rec, cols.candidate),
			Party:          party,
			CandidateVotes: votes,
			TotalVotes:     total,
		})
	}

	if len(races) == 0 {
		return nil, ErrNoUsableRows
	}
	return races, nil
}

// mapColumns locates the required columns in the header. The party column
// prefers the exact party_simplified name with a best-effort fallback to any
// column containing "party".
func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{
		year: -1, state: -1, statePo: -1, candidate: -1,
		party: -1, candidateVotes: -1, totalVotes: -1,
	}

	partyFallback := -1
	for i, h := range header {
		name := strings.ToLower(cleanField(h))
		switch name {
		case "year":
			cols.year = i
		case "state":
			cols.state = i
		case "state_po":
			cols.statePo = i
		case "candidate":
			cols.candidate = i
		case "party_simplified":
			cols.party = i
		case "candidatevotes":
			cols.candidateVotes = i
		case "totalvotes":
			cols.totalVotes = i
		default:
			if strings.Contains(name, "party") && partyFallback < 0 {
				partyFallback = i
			}
		}
	}

	if cols.party < 0 {
		cols.party = partyFallback
	}

	var missing []string
	if cols.year < 0 {
		missing = append(missing, "year")
	}
	if cols.candidateVotes < 0 {
		missing = append(missing, "candidatevotes")
	}
	if cols.party < 0 {
		missing = append(missing, "party_simplified")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("required columns missing: %s (header: %s)",
			strings.Join(missing, ", "), strings.Join(header, ","))
	}
	return cols, nil
}

// NormalizeParty maps raw simplified-party values to their display form:
// Democrat, Republican, or the title-cased original.
func NormalizeParty(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "na", "n/a":
		return ""
	case "democrat":
		return "Democrat"
	case "republican":
		return "Republican"
	}
	return titleCase(s)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// field returns the cleaned value at idx, or "" when the column is absent or
// the row is short.
func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return cleanField(rec[idx])
}

func intField(rec []string, idx int) (int64, bool) {
	s := field(rec, idx)
	if s == "" {
		return 0, false
	}
	// some exports carry thousands separators or a float rendering
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// cleanField strips surrounding whitespace and stray quote characters the way
// the raw files carry them.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// decodeBytes normalizes file bytes to UTF-8: a BOM is dropped and content
// that is not valid UTF-8 is treated as Latin-1.
func decodeBytes(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return data
	}

	// Latin-1 maps bytes 1:1 onto the first 256 code points
	out := make([]byte, 0, len(data)+len(data)/8)
	for _, b := range data {
		if b < utf8.RuneSelf {
			out = append(out, b)
		} else {
			out = utf8.AppendRune(out, rune(b))
		}
	}
	return out
}
