package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"electionpulse/internal/elections"
)

// WriteSummaryCSV writes the party-votes-by-year summary as CSV. A UTF-8 BOM
// is prefixed for Excel compatibility.
func WriteSummaryCSV(w io.Writer, d *elections.Dataset) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"year", "party", "votes"}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, row := range elections.PartyVotesByYear(d) {
		rec := []string{
			strconv.Itoa(row.Year),
			row.Party,
			strconv.FormatInt(row.Votes, 10),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryWorkbook writes an Excel workbook with a party-votes sheet and
// a state-winners sheet for the most recent election year.
func WriteSummaryWorkbook(w io.Writer, d *elections.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	const votesSheet = "Party Votes"
	if _, err := f.NewSheet(votesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRow(f, votesSheet, 1, []interface{}{"Year", "Party", "Votes"}); err != nil {
		return err
	}
	for i, row := range elections.PartyVotesByYear(d) {
		if err := writeRow(f, votesSheet, i+2, []interface{}{row.Year, row.Party, row.Votes}); err != nil {
			return err
		}
	}

	const winnersSheet = "State Winners"
	if _, err := f.NewSheet(winnersSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	year := d.MaxYear()
	if err := writeRow(f, winnersSheet, 1, []interface{}{"State", "Winner", "Party", "Votes", "Year"}); err != nil {
		return err
	}
	winners := elections.SortedWinners(elections.WinnersByState(d, year))
	for i, win := range winners {
		row := []interface{}{win.StatePo, win.Candidate, win.Party, win.Votes, year}
		if err := writeRow(f, winnersSheet, i+2, row); err != nil {
			return err
		}
	}

	// drop the default sheet excelize creates
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}
