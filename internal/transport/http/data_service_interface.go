package http

import (
	"context"
	"io"

	"electionpulse/internal/elections"
	"electionpulse/internal/services"
)

// DataServiceInterface defines what the data handler needs from the data
// service. Keeping it an interface lets handler tests substitute a stub.
type DataServiceInterface interface {
	Datasets(ctx context.Context) []services.DatasetInfo
	Years(ctx context.Context, name string) ([]int, error)
	PartyVotes(ctx context.Context, name string) ([]elections.PartyYearVotes, error)
	Turnout(ctx context.Context, name string) ([]elections.TurnoutPoint, error)
	TurnoutForState(ctx context.Context, name, state string) ([]elections.StateTurnout, error)
	Winners(ctx context.Context, name string, year, compare int) (*services.WinnersResult, error)
	VoteShare(ctx context.Context, name string, year int) ([]elections.PartyShare, error)
	Flips(ctx context.Context, name string, from, to int) (*services.FlipsResult, error)
	StateSplits(ctx context.Context, name string, year int) ([]elections.StateSplit, error)
	Distribution(ctx context.Context, name string, year int) ([]elections.DistributionStats, error)
	Coverage(ctx context.Context, name string, year int) (*elections.Coverage, error)
	WriteSummaryCSV(ctx context.Context, name string, w io.Writer) error
	WriteSummaryWorkbook(ctx context.Context, name string, w io.Writer) error
}
