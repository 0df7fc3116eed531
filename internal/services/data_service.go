package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"electionpulse/internal/config"
	"electionpulse/internal/elections"
	"electionpulse/internal/exporter"
	"electionpulse/internal/infrastructure"
)

// Dataset names as they appear in the API
const (
	DatasetPresident = "president"
	DatasetSenate    = "senate"
)

// DatasetInfo describes one loaded dataset for listing endpoints
type DatasetInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Races    int    `json:"races"`
	MinYear  int    `json:"min_year"`
	MaxYear  int    `json:"max_year"`
	YearStep int    `json:"year_step,omitempty"`
	States   int    `json:"states"`
}

// DataService loads the election results files and serves analytics over
// them. Loaded datasets are immutable; Reload builds replacements off to the
// side and swaps them in, so readers never see partial data.
type DataService struct {
	cfg     config.DatasetConfig
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	mu       sync.RWMutex
	datasets map[string]*elections.Dataset
	loadedAt time.Time
}

// NewDataService creates a new data service
func NewDataService(cfg config.DatasetConfig, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "data_service"))

	logger.Info("DataService initialized",
		slog.String("dataset_dir", cfg.Dir),
		slog.String("president_file", cfg.PresidentFile),
		slog.String("senate_file", cfg.SenateFile))

	return &DataService{
		cfg:      cfg,
		logger:   logger,
		datasets: make(map[string]*elections.Dataset),
	}
}

// SetMetrics attaches business metrics for reload instrumentation
func (ds *DataService) SetMetrics(m *infrastructure.BusinessMetrics) {
	ds.metrics = m
}

// Load reads all configured dataset files concurrently. It must succeed at
// least once before the service can answer queries.
func (ds *DataService) Load(ctx context.Context) error {
	loaded, err := ds.loadAll(ctx)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	ds.datasets = loaded
	ds.loadedAt = time.Now()
	ds.mu.Unlock()

	ds.logger.InfoContext(ctx, "datasets loaded", slog.Int("count", len(loaded)))
	return nil
}

// Reload re-reads the dataset files. On failure the previously loaded data
// stays in place and the error is returned.
func (ds *DataService) Reload(ctx context.Context) error {
	start := time.Now()
	loaded, err := ds.loadAll(ctx)

	infrastructure.RecordDatasetReload(ctx, ds.metrics, "all", time.Since(start), err)

	if err != nil {
		ds.logger.ErrorContext(ctx, "dataset reload failed, keeping previous data",
			slog.String("error", err.Error()))
		return err
	}

	ds.mu.Lock()
	ds.datasets = loaded
	ds.loadedAt = time.Now()
	ds.mu.Unlock()

	ds.logger.InfoContext(ctx, "datasets reloaded",
		slog.Int("count", len(loaded)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (ds *DataService) loadAll(ctx context.Context) (map[string]*elections.Dataset, error) {
	type task struct {
		name string
		path string
		kind elections.Kind
	}

	var tasks []task
	if ds.cfg.PresidentFile != "" {
		tasks = append(tasks, task{DatasetPresident, ds.cfg.PresidentPath(), elections.KindPresident})
	}
	if ds.cfg.SenateFile != "" {
		tasks = append(tasks, task{DatasetSenate, ds.cfg.SenatePath(), elections.KindSenate})
	}
	if len(tasks) == 0 {
		return nil, ErrNoData
	}

	var mu sync.Mutex
	loaded := make(map[string]*elections.Dataset, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := elections.LoadFile(t.path, t.kind)
			if err != nil {
				return fmt.Errorf("load %s dataset: %w", t.name, err)
			}
			mu.Lock()
			loaded[t.name] = d
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

// Ready reports whether at least one dataset is loaded
func (ds *DataService) Ready() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.datasets) > 0
}

// LoadedAt returns the time of the last successful load
func (ds *DataService) LoadedAt() time.Time {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.loadedAt
}

// Dataset returns the named dataset
func (ds *DataService) Dataset(name string) (*elections.Dataset, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	d, ok := ds.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	return d, nil
}

// Datasets lists the loaded datasets in a stable order
func (ds *DataService) Datasets(ctx context.Context) []DatasetInfo {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	var infos []DatasetInfo
	for _, name := range []string{DatasetPresident, DatasetSenate} {
		d, ok := ds.datasets[name]
		if !ok {
			continue
		}
		infos = append(infos, DatasetInfo{
			Name:     name,
			Kind:     string(d.Kind),
			Races:    len(d.Races),
			MinYear:  d.MinYear(),
			MaxYear:  d.MaxYear(),
			YearStep: d.YearStep(),
			States:   len(d.DisplayStates()),
		})
	}
	return infos
}

// Years returns the election years present in a dataset
func (ds *DataService) Years(ctx context.Context, name string) ([]int, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	return d.Years(), nil
}

// PartyVotes returns nationwide vote totals per party and year
func (ds *DataService) PartyVotes(ctx context.Context, name string) ([]elections.PartyYearVotes, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	return elections.PartyVotesByYear(d), nil
}

// Turnout returns the nationwide turnout series
func (ds *DataService) Turnout(ctx context.Context, name string) ([]elections.TurnoutPoint, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	return elections.TurnoutSeries(d), nil
}

// TurnoutForState returns the turnout series for one state
func (ds *DataService) TurnoutForState(ctx context.Context, name, state string) ([]elections.StateTurnout, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	return elections.TurnoutByState(d, state), nil
}

// WinnersResult bundles the winner map endpoint response
type WinnersResult struct {
	Year    int                     `json:"year"`
	Winners []elections.StateWinner `json:"winners"`
	NoRace  []string                `json:"no_race"`
	Swings  []elections.StateSwing  `json:"swings,omitempty"`
	Compare int                     `json:"compare_year,omitempty"`
}

// Winners returns per-state winners for a year, optionally with the swing
// against a comparison year.
func (ds *DataService) Winners(ctx context.Context, name string, year, compare int) (*WinnersResult, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	if !d.HasYear(year) {
		return nil, fmt.Errorf("%w: %s has no races in %d", ErrYearNotFound, name, year)
	}

	result := &WinnersResult{
		Year:    year,
		Winners: elections.SortedWinners(elections.WinnersByState(d, year)),
		NoRace:  elections.NoRaceStates(d, year),
	}

	if compare != 0 {
		if !d.HasYear(compare) {
			return nil, fmt.Errorf("%w: %s has no races in %d", ErrYearNotFound, name, compare)
		}
		result.Swings = elections.CompareWinners(d, year, compare)
		result.Compare = compare
	}

	return result, nil
}

// VoteShare returns national vote share percentages for a year
func (ds *DataService) VoteShare(ctx context.Context, name string, year int) ([]elections.PartyShare, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	if !d.HasYear(year) {
		return nil, fmt.Errorf("%w: %s has no races in %d", ErrYearNotFound, name, year)
	}
	return elections.VoteShare(d, year), nil
}

// FlipsResult bundles the flip count endpoint response
type FlipsResult struct {
	From   int                    `json:"from"`
	To     int                    `json:"to"`
	Counts []elections.StateFlips `json:"counts"`
	Top    []elections.StateFlips `json:"top"`
}

// Flips counts winner changes per state across the year range. Senate races
// are staggered across three classes, so consecutive elections do not cover
// the same seats and flip counting is rejected for that dataset.
func (ds *DataService) Flips(ctx context.Context, name string, from, to int) (*FlipsResult, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	if d.Kind == elections.KindSenate {
		return nil, fmt.Errorf("%w: senate seats are staggered across election cycles", ErrFlipsNotSupported)
	}

	counts := elections.FlipCounts(d, from, to)
	return &FlipsResult{
		From:   from,
		To:     to,
		Counts: counts,
		Top:    elections.RankFlips(counts, 10),
	}, nil
}

// StateSplits returns the two-party split per state for a year
func (ds *DataService) StateSplits(ctx context.Context, name string, year int) ([]elections.StateSplit, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	if !d.HasYear(year) {
		return nil, fmt.Errorf("%w: %s has no races in %d", ErrYearNotFound, name, year)
	}
	return elections.StateSplits(d, year), nil
}

// Distribution returns per-party distribution stats of state-level votes
func (ds *DataService) Distribution(ctx context.Context, name string, year int) ([]elections.DistributionStats, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	if !d.HasYear(year) {
		return nil, fmt.Errorf("%w: %s has no races in %d", ErrYearNotFound, name, year)
	}
	return elections.VoteDistribution(d, year), nil
}

// Coverage reports how many display states held races in a year
func (ds *DataService) Coverage(ctx context.Context, name string, year int) (*elections.Coverage, error) {
	d, err := ds.Dataset(name)
	if err != nil {
		return nil, err
	}
	if !d.HasYear(year) {
		return nil, fmt.Errorf("%w: %s has no races in %d", ErrYearNotFound, name, year)
	}
	cov := elections.CoverageForYear(d, year)
	return &cov, nil
}

// WriteSummaryCSV streams the party-votes summary as CSV
func (ds *DataService) WriteSummaryCSV(ctx context.Context, name string, w io.Writer) error {
	d, err := ds.Dataset(name)
	if err != nil {
		return err
	}
	return exporter.WriteSummaryCSV(w, d)
}

// WriteSummaryWorkbook streams the summary as an Excel workbook
func (ds *DataService) WriteSummaryWorkbook(ctx context.Context, name string, w io.Writer) error {
	d, err := ds.Dataset(name)
	if err != nil {
		return err
	}
	return exporter.WriteSummaryWorkbook(w, d)
}
