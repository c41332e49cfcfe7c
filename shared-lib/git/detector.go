package git

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrentDiffs = 4

// Detector turns the working directory state into change records.
type Detector struct {
	querier            Querier
	isRepository       func(dir string) (bool, error)
	maxConcurrentDiffs int
}

type DetectorOption func(*Detector)

// WithRepositoryCheck replaces the go-git based repository check.
func WithRepositoryCheck(check func(dir string) (bool, error)) DetectorOption {
	return func(d *Detector) {
		d.isRepository = check
	}
}

// WithMaxConcurrentDiffs bounds the number of diff-stat queries in flight.
func WithMaxConcurrentDiffs(n int) DetectorOption {
	return func(d *Detector) {
		if n > 0 {
			d.maxConcurrentDiffs = n
		}
	}
}

func NewDetector(querier Querier, opts ...DetectorOption) *Detector {
	detector := &Detector{
		querier:            querier,
		isRepository:       IsRepository,
		maxConcurrentDiffs: defaultMaxConcurrentDiffs,
	}
	for _, opt := range opts {
		opt(detector)
	}
	return detector
}

// DetectChanges runs the status query for dir and resolves line counts for
// every modification with one diff-stat query per path.
//
// Returns:
//   - records: change records in status output order; empty when nothing changed
//   - err: non-nil when dir is not a repository or the status query fails
//
// A failing diff-stat query never fails detection, the record is returned
// with unknown (nil) line counts instead.
func (d *Detector) DetectChanges(ctx context.Context, dir string) ([]ChangeRecord, error) {
	isRepo, err := d.isRepository(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check repository: %w", err)
	}
	if !isRepo {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}

	output, err := d.querier.Status(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("status query failed: %w", err)
	}

	records := ParseStatus(output)
	if len(records) == 0 {
		return records, nil
	}

	var group errgroup.Group
	group.SetLimit(d.maxConcurrentDiffs)
	for i := range records {
		if !records[i].needsDiffStat() {
			continue
		}
		i := i
		group.Go(func() error {
			stat, err := d.querier.DiffStat(ctx, dir, records[i].Path)
			if err != nil {
				return nil
			}
			records[i].Additions, records[i].Deletions = ParseNumstat(stat)
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
