package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (r *RunsRepo) getRunHeader(ctx context.Context, id string) (RunReport, error) {
	var rep RunReport
	ctxT, cancel := r.withQ(ctx)
	defer cancel()

	err := r.Pool.QueryRow(ctxT, qRun, id).Scan(
		&rep.RunID, &rep.StartedAt, &rep.FinishedAt, &rep.DryRun, &rep.FetchedTotal,
		&rep.EligibleTotal, &rep.ExcludedTotal, &rep.TargetURL, &rep.PayloadOrders,
		&rep.Delivered, &rep.ArtifactURI,
	)
	if errorsIsNoRows(err) {
		return RunReport{}, ErrNotFound
	}
	if err != nil {
		return RunReport{}, fmt.Errorf("getRunHeader: %w", err)
	}
	return rep, nil
}

// getExclusions returns nil for runs without exclusions so the JSON field is
// omitted the same way the importer summary omits it.
func (r *RunsRepo) getExclusions(ctx context.Context, id string) (map[string]int, error) {
	ctxT, cancel := r.withQ(ctx)
	defer cancel()

	rows, err := r.Pool.Query(ctxT, qExclusions, id)
	if err != nil {
		return nil, fmt.Errorf("getExclusions query: %w", err)
	}
	defer rows.Close()

	var out map[string]int
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("getExclusions scan: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count for %s", ErrInconsistent, reason)
		}
		if out == nil {
			out = make(map[string]int)
		}
		out[reason] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getExclusions rows: %w", err)
	}
	return out, nil
}

func (r *RunsRepo) getSample(ctx context.Context, id string) ([]ExcludedOrder, error) {
	ctxT, cancel := r.withQ(ctx)
	defer cancel()

	rows, err := r.Pool.Query(ctxT, qSample, id)
	if err != nil {
		return nil, fmt.Errorf("getSample query: %w", err)
	}
	defer rows.Close()

	sample := make([]ExcludedOrder, 0, defaultSampleCap)
	for rows.Next() {
		var e ExcludedOrder
		if err := rows.Scan(&e.OrderID, &e.Name, &e.Reason); err != nil {
			return nil, fmt.Errorf("getSample scan: %w", err)
		}
		sample = append(sample, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getSample rows: %w", err)
	}
	return sample, nil
}

func errorsIsNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
