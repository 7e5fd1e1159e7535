package repo

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

func (r *RunsRepo) insertRunBatch(ctx context.Context, rep RunReport) (err error) {
	if !validID(rep.RunID) {
		return ErrBadID
	}
	if rep.FetchedTotal != rep.EligibleTotal+rep.ExcludedTotal {
		return fmt.Errorf("%w: fetched %d != eligible %d + excluded %d",
			ErrInconsistent, rep.FetchedTotal, rep.EligibleTotal, rep.ExcludedTotal)
	}
	rep.StartedAt = rep.StartedAt.UTC()
	rep.FinishedAt = rep.FinishedAt.UTC()

	ctxT, cancel := r.withTx(ctx)
	defer cancel()

	tx, err := r.Pool.BeginTx(ctxT, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctxT)
			panic(p)
		}
	}()

	var b pgx.Batch
	b.Queue(qInsertRun,
		rep.RunID, rep.StartedAt, rep.FinishedAt, rep.DryRun, rep.FetchedTotal, rep.EligibleTotal,
		rep.ExcludedTotal, rep.TargetURL, rep.PayloadOrders, rep.Delivered, rep.ArtifactURI,
	)

	reasons := make([]string, 0, len(rep.ExclusionReasons))
	for reason := range rep.ExclusionReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		b.Queue(qInsertExclusion, rep.RunID, reason, rep.ExclusionReasons[reason])
	}
	for i, e := range rep.ExcludedSample {
		b.Queue(qInsertSample, rep.RunID, i, e.OrderID, e.Name, e.Reason)
	}

	br := tx.SendBatch(ctxT, &b)

	steps := 1 + len(reasons) + len(rep.ExcludedSample)
	for i := 0; i < steps; i++ {
		if _, execErr := br.Exec(); execErr != nil {
			_ = br.Close()
			_ = tx.Rollback(ctxT)
			return fmt.Errorf("batch step %d: %w", i, execErr)
		}
	}

	if errClose := br.Close(); errClose != nil {
		_ = tx.Rollback(ctxT)
		return fmt.Errorf("batch close: %w", errClose)
	}

	if cErr := tx.Commit(ctxT); cErr != nil {
		return fmt.Errorf("commit: %w", cErr)
	}

	return nil
}
