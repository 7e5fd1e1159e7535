package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type RunsRepo struct {
	Pool      DB
	qTimeout  time.Duration
	txTimeout time.Duration
}

func NewRunsRepo(pool *pgxpool.Pool) *RunsRepo {
	return &RunsRepo{
		Pool:      pool,
		qTimeout:  2 * time.Second,
		txTimeout: 5 * time.Second,
	}
}

func NewRunsRepoWith(pool *pgxpool.Pool, qTimeout, txTimeout time.Duration) *RunsRepo {
	return &RunsRepo{
		Pool:      pool,
		qTimeout:  qTimeout,
		txTimeout: txTimeout,
	}
}

func (r *RunsRepo) withQ(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.qTimeout)
}
func (r *RunsRepo) withTx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.txTimeout)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *RunsRepo) GetRun(ctx context.Context, id string) (RunReport, error) {
	if !validID(id) {
		return RunReport{}, ErrBadID
	}

	rep, err := r.getRunHeader(ctx, id)
	if err != nil {
		return RunReport{}, err
	}
	if rep.ExclusionReasons, err = r.getExclusions(ctx, id); err != nil {
		return RunReport{}, err
	}
	if rep.ExcludedSample, err = r.getSample(ctx, id); err != nil {
		return RunReport{}, err
	}
	return rep, nil
}

func (r *RunsRepo) ListRecentRunIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	limit = min(limit, maxListLimit)
	ctxT, cancel := r.withQ(ctx)
	defer cancel()

	rows, err := r.Pool.Query(ctxT, qListRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("listRecent query: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listRecent scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listRecent rows: %w", err)
	}
	return ids, nil
}

func (r *RunsRepo) SaveRun(ctx context.Context, rep RunReport) error {
	return r.insertRunBatch(ctx, rep)
}

func (r *RunsRepo) Ping(ctx context.Context) error {
	ctxT, cancel := r.withQ(ctx)
	defer cancel()
	var x int
	if err := r.Pool.QueryRow(ctxT, "select 1").Scan(&x); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
