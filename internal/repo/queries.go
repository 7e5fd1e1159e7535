package repo

const (
	qRun = `SELECT run_id::text, started_at, finished_at, dry_run, fetched_total, eligible_total,
                   excluded_total, target_url, payload_orders, delivered, artifact_uri
            FROM import_runs WHERE run_id = $1`

	qExclusions = `SELECT reason, order_count
                   FROM import_run_exclusions WHERE run_id = $1 ORDER BY reason`

	qSample = `SELECT order_id, order_name, reason
               FROM import_run_samples WHERE run_id = $1 ORDER BY position`

	qListRecent = `SELECT run_id::text
                   FROM import_runs
                   ORDER BY started_at DESC
                   LIMIT $1`
)

const (
	qInsertRun = `
INSERT INTO import_runs (
  run_id, started_at, finished_at, dry_run, fetched_total, eligible_total,
  excluded_total, target_url, payload_orders, delivered, artifact_uri
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (run_id) DO NOTHING
`

	qInsertExclusion = `
INSERT INTO import_run_exclusions (run_id, reason, order_count)
VALUES ($1,$2,$3)
ON CONFLICT (run_id, reason) DO NOTHING
`

	qInsertSample = `
INSERT INTO import_run_samples (run_id, position, order_id, order_name, reason)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (run_id, position) DO NOTHING
`
)
