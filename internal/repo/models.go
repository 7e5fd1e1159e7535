package repo

import "time"

// RunReport is the audit record of one import run. Reports are written once
// and only read back by the report API.
type RunReport struct {
	RunID            string          `json:"run_id"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	DryRun           bool            `json:"dry_run"`
	FetchedTotal     int             `json:"fetched_total"`
	EligibleTotal    int             `json:"eligible_total"`
	ExcludedTotal    int             `json:"excluded_total"`
	ExclusionReasons map[string]int  `json:"exclusion_reasons,omitempty"`
	ExcludedSample   []ExcludedOrder `json:"excluded_sample"`
	TargetURL        string          `json:"target_url"`
	PayloadOrders    int             `json:"payload_orders"`
	Delivered        bool            `json:"delivered"`
	ArtifactURI      string          `json:"artifact_uri,omitempty"`
}

type ExcludedOrder struct {
	OrderID string `json:"id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}
