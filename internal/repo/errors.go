package repo

import "errors"

var (
	ErrNotFound     = errors.New("run not found")
	ErrBadID        = errors.New("bad run_id")
	ErrInconsistent = errors.New("inconsistent data")
)

const (
	defaultSampleCap = 5
	maxListLimit     = 500
)
