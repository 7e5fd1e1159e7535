package shopify

import (
	"math"
	"time"
)

const (
	maxSleep  = 20 * time.Second
	retryBase = time.Second
)

type throttleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

type queryCost struct {
	RequestedQueryCost float64         `json:"requestedQueryCost"`
	ActualQueryCost    *float64        `json:"actualQueryCost"`
	ThrottleStatus     *throttleStatus `json:"throttleStatus"`
}

// retryBackoff is the error-triggered wait before retry number attempt+1:
// 1s, 2s, 4s, ... capped at maxSleep.
func retryBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxSleep
	}
	d := retryBase << attempt
	if d > maxSleep {
		return maxSleep
	}
	return d
}

// costWait is the budget-triggered wait: the time needed to restore enough
// points for the requested cost, at least 1s and at most maxSleep.
func costWait(c *queryCost) time.Duration {
	if c == nil || c.ThrottleStatus == nil {
		return 0
	}
	deficit := c.RequestedQueryCost - c.ThrottleStatus.CurrentlyAvailable
	if deficit <= 0 {
		return 0
	}
	if c.ThrottleStatus.RestoreRate <= 0 {
		return maxSleep
	}
	secs := math.Max(1, math.Ceil(deficit/c.ThrottleStatus.RestoreRate))
	d := time.Duration(secs) * time.Second
	if d > maxSleep {
		return maxSleep
	}
	return d
}
