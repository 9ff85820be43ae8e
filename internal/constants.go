package jobtop

import (
	"time"
)

const (
	// UPDATE_INTERVAL is the time between metric polls in seconds
	UPDATE_INTERVAL = 10

	// FETCH_TIMEOUT bounds a single metrics request in seconds
	FETCH_TIMEOUT = 30

	// API_BASE_PATH is appended to the page origin to reach the REST API
	API_BASE_PATH = "/jobmetrics-restapi"

	// DEFAULT_PERIOD is the history window requested when none is given
	DEFAULT_PERIOD = "1h"

	MiB = 1 << 20
	GiB = 1 << 30
)

// Periods lists the history windows the API accepts, shortest first.
var Periods = []string{"1h", "6h", "24h"}

// UpdateDuration returns the update interval as a time.Duration
func UpdateDuration() time.Duration {
	return time.Duration(UPDATE_INTERVAL) * time.Second
}

// FetchTimeout returns the request timeout as a time.Duration
func FetchTimeout() time.Duration {
	return time.Duration(FETCH_TIMEOUT) * time.Second
}

// ValidPeriod reports whether p is one of Periods.
func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}
