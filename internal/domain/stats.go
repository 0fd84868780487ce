package domain

import "time"

// AggregateStats holds statistics about one aggregation run.
type AggregateStats struct {
	Sources      int
	Failed       int
	Fetched      int
	Kept         int
	Duplicates   int
	UnknownDates int
	Duration     time.Duration
}

// RunStats holds statistics about one check-and-publish run.
type RunStats struct {
	RunID          string
	ShouldPost     bool
	Reason         string
	Events         int
	Delivered      int
	DeliveryErrors int
	Duration       time.Duration
}
