package domain

import "time"

// IngestOptions controls a single ingestion run.
type IngestOptions struct {
	// Force re-ingests known files and recreates the collection once.
	Force bool

	// BatchSize is the number of chunks per embedding call.
	BatchSize int

	// SizeChars is the maximum chunk length in characters.
	SizeChars int

	// Pipeline overlaps embedding of the next batch with storing the current one.
	Pipeline bool
}

// IngestResult aggregates the counters of a run.
type IngestResult struct {
	Files              int           `json:"files"`
	Chunks             int           `json:"chunks"`
	SkippedKnown       int           `json:"skipped_known"`
	SkippedDuplicates  int           `json:"skipped_duplicates"`
	ExtractionFailures int           `json:"extraction_failures"`
	FailedBatches      int           `json:"failed_batches"`
	Duration           time.Duration `json:"duration"`
}
