package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeedKindCities = "cities"
	SeedKindCosts  = "costs"
)

// UpsertResult summarises a batched write.
type UpsertResult struct {
	Written       int
	Batches       int
	FailedBatches []int
}

// SeedSummary is what a seeding step reports back to the orchestrator.
type SeedSummary struct {
	Kind      string
	Prepared  int
	Matched   int
	Unmatched int
	Cleared   int
	Upsert    UpsertResult
}

// SeedRun matches the seed_runs audit table.
type SeedRun struct {
	ID            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Prepared      int        `json:"prepared"`
	Written       int        `json:"written"`
	FailedBatches int        `json:"failed_batches"`
	Unmatched     int        `json:"unmatched"`
}
