package storage

import (
	"time"

	"github.com/shopadmin-cli/shopadmin/pkg/metafields"
)

// Run is one invocation of the reclamation engine against one shop.
type Run struct {
	ID           int64
	Shop         string
	ResourceType metafields.ResourceType
	Force        bool
	StartedAt    time.Time
	FinishedAt   time.Time // zero while running or if the process died
	Status       string    // running | completed | aborted
	Error        string

	Scanned  int
	Deleted  int
	Skipped  int
	Failed   int
	Restarts int
}

// DeletionRecord is a committed deletion as stored in the journal.
type DeletionRecord struct {
	metafields.Deletion
	RunID int64
}

// DeletionFilter selects journal entries. Zero values match everything.
type DeletionFilter struct {
	Shop  string
	Since time.Time
	Limit int
}
