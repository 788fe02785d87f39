package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/merge"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("row not found")

// Run statuses, in lifecycle order.
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run kinds.
const (
	RunKindIndex = "index"
	RunKindMerge = "merge"
)

// Run is the bookkeeping row of one index or merge job.
type Run struct {
	ProjectID int64  `json:"project_id"`
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Gaps      int    `json:"gaps"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// IndexStorage persists and serves a project's current index tables. One
// project holds at most one current index; ReplaceCurrent swaps it atomically
// so readers never observe a half-written run.
type IndexStorage interface {
	// LoadTables returns the project's current index tables. A project
	// without an index yields empty, non-nil tables.
	LoadTables(ctx context.Context, projectID int64) (merge.Tables, error)
	// ReplaceCurrent replaces the project's current index with the given
	// tables in a single transaction, stamping every row with the run id.
	ReplaceCurrent(ctx context.Context, projectID int64, runID string, tables merge.Tables) error
	// DeleteProject removes the project's current index and run history.
	DeleteProject(ctx context.Context, projectID int64) error

	// GetCommunities returns community rows, all levels when level < 0.
	GetCommunities(ctx context.Context, projectID int64, level int) ([]common.Community, error)
	// GetCommunityReports returns report rows, all levels when level < 0.
	GetCommunityReports(ctx context.Context, projectID int64, level int) ([]common.CommunityReport, error)
	GetEntities(ctx context.Context, projectID int64) ([]common.Entity, error)
	GetRelationships(ctx context.Context, projectID int64) ([]common.Relationship, error)

	CreateRun(ctx context.Context, run Run) error
	UpdateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, projectID int64, runID string) (*Run, error)
	// ListRuns returns the project's runs, newest first.
	ListRuns(ctx context.Context, projectID int64) ([]Run, error)
	// ListStaleRuns returns running runs whose last update is older than
	// olderThanMs, across all projects. Used to recover after worker crashes.
	ListStaleRuns(ctx context.Context, olderThanMs int64) ([]Run, error)
}
