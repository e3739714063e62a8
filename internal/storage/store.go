package storage

import (
	"context"
	"errors"

	"coursekit/internal/diagram"
)

// ErrRunNotFound is returned when a partition run id is unknown.
var ErrRunNotFound = errors.New("partition run not found")

// Store combines diagram and partition persistence.
type Store interface {
	DiagramStore
	PartitionStore
	Close() error
}

// DiagramStore keeps snapshots of parsed diagrams.
type DiagramStore interface {
	// SaveDiagram replaces the stored snapshot for name.
	SaveDiagram(ctx context.Context, name string, g *diagram.Graph) error

	// LoadDiagram rebuilds a snapshot with its edge order intact.
	LoadDiagram(ctx context.Context, name string) (*diagram.Graph, error)
}

// PartitionStore records grading bin assignments.
type PartitionStore interface {
	SavePartition(ctx context.Context, run *PartitionRun) error
	ListRuns(ctx context.Context) ([]RunSummary, error)
	LoadRun(ctx context.Context, id string) (*PartitionRun, error)
}
