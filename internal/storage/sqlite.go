package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coursekit/internal/diagram"
	"coursekit/internal/partition"
	"coursekit/internal/roster"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// PartitionRun is one saved bins invocation.
type PartitionRun struct {
	ID        string
	CourseID  int64
	Weights   []float64
	CreatedAt time.Time
	Records   []roster.Record
}

// NewPartitionRun stamps a run with a fresh id and the current time.
func NewPartitionRun(courseID int64, weights []float64, records []roster.Record) *PartitionRun {
	return &PartitionRun{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Weights:   weights,
		CreatedAt: time.Now().UTC(),
		Records:   records,
	}
}

// Bins rebuilds the run's bins, one per weight, including empty ones.
func (r *PartitionRun) Bins() []partition.Bin[roster.Member] {
	bins := make([]partition.Bin[roster.Member], len(r.Weights))
	for i, w := range r.Weights {
		bins[i] = partition.Bin[roster.Member]{Index: i + 1, Weight: w, Items: []roster.Member{}}
	}
	for _, rec := range r.Records {
		if rec.Bin < 1 || rec.Bin > len(bins) {
			continue
		}
		bins[rec.Bin-1].Items = append(bins[rec.Bin-1].Items, rec.Member)
	}
	return bins
}

// RunSummary is a run without its member rows.
type RunSummary struct {
	ID        string
	CourseID  int64
	Bins      int
	Members   int
	CreatedAt time.Time
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS diagram_nodes (
			diagram TEXT,
			position INTEGER,
			id TEXT,
			label TEXT,
			PRIMARY KEY (diagram, id)
		);`,
		`CREATE TABLE IF NOT EXISTS diagram_edges (
			diagram TEXT,
			seq INTEGER,
			source TEXT,
			target TEXT,
			PRIMARY KEY (diagram, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			course_id INTEGER,
			weights JSON,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS run_members (
			run_id TEXT,
			bin INTEGER,
			item INTEGER,
			user_id INTEGER,
			user_name TEXT,
			group_id INTEGER,
			group_name TEXT,
			PRIMARY KEY (run_id, bin, item)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_run_members_user ON run_members(user_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- DiagramStore Implementation ---

func (s *SQLiteStore) SaveDiagram(ctx context.Context, name string, g *diagram.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Snapshot sync: the stored diagram must match g exactly.
	if _, err := tx.ExecContext(ctx, "DELETE FROM diagram_nodes WHERE diagram = ?", name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM diagram_edges WHERE diagram = ?", name); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO diagram_nodes (diagram, position, id, label) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, n := range g.Nodes {
		if _, err := stmt.ExecContext(ctx, name, i, n.ID, n.Label); err != nil {
			return err
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, "INSERT INTO diagram_edges (diagram, seq, source, target) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for i, e := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, name, i, e.Source, e.Target); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadDiagram(ctx context.Context, name string) (*diagram.Graph, error) {
	g := diagram.NewGraph()

	rows, err := s.db.QueryContext(ctx, "SELECT id, label FROM diagram_nodes WHERE diagram = ? ORDER BY position", name)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		g.AddNode(id, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.db.QueryContext(ctx, "SELECT source, target FROM diagram_edges WHERE diagram = ? ORDER BY seq", name)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var source, target string
		if err := edgeRows.Scan(&source, &target); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g.AddEdge(source, target)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	g.Link()
	return g, nil
}

// --- PartitionStore Implementation ---

func (s *SQLiteStore) SavePartition(ctx context.Context, run *PartitionRun) error {
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, course_id, weights, created_at) VALUES (?, ?, ?, ?)",
		run.ID, run.CourseID, string(weights), run.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_members (run_id, bin, item, user_id, user_name, group_id, group_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range run.Records {
		if _, err := stmt.ExecContext(ctx, run.ID, r.Bin, r.Item, r.UserID, r.UserName, r.GroupID, r.GroupName); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.course_id, r.created_at, r.weights, COUNT(m.user_id)
		FROM runs r LEFT JOIN run_members m ON m.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var sum RunSummary
		var created, weightsJSON string
		if err := rows.Scan(&sum.ID, &sum.CourseID, &created, &weightsJSON, &sum.Members); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		// Empty bins have no member rows, so the bin count comes from the weights.
		var weights []float64
		if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
			return nil, fmt.Errorf("failed to decode weights of run %s: %w", sum.ID, err)
		}
		sum.Bins = len(weights)
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*PartitionRun, error) {
	run := &PartitionRun{ID: id}
	var weights, created string

	row := s.db.QueryRowContext(ctx, "SELECT course_id, weights, created_at FROM runs WHERE id = ?", id)
	if err := row.Scan(&run.CourseID, &weights, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(weights), &run.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

	rows, err := s.db.QueryContext(ctx, `
		SELECT bin, item, user_id, user_name, group_id, group_name
		FROM run_members WHERE run_id = ? ORDER BY bin, item
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r roster.Record
		if err := rows.Scan(&r.Bin, &r.Item, &r.UserID, &r.UserName, &r.GroupID, &r.GroupName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		run.Records = append(run.Records, r)
	}
	return run, rows.Err()
}
