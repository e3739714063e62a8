package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coursekit/internal/diagram"
	"coursekit/internal/partition"
	"coursekit/internal/roster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveDiagram_SnapshotSync(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	g1 := diagram.NewGraph()
	g1.AddNode("r", "Root")
	g1.AddNode("a", "Alpha")
	g1.AddNode("old", "Old")
	g1.AddEdge("r", "a")
	g1.AddEdge("r", "old")
	require.NoError(t, store.SaveDiagram(ctx, "arch.drawio", g1))

	// Second snapshot drops "old" and reverses edge order.
	g2 := diagram.NewGraph()
	g2.AddNode("r", "Root")
	g2.AddNode("a", "Alpha")
	g2.AddNode("b", "Beta")
	g2.AddEdge("b", "a")
	g2.AddEdge("r", "a")
	g2.AddEdge("a", "")
	require.NoError(t, store.SaveDiagram(ctx, "arch.drawio", g2))

	loaded, err := store.LoadDiagram(ctx, "arch.drawio")
	require.NoError(t, err)

	assert.Equal(t, g2.Nodes, loaded.Nodes)
	assert.Equal(t, g2.Edges, loaded.Edges)
	_, hasOld := loaded.Node("old")
	assert.False(t, hasOld)

	rp, err := diagram.ResolvePaths(loaded, "r", "/")
	require.NoError(t, err)
	assert.Equal(t, "Root/Alpha/Beta", rp.Paths["b"])
}

func TestSQLiteStore_LoadDiagram_Unknown(t *testing.T) {
	store := openStore(t)
	g, err := store.LoadDiagram(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, g.Len())
}

func TestSQLiteStore_Partitions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	records := []roster.Record{
		{Bin: 1, Item: 1, Member: roster.Member{UserID: 3, UserName: "babbage, Charles", GroupID: 11, GroupName: "Team Blue"}},
		{Bin: 2, Item: 1, Member: roster.Member{UserID: 4, UserName: "Grace Hopper"}},
	}
	older := NewPartitionRun(125412, []float64{0.5, 0.5}, records)
	older.CreatedAt = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	newer := NewPartitionRun(125412, []float64{1}, records[:1])
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	require.NoError(t, store.SavePartition(ctx, older))
	require.NoError(t, store.SavePartition(ctx, newer))

	t.Run("List newest first", func(t *testing.T) {
		runs, err := store.ListRuns(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, newer.ID, runs[0].ID)
		assert.Equal(t, 2, runs[1].Members)
		assert.Equal(t, 2, runs[1].Bins)
		assert.True(t, runs[1].CreatedAt.Equal(older.CreatedAt))
	})

	t.Run("Load round trip", func(t *testing.T) {
		run, err := store.LoadRun(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(125412), run.CourseID)
		assert.Equal(t, []float64{0.5, 0.5}, run.Weights)
		assert.Equal(t, records, run.Records)
	})

	t.Run("Unknown run", func(t *testing.T) {
		_, err := store.LoadRun(ctx, "nope")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("Duplicate id rejected", func(t *testing.T) {
		err := store.SavePartition(ctx, older)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "failed to insert run"))
	})
}

func TestSQLiteStore_Partitions_EmptyBins(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	members := []roster.Member{
		{UserID: 1, UserName: "Adams, Ann"},
		{UserID: 2, UserName: "Baker, Bo"},
	}
	weights, err := partition.NormalizeWeights(partition.Equal(4))
	require.NoError(t, err)
	bins := partition.Partition(members, weights)

	run := NewPartitionRun(7, weights, roster.Flatten(bins))
	require.NoError(t, store.SavePartition(ctx, run))
	empty := NewPartitionRun(8, []float64{0.5, 0.5}, nil)
	empty.CreatedAt = run.CreatedAt.Add(-time.Hour)
	require.NoError(t, store.SavePartition(ctx, empty))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 4, runs[0].Bins)
	assert.Equal(t, 2, runs[0].Members)
	assert.Equal(t, 2, runs[1].Bins)
	assert.Equal(t, 0, runs[1].Members)

	loaded, err := store.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	rebuilt := loaded.Bins()
	require.Len(t, rebuilt, 4)
	sizes := make([]int, len(rebuilt))
	for i, b := range rebuilt {
		sizes[i] = b.Len()
	}
	assert.Equal(t, []int{1, 0, 1, 0}, sizes)
	assert.Equal(t, 4, rebuilt[3].Index)
	assert.Equal(t, members[1], rebuilt[2].Items[0])
}
