package diagram

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = `<mxGraphModel><root>
  <mxCell id="0"/>
  <mxCell id="1" parent="0"/>
  <mxCell id="R" value="Root" vertex="1" parent="1"/>
  <mxCell id="A" value="Alpha" vertex="1" parent="1"/>
  <mxCell id="B" value="Beta" vertex="1" parent="1"/>
  <mxCell id="Z" value="Island" vertex="1" parent="1"/>
  <mxCell id="e1" edge="1" source="R" target="A" parent="1"/>
  <mxCell id="e2" edge="1" source="B" target="A" parent="1"/>
  <mxCell id="e3" edge="1" source="R" parent="1"/>
</root></mxGraphModel>`

func wrap(model string) string {
	return `<mxfile host="app.diagrams.net"><diagram id="d1" name="Page-1">` + model + `</diagram></mxfile>`
}

func compress(t *testing.T, model string) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	_, err = w.Write([]byte(url.PathEscape(model)))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func mustParse(t *testing.T, doc string) *Graph {
	t.Helper()
	g, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return g
}

func TestParse(t *testing.T) {
	g := mustParse(t, wrap(sampleModel))

	t.Run("Nodes with values", func(t *testing.T) {
		assert.Equal(t, 4, g.Len())
		n, ok := g.Node("A")
		require.True(t, ok)
		assert.Equal(t, "Alpha", n.Label)
		_, ok = g.Node("0")
		assert.False(t, ok, "cells without a value are not nodes")
	})

	t.Run("Edges in parse order", func(t *testing.T) {
		require.Len(t, g.Edges, 3)
		assert.Equal(t, Edge{Source: "R", Target: "A"}, g.Edges[0])
		assert.Equal(t, Edge{Source: "R", Target: ""}, g.Edges[2], "dangling arrow is kept")
	})

	t.Run("Undirected adjacency", func(t *testing.T) {
		assert.Equal(t, []string{"R", "B"}, g.Neighbors("A"))
		assert.Equal(t, []string{"A"}, g.Neighbors("B"))
	})
}

func TestParse_Labels(t *testing.T) {
	doc := wrap(`<root>
  <mxCell id="P" value="R&amp;amp;D" vertex="1"/>
  <mxCell id="H" value="R&amp;amp;D" style="html=1;" vertex="1"/>
  <mxCell id="A" value="Alpha&lt;br&gt;Team" style="rounded=1;html=1;" vertex="1"/>
  <mxCell id="B" value="Q&amp;A" vertex="1"/>
  <mxCell id="S" value="&lt;span title=&quot;a&gt;b&quot;&gt;x&lt;/span&gt;" style="html=1;" vertex="1"/>
  <object id="C" label="Gamma"><mxCell vertex="1" parent="1"/></object>
</root>`)
	g := mustParse(t, doc)

	tests := map[string]string{
		"P": "R&amp;D",
		"H": "R&D",
		"A": "Alpha Team",
		"B": "Q&A",
		"S": "x",
		"C": "Gamma",
	}
	for id, want := range tests {
		n, ok := g.Node(id)
		require.True(t, ok, id)
		assert.Equal(t, want, n.Label, id)
	}
}

func TestDecodeLabel(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		isHTML bool
		want   string
	}{
		{"plain keeps entity text", "Tom &amp; Jerry", false, "Tom &amp; Jerry"},
		{"plain collapses whitespace", "  Lab \n Notes ", false, "Lab Notes"},
		{"html entities", "Tom &amp; Jerry", true, "Tom & Jerry"},
		{"html blocks", "<div>One</div><div>Two</div>", true, "One Two"},
		{"html inline tags", "<b>Bold</b>face", true, "Boldface"},
		{"quoted angle bracket", `<span title="a>b">x</span>`, true, "x"},
		{"nbsp", "Team&nbsp;A<br/>", true, "Team A"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeLabel(tc.raw, tc.isHTML))
		})
	}
}

func TestParse_Compressed(t *testing.T) {
	doc := `<mxfile><diagram id="d1" name="Page-1">` + compress(t, sampleModel) + `</diagram></mxfile>`
	g := mustParse(t, doc)

	rp, err := ResolvePaths(g, "R", "/")
	require.NoError(t, err)
	assert.Equal(t, "Root/Alpha/Beta", rp.Paths["B"])
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated":   `<mxfile><diagram><mxGraphModel><root><mxCell id="R" value="Root"`,
		"empty":       ``,
		"bad inflate": `<mxfile><diagram>not-base64!!</diagram></mxfile>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := Parse(strings.NewReader(doc))
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrMalformedDiagram)
			var mErr *MalformedDiagramError
			assert.True(t, errors.As(err, &mErr))
		})
	}
}

func TestResolvePaths(t *testing.T) {
	g := mustParse(t, wrap(sampleModel))

	rp, err := ResolvePaths(g, "R", "/")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"R": "Root",
		"A": "Root/Alpha",
		"B": "Root/Alpha/Beta",
	}, rp.Paths)
	assert.Equal(t, []string{"R", "A", "B"}, rp.Order)

	_, ok := rp.Path("Z")
	assert.False(t, ok, "unreachable node must be excluded")
}

func TestResolvePaths_FirstDiscoveryWins(t *testing.T) {
	g := NewGraph()
	g.AddNode("r", "Root")
	g.AddNode("a", "A")
	g.AddNode("b", "B")
	g.AddNode("c", "C")
	g.AddEdge("r", "b")
	g.AddEdge("a", "r")
	g.AddEdge("a", "c")
	g.AddEdge("c", "b")
	g.AddEdge("r", "a")

	rp, err := ResolvePaths(g, "r", "/")
	require.NoError(t, err)
	assert.Equal(t, "Root/B/C", rp.Paths["c"], "b is dequeued before a")
	assert.Equal(t, "Root/A", rp.Paths["a"])
	assert.Equal(t, 4, rp.Len())
}

func TestResolvePaths_Separator(t *testing.T) {
	g := mustParse(t, wrap(sampleModel))
	rp, err := ResolvePaths(g, "A", " > ")
	require.NoError(t, err)
	assert.Equal(t, "Alpha > Root", rp.Paths["R"])
	assert.Equal(t, "Alpha > Beta", rp.Paths["B"])
}

func TestResolvePaths_UnknownRoot(t *testing.T) {
	g := mustParse(t, wrap(sampleModel))
	rp, err := ResolvePaths(g, "missing", "/")
	assert.Nil(t, rp)
	assert.ErrorIs(t, err, ErrUnknownRoot)

	var rootErr *UnknownRootError
	require.True(t, errors.As(err, &rootErr))
	assert.Equal(t, "missing", rootErr.RootID)
}

func TestResolvePaths_Collisions(t *testing.T) {
	g := NewGraph()
	g.AddNode("r", "Root")
	g.AddNode("x", "Docs")
	g.AddNode("y", "Docs")
	g.AddEdge("r", "x")
	g.AddEdge("r", "y")

	rp, err := ResolvePaths(g, "r", "/")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"Root/Docs": {"x", "y"}}, rp.Collisions())
	assert.Equal(t, []string{"Root/Docs"}, rp.CollidingPaths())
}

func TestMaterializePaths(t *testing.T) {
	g := mustParse(t, wrap(sampleModel))
	rp, err := ResolvePaths(g, "R", "/")
	require.NoError(t, err)
	base := t.TempDir()

	t.Run("Dry run touches nothing", func(t *testing.T) {
		dir := filepath.Join(base, "dry")
		got, err := MaterializePaths(rp, dir, true)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "Root"),
			filepath.Join(dir, "Root", "Alpha"),
			filepath.Join(dir, "Root", "Alpha", "Beta"),
		}, got)
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("Idempotent", func(t *testing.T) {
		dir := filepath.Join(base, "live")
		first, err := MaterializePaths(rp, dir, false)
		require.NoError(t, err)
		second, err := MaterializePaths(rp, dir, false)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		info, err := os.Stat(filepath.Join(dir, "Root", "Alpha", "Beta"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Failure aborts", func(t *testing.T) {
		blocker := filepath.Join(base, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		got, err := MaterializePaths(rp, blocker, false)
		assert.Empty(t, got)
		assert.ErrorIs(t, err, ErrDirectoryCreation)

		var dirErr *DirectoryCreationError
		require.True(t, errors.As(err, &dirErr))
		assert.Equal(t, filepath.Join(blocker, "Root"), dirErr.Path)
	})
}
