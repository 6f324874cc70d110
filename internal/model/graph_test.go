package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond(t *testing.T) *FlowGraph {
	t.Helper()
	g := NewFlowGraph("obj", "/tmp/obj")
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, g.AddTask(NewTask(id, "Filter", "")))
	}
	require.NoError(t, g.AddEdge(NewEdge("a", "b", EdgeDependency)))
	require.NoError(t, g.AddEdge(NewEdge("b", "c", EdgeDependency)))
	require.NoError(t, g.AddEdge(NewEdge("b", "d", EdgeDataDependency)))
	return g
}

func TestTaskIdentity(t *testing.T) {
	a := NewTask("read", "ReadExcel", "")
	b := NewTask("read", "Filter", "Other name")

	assert.True(t, a.Equal(b), "tasks with the same id are the same task")
	assert.Equal(t, "read", a.Name, "name defaults to id")
	assert.Equal(t, "Other name", b.DisplayLabel())
	assert.False(t, a.Equal(NewTask("other", "ReadExcel", "")))
}

func TestEdgeIdentity(t *testing.T) {
	e1 := NewEdge("a", "b", EdgeDependency).WithLabel("first")
	e2 := NewEdge("a", "b", EdgeDataDependency).WithLabel("second")

	assert.True(t, e1.Equal(e2))
	assert.Equal(t, e1.Key(), e2.Key())
	assert.False(t, e1.Equal(NewEdge("b", "a", EdgeDependency)))
}

func TestAddTask(t *testing.T) {
	g := NewFlowGraph("obj", "")
	require.NoError(t, g.AddTask(NewTask("a", "ReadExcel", "")))

	err := g.AddTask(NewTask("a", "Filter", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTask)
	assert.Equal(t, 1, g.Len())

	got, ok := g.Task("a")
	require.True(t, ok)
	assert.Equal(t, "ReadExcel", got.Type, "the first task is kept")
}

func TestAddEdge(t *testing.T) {
	t.Run("missing endpoints", func(t *testing.T) {
		g := NewFlowGraph("obj", "")
		require.NoError(t, g.AddTask(NewTask("a", "ReadExcel", "")))

		err := g.AddEdge(NewEdge("dne", "a", EdgeDependency))
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.ErrorContains(t, err, "source dne")

		err = g.AddEdge(NewEdge("a", "dne", EdgeDependency))
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.ErrorContains(t, err, "target dne")
		assert.Empty(t, g.Edges())
	})

	t.Run("duplicate pair is a no-op", func(t *testing.T) {
		g := NewFlowGraph("obj", "")
		require.NoError(t, g.AddTask(NewTask("a", "ReadExcel", "")))
		require.NoError(t, g.AddTask(NewTask("b", "Filter", "")))

		require.NoError(t, g.AddEdge(NewEdge("a", "b", EdgeDependency).WithLabel("first")))
		require.NoError(t, g.AddEdge(NewEdge("a", "b", EdgeDataDependency).WithLabel("second")))

		edges := g.Edges()
		require.Len(t, edges, 1)
		assert.Equal(t, "first", edges[0].Label)
		assert.Equal(t, EdgeDependency, edges[0].Type)
		assert.Equal(t, []string{"a"}, g.Upstream("b"))
	})

	t.Run("empty type defaults to dependency", func(t *testing.T) {
		g := NewFlowGraph("obj", "")
		require.NoError(t, g.AddTask(NewTask("a", "ReadExcel", "")))
		require.NoError(t, g.AddTask(NewTask("b", "Filter", "")))

		require.NoError(t, g.AddEdge(&Edge{Source: "a", Target: "b"}))
		assert.Equal(t, EdgeDependency, g.Edges()[0].Type)
	})
}

func TestTraversal(t *testing.T) {
	g := diamond(t)

	assert.Equal(t, []string{"a", "b", "c", "d"}, g.TaskIDs())
	assert.Equal(t, []string{"a"}, g.Roots())
	assert.Equal(t, []string{"c", "d"}, g.Leaves())
	assert.Equal(t, []string{"c", "d"}, g.Downstream("b"))
	assert.Equal(t, []string{"b"}, g.Upstream("c"))
	assert.Empty(t, g.Upstream("a"))
	assert.True(t, g.HasEdge("b", "d"))
	assert.False(t, g.HasEdge("d", "b"))
}

func TestRestore(t *testing.T) {
	// --- Arrange ---
	tasks := []*Task{NewTask("a", "ReadExcel", ""), NewTask("a", "Filter", ""), NewTask("b", "Filter", "")}
	edges := []*Edge{NewEdge("a", "b", EdgeDependency), NewEdge("ghost", "b", EdgeDependency)}

	// --- Act ---
	g := Restore("obj", "", tasks, edges)

	// --- Assert ---
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a"}, g.DuplicateIDs())
	assert.Len(t, g.Edges(), 2, "dangling edges are kept for the validator")
	assert.Equal(t, []string{"a"}, g.Upstream("b"), "missing tasks are not traversed")
	assert.Contains(t, g.Validate(), "Edge references non-existent source task: ghost")
}

func TestValidate(t *testing.T) {
	g := diamond(t)
	assert.Empty(t, g.Validate())

	require.NoError(t, g.AddTask(NewTask("lonely", "SetEnv", "")))
	assert.Equal(t, []string{"Isolated tasks (no dependencies): lonely"}, g.Validate())
}

func TestGraphJSON(t *testing.T) {
	g := diamond(t)
	a, _ := g.Task("a")
	a.SetParameter("input_table", String("sheet"))
	a.AddRuleSummary(&RuleSummary{FilterCount: 2, FilterTypes: []string{"comparison"}})

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var restored FlowGraph
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, "obj", restored.ObjectName)
	assert.Equal(t, g.TaskIDs(), restored.TaskIDs())
	assert.Len(t, restored.Edges(), 3)
	assert.True(t, restored.HasEdge("b", "d"))

	ra, ok := restored.Task("a")
	require.True(t, ok)
	assert.Equal(t, "sheet", ra.Parameters["input_table"].String())
	summary, ok := ra.RuleSummary()
	require.True(t, ok)
	assert.Equal(t, 2, summary.FilterCount)
	assert.Equal(t, []string{"comparison"}, summary.FilterTypes)
}
