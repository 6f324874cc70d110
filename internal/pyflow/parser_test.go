package pyflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/registry"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFlow(t *testing.T, source string) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"product__v/flows/creation_flow.py": source})
	return filepath.Join(root, "product__v", "flows", "creation_flow.py")
}

func parseFlow(t *testing.T, source string) *model.FlowAnalysis {
	t.Helper()
	p, err := NewParser(writeFlow(t, source), registry.NewDefault())
	require.NoError(t, err)
	return p.Parse(testutil.Context(t))
}

func taskByID(t *testing.T, a *model.FlowAnalysis, id string) *model.Task {
	t.Helper()
	for _, task := range a.Tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %q not found", id)
	return nil
}

func edgePairs(a *model.FlowAnalysis) []string {
	out := make([]string, 0, len(a.Edges))
	for _, e := range a.Edges {
		out = append(out, e.Source+"->"+e.Target+":"+string(e.Type))
	}
	return out
}

func TestNewParserAccessErrors(t *testing.T) {
	dir := t.TempDir()
	reg := registry.NewDefault()

	_, err := NewParser(filepath.Join(dir, "missing.py"), reg)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewParser(dir, reg)
	assert.ErrorIs(t, err, ErrNotFound)

	txt := filepath.Join(dir, "flow.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x = 1"), 0o644))
	_, err = NewParser(txt, reg)
	assert.ErrorIs(t, err, ErrWrongExtension)
}

func TestParseImplicitDependency(t *testing.T) {
	// --- Arrange ---
	source := `
x = ReadExcel(input_table="t")
y = Filter(input_table=x)
`
	// --- Act ---
	a := parseFlow(t, source)

	// --- Assert ---
	require.Empty(t, a.Errors)
	assert.Equal(t, "product__v", a.ObjectName)
	require.Len(t, a.Tasks, 2)
	assert.Equal(t, "x", a.Tasks[0].ID)
	assert.Equal(t, "ReadExcel", a.Tasks[0].Type)
	assert.Equal(t, 2, a.Tasks[0].Line)
	assert.Equal(t, []string{"x->y:data_dependency"}, edgePairs(a))

	in, ok := a.Tasks[0].Parameter("input_table")
	require.True(t, ok)
	assert.Equal(t, model.String("t"), in)
}

func TestParseSyntaxError(t *testing.T) {
	testCases := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{
			name:    "unclosed call",
			source:  "x = ReadExcel(\ny = Filter(input_table=x\n",
			wantMsg: "line",
		},
		{
			name:    "python 2 print",
			source:  "x = ReadExcel()\nprint \"hello\"\ny = Filter(input_table=x)\n",
			wantMsg: "invalid syntax at line 2, column 1",
		},
		{
			name:    "python 2 exec",
			source:  "x = ReadExcel()\nexec \"y = 1\"\n",
			wantMsg: "invalid syntax at line 2",
		},
		{
			name:    "indented module statement",
			source:  "x = ReadExcel(input_table='t')\n\tfoo\n",
			wantMsg: "unexpected indent at line 2, column 2",
		},
		{
			name:    "block statement off its indentation",
			source:  "def build():\n    x = ReadExcel()\n        y = Filter(input_table=x)\n",
			wantMsg: "line 3",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := parseFlow(t, tc.source)

			assert.Empty(t, a.Tasks)
			assert.Empty(t, a.Edges)
			require.Len(t, a.Errors, 1)
			assert.Contains(t, a.Errors[0], "Python syntax error")
			assert.Contains(t, a.Errors[0], tc.wantMsg)
		})
	}
}

func TestParseAcceptsValidLayouts(t *testing.T) {
	source := `
# comment
x = ReadExcel(); y = Filter(input_table=x)

def build():
    inner = Mapping(input_table=y)
    if inner:  # trailing
        pass
    else: return inner
    return inner

z = CreateObjects(
        input_table=y,
)
`
	a := parseFlow(t, source)

	require.Empty(t, a.Errors)
	assert.Len(t, a.Tasks, 4)
}

func TestParseExplicitDependencies(t *testing.T) {
	source := `
a = ReadExcel()
b = Filter()
c = Mapping()
d = CreateObjects()
other = helper()

b.set_upstream(task=a)
b.set_downstream(task_list=[c, unknown])
d.set_dependencies(upstream_tasks=(c,), downstream_tasks=[])
c.set_upstream(a)
a.set_downstream(other)
x = b.set_upstream(task=d)
b.set_upstream(task=a)
`
	a := parseFlow(t, source)

	require.Empty(t, a.Errors)
	assert.Equal(t, []string{
		"a->b:dependency",
		"b->c:dependency",
		"c->d:dependency",
		"a->c:dependency",
	}, edgePairs(a), "assignments are not dependency statements and duplicates are suppressed")
}

func TestParseTaskNames(t *testing.T) {
	source := `
a = ReadExcel(task_args=dict(name="Read products"))
b = Filter(task_args={"name": "Active only", "retries": 2})
c = Mapping(task_args=TaskArgs(label="ignored"))
`
	a := parseFlow(t, source)

	assert.Equal(t, "Read products", taskByID(t, a, "a").Name)
	assert.Equal(t, "Active only", taskByID(t, a, "b").Name)
	assert.Equal(t, "c", taskByID(t, a, "c").Name)
}

func TestParseDiscoveryRules(t *testing.T) {
	source := `
import bmf

def build():
    inner = Filter()
    return inner

qualified = bmf.tasks.Merge()
a = b = Filter()
value = 42
helper = make_thing()
notask = UnknownTask()
dup = ReadExcel()
dup = Filter()
`
	a := parseFlow(t, source)

	ids := make([]string, 0, len(a.Tasks))
	for _, task := range a.Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"inner", "qualified", "dup", "dup"}, ids)
	assert.Equal(t, "Merge", taskByID(t, a, "qualified").Type)
	assert.Equal(t, "ReadExcel", a.Tasks[2].Type)
	assert.Equal(t, "Filter", a.Tasks[3].Type, "every binding becomes a task")
	assert.Empty(t, a.Warnings)
}

func TestParseResolvesValues(t *testing.T) {
	// --- Arrange ---
	source := `
src = ReadExcel()
t = Filter(
    s="text",
    joined="a" "b",
    raw=r"c:\dir",
    n=-3,
    f=2.5,
    hexa=0x1F,
    flag=True,
    off=False,
    nothing=None,
    ref=src,
    attr=config.paths.root,
    call_attr=full_path("x").parent,
    nested=full_path("filter/rules.yml"),
    items=[1, "two", src],
    pair=("a",),
    mapping={"k": 1, other: "v", unknown_key(): 2},
    lam=lambda v: v,
    fstr=f"{src}",
)
`
	// --- Act ---
	a := parseFlow(t, source)

	// --- Assert ---
	require.Empty(t, a.Errors)
	task := taskByID(t, a, "t")
	want := map[string]model.Value{
		"s":         model.String("text"),
		"joined":    model.String("ab"),
		"raw":       model.String(`c:\dir`),
		"n":         model.Scalar(int64(-3)),
		"f":         model.Scalar(2.5),
		"hexa":      model.Scalar(int64(31)),
		"flag":      model.Scalar(true),
		"off":       model.Scalar(false),
		"nothing":   model.Scalar(nil),
		"ref":       model.Identifier("src"),
		"attr":      model.Identifier("config.paths.root"),
		"call_attr": model.Identifier("full_path(...).parent"),
		"nested":    model.Placeholder("full_path"),
		"items":     model.Sequence(model.Scalar(int64(1)), model.String("two"), model.Identifier("src")),
		"pair":      model.Tuple(model.String("a")),
		"mapping": model.Mapping(
			model.Entry{Key: model.String("k"), Value: model.Scalar(int64(1))},
			model.Entry{Key: model.Identifier("other"), Value: model.String("v")},
			model.Entry{Key: model.Placeholder("unknown_key"), Value: model.Scalar(int64(2))},
		),
		"lam":  model.Absent(),
		"fstr": model.Absent(),
	}
	if diff := cmp.Diff(want, task.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInputReferences(t *testing.T) {
	source := `
a = ReadExcel()
b = ReadExcel()
c = ReadExcel()
m = MergeTables(input_paths=[a, b, "literal", missing], input_table=c["rows"])
f = Filter(input_table=(m))
f2 = Filter(input_table=f, extra=a)
f.set_downstream(f2)
`
	a := parseFlow(t, source)

	assert.Equal(t, []string{
		"f->f2:dependency",
		"c->m:data_dependency",
		"a->m:data_dependency",
		"b->m:data_dependency",
		"m->f:data_dependency",
	}, edgePairs(a))
}

func TestParseEnrichment(t *testing.T) {
	a := parseFlow(t, "a = ReadExcel()\nb = Filter(task_args=dict(name='Only active'))\n")

	reg := registry.NewDefault()
	read := taskByID(t, a, "a")
	assert.Equal(t, reg.TaskColor("ReadExcel", registry.DefaultScheme), read.MetadataString(model.MetaColor))
	assert.Equal(t, "input", read.MetadataString(model.MetaCategory))
	assert.Equal(t, reg.TaskIcon("ReadExcel"), read.MetadataString(model.MetaIcon))
	assert.Equal(t, "a", read.MetadataString(model.MetaDisplayLabel))
	assert.Equal(t, "Only active", taskByID(t, a, "b").MetadataString(model.MetaDisplayLabel))
}

func TestParseEmptyFlow(t *testing.T) {
	a := parseFlow(t, "# nothing here\nx = 1\n")

	assert.Empty(t, a.Errors)
	assert.Empty(t, a.Tasks)
	assert.Equal(t, []string{"No tasks found in flow"}, a.Warnings)
}

func TestParseCancelled(t *testing.T) {
	p, err := NewParser(writeFlow(t, "a = ReadExcel()\n"), registry.NewDefault())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := p.Parse(ctx)

	require.NotEmpty(t, a.Errors)
	assert.Empty(t, a.Tasks)
}

func TestParseUsesContextLogger(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	ctx := testutil.ContextWithBuffer(context.Background(), buf)
	p, err := NewParser(writeFlow(t, "a = ReadExcel()\n"), registry.NewDefault())
	require.NoError(t, err)

	p.Parse(ctx)

	assert.Contains(t, buf.String(), "Parse: Flow parsed.")
}
