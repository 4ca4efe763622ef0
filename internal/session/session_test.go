package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"confdrift/internal/compare"
	"confdrift/internal/extract"
	"confdrift/internal/inventory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeTree materializes a project fixture: map of relative path -> body.
func writeTree(t *testing.T, root, project string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		abs := filepath.Join(root, project, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
		require.NoError(t, os.WriteFile(abs, []byte(body), 0644))
	}
}

const refPreCommit = `repos:
  - repo: https://github.com/astral-sh/ruff-pre-commit
    rev: v0.8.2
    hooks:
      - id: ruff
        args: [--fix]
`

const oldPreCommit = `repos:
  - repo: https://github.com/astral-sh/ruff-pre-commit
    rev: v0.6.1
    hooks:
      - id: ruff
        args: [--fix]
`

const refWorkflow = `on: [push]
jobs:
  test:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: pytest -q
`

const refNoxfile = `import nox

@nox.session
def tests(session):
    session.run("pytest")
`

const targetNoxfile = `import nox

@nox.session
def tests(session):
    session.run("pytest")

@nox.session
def docs(session):
    session.run("sphinx-build")
`

func fixture(t *testing.T) (string, *inventory.Catalog) {
	t.Helper()
	root := t.TempDir()

	writeTree(t, root, "template", map[string]string{
		".pre-commit-config.yaml":   refPreCommit,
		".github/workflows/ci.yml":  refWorkflow,
		"noxfile.py":                refNoxfile,
	})
	writeTree(t, root, "gadgets", map[string]string{
		".pre-commit-config.yaml":  oldPreCommit,
		".github/workflows/ci.yml": "on: [push\n  broken",
		"noxfile.py":               targetNoxfile,
	})
	writeTree(t, root, "widgets", map[string]string{
		".pre-commit-config.yaml": refPreCommit,
		// no workflow file at all
		"noxfile.py": refNoxfile,
	})

	catalog := &inventory.Catalog{
		Metadata:  inventory.Metadata{ProjectCount: 3, FileCount: 8},
		Reference: "template",
		Projects: map[string]map[string][]string{
			"template": {
				"pre-commit":  {".pre-commit-config.yaml"},
				"ci-workflow": {".github/workflows/ci.yml"},
				"task-script": {"noxfile.py"},
			},
			"gadgets": {
				"pre-commit":  {".pre-commit-config.yaml"},
				"ci-workflow": {".github/workflows/ci.yml"},
				"task-script": {"noxfile.py"},
			},
			"widgets": {
				"pre-commit":  {".pre-commit-config.yaml"},
				"task-script": {"noxfile.py"},
			},
		},
	}

	// Round-trip through JSON so the fixture also exercises the decode
	// shape the CLI consumes.
	raw, err := json.Marshal(catalog)
	require.NoError(t, err)
	var loaded inventory.Catalog
	require.NoError(t, json.Unmarshal(raw, &loaded))
	return root, &loaded
}

func findResult(t *testing.T, results []compare.Result, cat extract.Category, project string) compare.Result {
	t.Helper()
	for _, r := range results {
		if r.Category == cat && r.Project == project {
			return r
		}
	}
	t.Fatalf("no result for %s/%s", cat, project)
	return compare.Result{}
}

func TestRun(t *testing.T) {
	root, catalog := fixture(t)
	s := New(catalog, Options{Root: root, Reference: "template", Jobs: 4})

	outcome, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"gadgets", "widgets"}, outcome.Projects)

	t.Run("revision drift detected", func(t *testing.T) {
		res := findResult(t, outcome.Results, extract.CategoryPreCommit, "gadgets")
		require.Len(t, res.Files, 1)
		assert.Equal(t, compare.StatusDiffers, res.Files[0].Status)
		require.Len(t, res.Files[0].Entries, 1)
		e := res.Files[0].Entries[0]
		assert.Equal(t, "hooks.ruff.source_revision", e.FieldPath)
		assert.Equal(t, "v0.8.2", e.RefValue)
		assert.Equal(t, "v0.6.1", e.TargetValue)
	})

	t.Run("identical project is identical", func(t *testing.T) {
		res := findResult(t, outcome.Results, extract.CategoryPreCommit, "widgets")
		assert.Equal(t, compare.StatusIdentical, res.Files[0].Status)
		assert.Empty(t, res.Files[0].Entries)
	})

	t.Run("parse failure is isolated to its project", func(t *testing.T) {
		bad := findResult(t, outcome.Results, extract.CategoryWorkflow, "gadgets")
		assert.Equal(t, compare.StatusTargetUnparseable, bad.Files[0].Status)
		assert.NotEmpty(t, bad.Files[0].ParseDetail)

		// The other project's workflow comparison still ran.
		missing := findResult(t, outcome.Results, extract.CategoryWorkflow, "widgets")
		assert.Equal(t, compare.StatusTargetMissing, missing.Files[0].Status)
	})

	t.Run("extra task grouped under the task path", func(t *testing.T) {
		res := findResult(t, outcome.Results, extract.CategoryTaskScript, "gadgets")
		require.Len(t, res.Files[0].Entries, 1)
		e := res.Files[0].Entries[0]
		assert.Equal(t, compare.DiffExtra, e.Kind)
		assert.Equal(t, "tasks.docs", e.FieldPath)

		found := false
		for _, f := range outcome.Findings {
			if f.Key.Category == extract.CategoryTaskScript &&
				f.Key.Kind == compare.DiffExtra &&
				f.Key.FieldPath == "tasks.docs" {
				found = true
			}
		}
		assert.True(t, found, "finding keyed by (task-script, extra, tasks.docs)")
	})

	t.Run("docs category short-circuits to reference missing", func(t *testing.T) {
		res := findResult(t, outcome.Results, extract.CategoryDocsScript, "gadgets")
		require.Len(t, res.Files, 1)
		assert.Equal(t, compare.StatusReferenceMissing, res.Files[0].Status)
	})
}

func TestRunDeterministic(t *testing.T) {
	root, catalog := fixture(t)

	run := func() *Outcome {
		s := New(catalog, Options{Root: root, Reference: "template", Jobs: 8})
		o, err := s.Run(context.Background())
		require.NoError(t, err)
		return o
	}

	a, b := run(), run()
	require.Equal(t, len(a.Results), len(b.Results))
	for i := range a.Results {
		assert.Equal(t, a.Results[i], b.Results[i])
	}
}

func TestRunCategoryFilter(t *testing.T) {
	root, catalog := fixture(t)
	s := New(catalog, Options{
		Root:       root,
		Reference:  "template",
		Categories: []extract.Category{extract.CategoryPreCommit},
	})
	outcome, err := s.Run(context.Background())
	require.NoError(t, err)
	for _, r := range outcome.Results {
		assert.Equal(t, extract.CategoryPreCommit, r.Category)
	}
}

func TestRunUnknownReference(t *testing.T) {
	root, catalog := fixture(t)
	s := New(catalog, Options{Root: root, Reference: "ghost"})
	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestUnknownCategoriesSurfaced(t *testing.T) {
	root, catalog := fixture(t)
	catalog.Projects["gadgets"]["dockerfiles"] = []string{"Dockerfile"}

	s := New(catalog, Options{Root: root, Reference: "template"})
	outcome, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dockerfiles"}, outcome.UnknownCategories)
}

func TestDefaultJobs(t *testing.T) {
	t.Run("env override wins", func(t *testing.T) {
		t.Setenv("CONFDRIFT_JOBS", "3")
		assert.Equal(t, 3, DefaultJobs())
	})

	t.Run("garbage and non-positive values fall through", func(t *testing.T) {
		for _, v := range []string{"zero", "-2", "0"} {
			t.Setenv("CONFDRIFT_JOBS", v)
			got := DefaultJobs()
			assert.GreaterOrEqual(t, got, 1, "CONFDRIFT_JOBS=%s", v)
			assert.LessOrEqual(t, got, 8, "CONFDRIFT_JOBS=%s", v)
		}
	})

	t.Run("unset caps at eight", func(t *testing.T) {
		t.Setenv("CONFDRIFT_JOBS", "")
		got := DefaultJobs()
		assert.GreaterOrEqual(t, got, 1)
		assert.LessOrEqual(t, got, 8)
	})
}

func TestRunCancelled(t *testing.T) {
	root, catalog := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(catalog, Options{Root: root, Reference: "template"})
	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
