package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confdrift/internal/tree"
)

func TestLoadYAML(t *testing.T) {
	t.Run("preserves mapping order", func(t *testing.T) {
		src := []byte("name: CI\non:\n  push:\n  pull_request:\njobs:\n  test:\n    runs-on: ubuntu-latest\n")
		n, perr := LoadYAML("ci.yml", src)
		require.Nil(t, perr)
		assert.Equal(t, []string{"name", "on", "jobs"}, n.Keys())
		assert.Equal(t, "CI", n.Get("name").Value)
		assert.Equal(t, tree.KindMapping, n.Get("on").Kind)
	})

	t.Run("typed scalars", func(t *testing.T) {
		src := []byte("count: 3\nratio: 0.5\nenabled: true\nempty: null\nversion: \"3\"\n")
		n, perr := LoadYAML("x.yml", src)
		require.Nil(t, perr)
		assert.Equal(t, tree.ScalarNumber, n.Get("count").ScalarType)
		assert.Equal(t, tree.ScalarBool, n.Get("enabled").ScalarType)
		assert.Equal(t, tree.ScalarNull, n.Get("empty").ScalarType)
		// Quoted "3" stays a string and is not equal to the number 3.
		assert.False(t, tree.Equal(n.Get("count"), n.Get("version")))
	})

	t.Run("malformed markup", func(t *testing.T) {
		_, perr := LoadYAML("bad.yml", []byte("key: [unclosed\n  nested: x\n"))
		require.NotNil(t, perr)
		assert.Equal(t, MalformedMarkup, perr.Kind)
		assert.NotEmpty(t, perr.Detail)
	})

	t.Run("empty document becomes empty mapping", func(t *testing.T) {
		n, perr := LoadYAML("empty.yml", []byte(""))
		require.Nil(t, perr)
		assert.Equal(t, tree.KindMapping, n.Kind)
		assert.Equal(t, 0, n.Len())
	})
}

func TestLoadTOML(t *testing.T) {
	t.Run("typed leaves and nested tables", func(t *testing.T) {
		src := []byte(`
[build-system]
build-backend = "hatchling.build"

[project]
name = "demo"
requires-python = ">=3.10"
dependencies = ["requests>=2.31", "rich"]

[tool.ruff]
line-length = 120

[tool.ruff.lint]
select = ["ALL"]
`)
		n, perr := LoadTOML("pyproject.toml", src)
		require.Nil(t, perr)
		assert.Equal(t, "hatchling.build", n.Lookup("build-system.build-backend").Value)
		assert.Equal(t, "120", n.Lookup("tool.ruff.line-length").Value)
		assert.Equal(t, tree.ScalarNumber, n.Lookup("tool.ruff.line-length").ScalarType)
		deps := n.Lookup("project.dependencies")
		require.Equal(t, tree.KindSequence, deps.Kind)
		assert.Equal(t, 2, deps.Len())
	})

	t.Run("malformed table", func(t *testing.T) {
		_, perr := LoadTOML("bad.toml", []byte("[tool.ruff\nline-length = 120\n"))
		require.NotNil(t, perr)
		assert.Equal(t, MalformedTable, perr.Kind)
	})
}

func TestLoadScript(t *testing.T) {
	t.Run("module assignments", func(t *testing.T) {
		src := []byte(`
project = "demo"
extensions = ["sphinx.ext.autodoc", "sphinx.ext.napoleon"]
html_theme = "furo"
autodoc_default_options = {"members": True, "undoc-members": False}
release = get_version()
banner = f"{project} docs"
`)
		n, perr := LoadScript("conf.py", src)
		require.Nil(t, perr)

		assigns := n.Get("assignments")
		require.NotNil(t, assigns)
		assert.Equal(t, "demo", assigns.Get("project").Value)
		assert.Equal(t, "furo", assigns.Get("html_theme").Value)

		exts := assigns.Get("extensions")
		require.Equal(t, tree.KindSequence, exts.Kind)
		assert.Equal(t, "sphinx.ext.autodoc", exts.Seq[0].Value)

		opts := assigns.Get("autodoc_default_options")
		require.Equal(t, tree.KindMapping, opts.Kind)
		assert.Equal(t, "true", opts.Get("members").Value)

		// Dynamic expressions degrade to UNRESOLVED, never guessed at.
		assert.Equal(t, tree.KindUnresolved, assigns.Get("release").Kind)
		assert.Equal(t, tree.KindUnresolved, assigns.Get("banner").Kind)
	})

	t.Run("decorated task functions", func(t *testing.T) {
		src := []byte(`
import nox

@nox.session(python="3.12")
def tests(session):
    session.install("-e", ".")
    session.run("pytest")

@nox.session
def lint(session, strict=True):
    session.notify("tests")
`)
		n, perr := LoadScript("noxfile.py", src)
		require.Nil(t, perr)

		fns := n.Get("functions")
		require.NotNil(t, fns)
		assert.Equal(t, []string{"tests", "lint"}, fns.Keys())

		tests := fns.Get("tests")
		require.NotNil(t, tests)
		assert.Equal(t, "nox.session", tests.Get("decorators").Seq[0].Value)
		assert.Equal(t, "false", tests.Get("has_defaults").Value)
		assert.Contains(t, tests.Get("calls").Members, "session.run")

		lint := fns.Get("lint")
		assert.Equal(t, "true", lint.Get("has_defaults").Value)
		assert.Equal(t, []string{"tests"}, lint.Get("notifies").Members)
	})

	t.Run("malformed script", func(t *testing.T) {
		_, perr := LoadScript("broken.py", []byte("def broken(:\n    pass\n"))
		require.NotNil(t, perr)
		assert.Equal(t, MalformedScript, perr.Kind)
	})
}
