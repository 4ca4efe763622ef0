package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "metadata": {"project_count": 2, "file_count": 5},
  "reference": "template",
  "projects": {
    "template": {
      "ci-workflow": [".github/workflows/ci.yml"],
      "pre-commit": [".pre-commit-config.yaml"],
      "packaging": ["pyproject.toml"]
    },
    "widgets": {
      "ci-workflow": [".github/workflows/ci.yml"],
      "packaging": ["pyproject.toml"]
    }
  }
}`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Metadata.ProjectCount)
	assert.Equal(t, []string{"template", "widgets"}, c.ProjectNames())
	assert.Equal(t, []string{"pyproject.toml"}, c.Files("widgets", "packaging"))
	assert.Nil(t, c.Files("widgets", "pre-commit"))
	assert.Nil(t, c.Files("nonexistent", "packaging"))
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Load(writeCatalog(t, "{not json"))
		assert.Error(t, err)
	})

	t.Run("no projects", func(t *testing.T) {
		_, err := Load(writeCatalog(t, `{"metadata": {}, "projects": {}}`))
		assert.Error(t, err)
	})
}

func TestResolveReference(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	t.Run("catalog designation", func(t *testing.T) {
		ref, err := c.ResolveReference("")
		require.NoError(t, err)
		assert.Equal(t, "template", ref)
	})

	t.Run("override wins", func(t *testing.T) {
		ref, err := c.ResolveReference("widgets")
		require.NoError(t, err)
		assert.Equal(t, "widgets", ref)
	})

	t.Run("unknown override", func(t *testing.T) {
		_, err := c.ResolveReference("ghost")
		assert.Error(t, err)
	})

	t.Run("no designation anywhere", func(t *testing.T) {
		c2 := &Catalog{Projects: map[string]map[string][]string{"a": nil}}
		_, err := c2.ResolveReference("")
		assert.Error(t, err)
	})
}
