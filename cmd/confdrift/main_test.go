package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) (root, inventoryFile string) {
	t.Helper()
	root = t.TempDir()

	files := map[string]string{
		"template/pyproject.toml": "[project]\nname = \"template\"\ndependencies = [\"requests>=2.31\"]\n",
		"widgets/pyproject.toml":  "[project]\nname = \"widgets\"\ndependencies = [\"requests>=2.28\"]\n",
	}
	for rel, body := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
		require.NoError(t, os.WriteFile(abs, []byte(body), 0644))
	}

	catalog := map[string]any{
		"metadata":  map[string]int{"project_count": 2, "file_count": 2},
		"reference": "template",
		"projects": map[string]any{
			"template": map[string][]string{"packaging": {"pyproject.toml"}},
			"widgets":  map[string][]string{"packaging": {"pyproject.toml"}},
		},
	}
	raw, err := json.Marshal(catalog)
	require.NoError(t, err)
	inventoryFile = filepath.Join(root, "inventory.json")
	require.NoError(t, os.WriteFile(inventoryFile, raw, 0644))
	return root, inventoryFile
}

func TestCompareCommand(t *testing.T) {
	root, inv := writeFixture(t)
	reportPath := filepath.Join(root, "drift.md")
	exportPath := filepath.Join(root, "drift.csv")

	rootCmd.SetArgs([]string{
		"compare",
		"--inventory", inv,
		"--root", root,
		"--report", reportPath,
		"--export", exportPath,
	})
	require.NoError(t, rootCmd.Execute())

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Configuration Drift Report")
	assert.Contains(t, string(md), "dependencies.requests")

	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "category,reference_file,target_project,target_file,status,differences", lines[0])
	assert.Equal(t, "packaging,pyproject.toml,widgets,pyproject.toml,EXISTS,1", lines[1])
}

func TestCompareCommandUnknownCategoryFlag(t *testing.T) {
	root, inv := writeFixture(t)
	rootCmd.SetArgs([]string{
		"compare",
		"--inventory", inv,
		"--root", root,
		"--report", "",
		"--export", "",
		"--category", "dockerfiles",
	})
	assert.Error(t, rootCmd.Execute())
}

func TestInventoryCommand(t *testing.T) {
	_, inv := writeFixture(t)
	rootCmd.SetArgs([]string{"inventory", "--inventory", inv})
	assert.NoError(t, rootCmd.Execute())
}
