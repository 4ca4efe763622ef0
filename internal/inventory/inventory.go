// Package inventory reads the externally produced catalog of candidate
// configuration files. The catalog is the output of a separate discovery
// step; this package treats it as read-only input and does not re-validate
// how it was generated.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Metadata carries the discovery step's own counters, kept for the
// executive summary of the report.
type Metadata struct {
	ProjectCount int `json:"project_count"`
	FileCount    int `json:"file_count"`
}

// Catalog is the decoded inventory document:
// project name -> category name -> relative file paths.
type Catalog struct {
	Metadata  Metadata                       `json:"metadata"`
	Reference string                         `json:"reference"`
	Projects  map[string]map[string][]string `json:"projects"`
}

// Load reads and decodes the catalog document at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decoding inventory %s: %w", path, err)
	}
	if len(c.Projects) == 0 {
		return nil, fmt.Errorf("inventory %s lists no projects", path)
	}
	return &c, nil
}

// ProjectNames returns all project names sorted for deterministic
// iteration order.
func (c *Catalog) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Files returns the relative paths recorded for one (project, category)
// pair; nil when the project has nothing in that category.
func (c *Catalog) Files(project, category string) []string {
	p, ok := c.Projects[project]
	if !ok {
		return nil
	}
	return p[category]
}

// ResolveReference picks the reference project: an explicit override wins,
// then the catalog's own designation. It errors when the chosen project is
// not in the catalog, or when nothing designates one.
func (c *Catalog) ResolveReference(override string) (string, error) {
	name := c.Reference
	if override != "" {
		name = override
	}
	if name == "" {
		return "", fmt.Errorf("no reference project: catalog carries none and no override given")
	}
	if _, ok := c.Projects[name]; !ok {
		return "", fmt.Errorf("reference project %q not present in inventory", name)
	}
	return name, nil
}
