// Package session owns one comparison run end to end: concurrent
// per-project loading and extraction, a barrier, then comparison and
// grouping. All state is scoped to the run and discarded with it.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"confdrift/internal/compare"
	"confdrift/internal/extract"
	"confdrift/internal/group"
	"confdrift/internal/inventory"
)

// Options configures a run.
type Options struct {
	// Root is the directory containing one subdirectory per project;
	// inventory paths are relative to each project's subdirectory.
	Root string
	// Reference is the resolved reference project name.
	Reference string
	// Jobs bounds concurrent project extraction; <= 0 selects a default.
	Jobs int
	// Categories restricts the run to a subset; empty means all.
	Categories []extract.Category
	Logger     *zap.Logger
}

// DefaultJobs picks the extraction concurrency: CPU-bound parsing over a
// small file count, so NumCPU capped low is plenty.
func DefaultJobs() int {
	if env := os.Getenv("CONFDRIFT_JOBS"); env != "" {
		if v, err := strconv.Atoi(env); err == nil && v > 0 {
			return v
		}
	}
	jobs := runtime.NumCPU()
	if jobs > 8 {
		jobs = 8
	}
	if jobs < 1 {
		jobs = 1
	}
	return jobs
}

// Outcome is everything one run produced, handed to the renderers.
type Outcome struct {
	Reference string
	// Projects are the non-reference project names, sorted.
	Projects []string
	// Categories are the categories this run compared, registry order.
	Categories []extract.Category
	// Results hold one entry per (category, target project), ordered by
	// category then project.
	Results []compare.Result
	// Findings are the grouped differences.
	Findings []group.Finding
	// UnknownCategories lists inventory category names outside the
	// extractor registry; surfaced so the report never drops them
	// silently.
	UnknownCategories []string
	Metadata          inventory.Metadata
}

// Session is one run-scoped comparator instance.
type Session struct {
	catalog *inventory.Catalog
	opts    Options
	log     *zap.Logger
}

// New builds a session over a loaded catalog. The catalog is treated as
// read-only.
func New(catalog *inventory.Catalog, opts Options) *Session {
	if opts.Jobs <= 0 {
		opts.Jobs = DefaultJobs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.Categories) == 0 {
		opts.Categories = extract.Categories()
	}
	return &Session{catalog: catalog, opts: opts, log: opts.Logger}
}

// extraction is one project's extracted files, per category.
type extraction struct {
	project string
	files   map[extract.Category][]compare.ExtractedFile
}

// Run executes the pipeline. A single project's parse failure never aborts
// the batch; the only returned errors are structural (unknown reference,
// cancelled context).
func (s *Session) Run(ctx context.Context) (*Outcome, error) {
	if _, ok := s.catalog.Projects[s.opts.Reference]; !ok {
		return nil, fmt.Errorf("reference project %q not present in inventory", s.opts.Reference)
	}

	names := s.catalog.ProjectNames()

	wanted := make(map[extract.Category]bool, len(s.opts.Categories))
	for _, c := range s.opts.Categories {
		wanted[c] = true
	}
	unknown := s.unknownCategories()

	// Extraction is embarrassingly parallel: projects share nothing
	// mutable. The errgroup Wait below is the barrier the comparator
	// requires.
	extractions := make(map[string]*extraction, len(names))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Jobs)
	for _, name := range names {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			ex := s.extractProject(name, wanted)
			mu.Lock()
			extractions[name] = ex
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ref := extractions[s.opts.Reference]

	targets := make([]string, 0, len(names)-1)
	for _, n := range names {
		if n != s.opts.Reference {
			targets = append(targets, n)
		}
	}

	var results []compare.Result
	for _, cat := range s.opts.Categories {
		for _, project := range targets {
			res := compare.Project(cat, project, ref.files[cat], extractions[project].files[cat])
			results = append(results, res)
			statuses := res.Statuses()
			notes := make([]string, len(statuses))
			for i, st := range statuses {
				notes[i] = string(st)
			}
			s.log.Debug("compared",
				zap.String("category", string(cat)),
				zap.String("project", project),
				zap.Strings("statuses", notes),
				zap.Int("differences", res.EntryCount()))
		}
	}

	return &Outcome{
		Reference:         s.opts.Reference,
		Projects:          targets,
		Categories:        s.opts.Categories,
		Results:           results,
		Findings:          group.Aggregate(results),
		UnknownCategories: unknown,
		Metadata:          s.catalog.Metadata,
	}, nil
}

// extractProject loads and extracts every inventoried file of one project.
// Raw bytes live only inside this call; only records and parse errors
// survive it.
func (s *Session) extractProject(name string, wanted map[extract.Category]bool) *extraction {
	ex := &extraction{project: name, files: make(map[extract.Category][]compare.ExtractedFile)}

	for _, reg := range extract.Registry {
		if !wanted[reg.Category] {
			continue
		}
		for _, rel := range s.catalog.Files(name, string(reg.Category)) {
			abs := filepath.Join(s.opts.Root, name, filepath.FromSlash(rel))
			raw, err := os.ReadFile(abs)
			if err != nil {
				// Listed in the inventory but absent on disk: treated as
				// an absent file, which the comparator classifies as a
				// missing-side status.
				s.log.Warn("inventoried file unreadable",
					zap.String("project", name),
					zap.String("path", rel),
					zap.Error(err))
				continue
			}

			ef := compare.ExtractedFile{RelPath: rel, Base: filepath.Base(rel)}
			if t, perr := reg.Load(rel, raw); perr != nil {
				ef.Err = perr
				s.log.Debug("parse failure",
					zap.String("project", name),
					zap.String("path", rel),
					zap.String("kind", string(perr.Kind)))
			} else {
				ef.Record = reg.Extract(t)
			}
			ex.files[reg.Category] = append(ex.files[reg.Category], ef)
		}
	}
	return ex
}

// unknownCategories reports inventory category names outside the closed
// extractor registry, sorted.
func (s *Session) unknownCategories() []string {
	seen := make(map[string]bool)
	for _, cats := range s.catalog.Projects {
		for name := range cats {
			if _, ok := extract.Lookup(name); !ok && !seen[name] {
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
