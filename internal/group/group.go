// Package group re-indexes the comparator's flat difference list by kind
// of difference rather than by project. Twelve projects disagreeing on the
// same lint rule set is one actionable finding, not twelve paragraphs.
package group

import (
	"sort"

	"confdrift/internal/compare"
	"confdrift/internal/extract"
)

// Key identifies one grouped finding.
type Key struct {
	Category  extract.Category
	Kind      compare.DiffKind
	FieldPath string
}

// ProjectDelta is one project's occurrence inside a finding.
type ProjectDelta struct {
	Project string
	Entry   compare.Entry
}

// Finding is all occurrences of the same (category, kind, field path)
// discrepancy, ordered by project name for determinism.
type Finding struct {
	Key      Key
	Projects []ProjectDelta
}

// Span returns the number of projects exhibiting the finding.
func (f Finding) Span() int {
	return len(f.Projects)
}

// Aggregate groups every difference entry across all comparison results.
// Findings are returned sorted by category (registry order), then by
// descending project span, then by field path, so the widest drift inside
// each category surfaces first.
func Aggregate(results []compare.Result) []Finding {
	byKey := make(map[Key]*Finding)
	var order []Key

	for _, res := range results {
		for _, fc := range res.Files {
			for _, e := range fc.Entries {
				k := Key{Category: e.Category, Kind: e.Kind, FieldPath: e.FieldPath}
				f, ok := byKey[k]
				if !ok {
					f = &Finding{Key: k}
					byKey[k] = f
					order = append(order, k)
				}
				f.Projects = append(f.Projects, ProjectDelta{Project: e.TargetProject, Entry: e})
			}
		}
	}

	categoryRank := make(map[extract.Category]int)
	for i, c := range extract.Categories() {
		categoryRank[c] = i
	}

	out := make([]Finding, 0, len(order))
	for _, k := range order {
		f := byKey[k]
		sort.SliceStable(f.Projects, func(i, j int) bool {
			return f.Projects[i].Project < f.Projects[j].Project
		})
		out = append(out, *f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if categoryRank[a.Key.Category] != categoryRank[b.Key.Category] {
			return categoryRank[a.Key.Category] < categoryRank[b.Key.Category]
		}
		if a.Span() != b.Span() {
			return a.Span() > b.Span()
		}
		if a.Key.FieldPath != b.Key.FieldPath {
			return a.Key.FieldPath < b.Key.FieldPath
		}
		return a.Key.Kind < b.Key.Kind
	})
	return out
}

// ByCategory splits findings per category, preserving their order.
func ByCategory(findings []Finding) map[extract.Category][]Finding {
	out := make(map[extract.Category][]Finding)
	for _, f := range findings {
		out[f.Key.Category] = append(out[f.Key.Category], f)
	}
	return out
}

// TopBySpan returns findings across all categories ordered by descending
// span, for the recommendations section.
func TopBySpan(findings []Finding) []Finding {
	out := append([]Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span() != out[j].Span() {
			return out[i].Span() > out[j].Span()
		}
		if out[i].Key.Category != out[j].Key.Category {
			return out[i].Key.Category < out[j].Key.Category
		}
		return out[i].Key.FieldPath < out[j].Key.FieldPath
	})
	return out
}
