// Package report renders grouped comparison findings into the two output
// forms: a narrative Markdown document and a flat CSV export. Both consume
// the same run outcome; neither feeds back into comparison logic.
package report

import (
	"fmt"
	"sort"
	"strings"

	"confdrift/internal/compare"
	"confdrift/internal/extract"
	"confdrift/internal/group"
	"confdrift/internal/session"
)

// Presence markers for the per-category status tables.
const (
	markIdentical   = "✓"
	markDiffers     = "≠"
	markMissing     = "✗"
	markUnparseable = "!"
	markNoReference = "?"
	markTargetOnly  = "+"
)

// Narrative renders the Markdown report: executive summary, one section
// per category with a status table and grouped detailed differences, and a
// recommendations section with the widest groups first.
func Narrative(o *session.Outcome) string {
	var sb strings.Builder

	sb.WriteString("# Configuration Drift Report\n\n")
	writeSummary(&sb, o)

	byCategory := group.ByCategory(o.Findings)
	for _, cat := range o.Categories {
		writeCategory(&sb, o, cat, byCategory[cat])
	}

	writeRecommendations(&sb, o)
	writeGaps(&sb, o)
	return sb.String()
}

func writeSummary(sb *strings.Builder, o *session.Outcome) {
	total := 0
	identical := 0
	for _, r := range o.Results {
		total += r.EntryCount()
		for _, f := range r.Files {
			if f.Status == compare.StatusIdentical {
				identical++
			}
		}
	}

	sb.WriteString("## Executive summary\n\n")
	fmt.Fprintf(sb, "- Reference project: `%s`\n", o.Reference)
	fmt.Fprintf(sb, "- Projects compared against the reference: %d\n", len(o.Projects))
	if o.Metadata.FileCount > 0 {
		fmt.Fprintf(sb, "- Inventoried files: %d across %d projects\n",
			o.Metadata.FileCount, o.Metadata.ProjectCount)
	}
	fmt.Fprintf(sb, "- Categories: %d\n", len(o.Categories))
	fmt.Fprintf(sb, "- Differences found: %d, grouped into %d findings\n", total, len(o.Findings))
	fmt.Fprintf(sb, "- File comparisons already identical to the reference: %d\n\n", identical)
}

func writeCategory(sb *strings.Builder, o *session.Outcome, cat extract.Category, findings []group.Finding) {
	fmt.Fprintf(sb, "## %s\n\n", cat)

	results := resultsFor(o, cat)
	bases := referenceBases(results)

	if len(bases) == 0 {
		fmt.Fprintf(sb, "The reference project has no %s file; no comparison is possible in this category.\n\n", cat)
		writeTargetOnly(sb, results)
		return
	}

	headers := append([]string{"Project"}, bases...)
	headers = append(headers, "Notes")
	tbl := newTable(headers...)
	for i := 1; i <= len(bases); i++ {
		tbl.center(i)
	}

	for _, res := range results {
		row := make([]string, 0, len(headers))
		row = append(row, res.Project)
		var notes []string
		byBase := fileComparisonsByBase(res)
		for _, base := range bases {
			fc, ok := byBase[base]
			if !ok {
				row = append(row, markMissing)
				continue
			}
			switch fc.Status {
			case compare.StatusIdentical:
				row = append(row, markIdentical)
			case compare.StatusDiffers:
				row = append(row, markDiffers)
				notes = append(notes, fmt.Sprintf("%s: %d differences", base, len(fc.Entries)))
			case compare.StatusTargetMissing:
				row = append(row, markMissing)
				notes = append(notes, fmt.Sprintf("%s missing", base))
			case compare.StatusTargetUnparseable:
				row = append(row, markUnparseable)
				notes = append(notes, fmt.Sprintf("%s unparseable: %s", base, fc.ParseDetail))
			case compare.StatusReferenceMissing:
				row = append(row, markNoReference)
				if fc.ParseDetail != "" {
					notes = append(notes, fmt.Sprintf("reference %s unparseable: %s", base, fc.ParseDetail))
				}
			}
		}
		for _, fc := range targetOnlyFiles(res) {
			notes = append(notes, fmt.Sprintf("%s%s (target only)", markTargetOnly, fc.TargetFile))
		}
		row = append(row, strings.Join(notes, "; "))
		tbl.addRow(row...)
	}
	tbl.render(sb)
	sb.WriteString("\n")

	if len(findings) == 0 {
		sb.WriteString("No semantic differences in this category.\n\n")
		return
	}

	sb.WriteString("### Detailed differences\n\n")
	for _, f := range findings {
		fmt.Fprintf(sb, "**%s** at `%s` — %d project(s)\n\n", f.Key.Kind, f.Key.FieldPath, f.Span())
		for _, p := range f.Projects {
			fmt.Fprintf(sb, "- %s: %s\n", p.Project, describe(p.Entry))
		}
		sb.WriteString("\n")
	}
}

func writeTargetOnly(sb *strings.Builder, results []compare.Result) {
	var lines []string
	for _, res := range results {
		for _, fc := range targetOnlyFiles(res) {
			lines = append(lines, fmt.Sprintf("- %s: `%s` exists only in the target\n", res.Project, fc.TargetFile))
		}
	}
	if len(lines) > 0 {
		sb.WriteString(strings.Join(lines, ""))
		sb.WriteString("\n")
	}
}

func writeRecommendations(sb *strings.Builder, o *session.Outcome) {
	sb.WriteString("## Recommendations\n\n")
	top := group.TopBySpan(o.Findings)
	if len(top) == 0 {
		sb.WriteString("All compared configurations match the reference; nothing to standardize.\n\n")
		return
	}
	sb.WriteString("Largest drift groups first; fixing one line item aligns every project it lists.\n\n")
	const maxItems = 10
	for i, f := range top {
		if i == maxItems {
			fmt.Fprintf(sb, "\n…and %d smaller groups; see the category sections above.\n", len(top)-maxItems)
			break
		}
		fmt.Fprintf(sb, "%d. Align `%s` in %s (%s) — %d project(s) drift from the reference.\n",
			i+1, f.Key.FieldPath, f.Key.Category, f.Key.Kind, f.Span())
	}
	sb.WriteString("\n")
}

// writeGaps lists every comparison that could not be performed and why.
// Nothing is silently omitted.
func writeGaps(sb *strings.Builder, o *session.Outcome) {
	var lines []string
	for _, res := range o.Results {
		for _, fc := range res.Files {
			switch fc.Status {
			case compare.StatusTargetUnparseable:
				lines = append(lines, fmt.Sprintf("- %s / %s: `%s` could not be parsed (%s)",
					res.Category, res.Project, fc.TargetFile, fc.ParseDetail))
			case compare.StatusReferenceMissing:
				if fc.ParseDetail != "" {
					lines = append(lines, fmt.Sprintf("- %s / %s: reference file `%s` could not be parsed (%s)",
						res.Category, res.Project, fc.ReferenceFile, fc.ParseDetail))
				} else if fc.TargetFile == "" {
					lines = append(lines, fmt.Sprintf("- %s / %s: reference has no file to compare against",
						res.Category, res.Project))
				}
			}
		}
	}
	for _, name := range o.UnknownCategories {
		lines = append(lines, fmt.Sprintf("- inventory category `%s` is outside the comparator's category set and was skipped", name))
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("## Comparison gaps\n\n")
	sb.WriteString("The following comparisons could not be performed:\n\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
}

func resultsFor(o *session.Outcome, cat extract.Category) []compare.Result {
	var out []compare.Result
	for _, r := range o.Results {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// referenceBases collects the reference-side base filenames seen in a
// category, sorted, to build the status table columns.
func referenceBases(results []compare.Result) []string {
	seen := make(map[string]bool)
	for _, res := range results {
		for _, fc := range res.Files {
			if fc.ReferenceFile != "" {
				seen[baseOf(fc.ReferenceFile)] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func fileComparisonsByBase(res compare.Result) map[string]compare.FileComparison {
	out := make(map[string]compare.FileComparison, len(res.Files))
	for _, fc := range res.Files {
		if fc.ReferenceFile != "" {
			out[baseOf(fc.ReferenceFile)] = fc
		}
	}
	return out
}

func targetOnlyFiles(res compare.Result) []compare.FileComparison {
	var out []compare.FileComparison
	for _, fc := range res.Files {
		if fc.ReferenceFile == "" && fc.TargetFile != "" {
			out = append(out, fc)
		}
	}
	return out
}

func baseOf(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
