// Package compare computes typed semantic differences between the
// reference project's records and every other project's records. The
// reference record is always an explicit read-only parameter - there is no
// ambient reference state.
package compare

import (
	"fmt"
	"sort"
	"strings"

	"confdrift/internal/extract"
	"confdrift/internal/loader"
	"confdrift/internal/tree"
)

// DiffKind classifies one detected discrepancy.
type DiffKind string

const (
	DiffMissing    DiffKind = "missing"
	DiffExtra      DiffKind = "extra"
	DiffChanged    DiffKind = "value-changed"
	DiffSetMissing DiffKind = "set-missing-members"
	DiffSetExtra   DiffKind = "set-extra-members"
	DiffMoved      DiffKind = "moved"
)

// Status is the outcome of comparing one (category, file, target project)
// unit. Absence is a status, not an error.
type Status string

const (
	StatusIdentical         Status = "IDENTICAL"
	StatusDiffers           Status = "DIFFERS"
	StatusTargetMissing     Status = "TARGET_MISSING"
	StatusTargetUnparseable Status = "TARGET_UNPARSEABLE"
	StatusReferenceMissing  Status = "REFERENCE_MISSING"
)

// Entry is a single detected discrepancy at one field path. The field path
// always exists in at least one of the two compared records.
type Entry struct {
	Category      extract.Category
	TargetProject string
	FieldPath     string
	Kind          DiffKind
	RefValue      string
	TargetValue   string
	// Detail carries kind-specific text: set member lists, positional
	// notes.
	Detail string
}

// ExtractedFile is one configuration file after loading and extraction.
// Exactly one of Record and Err is set.
type ExtractedFile struct {
	RelPath string
	// Base is the path's base filename; files are matched across
	// projects by base name.
	Base   string
	Record *tree.Node
	Err    *loader.ParseError
}

// FileComparison is the outcome for one basename-matched file pair.
type FileComparison struct {
	Category      extract.Category
	ReferenceFile string // empty when the file exists only in the target
	TargetFile    string // empty when the target lacks the file
	Status        Status
	ParseDetail   string // parse error text for unparseable outcomes
	Entries       []Entry
}

// Result is the complete comparison of one (category, target project)
// pair.
type Result struct {
	Category extract.Category
	Project  string
	Files    []FileComparison
}

// Statuses returns the distinct statuses present, for report notes.
func (r Result) Statuses() []Status {
	seen := make(map[Status]bool)
	var out []Status
	for _, f := range r.Files {
		if !seen[f.Status] {
			seen[f.Status] = true
			out = append(out, f.Status)
		}
	}
	return out
}

// EntryCount sums difference entries across the result's files.
func (r Result) EntryCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Entries)
	}
	return n
}

// Project compares the reference's files in one category against one
// target project's files in the same category. Files are matched by base
// filename; reference files without a counterpart yield TARGET_MISSING,
// target files without a counterpart yield REFERENCE_MISSING (rendered as
// EXTRA in the flat export). An empty reference side short-circuits the
// whole category to REFERENCE_MISSING.
func Project(category extract.Category, project string, refFiles, targetFiles []ExtractedFile) Result {
	res := Result{Category: category, Project: project}

	if len(refFiles) == 0 {
		if len(targetFiles) == 0 {
			res.Files = append(res.Files, FileComparison{Category: category, Status: StatusReferenceMissing})
			return res
		}
		for _, tf := range sortedByBase(targetFiles) {
			res.Files = append(res.Files, FileComparison{
				Category:   category,
				TargetFile: tf.RelPath,
				Status:     StatusReferenceMissing,
			})
		}
		return res
	}

	targetByBase := make(map[string]ExtractedFile, len(targetFiles))
	for _, tf := range targetFiles {
		targetByBase[tf.Base] = tf
	}

	for _, rf := range sortedByBase(refFiles) {
		fc := FileComparison{Category: category, ReferenceFile: rf.RelPath}

		tf, ok := targetByBase[rf.Base]
		if ok {
			delete(targetByBase, rf.Base)
			fc.TargetFile = tf.RelPath
		}

		switch {
		case rf.Err != nil:
			// An unparseable reference file is fatal for this file only:
			// every target comparison against it reports the reference as
			// missing, with the parse failure surfaced.
			fc.Status = StatusReferenceMissing
			fc.ParseDetail = rf.Err.Error()
		case !ok:
			fc.Status = StatusTargetMissing
		case tf.Err != nil:
			fc.Status = StatusTargetUnparseable
			fc.ParseDetail = tf.Err.Error()
		default:
			fc.Entries = diffRecords(category, project, rf.Record, tf.Record)
			if len(fc.Entries) == 0 {
				fc.Status = StatusIdentical
			} else {
				fc.Status = StatusDiffers
			}
		}
		res.Files = append(res.Files, fc)
	}

	// Files only the target has.
	extra := make([]ExtractedFile, 0, len(targetByBase))
	for _, tf := range targetByBase {
		extra = append(extra, tf)
	}
	for _, tf := range sortedByBase(extra) {
		res.Files = append(res.Files, FileComparison{
			Category:   category,
			TargetFile: tf.RelPath,
			Status:     StatusReferenceMissing,
		})
	}
	return res
}

func sortedByBase(files []ExtractedFile) []ExtractedFile {
	out := append([]ExtractedFile(nil), files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out
}

// diffRecords walks two semantic records field-by-field. Silence is the
// signal of conformance: equal fields emit nothing.
func diffRecords(category extract.Category, project string, ref, target *tree.Node) []Entry {
	w := &walker{category: category, project: project}
	w.walk("", ref, target)
	return w.entries
}

type walker struct {
	category extract.Category
	project  string
	entries  []Entry
}

func (w *walker) add(path string, kind DiffKind, ref, target *tree.Node, detail string) {
	w.entries = append(w.entries, Entry{
		Category:      w.category,
		TargetProject: w.project,
		FieldPath:     path,
		Kind:          kind,
		RefValue:      ref.Display(),
		TargetValue:   target.Display(),
		Detail:        detail,
	})
}

func (w *walker) walk(path string, ref, target *tree.Node) {
	if tree.Equal(ref, target) {
		return
	}
	if ref == nil {
		w.add(path, DiffExtra, nil, target, "")
		return
	}
	if target == nil {
		w.add(path, DiffMissing, ref, nil, "")
		return
	}
	if ref.Kind != target.Kind {
		// Covers UNRESOLVED vs concrete and any genuine shape change.
		w.add(path, DiffChanged, ref, target, "")
		return
	}

	switch ref.Kind {
	case tree.KindScalar:
		w.add(path, DiffChanged, ref, target, "")

	case tree.KindSet:
		w.diffSets(path, ref, target)

	case tree.KindMapping:
		for _, key := range ref.Keys() {
			child := target.Get(key)
			childPath := joinPath(path, key)
			if child == nil {
				// Present only in reference: one entry, not expanded.
				w.add(childPath, DiffMissing, ref.Get(key), nil, "")
				continue
			}
			w.walk(childPath, ref.Get(key), child)
		}
		for _, key := range target.Keys() {
			if ref.Get(key) == nil {
				w.add(joinPath(path, key), DiffExtra, nil, target.Get(key), "")
			}
		}

	case tree.KindSequence:
		w.diffSequences(path, ref, target)
	}
}

// diffSets reports the symmetric difference as at most two entries - one
// per direction - so output stays proportional to drift, not to set size.
func (w *walker) diffSets(path string, ref, target *tree.Node) {
	inTarget := make(map[string]bool, len(target.Members))
	for _, m := range target.Members {
		inTarget[m] = true
	}
	inRef := make(map[string]bool, len(ref.Members))
	for _, m := range ref.Members {
		inRef[m] = true
	}

	var onlyRef, onlyTarget []string
	for _, m := range ref.Members {
		if !inTarget[m] {
			onlyRef = append(onlyRef, m)
		}
	}
	for _, m := range target.Members {
		if !inRef[m] {
			onlyTarget = append(onlyTarget, m)
		}
	}

	if len(onlyRef) > 0 {
		w.add(path, DiffSetMissing, ref, target, strings.Join(onlyRef, ", "))
	}
	if len(onlyTarget) > 0 {
		w.add(path, DiffSetExtra, ref, target, strings.Join(onlyTarget, ", "))
	}
}

// diffSequences compares ordered sequences by aligned position and by
// identity membership. An element present on both sides but at different
// positions is one positional note; unmatched elements sharing a
// structural slot collapse into a single value-changed entry instead of a
// missing-plus-extra pair.
func (w *walker) diffSequences(path string, ref, target *tree.Node) {
	refMatched := make([]int, len(ref.Seq))   // ref index -> target index or -1
	tgtMatched := make([]bool, len(target.Seq))
	for i := range refMatched {
		refMatched[i] = -1
	}

	// Match equal identities in order of occurrence.
	tgtByID := make(map[string][]int)
	for j, e := range target.Seq {
		id := e.Identity()
		tgtByID[id] = append(tgtByID[id], j)
	}
	for i, e := range ref.Seq {
		id := e.Identity()
		if positions := tgtByID[id]; len(positions) > 0 {
			j := positions[0]
			tgtByID[id] = positions[1:]
			refMatched[i] = j
			tgtMatched[j] = true
		}
	}

	for i, j := range refMatched {
		if j < 0 {
			continue
		}
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		if i != j {
			w.add(elemPath, DiffMoved, ref.Seq[i], target.Seq[j],
				fmt.Sprintf("position %d in reference, %d in target", i, j))
		}
		w.walk(elemPath, ref.Seq[i], target.Seq[j])
	}

	// Tie-break: unmatched identities occupying the same slot are one
	// value change, not a removal plus an addition.
	for i, j := range refMatched {
		if j >= 0 {
			continue
		}
		if i < len(target.Seq) && !tgtMatched[i] {
			tgtMatched[i] = true
			refMatched[i] = i
			w.add(fmt.Sprintf("%s[%d]", path, i), DiffChanged, ref.Seq[i], target.Seq[i], "")
		}
	}

	for i, j := range refMatched {
		if j < 0 {
			w.add(fmt.Sprintf("%s[%d]", path, i), DiffMissing, ref.Seq[i], nil, "")
		}
	}
	for j, matched := range tgtMatched {
		if !matched {
			w.add(fmt.Sprintf("%s[%d]", path, j), DiffExtra, nil, target.Seq[j], "")
		}
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
