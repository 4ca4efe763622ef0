// Package extract reduces loaded configuration trees into normalized
// semantic records, one extractor per configuration category. Extractors
// are pure functions over tree.Node: they never read files and never fail
// on well-formed but unexpected shapes - unknown structure degrades to
// UNRESOLVED leaves instead of aborting the record.
package extract

import (
	"confdrift/internal/loader"
	"confdrift/internal/tree"
)

// Category tags one kind of configuration artifact. The set is closed and
// defined by Registry below.
type Category string

const (
	CategoryWorkflow   Category = "ci-workflow"
	CategoryPreCommit  Category = "pre-commit"
	CategoryPackaging  Category = "packaging"
	CategoryTaskScript Category = "task-script"
	CategoryDocsScript Category = "docs-script"
)

// Extractor binds a category to its format loader and semantic reducer.
type Extractor struct {
	Category Category
	Load     loader.Func
	Extract  func(*tree.Node) *tree.Node
}

// Registry is the closed extractor set, in report order.
var Registry = []Extractor{
	{CategoryWorkflow, loader.LoadYAML, Workflow},
	{CategoryPreCommit, loader.LoadYAML, PreCommit},
	{CategoryPackaging, loader.LoadTOML, Packaging},
	{CategoryTaskScript, loader.LoadScript, TaskScript},
	{CategoryDocsScript, loader.LoadScript, DocsScript},
}

// Lookup returns the extractor for a category name from the inventory
// document, or false for categories outside the closed set.
func Lookup(name string) (Extractor, bool) {
	for _, e := range Registry {
		if string(e.Category) == name {
			return e, true
		}
	}
	return Extractor{}, false
}

// Categories returns all category tags in report order.
func Categories() []Category {
	out := make([]Category, len(Registry))
	for i, e := range Registry {
		out[i] = e.Category
	}
	return out
}

// scalarSeqToSet converts a sequence of scalar values into a set node.
// Non-scalar elements make the whole field UNRESOLVED: guessing at partial
// membership would make set differences lie.
func scalarSeqToSet(n *tree.Node) *tree.Node {
	if n == nil {
		return tree.Set()
	}
	if n.Kind != tree.KindSequence {
		return tree.Unresolved()
	}
	members := make([]string, 0, len(n.Seq))
	for _, e := range n.Seq {
		if e.Kind != tree.KindScalar {
			return tree.Unresolved()
		}
		members = append(members, e.Value)
	}
	return tree.Set(members...)
}
