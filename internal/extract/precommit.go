package extract

import (
	"confdrift/internal/tree"
)

// PreCommit reduces a hook-manifest file into
//
//	{hooks: {<id>: {source_revision, args: sequence,
//	                file_filters: {include, exclude}, types: set}}}
//
// Hook identity is the declared id; file position is irrelevant, so the
// same hook moving between repos blocks registers as a revision change,
// not as a remove-plus-add.
func PreCommit(t *tree.Node) *tree.Node {
	rec := tree.Mapping()
	hooks := tree.Mapping()
	rec.Put("hooks", hooks)

	repos := t.Get("repos")
	if repos == nil || repos.Kind != tree.KindSequence {
		return rec
	}

	for _, repo := range repos.Seq {
		if repo.Kind != tree.KindMapping {
			continue
		}
		rev := repo.Get("rev")
		hookList := repo.Get("hooks")
		if hookList == nil || hookList.Kind != tree.KindSequence {
			continue
		}
		for _, h := range hookList.Seq {
			if h.Kind != tree.KindMapping {
				continue
			}
			id := h.Get("id")
			if id == nil || id.Kind != tree.KindScalar {
				continue
			}
			hooks.Put(id.Value, hookRecord(rev, h))
		}
	}
	return rec
}

func hookRecord(rev, h *tree.Node) *tree.Node {
	out := tree.Mapping()

	if rev != nil && rev.Kind == tree.KindScalar {
		out.Put("source_revision", tree.Scalar(rev.Value))
	} else {
		out.Put("source_revision", tree.Unresolved())
	}

	args := tree.Sequence()
	if a := h.Get("args"); a != nil && a.Kind == tree.KindSequence {
		args = a
	}
	out.Put("args", args)

	filters := tree.Mapping()
	filters.Put("include", filterPattern(h.Get("files")))
	filters.Put("exclude", filterPattern(h.Get("exclude")))
	out.Put("file_filters", filters)

	types := h.Get("types")
	if types == nil {
		types = h.Get("types_or")
	}
	out.Put("types", scalarSeqToSet(types))

	if al := h.Get("additional_dependencies"); al != nil {
		out.Put("additional_dependencies", scalarSeqToSet(al))
	}
	return out
}

func filterPattern(n *tree.Node) *tree.Node {
	if n == nil || n.Kind != tree.KindScalar {
		return tree.Scalar("")
	}
	return tree.Scalar(n.Value)
}
