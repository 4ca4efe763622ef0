package extract

import (
	"strings"

	"confdrift/internal/tree"
)

// TaskScript reduces the declarations tree of a task-runner script into
//
//	{tasks: {<name>: {has_default_args: bool, calls_subtasks: set}}}
//
// A function counts as a task when one of its decorators ends in a
// task-registering name (nox.session, invoke.task, @task, ...).
// calls_subtasks is the statically visible fan-out: direct calls to other
// declared tasks plus string-literal notify targets.
func TaskScript(t *tree.Node) *tree.Node {
	rec := tree.Mapping()
	tasks := tree.Mapping()
	rec.Put("tasks", tasks)

	fns := t.Get("functions")
	if fns == nil || fns.Kind != tree.KindMapping {
		return rec
	}

	taskNames := make(map[string]bool)
	for _, name := range fns.Keys() {
		if isTask(fns.Get(name)) {
			taskNames[name] = true
		}
	}

	for _, name := range fns.Keys() {
		if !taskNames[name] {
			continue
		}
		fn := fns.Get(name)

		sub := make([]string, 0)
		if calls := fn.Get("calls"); calls != nil && calls.Kind == tree.KindSet {
			for _, c := range calls.Members {
				if taskNames[c] && c != name {
					sub = append(sub, c)
				}
			}
		}
		if notifies := fn.Get("notifies"); notifies != nil && notifies.Kind == tree.KindSet {
			for _, n := range notifies.Members {
				if n != name {
					sub = append(sub, n)
				}
			}
		}

		task := tree.Mapping()
		task.Put("has_default_args", boolOrUnresolved(fn.Get("has_defaults")))
		task.Put("calls_subtasks", tree.Set(sub...))
		tasks.Put(name, task)
	}
	return rec
}

func isTask(fn *tree.Node) bool {
	if fn == nil {
		return false
	}
	decs := fn.Get("decorators")
	if decs == nil || decs.Kind != tree.KindSequence {
		return false
	}
	for _, d := range decs.Seq {
		if d.Kind != tree.KindScalar {
			continue
		}
		base := d.Value
		if i := strings.LastIndexByte(base, '.'); i >= 0 {
			base = base[i+1:]
		}
		if base == "session" || base == "task" {
			return true
		}
	}
	return false
}

func boolOrUnresolved(n *tree.Node) *tree.Node {
	if n == nil || n.Kind != tree.KindScalar {
		return tree.Unresolved()
	}
	return n
}

// DocsScript reduces the declarations tree of a documentation-generator
// script into
//
//	{extensions: set, theme: scalar|UNRESOLVED, api_doc_settings: mapping}
//
// api_doc_settings gathers the autodoc/autoapi/napoleon assignment
// families; dynamic values stay UNRESOLVED.
func DocsScript(t *tree.Node) *tree.Node {
	rec := tree.Mapping()

	assigns := t.Get("assignments")
	if assigns == nil || assigns.Kind != tree.KindMapping {
		rec.Put("extensions", tree.Set())
		rec.Put("api_doc_settings", tree.Mapping())
		return rec
	}

	if exts := assigns.Get("extensions"); exts != nil {
		if exts.Kind == tree.KindUnresolved {
			rec.Put("extensions", tree.Unresolved())
		} else {
			rec.Put("extensions", scalarSeqToSet(exts))
		}
	} else {
		rec.Put("extensions", tree.Set())
	}

	if theme := assigns.Get("html_theme"); theme != nil {
		rec.Put("theme", theme)
	}

	settings := tree.Mapping()
	for _, name := range assigns.Keys() {
		if strings.HasPrefix(name, "autodoc_") ||
			strings.HasPrefix(name, "autoapi_") ||
			strings.HasPrefix(name, "napoleon_") {
			settings.Put(name, assigns.Get(name))
		}
	}
	rec.Put("api_doc_settings", settings)
	return rec
}
