package extract

import (
	"sort"
	"strings"

	"confdrift/internal/tree"
)

// Workflow reduces a CI workflow definition into
//
//	{triggers: mapping, jobs: {<job>: {matrix: mapping, steps: sequence}}}
//
// Step identity is the action or command name plus a stable subset of its
// arguments, so reordering unrelated keys inside a step is not a
// difference, while swapping two steps is.
func Workflow(t *tree.Node) *tree.Node {
	rec := tree.Mapping()
	rec.Put("triggers", workflowTriggers(t.Get("on")))

	jobs := tree.Mapping()
	if src := t.Get("jobs"); src != nil && src.Kind == tree.KindMapping {
		for _, name := range src.Keys() {
			jobs.Put(name, workflowJob(src.Get(name)))
		}
	}
	rec.Put("jobs", jobs)
	return rec
}

// workflowTriggers normalizes the three shapes assumed by workflow files:
// a single event scalar, a list of events, or an event->config mapping.
func workflowTriggers(on *tree.Node) *tree.Node {
	m := tree.Mapping()
	if on == nil {
		return m
	}
	switch on.Kind {
	case tree.KindScalar:
		m.Put(on.Value, tree.Mapping())
	case tree.KindSequence:
		for _, e := range on.Seq {
			if e.Kind == tree.KindScalar {
				m.Put(e.Value, tree.Mapping())
			}
		}
	case tree.KindMapping:
		for _, k := range on.Keys() {
			cfg := on.Get(k)
			if cfg == nil || cfg.Kind == tree.KindScalar && cfg.ScalarType == tree.ScalarNull {
				m.Put(k, tree.Mapping())
			} else {
				m.Put(k, cfg)
			}
		}
	default:
		return tree.Unresolved()
	}
	return m
}

func workflowJob(job *tree.Node) *tree.Node {
	out := tree.Mapping()
	if job == nil || job.Kind != tree.KindMapping {
		out.Put("matrix", tree.Unresolved())
		out.Put("steps", tree.Sequence())
		return out
	}

	matrix := tree.Mapping()
	if strategy := job.Get("strategy"); strategy != nil {
		if m := strategy.Get("matrix"); m != nil && m.Kind == tree.KindMapping {
			for _, axis := range m.Keys() {
				// Matrix axes are membership sets: running the suite on
				// {3.10, 3.12} in a different written order is identical.
				if axis == "include" || axis == "exclude" {
					matrix.Put(axis, m.Get(axis))
					continue
				}
				matrix.Put(axis, scalarSeqToSet(m.Get(axis)))
			}
		}
	}
	out.Put("matrix", matrix)

	var steps []*tree.Node
	if seq := job.Get("steps"); seq != nil && seq.Kind == tree.KindSequence {
		for _, s := range seq.Seq {
			steps = append(steps, workflowStep(s))
		}
	}
	out.Put("steps", tree.Sequence(steps...))

	if runsOn := job.Get("runs-on"); runsOn != nil {
		out.Put("runs_on", runsOn)
	}
	return out
}

// workflowStep builds the comparable step record. The step's display name
// is cosmetic and deliberately dropped.
func workflowStep(s *tree.Node) *tree.Node {
	out := tree.Mapping()
	if s == nil || s.Kind != tree.KindMapping {
		out.Put("action", tree.Unresolved())
		return out
	}

	if uses := s.Get("uses"); uses != nil && uses.Kind == tree.KindScalar {
		action, ref, _ := strings.Cut(uses.Value, "@")
		out.Put("action", tree.Scalar(action))
		if ref != "" {
			out.Put("ref", tree.Scalar(ref))
		}
		out.Put("args", sortedArgs(s.Get("with")))
		out.ID = "uses:" + action
		return out
	}

	if run := s.Get("run"); run != nil && run.Kind == tree.KindScalar {
		command := strings.Join(strings.Fields(run.Value), " ")
		name := command
		if i := strings.IndexByte(command, ' '); i > 0 {
			name = command[:i]
		}
		out.Put("action", tree.Scalar(name))
		out.Put("args", tree.Mapping().Put("command", tree.Scalar(command)))
		out.ID = "run:" + name
		return out
	}

	out.Put("action", tree.Unresolved())
	out.ID = s.Identity()
	return out
}

// sortedArgs re-keys a `with:` block in sorted order so cosmetic key
// reordering never reaches the comparator.
func sortedArgs(with *tree.Node) *tree.Node {
	out := tree.Mapping()
	if with == nil || with.Kind != tree.KindMapping {
		return out
	}
	keys := append([]string(nil), with.Keys()...)
	sort.Strings(keys)
	for _, k := range keys {
		out.Put(k, with.Get(k))
	}
	return out
}
