package extract

import (
	"strings"

	"confdrift/internal/tree"
)

// Packaging reduces a packaging manifest (pyproject-style nested tables)
// into
//
//	{build_backend, project_metadata: mapping,
//	 dependencies: {<name>: constraint},
//	 optional_dependencies: {<group>: {<name>: constraint}},
//	 tool_sections: mapping}
//
// Dependency names are normalized and split from their version constraint
// so a constraint bump is distinguishable from a package appearing or
// disappearing.
func Packaging(t *tree.Node) *tree.Node {
	rec := tree.Mapping()

	if backend := t.Lookup("build-system.build-backend"); backend != nil {
		rec.Put("build_backend", backend)
	}

	// project name and version are per-project identity, not shared
	// configuration; comparing them would flag every project forever.
	meta := tree.Mapping()
	project := t.Get("project")
	if project != nil && project.Kind == tree.KindMapping {
		for _, key := range []string{"requires-python", "license", "readme"} {
			if v := project.Get(key); v != nil && v.Kind == tree.KindScalar {
				meta.Put(key, v)
			}
		}
		if dyn := project.Get("dynamic"); dyn != nil {
			meta.Put("dynamic", scalarSeqToSet(dyn))
		}
	}
	rec.Put("project_metadata", meta)

	deps := tree.Mapping()
	if project != nil {
		if list := project.Get("dependencies"); list != nil && list.Kind == tree.KindSequence {
			deps = requirementMap(list)
		}
	}
	rec.Put("dependencies", deps)

	optional := tree.Mapping()
	if project != nil {
		if groups := project.Get("optional-dependencies"); groups != nil && groups.Kind == tree.KindMapping {
			for _, g := range groups.Keys() {
				if list := groups.Get(g); list != nil && list.Kind == tree.KindSequence {
					optional.Put(g, requirementMap(list))
				}
			}
		}
	}
	rec.Put("optional_dependencies", optional)

	tools := tree.Mapping()
	if section := t.Get("tool"); section != nil && section.Kind == tree.KindMapping {
		for _, name := range section.Keys() {
			tools.Put(name, promoteRuleSets(section.Get(name)))
		}
	}
	rec.Put("tool_sections", tools)
	return rec
}

// ruleSetKeys name the tool-section fields whose values are rule
// selections: pure membership sets whose written order is meaningless.
var ruleSetKeys = map[string]bool{
	"select":        true,
	"ignore":        true,
	"extend-select": true,
	"extend-ignore": true,
	"fixable":       true,
	"unfixable":     true,
}

// promoteRuleSets rewrites rule-selection sequences inside a tool section
// to sets. Symbolic tokens such as "ALL" stay atomic: the extractor
// records exactly what is configured, never an expansion.
func promoteRuleSets(n *tree.Node) *tree.Node {
	if n == nil || n.Kind != tree.KindMapping {
		return n
	}
	out := tree.Mapping()
	for _, k := range n.Keys() {
		child := n.Get(k)
		if ruleSetKeys[k] && child != nil && child.Kind == tree.KindSequence {
			out.Put(k, scalarSeqToSet(child))
			continue
		}
		out.Put(k, promoteRuleSets(child))
	}
	return out
}

// requirementMap parses requirement strings ("requests>=2.31",
// "uvicorn[standard]==0.30 ; python_version<'3.13'") into a
// name -> constraint mapping.
func requirementMap(list *tree.Node) *tree.Node {
	out := tree.Mapping()
	for _, e := range list.Seq {
		if e.Kind != tree.KindScalar {
			continue
		}
		name, constraint := splitRequirement(e.Value)
		if name == "" {
			continue
		}
		out.Put(name, tree.Scalar(constraint))
	}
	return out
}

func splitRequirement(req string) (string, string) {
	req = strings.TrimSpace(req)
	i := strings.IndexAny(req, "[><=!~; ")
	if i < 0 {
		return normalizeName(req), ""
	}
	name := req[:i]
	rest := strings.TrimSpace(req[i:])
	// Keep extras with the name: pkg[standard] and pkg are different
	// installation requests.
	if strings.HasPrefix(rest, "[") {
		if j := strings.IndexByte(rest, ']'); j >= 0 {
			name += rest[:j+1]
			rest = strings.TrimSpace(rest[j+1:])
		}
	}
	return normalizeName(name), rest
}

// normalizeName lowercases and collapses the separator characters that
// package indexes treat as equivalent.
func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}
