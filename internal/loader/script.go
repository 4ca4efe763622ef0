package loader

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"confdrift/internal/tree"
)

// LoadScript parses a script-based declarative configuration file
// (task-runner scripts, documentation-generator scripts) by reading its
// syntax tree with Tree-sitter - the script is never executed. Only
// statically determinable declarations are extracted:
//
//	assignments: module-level name = <literal or literal container>
//	functions:   def name(...), with decorator names, whether any
//	             parameter declares a default, the dotted names it calls,
//	             and string-literal arguments passed to *.notify calls
//
// Any right-hand side that is not a literal is recorded as UNRESOLVED
// rather than guessed at.
func LoadScript(path string, raw []byte) (*tree.Node, *ParseError) {
	// A sitter.Parser is not safe for concurrent use, and projects are
	// extracted concurrently, so each load builds its own.
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	parsed, err := parser.ParseCtx(context.Background(), nil, raw)
	if err != nil {
		return nil, &ParseError{Kind: MalformedScript, Path: path, Detail: err.Error()}
	}
	defer parsed.Close()

	root := parsed.RootNode()
	if root.HasError() {
		return nil, &ParseError{Kind: MalformedScript, Path: path, Detail: "syntax error in script"}
	}

	assignments := tree.Mapping()
	functions := tree.Mapping()

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "expression_statement":
			if assign := firstNamedOfType(stmt, "assignment"); assign != nil {
				name, value := readAssignment(assign, raw)
				if name != "" {
					assignments.Put(name, value)
				}
			}
		case "function_definition":
			name, record := readFunction(stmt, nil, raw)
			if name != "" {
				functions.Put(name, record)
			}
		case "decorated_definition":
			decorators, def := splitDecorated(stmt)
			if def != nil && def.Type() == "function_definition" {
				name, record := readFunction(def, decorators, raw)
				if name != "" {
					functions.Put(name, record)
				}
			}
		}
	}

	out := tree.Mapping()
	out.Put("assignments", assignments)
	out.Put("functions", functions)
	return out, nil
}

func firstNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func nodeText(n *sitter.Node, raw []byte) string {
	return string(raw[n.StartByte():n.EndByte()])
}

func readAssignment(assign *sitter.Node, raw []byte) (string, *tree.Node) {
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return "", nil
	}
	return nodeText(left, raw), literalToTree(right, raw)
}

// literalToTree converts a Python expression node to a tree.Node when the
// expression is a literal or a container of literals; everything else is
// UNRESOLVED.
func literalToTree(n *sitter.Node, raw []byte) *tree.Node {
	switch n.Type() {
	case "string", "concatenated_string":
		if s, ok := stringLiteral(n, raw); ok {
			return tree.Scalar(s)
		}
		return tree.Unresolved()
	case "integer", "float":
		return tree.Number(nodeText(n, raw))
	case "true":
		return tree.Bool(true)
	case "false":
		return tree.Bool(false)
	case "none":
		return tree.Null()
	case "unary_operator":
		if arg := n.ChildByFieldName("argument"); arg != nil {
			t := arg.Type()
			if t == "integer" || t == "float" {
				return tree.Number(nodeText(n, raw))
			}
		}
		return tree.Unresolved()
	case "list", "tuple", "set":
		elems := make([]*tree.Node, 0, n.NamedChildCount())
		for i := 0; i < int(n.NamedChildCount()); i++ {
			elems = append(elems, literalToTree(n.NamedChild(i), raw))
		}
		return tree.Sequence(elems...)
	case "dictionary":
		m := tree.Mapping()
		for i := 0; i < int(n.NamedChildCount()); i++ {
			pair := n.NamedChild(i)
			if pair.Type() != "pair" {
				return tree.Unresolved()
			}
			key := pair.ChildByFieldName("key")
			value := pair.ChildByFieldName("value")
			if key == nil || value == nil {
				return tree.Unresolved()
			}
			ks, ok := stringLiteral(key, raw)
			if !ok {
				return tree.Unresolved()
			}
			m.Put(ks, literalToTree(value, raw))
		}
		return m
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return literalToTree(n.NamedChild(0), raw)
		}
		return tree.Unresolved()
	default:
		return tree.Unresolved()
	}
}

// stringLiteral unquotes a plain Python string literal. f-strings and any
// string containing interpolation are dynamic and therefore not literals.
func stringLiteral(n *sitter.Node, raw []byte) (string, bool) {
	if n.Type() == "concatenated_string" {
		var parts []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			p, ok := stringLiteral(n.NamedChild(i), raw)
			if !ok {
				return "", false
			}
			parts = append(parts, p)
		}
		return strings.Join(parts, ""), true
	}
	if n.Type() != "string" {
		return "", false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "interpolation" {
			return "", false
		}
	}
	text := nodeText(n, raw)
	// Strip prefix letters (r, b, u, f in any case) before the quote.
	trimmed := strings.TrimLeft(text, "rRbBuUfF")
	if strings.ContainsAny(strings.ToLower(text[:len(text)-len(trimmed)]), "f") {
		return "", false
	}
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(trimmed, q) && strings.HasSuffix(trimmed, q) && len(trimmed) >= 2*len(q) {
			return trimmed[len(q) : len(trimmed)-len(q)], true
		}
	}
	return trimmed, true
}

func splitDecorated(n *sitter.Node) ([]*sitter.Node, *sitter.Node) {
	var decorators []*sitter.Node
	var def *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "decorator" {
			decorators = append(decorators, c)
		} else {
			def = c
		}
	}
	return decorators, def
}

func readFunction(def *sitter.Node, decorators []*sitter.Node, raw []byte) (string, *tree.Node) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return "", nil
	}
	name := nodeText(nameNode, raw)

	decNames := make([]*tree.Node, 0, len(decorators))
	for _, d := range decorators {
		decNames = append(decNames, tree.Scalar(decoratorName(d, raw)))
	}

	hasDefaults := false
	if params := def.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			t := params.NamedChild(i).Type()
			if t == "default_parameter" || t == "typed_default_parameter" {
				hasDefaults = true
				break
			}
		}
	}

	calls := make(map[string]struct{})
	notifies := make(map[string]struct{})
	if body := def.ChildByFieldName("body"); body != nil {
		collectCalls(body, raw, calls, notifies)
	}

	record := tree.Mapping()
	record.Put("decorators", tree.Sequence(decNames...))
	record.Put("has_defaults", tree.Bool(hasDefaults))
	record.Put("calls", tree.Set(keysOf(calls)...))
	record.Put("notifies", tree.Set(keysOf(notifies)...))
	return name, record
}

// decoratorName returns the dotted name of a decorator, dropping any call
// arguments: @nox.session(python="3.12") -> nox.session.
func decoratorName(dec *sitter.Node, raw []byte) string {
	for i := 0; i < int(dec.NamedChildCount()); i++ {
		expr := dec.NamedChild(i)
		if expr.Type() == "call" {
			if fn := expr.ChildByFieldName("function"); fn != nil {
				return nodeText(fn, raw)
			}
		}
		return nodeText(expr, raw)
	}
	return strings.TrimPrefix(nodeText(dec, raw), "@")
}

func collectCalls(n *sitter.Node, raw []byte, calls, notifies map[string]struct{}) {
	if n.Type() == "call" {
		if fn := n.ChildByFieldName("function"); fn != nil {
			target := nodeText(fn, raw)
			calls[target] = struct{}{}
			if strings.HasSuffix(target, ".notify") || target == "notify" {
				if arg := firstStringArg(n, raw); arg != "" {
					notifies[arg] = struct{}{}
				}
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectCalls(n.NamedChild(i), raw, calls, notifies)
	}
}

func firstStringArg(call *sitter.Node, raw []byte) string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if a.Type() == "string" {
			if s, ok := stringLiteral(a, raw); ok {
				return s
			}
		}
	}
	return ""
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
