// Package tree defines the tagged-variant configuration tree shared by the
// format loaders, semantic extractors, and the comparator. Every parsed
// configuration file is reduced to a Node so that downstream code can
// switch exhaustively over a closed set of shapes instead of probing
// untyped nested maps at runtime.
package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Node.
type Kind int

const (
	// KindScalar is a single comparable value (string, number, boolean).
	KindScalar Kind = iota
	// KindSequence is an ordered list whose element order is meaningful.
	KindSequence
	// KindMapping is a key-value mapping that preserves insertion order.
	KindMapping
	// KindSet is an unordered collection compared by membership only.
	// Loaders never produce sets; extractors promote sequences whose
	// order is not semantically meaningful (lint rule selections, hook
	// type filters) to sets.
	KindSet
	// KindUnresolved marks a value that could not be statically
	// determined, e.g. a dynamic expression in a script-based
	// configuration file.
	KindUnresolved
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindSet:
		return "set"
	case KindUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ScalarType records the source type of a scalar leaf. Comparison happens
// on the canonical string form; the type is kept so renderers can quote
// strings but not numbers.
type ScalarType int

const (
	ScalarString ScalarType = iota
	ScalarNumber
	ScalarBool
	ScalarNull
)

// Node is one vertex of a configuration tree. Exactly the fields implied
// by Kind are populated; the zero value is an empty-string scalar.
type Node struct {
	Kind Kind

	// Value is the canonical string form of a scalar.
	Value      string
	ScalarType ScalarType

	// Seq holds sequence elements in source order.
	Seq []*Node

	// keys/children back a mapping with stable insertion order.
	keys     []string
	children map[string]*Node

	// Members holds set members, kept sorted for determinism.
	Members []string

	// ID is an optional identity for sequence elements. When set, the
	// comparator matches elements across sequences by ID instead of by
	// canonical encoding, so a step keeps its identity when unrelated
	// arguments change.
	ID string
}

// Scalar returns a string scalar node.
func Scalar(v string) *Node {
	return &Node{Kind: KindScalar, Value: v, ScalarType: ScalarString}
}

// Number returns a numeric scalar node with a canonical string form.
func Number(v string) *Node {
	return &Node{Kind: KindScalar, Value: v, ScalarType: ScalarNumber}
}

// Bool returns a boolean scalar node.
func Bool(v bool) *Node {
	return &Node{Kind: KindScalar, Value: strconv.FormatBool(v), ScalarType: ScalarBool}
}

// Null returns a null scalar node.
func Null() *Node {
	return &Node{Kind: KindScalar, Value: "null", ScalarType: ScalarNull}
}

// Unresolved returns the marker node for statically undeterminable values.
func Unresolved() *Node {
	return &Node{Kind: KindUnresolved, Value: "<unresolved>"}
}

// Sequence returns a sequence node over the given elements.
func Sequence(elems ...*Node) *Node {
	return &Node{Kind: KindSequence, Seq: elems}
}

// Mapping returns an empty mapping node.
func Mapping() *Node {
	return &Node{Kind: KindMapping, children: make(map[string]*Node)}
}

// Set returns a set node over the given members, deduplicated and sorted.
func Set(members ...string) *Node {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return &Node{Kind: KindSet, Members: out}
}

// Put inserts or replaces a mapping key. Insertion order of new keys is
// preserved for rendering and encoding.
func (n *Node) Put(key string, child *Node) *Node {
	if n.Kind != KindMapping {
		panic(fmt.Sprintf("tree: Put on %s node", n.Kind))
	}
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
	return n
}

// Get returns the child at key, or nil if absent or not a mapping.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	return n.children[key]
}

// Keys returns the mapping keys in insertion order. The caller must not
// mutate the returned slice.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	return n.keys
}

// Len returns the number of children, elements, or members.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case KindSequence:
		return len(n.Seq)
	case KindMapping:
		return len(n.keys)
	case KindSet:
		return len(n.Members)
	default:
		return 0
	}
}

// Lookup walks a dot-separated path of mapping keys. It returns nil as
// soon as any segment is absent.
func (n *Node) Lookup(path string) *Node {
	cur := n
	for _, seg := range strings.Split(path, ".") {
		cur = cur.Get(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Identity returns the comparator identity of a sequence element: the
// explicit ID when set, otherwise the canonical encoding.
func (n *Node) Identity() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Canonical()
}

// Canonical returns a deterministic single-line encoding of the subtree.
// Two nodes are structurally equal iff their canonical forms are equal.
func (n *Node) Canonical() string {
	if n == nil {
		return "~"
	}
	var sb strings.Builder
	n.encode(&sb)
	return sb.String()
}

func (n *Node) encode(sb *strings.Builder) {
	switch n.Kind {
	case KindScalar:
		if n.ScalarType == ScalarString {
			sb.WriteString(strconv.Quote(n.Value))
		} else {
			sb.WriteString(n.Value)
		}
	case KindUnresolved:
		sb.WriteString("<unresolved>")
	case KindSequence:
		sb.WriteByte('[')
		for i, e := range n.Seq {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.encode(sb)
		}
		sb.WriteByte(']')
	case KindSet:
		sb.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(m)
		}
		sb.WriteByte('}')
	case KindMapping:
		sb.WriteByte('(')
		for i, k := range n.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			n.children[k].encode(sb)
		}
		sb.WriteByte(')')
	}
}

// Equal reports structural equality of two subtrees. Set nodes compare by
// membership; sequences compare element-wise in order.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Canonical() == b.Canonical()
}

// Display renders a node for human-readable report cells: scalars print
// bare, sets as {a, b}, sequences and mappings fall back to the canonical
// form.
func (n *Node) Display() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindScalar:
		return n.Value
	case KindUnresolved:
		return "<unresolved>"
	case KindSet:
		return "{" + strings.Join(n.Members, ", ") + "}"
	default:
		return n.Canonical()
	}
}
