package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMappingOrder(t *testing.T) {
	m := Mapping()
	m.Put("zeta", Scalar("1"))
	m.Put("alpha", Scalar("2"))
	m.Put("mid", Scalar("3"))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	// Replacing a key keeps its original position.
	m.Put("alpha", Scalar("9"))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	assert.Equal(t, "9", m.Get("alpha").Value)
}

func TestSetDeduplicatesAndSorts(t *testing.T) {
	s := Set("ruff", "black", "ruff", "isort")
	assert.Equal(t, []string{"black", "isort", "ruff"}, s.Members)
	assert.Equal(t, 3, s.Len())
}

func TestCanonicalEquality(t *testing.T) {
	t.Run("scalar type distinguishes string from number", func(t *testing.T) {
		assert.False(t, Equal(Scalar("3"), Number("3")))
		assert.True(t, Equal(Number("3"), Number("3")))
	})

	t.Run("set order is irrelevant", func(t *testing.T) {
		assert.True(t, Equal(Set("a", "b"), Set("b", "a")))
	})

	t.Run("sequence order matters", func(t *testing.T) {
		a := Sequence(Scalar("x"), Scalar("y"))
		b := Sequence(Scalar("y"), Scalar("x"))
		assert.False(t, Equal(a, b))
	})

	t.Run("mapping key order is irrelevant structurally equal content", func(t *testing.T) {
		// Canonical encoding follows insertion order, so key order is
		// part of identity for mappings produced by loaders. Extractors
		// that need order-independence must normalize key order.
		a := Mapping().Put("k", Scalar("v"))
		b := Mapping().Put("k", Scalar("v"))
		assert.True(t, Equal(a, b))
	})

	t.Run("unresolved equals unresolved", func(t *testing.T) {
		assert.True(t, Equal(Unresolved(), Unresolved()))
		assert.False(t, Equal(Unresolved(), Scalar("<unresolved>")))
	})
}

func TestLookup(t *testing.T) {
	root := Mapping().Put("tool", Mapping().Put("ruff", Mapping().Put("line-length", Number("120"))))

	hit := root.Lookup("tool.ruff.line-length")
	assert.NotNil(t, hit)
	assert.Equal(t, "120", hit.Value)

	assert.Nil(t, root.Lookup("tool.black"))
	assert.Nil(t, root.Lookup("tool.ruff.line-length.deeper"))
}

func TestIdentityFallsBackToCanonical(t *testing.T) {
	step := Mapping().Put("uses", Scalar("actions/checkout"))
	assert.Equal(t, step.Canonical(), step.Identity())

	step.ID = "actions/checkout"
	assert.Equal(t, "actions/checkout", step.Identity())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "v0.8.2", Scalar("v0.8.2").Display())
	assert.Equal(t, "{a, b}", Set("b", "a").Display())
	assert.Equal(t, "<unresolved>", Unresolved().Display())
	assert.Equal(t, "", (*Node)(nil).Display())
}
