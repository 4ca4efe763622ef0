package report

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"confdrift/internal/compare"
)

var dmp = diffmatchpatch.New()

// describe turns one difference entry into the short templated delta text
// the narrative report prints next to each project.
func describe(e compare.Entry) string {
	switch e.Kind {
	case compare.DiffChanged:
		return describeChange(e.RefValue, e.TargetValue)
	case compare.DiffMissing:
		return fmt.Sprintf("absent in target (reference has `%s`)", e.RefValue)
	case compare.DiffExtra:
		return fmt.Sprintf("only in target (`%s`)", e.TargetValue)
	case compare.DiffSetMissing:
		return fmt.Sprintf("lacks: %s", e.Detail)
	case compare.DiffSetExtra:
		return fmt.Sprintf("additionally has: %s", e.Detail)
	case compare.DiffMoved:
		return e.Detail
	default:
		return e.Detail
	}
}

// describeChange renders a value change; for short scalar strings it adds
// an inline character-level diff so version bumps read at a glance.
func describeChange(ref, target string) string {
	base := fmt.Sprintf("`%s` -> `%s`", ref, target)
	if len(ref) == 0 || len(target) == 0 || len(ref) > 60 || len(target) > 60 {
		return base
	}
	diffs := dmp.DiffMain(ref, target, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	// An inline diff only helps when the values share substance.
	if !sharesContext(diffs) {
		return base
	}
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	return base + " (" + sb.String() + ")"
}

func sharesContext(diffs []diffmatchpatch.Diff) bool {
	equal := 0
	total := 0
	for _, d := range diffs {
		total += len(d.Text)
		if d.Type == diffmatchpatch.DiffEqual {
			equal += len(d.Text)
		}
	}
	return total > 0 && equal*2 >= total
}
