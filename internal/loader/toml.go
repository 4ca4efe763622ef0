package loader

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"confdrift/internal/tree"
)

// LoadTOML parses nested-table markup (packaging manifests) into a mapping
// tree with typed leaves. TOML table key order is not preserved by the
// decoder, so keys are sorted for deterministic canonical forms.
func LoadTOML(path string, raw []byte) (*tree.Node, *ParseError) {
	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Kind: MalformedTable, Path: path, Detail: err.Error()}
	}
	return tomlToTree(doc), nil
}

func tomlToTree(v any) *tree.Node {
	switch val := v.(type) {
	case nil:
		return tree.Null()
	case string:
		return tree.Scalar(val)
	case bool:
		return tree.Bool(val)
	case int64:
		return tree.Number(strconv.FormatInt(val, 10))
	case float64:
		return tree.Number(strconv.FormatFloat(val, 'g', -1, 64))
	case time.Time:
		return tree.Scalar(val.Format(time.RFC3339))
	case toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return tree.Scalar(fmt.Sprintf("%v", val))
	case []any:
		elems := make([]*tree.Node, 0, len(val))
		for _, e := range val {
			elems = append(elems, tomlToTree(e))
		}
		return tree.Sequence(elems...)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := tree.Mapping()
		for _, k := range keys {
			m.Put(k, tomlToTree(val[k]))
		}
		return m
	default:
		return tree.Unresolved()
	}
}
