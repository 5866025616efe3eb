package normalize

import (
	"strconv"
	"strings"

	"swap-telemetry-lab/internal/domain"
)

// Flatten walks a nested document and returns one flat mapping from dotted
// leaf paths to scalar values. Mapping keys are joined with ".", sequence
// elements contribute their positional index as a path segment. Traversal
// uses an explicit worklist instead of recursion, so arbitrarily deep
// documents cannot exhaust the stack. Empty containers contribute no leaves.
func Flatten(doc domain.Document) map[string]any {
	type frame struct {
		prefix string
		value  any
	}

	out := make(map[string]any)
	stack := []frame{{prefix: "", value: map[string]any(doc)}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := f.value.(type) {
		case map[string]any:
			for key, child := range v {
				stack = append(stack, frame{prefix: f.prefix + key + ".", value: child})
			}
		case []any:
			for i, child := range v {
				stack = append(stack, frame{prefix: f.prefix + strconv.Itoa(i) + ".", value: child})
			}
		default:
			out[strings.TrimSuffix(f.prefix, ".")] = v
		}
	}

	return out
}
