package rtreeidx

import (
	"fmt"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/stbox"
)

// OverlapFunctions returns the scalar overlap predicate under every name.
// Both boxes are normalized before they are compared, so the predicate agrees
// with an index scan over the same boxes. A key that does not decode yields
// NULL, the same way an index build skips it.
func OverlapFunctions(names ...string) []*engine.ScalarFunction {
	out := make([]*engine.ScalarFunction, len(names))
	for i, name := range names {
		out[i] = &engine.ScalarFunction{
			Name:       name,
			Arguments:  []engine.LogicalType{STBoxType, STBoxType},
			ReturnType: engine.Boolean,
			Fn:         overlaps,
		}
	}
	return out
}

func overlaps(args []engine.Value) (engine.Value, error) {
	if len(args) != 2 {
		return engine.Value{}, fmt.Errorf("%w: overlaps takes 2 arguments, got %d", ErrInvalidArgument, len(args))
	}
	a, err := decodeKey(args[0])
	if err != nil {
		return engine.Null(), nil
	}
	b, err := decodeKey(args[1])
	if err != nil {
		return engine.Null(), nil
	}
	return engine.Bool(stbox.Overlaps(a, b)), nil
}
