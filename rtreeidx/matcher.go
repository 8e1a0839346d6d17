package rtreeidx

import (
	"fmt"
	"strings"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/stbox"
)

// overlapMatcher recognizes `f(column, constant)` and `f(constant, column)`
// where f is an overlap function returning BOOLEAN.
type overlapMatcher struct {
	names map[string]struct{}
}

// match reports whether expr is an overlap predicate between column and a
// constant box, and returns the normalized box.
func (m overlapMatcher) match(expr, column engine.Expression) (stbox.BoundingBox, bool) {
	fn, ok := expr.(*engine.Function)
	if !ok || len(fn.Args) != 2 || fn.Type.ID != engine.TypeBoolean {
		return stbox.BoundingBox{}, false
	}
	if _, ok := m.names[strings.ToLower(fn.Name)]; !ok {
		return stbox.BoundingBox{}, false
	}
	for i := range 2 {
		if !fn.Args[i].Equals(column) {
			continue
		}
		c, ok := fn.Args[1-i].(*engine.Constant)
		if !ok {
			continue
		}
		box, err := constantBox(c)
		if err != nil {
			continue
		}
		return box, true
	}
	return stbox.BoundingBox{}, false
}

func constantBox(c *engine.Constant) (stbox.BoundingBox, error) {
	if c.Value.IsNull() {
		return stbox.BoundingBox{}, fmt.Errorf("%w: null box", ErrInvalidArgument)
	}
	return decodeKey(c.Value)
}
