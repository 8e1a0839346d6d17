package rtreeidx

import (
	"testing"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapFunctions(t *testing.T) {
	fns := OverlapFunctions("&&", "overlaps")
	require.Len(t, fns, 2)
	assert.Equal(t, "&&", fns[0].Name)
	assert.Equal(t, engine.Boolean, fns[1].ReturnType)
	assert.Equal(t, []engine.LogicalType{STBoxType, STBoxType}, fns[1].Arguments)

	fn := fns[0].Fn
	tests := []struct {
		name string
		a, b engine.Value
		want bool
	}{
		{"Overlapping", xyValue(0, 0, 10, 10, 0), xyValue(5, 5, 15, 15, 0), true},
		{"Disjoint", xyValue(0, 0, 10, 10, 0), xyValue(11, 11, 15, 15, 0), false},
		{"Touching", xyValue(0, 0, 10, 10, 0), xyValue(10, 10, 15, 15, 0), true},
		{"DifferentSRID", xyValue(0, 0, 10, 10, 4326), xyValue(5, 5, 15, 15, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fn([]engine.Value{tt.a, tt.b})
			require.NoError(t, err)
			assert.Equal(t, engine.Bool(tt.want), got)
		})
	}
}

func TestOverlapFunctions_Errors(t *testing.T) {
	fn := OverlapFunctions("&&")[0].Fn

	_, err := fn([]engine.Value{xyValue(0, 0, 1, 1, 0)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOverlapFunctions_MalformedKeyIsNull(t *testing.T) {
	fn := OverlapFunctions("&&")[0].Fn

	got, err := fn([]engine.Value{xyValue(0, 0, 1, 1, 0), engine.BlobValue([]byte{1, 2, 3})})
	require.NoError(t, err)
	assert.True(t, got.IsNull())

	got, err = fn([]engine.Value{engine.BlobValue([]byte{1}), xyValue(0, 0, 1, 1, 0)})
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestOverlapFunctions_NullPropagates(t *testing.T) {
	db, _ := newTripsDB(t, nil)
	expr := call("&&", &engine.BoundRef{Index: 0, Type: STBoxType}, boxConstant(0, 0, 1, 1))

	got, err := expr.Eval(db.EvalContext(), []engine.Value{engine.Null()})
	require.NoError(t, err)
	assert.True(t, got.IsNull())

	got, err = expr.Eval(db.EvalContext(), []engine.Value{xyValue(0, 0, 2, 2, 0)})
	require.NoError(t, err)
	assert.Equal(t, engine.Bool(true), got)
}
