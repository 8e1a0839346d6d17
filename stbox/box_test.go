package stbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(hour int) time.Time {
	return time.Date(2024, time.March, 1, hour, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	t.Run("StripsSRID", func(t *testing.T) {
		b := NewXY(0, 0, 10, 10, 4326)
		n := Normalize(b)
		assert.Equal(t, int32(0), n.SRID)
		assert.Equal(t, b.XMin, n.XMin)
		assert.Equal(t, b.YMax, n.YMax)
	})

	t.Run("CanonicalUnchanged", func(t *testing.T) {
		b := NewXY(1, 2, 3, 4, 0).WithPeriod(NewPeriod(ts(1), ts(2)))
		assert.Equal(t, b, Normalize(b))
	})

	t.Run("Idempotent", func(t *testing.T) {
		boxes := []BoundingBox{
			NewXY(0, 0, 1, 1, 3857),
			NewXYZ(0, 0, 0, 1, 1, 1, 4326),
			NewT(NewPeriod(ts(0), ts(5))),
			NewXY(-5, -5, 5, 5, 0).WithPeriod(NewPeriod(ts(3), ts(4))),
		}
		for _, b := range boxes {
			once := Normalize(b)
			assert.Equal(t, once, Normalize(once), b.String())
		}
	})
}

func TestOverlaps(t *testing.T) {
	a := NewXY(0, 0, 10, 10, 0)
	b := NewXY(20, 20, 30, 30, 0)
	q := NewXY(5, 5, 25, 25, 0)

	assert.True(t, Overlaps(a, q))
	assert.True(t, Overlaps(b, q))
	assert.False(t, Overlaps(a, b))

	t.Run("TouchingEdgesOverlap", func(t *testing.T) {
		assert.True(t, Overlaps(NewXY(0, 0, 1, 1, 0), NewXY(1, 1, 2, 2, 0)))
	})

	t.Run("ZOnlyWhenBothHaveIt", func(t *testing.T) {
		z1 := NewXYZ(0, 0, 0, 1, 1, 1, 0)
		z2 := NewXYZ(0, 0, 5, 1, 1, 6, 0)
		assert.False(t, Overlaps(z1, z2))
		assert.True(t, Overlaps(z1, NewXY(0, 0, 1, 1, 0)))
	})

	t.Run("TimeMustAlsoOverlap", func(t *testing.T) {
		st1 := NewXY(0, 0, 10, 10, 0).WithPeriod(NewPeriod(ts(0), ts(2)))
		st2 := NewXY(5, 5, 15, 15, 0).WithPeriod(NewPeriod(ts(3), ts(4)))
		assert.False(t, Overlaps(st1, st2))

		st2.Period = NewPeriod(ts(1), ts(4))
		assert.True(t, Overlaps(st1, st2))
	})

	t.Run("ExclusiveBoundsDoNotTouch", func(t *testing.T) {
		p1 := Period{Lower: FromTime(ts(0)), Upper: FromTime(ts(1)), LowerInc: true}
		p2 := NewPeriod(ts(1), ts(2))
		assert.False(t, Overlaps(NewT(p1), NewT(p2)))

		p1.UpperInc = true
		assert.True(t, Overlaps(NewT(p1), NewT(p2)))
	})

	t.Run("NoSharedDimension", func(t *testing.T) {
		assert.False(t, Overlaps(NewXY(0, 0, 1, 1, 0), NewT(NewPeriod(ts(0), ts(1)))))
	})

	t.Run("Symmetric", func(t *testing.T) {
		assert.Equal(t, Overlaps(a, q), Overlaps(q, a))
		assert.Equal(t, Overlaps(a, b), Overlaps(b, a))
	})
}

func TestContains(t *testing.T) {
	outer := NewXY(0, 0, 10, 10, 0).WithPeriod(NewPeriod(ts(0), ts(10)))
	inner := NewXY(2, 2, 8, 8, 0).WithPeriod(NewPeriod(ts(1), ts(9)))

	assert.True(t, Contains(outer, inner))
	assert.False(t, Contains(inner, outer))
	assert.True(t, Contains(outer, outer))

	t.Run("OpenBoundDoesNotContainClosed", func(t *testing.T) {
		open := Period{Lower: FromTime(ts(0)), Upper: FromTime(ts(1))}
		closed := NewPeriod(ts(0), ts(1))
		assert.False(t, open.Contains(closed))
		assert.True(t, closed.Contains(open))
	})
}

func TestUnion(t *testing.T) {
	u := Union(NewXY(0, 0, 1, 1, 0), NewXY(5, -3, 6, 2, 0))
	assert.Equal(t, NewXY(0, -3, 6, 2, 0), u)

	tu := Union(NewT(NewPeriod(ts(2), ts(3))), NewT(NewPeriod(ts(0), ts(1))))
	assert.Equal(t, NewT(NewPeriod(ts(0), ts(3))), tu)
}

func TestValidate(t *testing.T) {
	require.NoError(t, NewXY(0, 0, 0, 0, 0).Validate())

	inverted := NewXY(10, 0, 0, 10, 0)
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidArgument)

	assert.ErrorIs(t, BoundingBox{}.Validate(), ErrInvalidArgument)

	empty := NewT(Period{Lower: FromTime(ts(1)), Upper: FromTime(ts(1)), LowerInc: true})
	assert.ErrorIs(t, empty.Validate(), ErrInvalidArgument)
}

func TestString(t *testing.T) {
	assert.Equal(t, "SRID=4326;STBOX X((0,0),(10,10))", NewXY(0, 0, 10, 10, 4326).String())
	assert.Contains(t, NewT(NewPeriod(ts(0), ts(1))).String(), "STBOX T([2024-03-01T00:00:00Z")
}
