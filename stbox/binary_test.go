package stbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	cases := map[string]BoundingBox{
		"XY":       NewXY(0, 0, 10, 10, 4326),
		"XYZ":      NewXYZ(-1, -2, -3, 1, 2, 3, 0),
		"T":        NewT(NewPeriod(ts(0), ts(4))),
		"XYT":      NewXY(5, 5, 6, 6, 3857).WithPeriod(NewPeriod(ts(1), ts(2))),
		"Geodetic": {XMin: 1, XMax: 2, YMin: 3, YMax: 4, HasX: true, Geodetic: true, SRID: 4326},
		"HalfOpen": NewT(Period{Lower: FromTime(ts(1)), Upper: FromTime(ts(2)), LowerInc: true}),
	}

	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			data := Encode(b)
			require.Len(t, data, Size)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, b, got)
		})
	}
}

func TestDecodeWrongLength(t *testing.T) {
	data := Encode(NewXY(0, 0, 1, 1, 0))

	_, err := Decode(data[:Size-1])
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Decode(append(data, 0))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecodeRejectsInvertedBox(t *testing.T) {
	data := Encode(BoundingBox{XMin: 5, XMax: 1, YMin: 0, YMax: 1, HasX: true})

	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecodeNormalized(t *testing.T) {
	b, err := DecodeNormalized(Encode(NewXY(0, 0, 1, 1, 4326)))
	require.NoError(t, err)
	assert.Equal(t, int32(0), b.SRID)
}

func TestAppendEncode(t *testing.T) {
	dst := []byte{0xAA}
	dst = AppendEncode(dst, NewXY(0, 0, 1, 1, 0))
	assert.Len(t, dst, Size+1)
	assert.Equal(t, byte(0xAA), dst[0])
}
