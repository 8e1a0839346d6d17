package stbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned for malformed or wrong-sized boxes.
var ErrInvalidArgument = errors.New("invalid argument")

// Size is the length in bytes of an encoded BoundingBox.
//
// Layout (little endian):
//
//	0   uint8   span type        (SpanTypeTstz when the box has a period)
//	1   uint8   span base type   (BaseTypeTimestampTz when the box has a period)
//	2   bool    lower inclusive
//	3   bool    upper inclusive
//	4   [4]byte padding
//	8   int64   period lower     (microseconds since 2000-01-01 UTC)
//	16  int64   period upper
//	24  float64 xmin
//	32  float64 ymin
//	40  float64 zmin
//	48  float64 xmax
//	56  float64 ymax
//	64  float64 zmax
//	72  int32   srid
//	76  int16   flags
//	78  [2]byte padding
const Size = 80

// Span type tags written into the period header.
const (
	SpanTypeTstz        uint8 = 37
	BaseTypeTimestampTz uint8 = 36
)

// Flag bits stored at offset 76.
const (
	FlagX        int16 = 0x0010
	FlagZ        int16 = 0x0020
	FlagT        int16 = 0x0040
	FlagGeodetic int16 = 0x0080
)

var byteOrder = binary.LittleEndian

// Encode serializes b into its fixed-size binary form.
func Encode(b BoundingBox) []byte {
	return AppendEncode(make([]byte, 0, Size), b)
}

// AppendEncode appends the binary form of b to dst.
func AppendEncode(dst []byte, b BoundingBox) []byte {
	var buf [Size]byte
	if b.HasT {
		buf[0] = SpanTypeTstz
		buf[1] = BaseTypeTimestampTz
		buf[2] = boolByte(b.Period.LowerInc)
		buf[3] = boolByte(b.Period.UpperInc)
		byteOrder.PutUint64(buf[8:], uint64(b.Period.Lower))
		byteOrder.PutUint64(buf[16:], uint64(b.Period.Upper))
	}
	if b.HasX {
		putFloat(buf[24:], b.XMin)
		putFloat(buf[32:], b.YMin)
		putFloat(buf[48:], b.XMax)
		putFloat(buf[56:], b.YMax)
		if b.HasZ {
			putFloat(buf[40:], b.ZMin)
			putFloat(buf[64:], b.ZMax)
		}
	}
	byteOrder.PutUint32(buf[72:], uint32(b.SRID))
	byteOrder.PutUint16(buf[76:], uint16(b.flags()))
	return append(dst, buf[:]...)
}

// Decode parses a binary box produced by Encode.
//
// It fails with ErrInvalidArgument when len(data) != Size or when the decoded
// box does not pass Validate.
func Decode(data []byte) (BoundingBox, error) {
	if len(data) != Size {
		return BoundingBox{}, fmt.Errorf("%w: box record is %d bytes, want %d", ErrInvalidArgument, len(data), Size)
	}

	flags := int16(byteOrder.Uint16(data[76:]))
	b := BoundingBox{
		HasX:     flags&FlagX != 0,
		HasZ:     flags&FlagZ != 0,
		HasT:     flags&FlagT != 0,
		Geodetic: flags&FlagGeodetic != 0,
		SRID:     int32(byteOrder.Uint32(data[72:])),
	}
	if b.HasT {
		b.Period = Period{
			Lower:    TimestampTz(byteOrder.Uint64(data[8:])),
			Upper:    TimestampTz(byteOrder.Uint64(data[16:])),
			LowerInc: data[2] != 0,
			UpperInc: data[3] != 0,
		}
	}
	if b.HasX {
		b.XMin = getFloat(data[24:])
		b.YMin = getFloat(data[32:])
		b.XMax = getFloat(data[48:])
		b.YMax = getFloat(data[56:])
		if b.HasZ {
			b.ZMin = getFloat(data[40:])
			b.ZMax = getFloat(data[64:])
		}
	}

	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// DecodeNormalized decodes data and normalizes the result to SRID 0.
func DecodeNormalized(data []byte) (BoundingBox, error) {
	b, err := Decode(data)
	if err != nil {
		return BoundingBox{}, err
	}
	return Normalize(b), nil
}

func (b BoundingBox) flags() int16 {
	var f int16
	if b.HasX {
		f |= FlagX
	}
	if b.HasZ {
		f |= FlagZ
	}
	if b.HasT {
		f |= FlagT
	}
	if b.Geodetic {
		f |= FlagGeodetic
	}
	return f
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func putFloat(dst []byte, v float64) {
	byteOrder.PutUint64(dst, math.Float64bits(v))
}

func getFloat(src []byte) float64 {
	return math.Float64frombits(byteOrder.Uint64(src))
}
