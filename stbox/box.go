package stbox

import (
	"fmt"
	"math"
	"strings"
)

// BoundingBox is a spatiotemporal bounding box.
//
// The spatial extent is present when HasX is set (Z additionally when HasZ is
// set); the time extent is present when HasT is set. A box may carry either
// extent or both. The zero value has no extent at all and is not valid.
type BoundingBox struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
	Period     Period

	HasX     bool
	HasZ     bool
	HasT     bool
	Geodetic bool

	SRID int32
}

// NewXY returns a 2D spatial box.
func NewXY(xmin, ymin, xmax, ymax float64, srid int32) BoundingBox {
	return BoundingBox{
		XMin: xmin, XMax: xmax,
		YMin: ymin, YMax: ymax,
		HasX: true,
		SRID: srid,
	}
}

// NewXYZ returns a 3D spatial box.
func NewXYZ(xmin, ymin, zmin, xmax, ymax, zmax float64, srid int32) BoundingBox {
	b := NewXY(xmin, ymin, xmax, ymax, srid)
	b.ZMin, b.ZMax = zmin, zmax
	b.HasZ = true
	return b
}

// NewT returns a time-only box.
func NewT(p Period) BoundingBox {
	return BoundingBox{Period: p, HasT: true}
}

// WithPeriod returns a copy of b that also carries the time extent p.
func (b BoundingBox) WithPeriod(p Period) BoundingBox {
	b.Period = p
	b.HasT = true
	return b
}

// Validate checks that every present dimension satisfies min <= max and that
// the box has at least one extent.
func (b BoundingBox) Validate() error {
	if !b.HasX && !b.HasT {
		return fmt.Errorf("%w: box has neither a spatial nor a time extent", ErrInvalidArgument)
	}
	if b.HasZ && !b.HasX {
		return fmt.Errorf("%w: box has a Z extent without X/Y", ErrInvalidArgument)
	}
	if b.HasX {
		if err := checkAxis("x", b.XMin, b.XMax); err != nil {
			return err
		}
		if err := checkAxis("y", b.YMin, b.YMax); err != nil {
			return err
		}
		if b.HasZ {
			if err := checkAxis("z", b.ZMin, b.ZMax); err != nil {
				return err
			}
		}
	}
	if b.HasT && !b.Period.Valid() {
		return fmt.Errorf("%w: empty or inverted period %s", ErrInvalidArgument, b.Period)
	}
	return nil
}

func checkAxis(name string, lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return fmt.Errorf("%w: %s extent is NaN", ErrInvalidArgument, name)
	}
	if lo > hi {
		return fmt.Errorf("%w: %s min %g greater than max %g", ErrInvalidArgument, name, lo, hi)
	}
	return nil
}

// Normalize returns b expressed in the canonical reference system (SRID 0).
//
// Only the identifier is stripped; coordinates are not reprojected. The
// operation is idempotent.
func Normalize(b BoundingBox) BoundingBox {
	if b.SRID != 0 {
		b.SRID = 0
	}
	return b
}

// Overlaps reports whether a and b intersect.
//
// The test runs over the dimensions both boxes carry: X/Y when both have a
// spatial extent (plus Z when both have it) and the period when both have a
// time extent. Boxes that share no dimension never overlap. Bounds are
// inclusive for spatial axes; period inclusivity follows the flags.
func Overlaps(a, b BoundingBox) bool {
	shared := false
	if a.HasX && b.HasX {
		shared = true
		if !axisOverlaps(a.XMin, a.XMax, b.XMin, b.XMax) || !axisOverlaps(a.YMin, a.YMax, b.YMin, b.YMax) {
			return false
		}
		if a.HasZ && b.HasZ && !axisOverlaps(a.ZMin, a.ZMax, b.ZMin, b.ZMax) {
			return false
		}
	}
	if a.HasT && b.HasT {
		shared = true
		if !a.Period.Overlaps(b.Period) {
			return false
		}
	}
	return shared
}

// Contains reports whether a contains b on every dimension both carry.
func Contains(a, b BoundingBox) bool {
	shared := false
	if a.HasX && b.HasX {
		shared = true
		if !axisContains(a.XMin, a.XMax, b.XMin, b.XMax) || !axisContains(a.YMin, a.YMax, b.YMin, b.YMax) {
			return false
		}
		if a.HasZ && b.HasZ && !axisContains(a.ZMin, a.ZMax, b.ZMin, b.ZMax) {
			return false
		}
	}
	if a.HasT && b.HasT {
		shared = true
		if !a.Period.Contains(b.Period) {
			return false
		}
	}
	return shared
}

// Union returns the smallest box covering a and b on the dimensions both
// carry. The SRID of a is kept.
func Union(a, b BoundingBox) BoundingBox {
	out := a
	out.HasX = a.HasX && b.HasX
	out.HasZ = out.HasX && a.HasZ && b.HasZ
	out.HasT = a.HasT && b.HasT
	if out.HasX {
		out.XMin, out.XMax = math.Min(a.XMin, b.XMin), math.Max(a.XMax, b.XMax)
		out.YMin, out.YMax = math.Min(a.YMin, b.YMin), math.Max(a.YMax, b.YMax)
	}
	if out.HasZ {
		out.ZMin, out.ZMax = math.Min(a.ZMin, b.ZMin), math.Max(a.ZMax, b.ZMax)
	}
	if out.HasT {
		p := a.Period
		if b.Period.Lower < p.Lower || (b.Period.Lower == p.Lower && b.Period.LowerInc) {
			p.Lower, p.LowerInc = b.Period.Lower, b.Period.LowerInc
		}
		if b.Period.Upper > p.Upper || (b.Period.Upper == p.Upper && b.Period.UpperInc) {
			p.Upper, p.UpperInc = b.Period.Upper, b.Period.UpperInc
		}
		out.Period = p
	}
	return out
}

func axisOverlaps(aMin, aMax, bMin, bMax float64) bool {
	return aMin <= bMax && bMin <= aMax
}

func axisContains(aMin, aMax, bMin, bMax float64) bool {
	return aMin <= bMin && bMax <= aMax
}

// String renders the box in the STBOX text notation, e.g.
// "SRID=4326;STBOX XT(((0,0),(10,10)),[t1, t2])".
func (b BoundingBox) String() string {
	var sb strings.Builder
	if b.SRID != 0 {
		fmt.Fprintf(&sb, "SRID=%d;", b.SRID)
	}
	if b.Geodetic {
		sb.WriteString("GEOD")
	}
	sb.WriteString("STBOX ")
	switch {
	case b.HasX && b.HasZ:
		sb.WriteString("Z")
	case b.HasX:
		sb.WriteString("X")
	}
	if b.HasT {
		sb.WriteString("T")
	}
	var spatial string
	if b.HasX {
		if b.HasZ {
			spatial = fmt.Sprintf("(%g,%g,%g),(%g,%g,%g)", b.XMin, b.YMin, b.ZMin, b.XMax, b.YMax, b.ZMax)
		} else {
			spatial = fmt.Sprintf("(%g,%g),(%g,%g)", b.XMin, b.YMin, b.XMax, b.YMax)
		}
	}
	sb.WriteString("(")
	switch {
	case b.HasX && b.HasT:
		fmt.Fprintf(&sb, "(%s),%s", spatial, b.Period)
	case b.HasX:
		sb.WriteString(spatial)
	default:
		sb.WriteString(b.Period.String())
	}
	sb.WriteString(")")
	return sb.String()
}
