// Package farmath implements the segmented coordinates the simulation uses
// for its large game world. A value is split into an integer segment and a
// float offset inside that segment, which keeps float precision constant no
// matter how far from origin an entity travels.
package farmath

import (
	"fmt"
	"math"
)

// SegmentSize is the width of one coordinate segment.
const SegmentSize = 65536

// FarValue is a single segmented coordinate. The zero value is the origin.
type FarValue struct {
	segment int32
	offset  float32
}

// New returns a normalized FarValue for v.
func New(v float64) FarValue {
	return FarValue{}.Add(v)
}

// NewSegment returns a FarValue at the given segment and offset, normalized.
func NewSegment(segment int32, offset float32) FarValue {
	return FarValue{segment: segment}.Add(float64(offset))
}

func (f FarValue) Segment() int32 {
	return f.segment
}

func (f FarValue) Offset() float32 {
	return f.offset
}

// Add returns f moved by delta, renormalized so the offset stays within
// [0, SegmentSize).
func (f FarValue) Add(delta float64) FarValue {
	total := float64(f.offset) + delta
	carry := int32(math.Floor(total / SegmentSize))
	offset := total - float64(carry)*SegmentSize
	return FarValue{
		segment: f.segment + carry,
		offset:  float32(offset),
	}
}

// Sub returns f moved by -delta.
func (f FarValue) Sub(delta float64) FarValue {
	return f.Add(-delta)
}

// Diff returns the distance from other to f as a float64. Precision degrades
// with segment distance, which is fine for display and nudge purposes.
func (f FarValue) Diff(other FarValue) float64 {
	return float64(f.segment-other.segment)*SegmentSize + float64(f.offset) - float64(other.offset)
}

// Float64 returns the absolute coordinate. Only safe for display: beyond
// 2^53 the conversion loses precision, which is the problem FarValue exists
// to avoid.
func (f FarValue) Float64() float64 {
	return float64(f.segment)*SegmentSize + float64(f.offset)
}

func (f FarValue) String() string {
	return fmt.Sprintf("%.2f", f.Float64())
}

// FarPosition is a 2D position of segmented coordinates.
type FarPosition struct {
	X FarValue
	Y FarValue
}

// NewPosition returns a normalized FarPosition for (x, y).
func NewPosition(x, y float64) FarPosition {
	return FarPosition{X: New(x), Y: New(y)}
}

// Add returns p moved by (dx, dy).
func (p FarPosition) Add(dx, dy float64) FarPosition {
	return FarPosition{X: p.X.Add(dx), Y: p.Y.Add(dy)}
}

// Distance returns the euclidean distance between p and other.
func (p FarPosition) Distance(other FarPosition) float64 {
	dx := p.X.Diff(other.X)
	dy := p.Y.Diff(other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func (p FarPosition) String() string {
	return fmt.Sprintf("(%s, %s)", p.X, p.Y)
}
