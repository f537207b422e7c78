// Package geometry computes how connections are drawn: SVG path data, dash
// patterns, endpoint bulbs and interface label containers.
package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

// CurveHeight is how far the control point of a curved connection sits from the midpoint.
const CurveHeight = 50.0

// Center returns the visual center of a device.
func Center(d domain.Device) domain.Point {
	return d.Center()
}

// DashArray returns the stroke-dasharray for a line type.
func DashArray(t domain.LineType) string {
	switch t {
	case domain.LineDashed:
		return "8,8"
	case domain.LineDotted:
		return "2,4"
	default:
		return "none"
	}
}

// PathData returns the SVG path description for a connection between src and
// tgt. Control points, when present, are threaded in order as straight
// segments and override the curve or angle of the line type.
func PathData(t domain.LineType, src, tgt domain.Point, controlPoints []domain.Point) string {
	var b pathBuilder
	b.move(src)

	if len(controlPoints) > 0 {
		for _, cp := range controlPoints {
			b.line(cp)
		}
		b.line(tgt)
		return b.String()
	}

	switch t {
	case domain.LineCurved:
		b.quad(CurveControl(src, tgt), tgt)
	case domain.LineAngled:
		b.line(domain.Point{X: src.X, Y: tgt.Y})
		b.line(tgt)
	default:
		b.line(tgt)
	}
	return b.String()
}

// CurveControl returns the quadratic control point for a curved connection:
// the midpoint pushed CurveHeight units along the segment's left-hand normal,
// which is straight up for a left-to-right line.
func CurveControl(src, tgt domain.Point) domain.Point {
	mid := domain.Point{X: (src.X + tgt.X) / 2, Y: (src.Y + tgt.Y) / 2}
	dx, dy := tgt.X-src.X, tgt.Y-src.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return domain.Point{X: mid.X, Y: mid.Y - CurveHeight}
	}
	nx, ny := dy/dist, -dx/dist
	return domain.Point{X: mid.X + nx*CurveHeight, Y: mid.Y + ny*CurveHeight}
}

// Segment returns a straight path between two points.
func Segment(a, b domain.Point) string {
	var pb pathBuilder
	pb.move(a)
	pb.line(b)
	return pb.String()
}

type pathBuilder struct {
	parts []string
}

func (b *pathBuilder) move(p domain.Point) {
	b.parts = append(b.parts, "M", num(p.X), num(p.Y))
}

func (b *pathBuilder) line(p domain.Point) {
	b.parts = append(b.parts, "L", num(p.X), num(p.Y))
}

func (b *pathBuilder) quad(c, p domain.Point) {
	b.parts = append(b.parts, "Q", num(c.X), num(c.Y), num(p.X), num(p.Y))
}

func (b *pathBuilder) String() string {
	return strings.Join(b.parts, " ")
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
