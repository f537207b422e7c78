package geometry

import (
	"fmt"
	"math"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

// Layout constants for connection endpoints and interface labels.
const (
	DefaultIconSize = 70.0 // fallback when the rendered icon size is unknown
	BulbDistance    = 2.0  // icon edge to bulb
	LabelDistance   = 15.0 // bulb to label container
	LineDistance    = 1.0  // label container to line
	BulbRadius      = 4.0

	labelCharWidth  = 6.5
	labelHeight     = 16.0
	labelMaxPadding = 8.0
	bezierCircle    = 0.552284749831
)

// Options tunes connection layout.
type Options struct {
	// IconSize is the rendered icon's larger side. Zero selects DefaultIconSize.
	IconSize float64
	// HideLabels drops the interface label containers and draws one segment
	// between the bulbs.
	HideLabels bool
}

func (o Options) iconRadius() float64 {
	if o.IconSize <= 0 {
		return DefaultIconSize / 2
	}
	return o.IconSize / 2
}

// LabelDims is the measured size of an interface label.
type LabelDims struct {
	Width   float64
	Height  float64
	Padding float64
}

// TotalWidth is the label width including padding.
func (d LabelDims) TotalWidth() float64 { return d.Width + d.Padding }

// TotalHeight is the label height including padding.
func (d LabelDims) TotalHeight() float64 { return d.Height + d.Padding }

// MeasureLabel estimates label dimensions from its character count.
func MeasureLabel(text string) LabelDims {
	if text == "" {
		return LabelDims{}
	}
	return LabelDims{
		Width:   float64(len([]rune(text))) * labelCharWidth,
		Height:  labelHeight,
		Padding: math.Min(labelMaxPadding, labelHeight/2),
	}
}

// PillPath returns a pill-shaped outline centred on the origin that fits the label.
func PillPath(d LabelDims) string {
	w := d.TotalWidth()
	h := d.TotalHeight()
	r := h / 2
	if w < 2*r {
		w = 2 * r
	}
	c := r * bezierCircle
	straight := w - 2*r

	return fmt.Sprintf("M %s,0 c 0,%s %s,%s %s,%s h %s c %s,0 %s,%s %s,%s c 0,%s %s,%s %s,%s h %s c %s,0 %s,%s %s,%s Z",
		num(-w/2),
		num(-c), num(c), num(-r), num(r), num(-r),
		num(straight),
		num(c), num(r), num(c), num(r), num(r),
		num(c), num(-c), num(r), num(-r), num(r),
		num(-straight),
		num(-c), num(-r), num(-c), num(-r), num(-r),
	)
}

// Label is a positioned interface label.
type Label struct {
	Text   string
	Center domain.Point
	Dims   LabelDims
	Path   string
}

// ConnectionLayout holds the drawable parts of one connection.
type ConnectionLayout struct {
	SourceBulb domain.Point
	TargetBulb domain.Point
	// Labels is false for zero-length connections and when labels are hidden.
	Labels      bool
	SourceLabel Label
	TargetLabel Label
	LineStart   domain.Point
	LineEnd     domain.Point
	Angle       float64
}

// Layout positions bulbs, labels and the visible line for a connection
// drawn between the device centres src and tgt.
func Layout(conn domain.Connection, src, tgt domain.Point, opts Options) ConnectionLayout {
	dx, dy := tgt.X-src.X, tgt.Y-src.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return ConnectionLayout{SourceBulb: src, TargetBulb: tgt, LineStart: src, LineEnd: tgt}
	}

	ux, uy := dx/dist, dy/dist
	along := func(p domain.Point, d float64) domain.Point {
		return domain.Point{X: p.X + ux*d, Y: p.Y + uy*d}
	}

	offset := opts.iconRadius() + BulbDistance
	out := ConnectionLayout{
		SourceBulb: along(src, offset),
		TargetBulb: along(tgt, -offset),
		Angle:      LabelAngle(src, tgt),
	}
	if opts.HideLabels {
		out.LineStart, out.LineEnd = out.SourceBulb, out.TargetBulb
		return out
	}

	srcDims := MeasureLabel(conn.SourceInterface.Name)
	tgtDims := MeasureLabel(conn.TargetInterface.Name)

	out.Labels = true
	out.SourceLabel = Label{
		Text:   conn.SourceInterface.Name,
		Center: along(out.SourceBulb, LabelDistance+srcDims.TotalWidth()/2),
		Dims:   srcDims,
		Path:   PillPath(srcDims),
	}
	out.TargetLabel = Label{
		Text:   conn.TargetInterface.Name,
		Center: along(out.TargetBulb, -(LabelDistance + tgtDims.TotalWidth()/2)),
		Dims:   tgtDims,
		Path:   PillPath(tgtDims),
	}
	out.LineStart = along(out.SourceLabel.Center, srcDims.TotalWidth()/2+LineDistance)
	out.LineEnd = along(out.TargetLabel.Center, -(tgtDims.TotalWidth()/2 + LineDistance))
	return out
}

// LabelAngle returns the rotation in degrees that keeps labels along the
// line while never rendering them upside down.
func LabelAngle(src, tgt domain.Point) float64 {
	angle := math.Atan2(tgt.Y-src.Y, tgt.X-src.X) * 180 / math.Pi
	if angle > 90 || angle < -90 {
		angle += 180
	}
	return angle
}
