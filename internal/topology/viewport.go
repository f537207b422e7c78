package topology

import (
	"fmt"
	"math"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

// Zoom limits in percent.
const (
	MinZoomPercent = 10
	MaxZoomPercent = 200
)

// Viewport is the zoom and pan applied when drawing the canvas. It never
// changes stored device coordinates.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

// DefaultViewport is 100% zoom with no pan.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ZoomPercent returns the zoom as a percentage.
func (v Viewport) ZoomPercent() float64 {
	return v.Zoom * 100
}

// SetZoomPercent sets the zoom, clamped to MinZoomPercent..MaxZoomPercent.
func (v *Viewport) SetZoomPercent(p float64) error {
	if !finite(p) {
		return fmt.Errorf("%w: zoom must be finite", ErrInvalidInput)
	}
	p = math.Max(MinZoomPercent, math.Min(MaxZoomPercent, p))
	v.Zoom = p / 100
	return nil
}

// Pan shifts the view by dx, dy screen pixels.
func (v *Viewport) Pan(dx, dy float64) error {
	if !finite(dx) || !finite(dy) {
		return fmt.Errorf("%w: pan must be finite", ErrInvalidInput)
	}
	v.PanX += dx
	v.PanY += dy
	return nil
}

// ToCanvas converts a pointer position in client coordinates to canvas
// coordinates, given the top-left corner of the canvas container.
func (v Viewport) ToCanvas(client, container domain.Point) domain.Point {
	z := v.zoom()
	return domain.Point{
		X: (client.X - container.X - v.PanX) / z,
		Y: (client.Y - container.Y - v.PanY) / z,
	}
}

// ScaleDelta converts a pointer movement in screen pixels to canvas units.
func (v Viewport) ScaleDelta(dx, dy float64) (float64, float64) {
	z := v.zoom()
	return dx / z, dy / z
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}
