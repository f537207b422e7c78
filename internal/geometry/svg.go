package geometry

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

const (
	bulbColor   = "#4CAF50"
	labelFill   = "white"
	labelStroke = "#666"
	labelText   = "#333"
	canvasPad   = 40.0
)

// RenderOptions tunes RenderSVG.
type RenderOptions struct {
	Options
	// Selected highlights one connection with a wider stroke.
	Selected domain.ID
	// Background fills the canvas when set.
	Background string
}

// RenderSVG writes a standalone SVG drawing of doc. Connections whose
// endpoint devices are missing are skipped.
func RenderSVG(w io.Writer, doc domain.Document, opts RenderOptions) error {
	var b strings.Builder

	minX, minY, width, height := bounds(doc, opts.iconSize())
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%s" height="%s">`+"\n",
		num(minX), num(minY), num(width), num(height), num(width), num(height))
	if opts.Background != "" {
		fmt.Fprintf(&b, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(minX), num(minY), num(width), num(height), escape(opts.Background))
	}

	devices := doc.DeviceIndex()
	for _, c := range doc.Connections {
		si, ok := devices[c.SourceDeviceID]
		if !ok {
			continue
		}
		ti, ok := devices[c.TargetDeviceID]
		if !ok {
			continue
		}
		writeConnection(&b, c, doc.Devices[si].Center(), doc.Devices[ti].Center(), opts)
	}

	size := opts.iconSize()
	for _, d := range doc.Devices {
		c := d.Center()
		fmt.Fprintf(&b, `  <g class="device" data-id="%s">`+"\n", escape(string(d.ID)))
		fmt.Fprintf(&b, `    <image href="%s" x="%s" y="%s" width="%s" height="%s"/>`+"\n",
			escape(d.Icon), num(c.X-size/2), num(c.Y-size/2), num(size), num(size))
		label := d.Label
		if label == "" {
			label = d.Type
		}
		if label != "" {
			fmt.Fprintf(&b, `    <text x="%s" y="%s" font-size="12" text-anchor="middle" fill="%s">%s</text>`+"\n",
				num(c.X), num(c.Y+size/2+14), labelText, escape(label))
		}
		b.WriteString("  </g>\n")
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (o RenderOptions) iconSize() float64 {
	return o.iconRadius() * 2
}

func writeConnection(b *strings.Builder, c domain.Connection, src, tgt domain.Point, opts RenderOptions) {
	lay := Layout(c, src, tgt, opts.Options)
	stroke := escape(c.StrokeColor())
	dash := DashArray(c.LineStyle())
	strokeWidth := "2"
	if opts.Selected != "" && opts.Selected == c.ID {
		strokeWidth = "3"
	}

	path := func(d string) {
		fmt.Fprintf(b, `    <path d="%s" stroke="%s" stroke-width="%s" stroke-dasharray="%s" fill="none"/>`+"\n",
			d, stroke, strokeWidth, dash)
	}

	fmt.Fprintf(b, `  <g class="connection" data-id="%s">`+"\n", escape(string(c.ID)))

	straight := len(c.ControlPoints) == 0 && c.LineStyle() != domain.LineCurved && c.LineStyle() != domain.LineAngled
	switch {
	case lay.Labels && straight:
		path(Segment(lay.SourceBulb, lay.SourceLabel.Center))
		path(Segment(lay.LineStart, lay.LineEnd))
		path(Segment(lay.TargetLabel.Center, lay.TargetBulb))
	default:
		path(PathData(c.LineStyle(), lay.SourceBulb, lay.TargetBulb, c.ControlPoints))
	}

	if lay.Labels {
		writeLabel(b, lay.SourceLabel, lay.Angle)
		writeLabel(b, lay.TargetLabel, lay.Angle)
	}

	for _, p := range []domain.Point{lay.SourceBulb, lay.TargetBulb} {
		fmt.Fprintf(b, `    <circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
			num(p.X), num(p.Y), num(BulbRadius), bulbColor)
	}
	b.WriteString("  </g>\n")
}

func writeLabel(b *strings.Builder, l Label, angle float64) {
	if l.Text == "" {
		return
	}
	fmt.Fprintf(b, `    <g transform="translate(%s, %s) rotate(%s)">`+"\n", num(l.Center.X), num(l.Center.Y), num(angle))
	fmt.Fprintf(b, `      <path d="%s" fill="%s" stroke="%s" stroke-width="1"/>`+"\n", l.Path, labelFill, labelStroke)
	fmt.Fprintf(b, `      <text font-size="12" fill="%s" dominant-baseline="middle" text-anchor="middle">%s</text>`+"\n",
		labelText, escape(l.Text))
	b.WriteString("    </g>\n")
}

// bounds returns the padded bounding box of all devices.
func bounds(doc domain.Document, iconSize float64) (x, y, w, h float64) {
	if len(doc.Devices) == 0 {
		return 0, 0, 2 * canvasPad, 2 * canvasPad
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, d := range doc.Devices {
		c := d.Center()
		minX = math.Min(minX, c.X-iconSize/2)
		minY = math.Min(minY, c.Y-iconSize/2)
		maxX = math.Max(maxX, c.X+iconSize/2)
		maxY = math.Max(maxY, c.Y+iconSize/2)
	}
	return minX - canvasPad, minY - canvasPad, maxX - minX + 2*canvasPad, maxY - minY + 2*canvasPad
}

// escape makes s safe for both XML text and attribute values.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
