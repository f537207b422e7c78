package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// HalfIconSize is the offset from a device's top-left position to its visual center.
const HalfIconSize = 30.0

// DefaultColor is the stroke color used for connections without one.
const DefaultColor = "#666"

// Point is a canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Device is a node in the topology, rendered as a draggable icon
type Device struct {
	ID    ID      `json:"id"`
	Type  string  `json:"type"`            // Device kind (e.g., "router", "switch")
	Icon  string  `json:"icon"`            // SVG asset path, also keys the interface catalog
	Label string  `json:"label,omitempty"` // Display name, defaults to the type
	X     float64 `json:"x"`               // Top-left canvas position
	Y     float64 `json:"y"`
}

// Center returns the visual center of the device icon.
func (d Device) Center() Point {
	return Point{X: d.X + HalfIconSize, Y: d.Y + HalfIconSize}
}

// Interface is a named attachment point on a device
type Interface struct {
	Name     string `json:"name"`               // e.g., "GigabitEthernet0/0"
	Type     string `json:"type,omitempty"`     // e.g., "ethernet"
	Position string `json:"position,omitempty"` // Layout hint, e.g., "left"

	// Extra holds catalog metadata beyond the fields above (speed, vlan, ...),
	// kept verbatim so a load and save never drops it.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var interfaceKeys = []string{"name", "type", "position"}

// MarshalJSON writes the known fields followed by Extra in key order.
func (i Interface) MarshalJSON() ([]byte, error) {
	type plain Interface
	base, err := json.Marshal(plain(i))
	if err != nil || len(i.Extra) == 0 {
		return base, err
	}

	var b bytes.Buffer
	b.Write(base[:len(base)-1])
	for _, k := range slices.Sorted(maps.Keys(i.Extra)) {
		if slices.Contains(interfaceKeys, k) {
			continue
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.WriteByte(',')
		b.Write(key)
		b.WriteByte(':')
		b.Write(i.Extra[k])
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes the known fields and keeps every other key in Extra.
func (i *Interface) UnmarshalJSON(data []byte) error {
	type plain Interface
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range interfaceKeys {
		delete(fields, k)
	}
	p.Extra = nil
	if len(fields) > 0 {
		p.Extra = fields
	}
	*i = Interface(p)
	return nil
}

// Equal reports whether both interfaces have the same fields and metadata.
func (i Interface) Equal(o Interface) bool {
	return i.Name == o.Name && i.Type == o.Type && i.Position == o.Position &&
		maps.EqualFunc(i.Extra, o.Extra, func(a, b json.RawMessage) bool { return bytes.Equal(a, b) })
}

// Connection links two device interfaces
type Connection struct {
	ID              ID        `json:"id"`
	SourceDeviceID  ID        `json:"sourceDeviceId"`
	TargetDeviceID  ID        `json:"targetDeviceId"`
	SourceInterface Interface `json:"sourceInterface"`
	TargetInterface Interface `json:"targetInterface"`
	Type            LineType  `json:"type,omitempty"`
	Color           string    `json:"color,omitempty"`
	ControlPoints   []Point   `json:"controlPoints,omitempty"`
}

// MarshalJSON keeps an empty controlPoints array present when it was set,
// so a loaded document re-encodes the way it was read.
func (c Connection) MarshalJSON() ([]byte, error) {
	type plain Connection
	out := struct {
		plain
		ControlPoints *[]Point `json:"controlPoints,omitempty"`
	}{plain: plain(c)}
	if c.ControlPoints != nil {
		out.ControlPoints = &c.ControlPoints
	}
	return json.Marshal(out)
}

// StrokeColor returns the connection color, falling back to DefaultColor.
func (c Connection) StrokeColor() string {
	if c.Color == "" {
		return DefaultColor
	}
	return c.Color
}

// LineStyle returns the connection type, treating an empty type as solid.
func (c Connection) LineStyle() LineType {
	if c.Type == "" {
		return LineSolid
	}
	return c.Type
}

// Touches reports whether either end of the connection is on the given device.
func (c Connection) Touches(deviceID ID) bool {
	return c.SourceDeviceID == deviceID || c.TargetDeviceID == deviceID
}

// InterfaceOn returns the interface name this connection occupies on the device, if any.
func (c Connection) InterfaceOn(deviceID ID) (string, bool) {
	switch deviceID {
	case c.SourceDeviceID:
		return c.SourceInterface.Name, true
	case c.TargetDeviceID:
		return c.TargetInterface.Name, true
	}
	return "", false
}

// PendingConnection is a half-made connection waiting for its target interface
type PendingConnection struct {
	SourceDeviceID  ID        `json:"sourceDeviceId"`
	SourceInterface Interface `json:"sourceInterface"`
	Type            LineType  `json:"type"`
}

// RecentDocument records the last time a config document was opened or saved
type RecentDocument struct {
	Path            string    // Absolute path of the config file
	LastAction      string    // "load" or "save"
	DeviceCount     int       // Devices in the document at that time
	ConnectionCount int       // Connections in the document at that time
	AccessedAt      time.Time // When the action happened
}
