package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Document is the persisted form of a diagram
type Document struct {
	Devices     []Device     `json:"devices"`
	Connections []Connection `json:"connections"`
}

// EmptyDocument returns a document with no devices and no connections.
func EmptyDocument() Document {
	return Document{Devices: []Device{}, Connections: []Connection{}}
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (d Document) Normalize() Document {
	if d.Devices == nil {
		d.Devices = []Device{}
	}
	if d.Connections == nil {
		d.Connections = []Connection{}
	}
	return d
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Devices:     append([]Device{}, d.Devices...),
		Connections: make([]Connection, len(d.Connections)),
	}
	for i, c := range d.Connections {
		if c.ControlPoints != nil {
			c.ControlPoints = append([]Point{}, c.ControlPoints...)
		}
		c.SourceInterface.Extra = maps.Clone(c.SourceInterface.Extra)
		c.TargetInterface.Extra = maps.Clone(c.TargetInterface.Extra)
		out.Connections[i] = c
	}
	return out
}

// Encode serializes the document as JSON indented with two spaces.
func (d Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d.Normalize(), "", "  ")
}

// DecodeDocument parses data into a document. Empty or whitespace-only input
// yields an empty document.
func DecodeDocument(data []byte) (Document, error) {
	if strings.TrimSpace(string(data)) == "" {
		return EmptyDocument(), nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return EmptyDocument(), err
	}
	return doc.Normalize(), nil
}

// DeviceIndex maps device ids to their position in Devices.
func (d Document) DeviceIndex() map[ID]int {
	idx := make(map[ID]int, len(d.Devices))
	for i, dev := range d.Devices {
		idx[dev.ID] = i
	}
	return idx
}

// Problem describes one structural defect found by Validate
type Problem struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	ProblemDuplicateDevice     = "duplicate_device"
	ProblemDuplicateConnection = "duplicate_connection"
	ProblemOrphanConnection    = "orphan_connection"
	ProblemInterfaceReused     = "interface_reused"
	ProblemInvalidLineType     = "invalid_line_type"
	ProblemMissingID           = "missing_id"
)

// ValidationError collects every problem found in a document
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Message
	}
	return "invalid document: " + strings.Join(msgs, "; ")
}

// Problems lists structural defects: duplicate ids, connections whose devices
// are missing, interfaces claimed by more than one connection and unknown
// line types.
func (d Document) Problems() []Problem {
	var problems []Problem
	add := func(kind, format string, args ...any) {
		problems = append(problems, Problem{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	devices := make(map[ID]bool, len(d.Devices))
	for _, dev := range d.Devices {
		if dev.ID == "" {
			add(ProblemMissingID, "device of type %q has no id", dev.Type)
			continue
		}
		if devices[dev.ID] {
			add(ProblemDuplicateDevice, "device %s appears more than once", dev.ID)
		}
		devices[dev.ID] = true
	}

	type claim struct {
		device ID
		iface  string
	}
	connections := make(map[ID]bool, len(d.Connections))
	claims := make(map[claim]ID)
	for _, c := range d.Connections {
		if c.ID == "" {
			add(ProblemMissingID, "connection between %s and %s has no id", c.SourceDeviceID, c.TargetDeviceID)
		} else if connections[c.ID] {
			add(ProblemDuplicateConnection, "connection %s appears more than once", c.ID)
		}
		connections[c.ID] = true

		if !devices[c.SourceDeviceID] || !devices[c.TargetDeviceID] {
			add(ProblemOrphanConnection, "connection %s references a missing device", c.ID)
		}
		if !c.Type.Valid() {
			add(ProblemInvalidLineType, "connection %s has unknown type %q", c.ID, c.Type)
		}
		for _, k := range []claim{
			{c.SourceDeviceID, c.SourceInterface.Name},
			{c.TargetDeviceID, c.TargetInterface.Name},
		} {
			if k.iface == "" {
				continue
			}
			if other, ok := claims[k]; ok {
				add(ProblemInterfaceReused, "interface %s on device %s is used by connections %s and %s", k.iface, k.device, other, c.ID)
				continue
			}
			claims[k] = c.ID
		}
	}
	return problems
}

// Validate returns a *ValidationError when the document has structural problems.
func (d Document) Validate() error {
	if problems := d.Problems(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValidationError reports whether err carries document problems.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
