package domain

import "fmt"

// LineType is the rendering style of a connection
type LineType string

const (
	LineSolid  LineType = "solid"
	LineDashed LineType = "dashed"
	LineDotted LineType = "dotted"
	LineCurved LineType = "curved"
	LineAngled LineType = "angled"
)

// LineTypes lists every supported style in palette order.
var LineTypes = []LineType{LineSolid, LineDashed, LineDotted, LineCurved, LineAngled}

// Valid reports whether t is a known style. The empty type is valid and renders as solid.
func (t LineType) Valid() bool {
	if t == "" {
		return true
	}
	for _, known := range LineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseLineType converts s into a LineType, rejecting unknown styles.
func ParseLineType(s string) (LineType, error) {
	t := LineType(s)
	if s == "" || !t.Valid() {
		return "", fmt.Errorf("unknown line type %q", s)
	}
	return t, nil
}
