package topology

import "errors"

var (
	// ErrDeviceNotFound is returned when a device id is unknown
	ErrDeviceNotFound = errors.New("device not found")

	// ErrConnectionNotFound is returned when a connection id is unknown
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrDuplicateID is returned when adding an element whose id is already taken
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInterfaceInUse is returned when an interface already carries a connection
	ErrInterfaceInUse = errors.New("interface already in use")

	// ErrInvalidLineType is returned for unknown connection types
	ErrInvalidLineType = errors.New("invalid line type")

	// ErrSameDevice is returned when both ends of a connection are on one device
	ErrSameDevice = errors.New("connection endpoints must be different devices")

	// ErrInvalidInput is returned for missing or malformed fields
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDrag is returned when moving or ending a drag that never began
	ErrNoDrag = errors.New("no drag in progress")
)
