// Package topology holds the in-memory device/connection graph being edited
// and the editor state machines that drive it.
package topology

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

// DevicePatch holds optional device field updates
type DevicePatch struct {
	Type  *string  `json:"type,omitempty"`
	Icon  *string  `json:"icon,omitempty"`
	Label *string  `json:"label,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// ConnectionPatch holds optional connection field updates
type ConnectionPatch struct {
	Type          *domain.LineType `json:"type,omitempty"`
	Color         *string          `json:"color,omitempty"`
	ControlPoints *[]domain.Point  `json:"controlPoints,omitempty"`
}

// Store is the device and connection list of one open document. Every
// mutation swaps in a new slice, so slices handed out earlier never change.
type Store struct {
	mu          sync.RWMutex
	devices     []domain.Device
	connections []domain.Connection
	dirty       bool
}

// NewStore creates an empty, clean store.
func NewStore() *Store {
	return &Store{
		devices:     []domain.Device{},
		connections: []domain.Connection{},
	}
}

// AddDevice appends a device, assigning an id when it has none.
func (s *Store) AddDevice(d domain.Device) (domain.Device, error) {
	if strings.TrimSpace(d.Type) == "" {
		return domain.Device{}, fmt.Errorf("%w: device type is required", ErrInvalidInput)
	}
	if !finite(d.X) || !finite(d.Y) {
		return domain.Device{}, fmt.Errorf("%w: device position must be finite", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = domain.NewID()
	}
	if s.deviceIndex(d.ID) >= 0 {
		return domain.Device{}, fmt.Errorf("%w: device %s", ErrDuplicateID, d.ID)
	}

	next := make([]domain.Device, len(s.devices), len(s.devices)+1)
	copy(next, s.devices)
	s.devices = append(next, d)
	s.dirty = true
	return d, nil
}

// UpdateDevice applies a patch to a device.
func (s *Store) UpdateDevice(id domain.ID, p DevicePatch) (domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deviceIndex(id)
	if i < 0 {
		return domain.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	d := s.devices[i]
	if p.Type != nil {
		if strings.TrimSpace(*p.Type) == "" {
			return domain.Device{}, fmt.Errorf("%w: device type is required", ErrInvalidInput)
		}
		d.Type = *p.Type
	}
	if p.Icon != nil {
		d.Icon = *p.Icon
	}
	if p.Label != nil {
		d.Label = *p.Label
	}
	if p.X != nil {
		d.X = *p.X
	}
	if p.Y != nil {
		d.Y = *p.Y
	}
	if !finite(d.X) || !finite(d.Y) {
		return domain.Device{}, fmt.Errorf("%w: device position must be finite", ErrInvalidInput)
	}

	next := slices.Clone(s.devices)
	next[i] = d
	s.devices = next
	s.dirty = true
	return d, nil
}

// DeleteDevice removes a device and every connection touching it. It returns
// the ids of the removed connections.
func (s *Store) DeleteDevice(id domain.ID) ([]domain.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deviceIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	next := make([]domain.Device, 0, len(s.devices)-1)
	next = append(next, s.devices[:i]...)
	s.devices = append(next, s.devices[i+1:]...)
	removed := s.dropConnections(id)
	s.dirty = true
	return removed, nil
}

// AddConnection appends a connection after checking that both devices exist
// and neither interface is already claimed. On error the list is unchanged.
func (s *Store) AddConnection(c domain.Connection) (domain.Connection, error) {
	if !c.Type.Valid() {
		return domain.Connection{}, fmt.Errorf("%w: %q", ErrInvalidLineType, c.Type)
	}
	if c.SourceInterface.Name == "" || c.TargetInterface.Name == "" {
		return domain.Connection{}, fmt.Errorf("%w: interface name is required", ErrInvalidInput)
	}
	if c.SourceDeviceID == c.TargetDeviceID {
		return domain.Connection{}, ErrSameDevice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = domain.NewID()
	}
	if s.connectionIndex(c.ID) >= 0 {
		return domain.Connection{}, fmt.Errorf("%w: connection %s", ErrDuplicateID, c.ID)
	}
	for _, end := range []domain.ID{c.SourceDeviceID, c.TargetDeviceID} {
		if s.deviceIndex(end) < 0 {
			return domain.Connection{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, end)
		}
	}
	if s.interfaceUsed(c.SourceDeviceID, c.SourceInterface.Name) {
		return domain.Connection{}, fmt.Errorf("%w: %s on %s", ErrInterfaceInUse, c.SourceInterface.Name, c.SourceDeviceID)
	}
	if s.interfaceUsed(c.TargetDeviceID, c.TargetInterface.Name) {
		return domain.Connection{}, fmt.Errorf("%w: %s on %s", ErrInterfaceInUse, c.TargetInterface.Name, c.TargetDeviceID)
	}

	c.ControlPoints = slices.Clone(c.ControlPoints)
	next := make([]domain.Connection, len(s.connections), len(s.connections)+1)
	copy(next, s.connections)
	s.connections = append(next, c)
	s.dirty = true
	return c, nil
}

// UpdateConnection applies a patch to a connection.
func (s *Store) UpdateConnection(id domain.ID, p ConnectionPatch) (domain.Connection, error) {
	if p.Type != nil && !p.Type.Valid() {
		return domain.Connection{}, fmt.Errorf("%w: %q", ErrInvalidLineType, *p.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.connectionIndex(id)
	if i < 0 {
		return domain.Connection{}, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}

	c := s.connections[i]
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.ControlPoints != nil {
		c.ControlPoints = slices.Clone(*p.ControlPoints)
	}

	next := slices.Clone(s.connections)
	next[i] = c
	s.connections = next
	s.dirty = true
	return c, nil
}

// DeleteConnection removes one connection.
func (s *Store) DeleteConnection(id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.connectionIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}

	next := make([]domain.Connection, 0, len(s.connections)-1)
	next = append(next, s.connections[:i]...)
	s.connections = append(next, s.connections[i+1:]...)
	s.dirty = true
	return nil
}

// DeleteConnectionsForDevice removes every connection touching a device and
// returns their ids.
func (s *Store) DeleteConnectionsForDevice(deviceID domain.ID) []domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.dropConnections(deviceID)
	s.dirty = true
	return removed
}

// UsedInterfaces returns the interface names on a device that already carry a connection.
func (s *Store) UsedInterfaces(deviceID domain.ID) map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	used := make(map[string]struct{})
	for _, c := range s.connections {
		if name, ok := c.InterfaceOn(deviceID); ok {
			used[name] = struct{}{}
		}
	}
	return used
}

// Device returns a device by id.
func (s *Store) Device(id domain.ID) (domain.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.deviceIndex(id); i >= 0 {
		return s.devices[i], true
	}
	return domain.Device{}, false
}

// Connection returns a connection by id.
func (s *Store) Connection(id domain.ID) (domain.Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.connectionIndex(id); i >= 0 {
		c := s.connections[i]
		c.ControlPoints = slices.Clone(c.ControlPoints)
		return c, true
	}
	return domain.Connection{}, false
}

// Devices returns a copy of the device list.
func (s *Store) Devices() []domain.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.devices)
}

// Connections returns a copy of the connection list.
func (s *Store) Connections() []domain.Connection {
	return s.Document().Connections
}

// Document returns a deep copy of the current graph.
func (s *Store) Document() domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Document{Devices: s.devices, Connections: s.connections}.Clone()
}

// Replace swaps in a whole document, as after a load, and marks the store clean.
func (s *Store) Replace(doc domain.Document) {
	doc = doc.Normalize().Clone()

	s.mu.Lock()
	s.devices = doc.Devices
	s.connections = doc.Connections
	s.dirty = false
	s.mu.Unlock()
}

// Dirty reports whether the store changed since the last load or save.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkSaved clears the unsaved-changes flag.
func (s *Store) MarkSaved() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// MarkSavedIf clears the unsaved-changes flag only when the store still
// holds exactly the snapshot that was saved.
func (s *Store) MarkSavedIf(saved domain.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sameDevices(s.devices, saved.Devices) || !sameConnections(s.connections, saved.Connections) {
		return false
	}
	s.dirty = false
	return true
}

// dropConnections removes connections touching deviceID. Callers must hold mu.
func (s *Store) dropConnections(deviceID domain.ID) []domain.ID {
	removed := []domain.ID{}
	next := make([]domain.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		if c.Touches(deviceID) {
			removed = append(removed, c.ID)
			continue
		}
		next = append(next, c)
	}
	s.connections = next
	return removed
}

func (s *Store) interfaceUsed(deviceID domain.ID, name string) bool {
	for _, c := range s.connections {
		if n, ok := c.InterfaceOn(deviceID); ok && n == name {
			return true
		}
	}
	return false
}

func (s *Store) deviceIndex(id domain.ID) int {
	return slices.IndexFunc(s.devices, func(d domain.Device) bool { return d.ID == id })
}

func (s *Store) connectionIndex(id domain.ID) int {
	return slices.IndexFunc(s.connections, func(c domain.Connection) bool { return c.ID == id })
}

func sameDevices(a, b []domain.Device) bool {
	return slices.Equal(a, b)
}

func sameConnections(a, b []domain.Connection) bool {
	return slices.EqualFunc(a, b, func(x, y domain.Connection) bool {
		return x.ID == y.ID &&
			x.SourceDeviceID == y.SourceDeviceID &&
			x.TargetDeviceID == y.TargetDeviceID &&
			x.SourceInterface.Equal(y.SourceInterface) &&
			x.TargetInterface.Equal(y.TargetInterface) &&
			x.Type == y.Type &&
			x.Color == y.Color &&
			slices.Equal(x.ControlPoints, y.ControlPoints)
	})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
