package topology

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/notify"
)

// User-facing notification messages.
const (
	MsgInterfaceInUse     = "This interface is already in use"
	MsgConnectionCreated  = "Connection created successfully"
	MsgConnectionSelected = "Connection selected - Choose a connection type to change it"
	MsgTypeUpdated        = "Connection type updated"
	MsgColorUpdated       = "Connection color updated"
	MsgDeviceDeleted      = "Device deleted"
	MsgConnectionDeleted  = "Connection deleted"
)

// WiringState is the state of the two-click connection handshake.
type WiringState string

const (
	// WiringIdle means no connection is being drawn.
	WiringIdle WiringState = "idle"
	// WiringAwaitingTarget means a source interface is picked and the next
	// interface picked on another device completes the connection.
	WiringAwaitingTarget WiringState = "awaiting_target"
)

// Button is a pointer button as numbered by browsers.
type Button int

const (
	ButtonLeft   Button = 0
	ButtonMiddle Button = 1
	ButtonRight  Button = 2
)

// State is a snapshot of the editor's interaction state
type State struct {
	Selected     domain.ID                 `json:"selectedConnectionId,omitempty"`
	Wiring       WiringState               `json:"wiring"`
	Pending      *domain.PendingConnection `json:"pendingConnection,omitempty"`
	EditingType  domain.LineType           `json:"editingType"`
	EditingColor string                    `json:"editingColor"`
	Viewport     Viewport                  `json:"viewport"`
	Dragging     domain.ID                 `json:"dragging,omitempty"`
	Dirty        bool                      `json:"dirty"`
}

type drag struct {
	device  domain.ID
	pointer domain.Point
	origin  domain.Point
}

// Editor drives a Store through user gestures: connection selection, the
// interface handshake, palette drops, drags and the viewport. All methods
// are safe for concurrent use.
type Editor struct {
	mu       sync.Mutex
	store    *Store
	notifier notify.Notifier

	selected     domain.ID
	pending      *domain.PendingConnection
	editingType  domain.LineType
	editingColor string
	viewport     Viewport
	drag         *drag
}

// NewEditor creates an editor over store. A nil notifier discards notifications.
func NewEditor(store *Store, notifier notify.Notifier) *Editor {
	if store == nil {
		store = NewStore()
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Editor{
		store:       store,
		notifier:    notifier,
		editingType: domain.LineSolid,
		viewport:    DefaultViewport(),
	}
}

// Store returns the underlying store.
func (e *Editor) Store() *Store { return e.store }

// State returns a snapshot of the interaction state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

func (e *Editor) state() State {
	s := State{
		Selected:     e.selected,
		Wiring:       WiringIdle,
		EditingType:  e.editingType,
		EditingColor: e.editingColor,
		Viewport:     e.viewport,
		Dirty:        e.store.Dirty(),
	}
	if e.pending != nil {
		p := *e.pending
		s.Pending = &p
		s.Wiring = WiringAwaitingTarget
	}
	if e.drag != nil {
		s.Dragging = e.drag.device
	}
	return s
}

// Reset loads doc into the store and clears selection, handshake and drag.
func (e *Editor) Reset(doc domain.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Replace(doc)
	e.selected = ""
	e.pending = nil
	e.drag = nil
}

// ClickConnection toggles the selection of a connection. Selecting adopts
// the connection's type and color as the editing values.
func (e *Editor) ClickConnection(id domain.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selected == id {
		e.selected = ""
		return nil
	}

	c, ok := e.store.Connection(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	e.selected = id
	if c.Type != "" {
		e.editingType = c.Type
	}
	if c.Color != "" {
		e.editingColor = c.Color
	}
	e.notifier.Notify(notify.KindInfo, MsgConnectionSelected)
	return nil
}

// ClickCanvas deselects the selected connection and abandons any pending connection.
func (e *Editor) ClickCanvas() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selected = ""
	e.pending = nil
}

// SetEditingType sets the type used for new connections and applies it to
// the selected connection, if any.
func (e *Editor) SetEditingType(t domain.LineType) error {
	if _, err := domain.ParseLineType(string(t)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLineType, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.editingType = t
	if e.pending != nil {
		e.pending.Type = t
	}
	if e.selected == "" {
		return nil
	}
	if _, err := e.store.UpdateConnection(e.selected, ConnectionPatch{Type: &t}); err != nil {
		return err
	}
	e.notifier.Notify(notify.KindSuccess, MsgTypeUpdated)
	return nil
}

// SetEditingColor sets the color used for new connections and applies it to
// the selected connection, if any.
func (e *Editor) SetEditingColor(color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		return fmt.Errorf("%w: color is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.editingColor = color
	if e.selected == "" {
		return nil
	}
	if _, err := e.store.UpdateConnection(e.selected, ConnectionPatch{Color: &color}); err != nil {
		return err
	}
	e.notifier.Notify(notify.KindSuccess, MsgColorUpdated)
	return nil
}

// SelectInterface advances the connection handshake with an interface
// picked on a device. It returns the connection when one was completed.
//
// Picking an interface that already carries a connection raises an error
// notification and leaves the state unchanged. Picking on the pending
// source device again is ignored.
func (e *Editor) SelectInterface(deviceID domain.ID, iface domain.Interface) (*domain.Connection, error) {
	if iface.Name == "" {
		return nil, fmt.Errorf("%w: interface name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.store.Device(deviceID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if _, used := e.store.UsedInterfaces(deviceID)[iface.Name]; used {
		e.notifier.Notify(notify.KindError, MsgInterfaceInUse)
		return nil, fmt.Errorf("%w: %s on %s", ErrInterfaceInUse, iface.Name, deviceID)
	}

	if e.pending == nil {
		e.pending = &domain.PendingConnection{
			SourceDeviceID:  deviceID,
			SourceInterface: iface,
			Type:            e.editingType,
		}
		return nil, nil
	}

	if e.pending.SourceDeviceID == deviceID {
		return nil, nil
	}

	c, err := e.store.AddConnection(domain.Connection{
		SourceDeviceID:  e.pending.SourceDeviceID,
		TargetDeviceID:  deviceID,
		SourceInterface: e.pending.SourceInterface,
		TargetInterface: iface,
		Type:            e.pending.Type,
		Color:           e.editingColor,
	})
	if err != nil {
		// The source end went away or got claimed while waiting.
		e.pending = nil
		if errors.Is(err, ErrInterfaceInUse) {
			e.notifier.Notify(notify.KindError, MsgInterfaceInUse)
		}
		return nil, err
	}

	e.pending = nil
	e.notifier.Notify(notify.KindSuccess, MsgConnectionCreated)
	return &c, nil
}

// DropDevice creates a device from a palette drop. client is the pointer
// position and container the canvas origin, both in screen pixels. Empty
// icon and label fall back to the built-in palette entry for kind.
func (e *Editor) DropDevice(kind, icon, label string, client, container domain.Point) (domain.Device, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return domain.Device{}, fmt.Errorf("%w: device type is required", ErrInvalidInput)
	}

	entry, known := domain.LookupPalette(kind)
	if known {
		icon = entry.Icon
	}
	if label == "" {
		label = entry.Label
	}
	if label == "" {
		label = kind
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.viewport.ToCanvas(client, container)
	d, err := e.store.AddDevice(domain.Device{
		Type:  kind,
		Icon:  icon,
		Label: label,
		X:     pos.X,
		Y:     pos.Y,
	})
	if err != nil {
		return domain.Device{}, err
	}
	e.notifier.Notify(notify.KindSuccess, fmt.Sprintf("Added new %s device", kind))
	return d, nil
}

// UpdateDevice applies a patch to a device.
func (e *Editor) UpdateDevice(id domain.ID, p DevicePatch) (domain.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.UpdateDevice(id, p)
}

// DeleteDevice removes a device with its connections and drops any
// selection, handshake or drag that referred to it.
func (e *Editor) DeleteDevice(id domain.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err := e.store.DeleteDevice(id)
	if err != nil {
		return err
	}
	for _, cid := range removed {
		if cid == e.selected {
			e.selected = ""
		}
	}
	if e.pending != nil && e.pending.SourceDeviceID == id {
		e.pending = nil
	}
	if e.drag != nil && e.drag.device == id {
		e.drag = nil
	}
	e.notifier.Notify(notify.KindSuccess, MsgDeviceDeleted)
	return nil
}

// UpdateConnection applies a patch to a connection.
func (e *Editor) UpdateConnection(id domain.ID, p ConnectionPatch) (domain.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.UpdateConnection(id, p)
}

// DeleteConnection removes a connection and drops its selection.
func (e *Editor) DeleteConnection(id domain.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteConnection(id); err != nil {
		return err
	}
	if e.selected == id {
		e.selected = ""
	}
	e.notifier.Notify(notify.KindSuccess, MsgConnectionDeleted)
	return nil
}

// BeginDrag starts moving a device. Right-button drags are ignored and
// report false.
func (e *Editor) BeginDrag(id domain.ID, pointer domain.Point, button Button) (bool, error) {
	if button == ButtonRight {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.store.Device(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	e.drag = &drag{
		device:  id,
		pointer: pointer,
		origin:  domain.Point{X: d.X, Y: d.Y},
	}
	return true, nil
}

// DragTo moves the dragged device with the pointer. Pointer movement is in
// screen pixels and is divided by the zoom.
func (e *Editor) DragTo(pointer domain.Point) (domain.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moveDragged(pointer)
}

// EndDrag moves the dragged device to its final position and ends the drag.
func (e *Editor) EndDrag(pointer domain.Point) (domain.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := e.moveDragged(pointer)
	e.drag = nil
	return d, err
}

func (e *Editor) moveDragged(pointer domain.Point) (domain.Device, error) {
	if e.drag == nil {
		return domain.Device{}, ErrNoDrag
	}
	dx, dy := e.viewport.ScaleDelta(pointer.X-e.drag.pointer.X, pointer.Y-e.drag.pointer.Y)
	x, y := e.drag.origin.X+dx, e.drag.origin.Y+dy
	return e.store.UpdateDevice(e.drag.device, DevicePatch{X: &x, Y: &y})
}

// Viewport returns the current zoom and pan.
func (e *Editor) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// SetZoomPercent sets the zoom level.
func (e *Editor) SetZoomPercent(p float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport.SetZoomPercent(p)
}

// Pan shifts the view.
func (e *Editor) Pan(dx, dy float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport.Pan(dx, dy)
}

// Snapshot returns the current document together with the interaction
// state, read under one lock.
func (e *Editor) Snapshot() (domain.Document, State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Document(), e.state()
}
