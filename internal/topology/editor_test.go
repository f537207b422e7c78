package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/notify"
)

type recorded struct {
	kind    notify.Kind
	message string
}

type recorder struct {
	events []recorded
}

func (r *recorder) Notify(kind notify.Kind, message string) {
	r.events = append(r.events, recorded{kind, message})
}

func (r *recorder) last() recorded {
	if len(r.events) == 0 {
		return recorded{}
	}
	return r.events[len(r.events)-1]
}

func newTestEditor(t *testing.T) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewEditor(seedStore(t), rec), rec
}

func eth(name string) domain.Interface { return domain.Interface{Name: name} }

func TestEditor_RouterSwitchScenario(t *testing.T) {
	rec := &recorder{}
	e := NewEditor(NewStore(), rec)

	a, err := e.DropDevice("router", "", "", domain.Point{X: 100, Y: 100}, domain.Point{})
	require.NoError(t, err)
	b, err := e.DropDevice("switch", "", "", domain.Point{X: 300, Y: 100}, domain.Point{})
	require.NoError(t, err)
	assert.Equal(t, recorded{notify.KindSuccess, "Added new switch device"}, rec.last())
	assert.Equal(t, "Router", a.Label)
	assert.Equal(t, 100.0, a.X)

	c, err := e.SelectInterface(a.ID, eth("eth0"))
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Equal(t, WiringAwaitingTarget, e.State().Wiring)

	c, err = e.SelectInterface(b.ID, eth("eth0"))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, a.ID, c.SourceDeviceID)
	assert.Equal(t, b.ID, c.TargetDeviceID)
	assert.Equal(t, domain.LineSolid, c.Type)
	assert.Equal(t, recorded{notify.KindSuccess, MsgConnectionCreated}, rec.last())
	assert.Equal(t, WiringIdle, e.State().Wiring)

	// Wiring the same pair again is rejected with an error notification.
	_, err = e.SelectInterface(a.ID, eth("eth0"))
	assert.ErrorIs(t, err, ErrInterfaceInUse)
	assert.Equal(t, recorded{notify.KindError, MsgInterfaceInUse}, rec.last())
	assert.Len(t, e.Store().Connections(), 1)
	assert.Equal(t, WiringIdle, e.State().Wiring)
}

func TestEditor_UsedTargetKeepsPending(t *testing.T) {
	e, rec := newTestEditor(t)
	_, err := e.Store().AddConnection(link("1", "B", "eth0", "C", "eth0"))
	require.NoError(t, err)

	_, err = e.SelectInterface("A", eth("eth0"))
	require.NoError(t, err)

	_, err = e.SelectInterface("B", eth("eth0"))
	assert.ErrorIs(t, err, ErrInterfaceInUse)
	assert.Equal(t, notify.KindError, rec.last().kind)

	st := e.State()
	assert.Equal(t, WiringAwaitingTarget, st.Wiring)
	require.NotNil(t, st.Pending)
	assert.Equal(t, domain.ID("A"), st.Pending.SourceDeviceID)
}

func TestEditor_SameDeviceIgnored(t *testing.T) {
	e, rec := newTestEditor(t)

	_, err := e.SelectInterface("A", eth("eth0"))
	require.NoError(t, err)
	c, err := e.SelectInterface("A", eth("eth1"))
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Empty(t, rec.events)

	st := e.State()
	require.NotNil(t, st.Pending)
	assert.Equal(t, "eth0", st.Pending.SourceInterface.Name)
	assert.Empty(t, e.Store().Connections())
}

func TestEditor_SelectInterfaceUnknownDevice(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.SelectInterface("Z", eth("eth0"))
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = e.SelectInterface("A", eth(""))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEditor_ClickCanvasCancelsPending(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.SelectInterface("A", eth("eth0"))
	require.NoError(t, err)

	e.ClickCanvas()
	assert.Equal(t, WiringIdle, e.State().Wiring)
}

func TestEditor_ConnectionSelection(t *testing.T) {
	e, rec := newTestEditor(t)
	c := link("1", "A", "eth0", "B", "eth0")
	c.Type = domain.LineDashed
	c.Color = "#00ff00"
	_, err := e.Store().AddConnection(c)
	require.NoError(t, err)

	require.NoError(t, e.ClickConnection("1"))
	st := e.State()
	assert.Equal(t, domain.ID("1"), st.Selected)
	assert.Equal(t, domain.LineDashed, st.EditingType)
	assert.Equal(t, "#00ff00", st.EditingColor)
	assert.Equal(t, recorded{notify.KindInfo, MsgConnectionSelected}, rec.last())

	require.NoError(t, e.SetEditingType(domain.LineCurved))
	got, _ := e.Store().Connection("1")
	assert.Equal(t, domain.LineCurved, got.Type)
	assert.Equal(t, recorded{notify.KindSuccess, MsgTypeUpdated}, rec.last())

	require.NoError(t, e.SetEditingColor("#123456"))
	got, _ = e.Store().Connection("1")
	assert.Equal(t, "#123456", got.Color)

	// Clicking again deselects.
	require.NoError(t, e.ClickConnection("1"))
	assert.Empty(t, e.State().Selected)

	require.NoError(t, e.ClickConnection("1"))
	e.ClickCanvas()
	assert.Empty(t, e.State().Selected)

	assert.ErrorIs(t, e.ClickConnection("nope"), ErrConnectionNotFound)
}

func TestEditor_SetEditingTypeWithoutSelection(t *testing.T) {
	e, rec := newTestEditor(t)

	require.NoError(t, e.SetEditingType(domain.LineAngled))
	assert.Empty(t, rec.events)
	assert.ErrorIs(t, e.SetEditingType("zigzag"), ErrInvalidLineType)
	assert.ErrorIs(t, e.SetEditingColor(" "), ErrInvalidInput)

	_, err := e.SelectInterface("A", eth("eth0"))
	require.NoError(t, err)
	c, err := e.SelectInterface("B", eth("eth0"))
	require.NoError(t, err)
	assert.Equal(t, domain.LineAngled, c.Type)
}

func TestEditor_DeleteDeviceClearsState(t *testing.T) {
	e, rec := newTestEditor(t)
	_, err := e.Store().AddConnection(link("1", "A", "eth0", "B", "eth0"))
	require.NoError(t, err)

	require.NoError(t, e.ClickConnection("1"))
	_, err = e.SelectInterface("A", eth("eth1"))
	require.NoError(t, err)

	require.NoError(t, e.DeleteDevice("A"))
	st := e.State()
	assert.Empty(t, st.Selected)
	assert.Nil(t, st.Pending)
	assert.Empty(t, e.Store().Connections())
	assert.Equal(t, recorded{notify.KindSuccess, MsgDeviceDeleted}, rec.last())

	assert.ErrorIs(t, e.DeleteDevice("A"), ErrDeviceNotFound)
}

func TestEditor_DeleteConnection(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.Store().AddConnection(link("1", "A", "eth0", "B", "eth0"))
	require.NoError(t, err)
	require.NoError(t, e.ClickConnection("1"))

	require.NoError(t, e.DeleteConnection("1"))
	assert.Empty(t, e.State().Selected)
	assert.ErrorIs(t, e.DeleteConnection("1"), ErrConnectionNotFound)
}

func TestEditor_DropUsesZoom(t *testing.T) {
	e, _ := newTestEditor(t)
	require.NoError(t, e.SetZoomPercent(200))

	d, err := e.DropDevice("widget", "/icons/widget.svg", "", domain.Point{X: 250, Y: 150}, domain.Point{X: 50, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, 100.0, d.X)
	assert.Equal(t, 50.0, d.Y)
	assert.Equal(t, "widget", d.Label)
	assert.Equal(t, "/icons/widget.svg", d.Icon)

	_, err = e.DropDevice("", "", "", domain.Point{}, domain.Point{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEditor_Drag(t *testing.T) {
	e, _ := newTestEditor(t)
	require.NoError(t, e.SetZoomPercent(50))

	ok, err := e.BeginDrag("A", domain.Point{X: 10, Y: 10}, ButtonRight)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = e.DragTo(domain.Point{X: 20, Y: 20})
	assert.ErrorIs(t, err, ErrNoDrag)

	ok, err = e.BeginDrag("A", domain.Point{X: 10, Y: 10}, ButtonLeft)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.ID("A"), e.State().Dragging)

	d, err := e.DragTo(domain.Point{X: 20, Y: 15})
	require.NoError(t, err)
	assert.Equal(t, 120.0, d.X)
	assert.Equal(t, 110.0, d.Y)

	d, err = e.EndDrag(domain.Point{X: 30, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, 140.0, d.X)
	assert.Equal(t, 100.0, d.Y)
	assert.Empty(t, e.State().Dragging)

	_, err = e.BeginDrag("Z", domain.Point{}, ButtonLeft)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestEditor_ResetClearsInteraction(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.SelectInterface("A", eth("eth0"))
	require.NoError(t, err)

	e.Reset(domain.EmptyDocument())
	doc, st := e.Snapshot()
	assert.Empty(t, doc.Devices)
	assert.Nil(t, st.Pending)
	assert.False(t, st.Dirty)
}
