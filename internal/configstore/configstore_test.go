package configstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

func routerSwitchDocument() domain.Document {
	return domain.Document{
		Devices: []domain.Device{
			{ID: "A", Type: "router", Icon: "/icons/router.svg", X: 100, Y: 100},
			{ID: "B", Type: "switch", Icon: "/icons/switch.svg", X: 300, Y: 100},
		},
		Connections: []domain.Connection{
			{
				ID:              "C",
				SourceDeviceID:  "A",
				TargetDeviceID:  "B",
				SourceInterface: domain.Interface{Name: "eth0"},
				TargetInterface: domain.Interface{Name: "eth0"},
				Type:            domain.LineSolid,
			},
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	doc := routerSwitchDocument()

	require.NoError(t, store.Save(context.Background(), path, doc))

	loaded, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), path, loaded))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestStore_ResaveKeepsInterfaceMetadata(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	original := `{
  "devices": [
    {
      "id": 1,
      "type": "router",
      "icon": "r.svg",
      "x": 0,
      "y": 0
    },
    {
      "id": 2,
      "type": "switch",
      "icon": "s.svg",
      "x": 200,
      "y": 0
    }
  ],
  "connections": [
    {
      "id": 3,
      "sourceDeviceId": 1,
      "targetDeviceId": 2,
      "sourceInterface": {
        "name": "Gi0/0",
        "description": "uplink",
        "speed": "1G"
      },
      "targetInterface": {
        "name": "Gi0/1"
      },
      "controlPoints": []
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	loaded, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), path, loaded))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestStore_LoadEmptyFile(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	doc, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyDocument(), doc)
}

func TestStore_LoadInvalidJSON(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	doc, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, doc.Devices)
	assert.Empty(t, doc.Connections)
}

func TestStore_LoadMissing(t *testing.T) {
	store := New()
	dir := t.TempDir()

	_, err := store.Load(context.Background(), filepath.Join(dir, "nope.json"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Load(context.Background(), filepath.Join(dir, "missing", "cfg.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadDirectoryIsIOError(t *testing.T) {
	store := New()
	_, err := store.Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrIO)
}

func TestStore_SaveMissingDirectory(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "missing", "cfg.json")

	err := store.Save(context.Background(), path, domain.EmptyDocument())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveRejectsOrphans(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	doc := routerSwitchDocument()
	doc.Devices = doc.Devices[:1]

	err := store.Save(context.Background(), path, doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.True(t, domain.IsValidationError(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_SaveOverwritesAndKeepsMode(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, store.Save(context.Background(), path, domain.EmptyDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"devices\": [],\n  \"connections\": []\n}", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_CancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx, filepath.Join(t.TempDir(), "cfg.json"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentSavesProduceValidFile(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "cfg.json")
	doc := routerSwitchDocument()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := doc.Clone()
			d.Devices[0].X = float64(i)
			assert.NoError(t, store.Save(context.Background(), path, d))
		}(i)
	}
	wg.Wait()

	loaded, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, loaded.Devices, 2)
	assert.Len(t, loaded.Connections, 1)
}
