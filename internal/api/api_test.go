package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/netmap/internal/catalog"
	"github.com/jbweber/homelab/netmap/internal/configstore"
	"github.com/jbweber/homelab/netmap/internal/datastore"
	"github.com/jbweber/homelab/netmap/internal/notify"
	"github.com/jbweber/homelab/netmap/internal/repository"
	"github.com/jbweber/homelab/netmap/internal/sandbox"
	"github.com/jbweber/homelab/netmap/internal/testutil"
	"github.com/jbweber/homelab/netmap/internal/workspace"
)

type testEnv struct {
	home     string
	notes    *notify.Service
	ws       *workspace.Workspace
	recent   repository.RecentDocumentRepository
	iconsDir string
}

func setupTestAPI(t *testing.T) (*chi.Mux, *testEnv) {
	t.Helper()

	home := testutil.TempHome(t)
	guard, err := sandbox.New(home)
	require.NoError(t, err)

	// Create test datastore
	testDS, err := datastore.New(testutil.NewTestDSN(t.Name()))
	if err != nil {
		t.Fatalf("Failed to create test datastore: %v", err)
	}
	testDS.DB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDS.Close() })
	recent := repository.NewRecentDocumentRepository(testDS)

	assets := testutil.TempHome(t)
	iconsDir := filepath.Join(assets, "icons")
	testutil.WriteFile(t, iconsDir, "network/router.svg", "<svg/>")
	testutil.WriteFile(t, iconsDir, "network/switch.svg", "<svg/>")
	testutil.WriteFile(t, iconsDir, "network/README.md", "not an icon")
	testutil.WriteFile(t, iconsDir, "general/cloud.svg", "<svg/>")
	catalogsDir := filepath.Join(assets, "configs")
	testutil.WriteFile(t, catalogsDir, "router.json", `{"interfaces":[{"name":"eth0","type":"ethernet"},{"name":"eth1","type":"ethernet"}]}`)

	notes := notify.NewService(notify.DefaultOptions())
	ws := workspace.New(workspace.Options{
		Files:    configstore.New(),
		Paths:    guard,
		Notifier: notes,
		History:  recent,
	})

	// Setup router
	r := chi.NewRouter()
	api := NewAPI(Deps{
		Guard:         guard,
		Workspace:     ws,
		Catalogs:      catalog.NewLoader(catalogsDir),
		IconsDir:      iconsDir,
		Notifications: notes,
		Recent:        recent,
	})
	api.RegisterRoutes(r)

	return r, &testEnv{home: home, notes: notes, ws: ws, recent: recent, iconsDir: iconsDir}
}

func do(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func TestHomePath(t *testing.T) {
	r, env := setupTestAPI(t)

	for _, prefix := range Prefixes {
		w := do(t, r, "GET", prefix+"/home-path", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp HomePathResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, env.home, resp.Path)
	}
}

func TestListDir(t *testing.T) {
	r, env := setupTestAPI(t)
	testutil.WriteFile(t, env.home, "maps/lab.json", `{"devices":[],"connections":[]}`)
	require.NoError(t, os.Mkdir(filepath.Join(env.home, "maps", "archive"), 0o755))

	for _, route := range []string{"/api/list-dir", "/api/files", "/networkmap/api/list-dir"} {
		w := do(t, r, "GET", route+"?path="+filepath.Join(env.home, "maps"), nil)
		require.Equal(t, http.StatusOK, w.Code, route)

		var entries []DirEntry
		require.NoError(t, json.NewDecoder(w.Body).Decode(&entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "archive", entries[0].Name)
		assert.True(t, entries[0].IsDirectory)
		assert.Equal(t, "lab.json", entries[1].Name)
		assert.False(t, entries[1].IsDirectory)
		assert.Equal(t, int64(len(`{"devices":[],"connections":[]}`)), entries[1].Size)
		assert.False(t, entries[1].Modified.IsZero())
	}
}

func TestListDir_Errors(t *testing.T) {
	r, env := setupTestAPI(t)
	file := testutil.WriteFile(t, env.home, "lab.json", "")

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing path", "/api/list-dir", http.StatusBadRequest},
		{"outside home", "/api/list-dir?path=/etc", http.StatusForbidden},
		{"dot-dot escape", "/api/list-dir?path=" + env.home + "/../..", http.StatusForbidden},
		{"not found", "/api/list-dir?path=" + filepath.Join(env.home, "nope"), http.StatusNotFound},
		{"not a directory", "/api/list-dir?path=" + file, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, "GET", tt.target, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decodeError(t, w))
		})
	}
}

func TestCreateAndDeleteItems(t *testing.T) {
	r, env := setupTestAPI(t)

	w := do(t, r, "POST", "/api/files", CreateItemRequest{Path: env.home, Name: "maps", Type: ItemDirectory})
	require.Equal(t, http.StatusOK, w.Code)
	info, err := os.Stat(filepath.Join(env.home, "maps"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	w = do(t, r, "POST", "/networkmap/api/files", CreateItemRequest{Path: filepath.Join(env.home, "maps"), Name: "lab.json", Type: ItemFile})
	require.Equal(t, http.StatusOK, w.Code)
	data, err := os.ReadFile(filepath.Join(env.home, "maps", "lab.json"))
	require.NoError(t, err)
	assert.Empty(t, data)

	w = do(t, r, "DELETE", "/api/files", DeleteItemRequest{Path: filepath.Join(env.home, "maps", "lab.json")})
	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(filepath.Join(env.home, "maps", "lab.json"))
	assert.True(t, os.IsNotExist(err))

	testutil.WriteFile(t, env.home, "maps/nested/deep.json", "{}")
	w = do(t, r, "DELETE", "/api/files", DeleteItemRequest{Path: filepath.Join(env.home, "maps")})
	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(filepath.Join(env.home, "maps"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateItem_KeepsExistingFile(t *testing.T) {
	r, env := setupTestAPI(t)
	path := testutil.WriteFile(t, env.home, "lab.json", `{"devices":[]}`)

	w := do(t, r, "POST", "/api/files", CreateItemRequest{Path: env.home, Name: "lab.json", Type: ItemFile})
	require.Equal(t, http.StatusOK, w.Code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"devices":[]}`, string(data))
}

func TestFiles_SandboxRejectsWithoutIO(t *testing.T) {
	r, env := setupTestAPI(t)
	outside := testutil.TempHome(t)
	victim := testutil.WriteFile(t, outside, "keep.json", "precious")

	w := do(t, r, "POST", "/api/files", CreateItemRequest{Path: outside, Name: "new.json", Type: ItemFile})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access to this path is not allowed", decodeError(t, w))
	_, err := os.Stat(filepath.Join(outside, "new.json"))
	assert.True(t, os.IsNotExist(err))

	w = do(t, r, "POST", "/api/files", CreateItemRequest{Path: env.home, Name: "../escape", Type: ItemDirectory})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, "DELETE", "/api/files", DeleteItemRequest{Path: victim})
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, err = os.Stat(victim)
	assert.NoError(t, err)

	w = do(t, r, "POST", "/api/save-config", map[string]any{
		"path":   filepath.Join(outside, "lab.json"),
		"config": map[string]any{"devices": []any{}, "connections": []any{}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, err = os.Stat(filepath.Join(outside, "lab.json"))
	assert.True(t, os.IsNotExist(err))

	w = do(t, r, "GET", "/api/load-config?path="+victim, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateItem_DanglingSymlinkOutsideHome(t *testing.T) {
	r, env := setupTestAPI(t)
	outside := testutil.TempHome(t)
	target := filepath.Join(outside, "created-outside")
	require.NoError(t, os.Symlink(target, filepath.Join(env.home, "evil")))

	w := do(t, r, "POST", "/api/files", CreateItemRequest{Path: env.home, Name: "evil", Type: ItemFile})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoFileExists(t, target)
}

func TestDeleteItem_Errors(t *testing.T) {
	r, env := setupTestAPI(t)

	w := do(t, r, "DELETE", "/api/files", DeleteItemRequest{Path: env.home})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, "DELETE", "/api/files", DeleteItemRequest{Path: filepath.Join(env.home, "ghost.json")})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Item not found", decodeError(t, w))

	w = do(t, r, "DELETE", "/api/files", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	r, env := setupTestAPI(t)
	path := testutil.WriteFile(t, env.home, "empty.json", "")

	w := do(t, r, "GET", "/api/load-config?path="+path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"devices":[],"connections":[]}`, w.Body.String())
}

func TestLoadConfig_Errors(t *testing.T) {
	r, env := setupTestAPI(t)

	w := do(t, r, "GET", "/api/load-config", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, "GET", "/api/load-config?path="+filepath.Join(env.home, "missing.json"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveAndLoadConfig_RoundTrip(t *testing.T) {
	r, env := setupTestAPI(t)
	path := filepath.Join(env.home, "lab.json")

	config := `{
		"devices": [
			{"id": 1700000000001, "type": "router", "icon": "/networkmap/icons/network/router.svg", "x": 100, "y": 100},
			{"id": "b", "type": "switch", "icon": "/networkmap/icons/network/switch.svg", "label": "core", "x": 300, "y": 100}
		],
		"connections": [
			{"id": 1700000000002, "sourceDeviceId": 1700000000001, "targetDeviceId": "b",
			 "sourceInterface": {"name": "eth0"}, "targetInterface": {"name": "eth0"},
			 "type": "curved", "color": "#f00", "controlPoints": [{"x": 150, "y": 50}]}
		]
	}`
	w := do(t, r, "POST", "/networkmap/api/save-config", `{"path": "`+path+`", "config": `+config+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"devices\": ["), "expected two-space indentation")

	w = do(t, r, "GET", "/api/load-config?path="+path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, config, w.Body.String())
}

func TestSaveConfig_Validation(t *testing.T) {
	r, env := setupTestAPI(t)
	path := filepath.Join(env.home, "lab.json")

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{"},
		{"missing path", map[string]any{"config": map[string]any{}}},
		{"missing config", map[string]any{"path": path}},
		{"orphan connection", map[string]any{
			"path": path,
			"config": map[string]any{
				"devices": []any{},
				"connections": []any{map[string]any{
					"id": "c", "sourceDeviceId": "a", "targetDeviceId": "b",
					"sourceInterface": map[string]any{"name": "eth0"},
					"targetInterface": map[string]any{"name": "eth0"},
				}},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, "POST", "/api/save-config", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			_, err := os.Stat(path)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestSaveConfig_MissingDirectory(t *testing.T) {
	r, env := setupTestAPI(t)

	w := do(t, r, "POST", "/api/save-config", map[string]any{
		"path":   filepath.Join(env.home, "nope", "lab.json"),
		"config": map[string]any{"devices": []any{}, "connections": []any{}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecentConfigs(t *testing.T) {
	r, env := setupTestAPI(t)
	path := filepath.Join(env.home, "lab.json")

	w := do(t, r, "GET", "/api/recent-configs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, r, "POST", "/api/save-config", map[string]any{
		"path":   path,
		"config": map[string]any{"devices": []any{map[string]any{"id": "a", "type": "router", "x": 0, "y": 0}}, "connections": []any{}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, "GET", "/api/recent-configs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recent []RecentConfig
	require.NoError(t, json.NewDecoder(w.Body).Decode(&recent))
	require.Len(t, recent, 1)
	assert.Equal(t, path, recent[0].Path)
	assert.Equal(t, datastore.ActionSave, recent[0].LastAction)
	assert.Equal(t, 1, recent[0].DeviceCount)

	w = do(t, r, "GET", "/api/recent-configs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
