// Package catalog serves the per-icon interface catalogs and the icon
// listings used by the device palette.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

var (
	// ErrNotFound is returned when no catalog exists for an icon
	ErrNotFound = errors.New("catalog not found")

	// ErrInvalidName is returned for icon names that are not plain file names
	ErrInvalidName = errors.New("invalid icon name")

	// ErrUnknownCategory is returned when listing an icon category that is not served
	ErrUnknownCategory = errors.New("unknown icon category")
)

// Icon categories served by the palette.
const (
	CategoryNetwork = "network"
	CategoryGeneral = "general"
)

// IconURLPrefix is where icon files are served over HTTP.
const IconURLPrefix = "/networkmap/icons"

// Catalog lists the interfaces available on one device icon
type Catalog struct {
	Interfaces []domain.Interface `json:"interfaces" yaml:"interfaces"`
}

// Icon is a palette icon asset
type Icon struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Loader reads interface catalogs from a directory and caches them by icon
// file name. Catalogs are looked up as <base>.json, then <base>.yaml and
// <base>.yml, where <base> is the icon file name without its extension.
type Loader struct {
	dir string

	mu      sync.RWMutex
	catalog map[string]Catalog
}

// NewLoader creates a loader over dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:     dir,
		catalog: make(map[string]Catalog),
	}
}

// Dir returns the catalog directory.
func (l *Loader) Dir() string { return l.dir }

// ForIcon returns the catalog for an icon. icon may be a file name or a full
// asset path such as /networkmap/icons/network/Router-2D-Gen-Dark-S.svg.
func (l *Loader) ForIcon(icon string) (Catalog, error) {
	base, err := baseName(icon)
	if err != nil {
		return Catalog{}, err
	}

	l.mu.RLock()
	if c, ok := l.catalog[base]; ok {
		l.mu.RUnlock()
		return c, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if c, ok := l.catalog[base]; ok {
		return c, nil
	}

	c, err := l.read(base)
	if err != nil {
		return Catalog{}, err
	}
	l.catalog[base] = c
	return c, nil
}

// Invalidate drops every cached catalog.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.catalog = make(map[string]Catalog)
	l.mu.Unlock()
}

func (l *Loader) read(base string) (Catalog, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		name := filepath.Join(l.dir, base+ext)
		data, err := os.ReadFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Catalog{}, fmt.Errorf("failed to read catalog %s: %w", name, err)
		}

		var c Catalog
		if ext == ".json" {
			err = json.Unmarshal(data, &c)
		} else {
			err = yaml.Unmarshal(data, &c)
		}
		if err != nil {
			return Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", name, err)
		}
		if c.Interfaces == nil {
			c.Interfaces = []domain.Interface{}
		}
		return c, nil
	}
	return Catalog{}, fmt.Errorf("%w: %s", ErrNotFound, base)
}

// baseName strips any directory and extension from an icon reference.
func baseName(icon string) (string, error) {
	name := path.Base(filepath.ToSlash(icon))
	if name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, icon)
	}
	return strings.TrimSuffix(name, path.Ext(name)), nil
}

// Icons lists the SVG icons of one category under iconsDir, sorted by name.
func Icons(iconsDir, category string) ([]Icon, error) {
	if category != CategoryNetwork && category != CategoryGeneral {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	entries, err := os.ReadDir(filepath.Join(iconsDir, category))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s icons directory: %w", category, err)
	}

	icons := []Icon{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".svg") {
			continue
		}
		icons = append(icons, Icon{
			Name: e.Name(),
			Path: path.Join(IconURLPrefix, category, e.Name()),
		})
	}
	sort.Slice(icons, func(i, j int) bool { return icons[i].Name < icons[j].Name })
	return icons, nil
}
