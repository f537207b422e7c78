// Package sandbox keeps filesystem access inside a single root directory,
// normally the invoking user's home directory.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrForbidden is returned for paths that resolve outside the root
var ErrForbidden = errors.New("access to this path is not allowed")

// Guard validates candidate paths against a root directory
type Guard struct {
	root           string
	realRoot       string
	followSymlinks bool
}

// Option configures a Guard
type Option func(*Guard)

// WithSymlinkCheck makes the guard resolve symlinks on the existing part of a
// path and reject paths whose real location escapes the root.
func WithSymlinkCheck(enabled bool) Option {
	return func(g *Guard) {
		g.followSymlinks = enabled
	}
}

// New creates a guard rooted at root. Symlink checking is on by default.
func New(root string, opts ...Option) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox root: %w", err)
	}
	g := &Guard{root: abs, realRoot: abs, followSymlinks: true}
	for _, opt := range opts {
		opt(g)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		g.realRoot = real
	}
	return g, nil
}

// NewHome creates a guard rooted at the current user's home directory.
func NewHome(opts ...Option) (*Guard, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	return New(home, opts...)
}

// Root returns the absolute root directory.
func (g *Guard) Root() string {
	return g.root
}

// Resolve makes path absolute and returns it when it lies inside the root.
// A path that does not exist is not an error; callers check existence
// themselves. Paths outside the root are rejected before anything on disk is
// touched.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path: %w", ErrForbidden)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, ErrForbidden)
	}
	if !within(g.root, abs) && !within(g.realRoot, abs) {
		return "", fmt.Errorf("%s is outside %s: %w", abs, g.root, ErrForbidden)
	}
	if g.followSymlinks {
		if real := realPath(abs); real == "" || !within(g.realRoot, real) {
			return "", fmt.Errorf("%s links outside %s: %w", abs, g.root, ErrForbidden)
		}
	}
	return abs, nil
}

// Join resolves dir joined with name.
func (g *Guard) Join(dir, name string) (string, error) {
	return g.Resolve(filepath.Join(dir, name))
}

// Allowed reports whether path resolves inside the root.
func (g *Guard) Allowed(path string) bool {
	_, err := g.Resolve(path)
	return err == nil
}

// within reports whether target equals root or sits below it on a separator boundary.
func within(root, target string) bool {
	if target == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}

// maxLinkHops bounds how many dangling links realPath follows.
const maxLinkHops = 40

// realPath evaluates symlinks on the longest resolvable prefix of path and
// re-appends the components below it. A component that is itself a dangling
// link is followed to its target, so creating through it cannot land outside
// the root. An empty result means the path could not be resolved.
func realPath(path string) string {
	var missing []string
	current := path
	hops := 0
	for {
		if real, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				real = filepath.Join(real, missing[i])
			}
			return real
		}
		if info, err := os.Lstat(current); err == nil && info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(current)
			if err != nil || hops >= maxLinkHops {
				return ""
			}
			hops++
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(current), target)
			}
			current = filepath.Clean(target)
			continue
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
