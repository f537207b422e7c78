package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, opts ...Option) (*Guard, string) {
	t.Helper()
	root := t.TempDir()
	g, err := New(root, opts...)
	require.NoError(t, err)
	return g, g.Root()
}

func TestGuard_AcceptsRootAndChildren(t *testing.T) {
	g, root := newGuard(t)

	for _, p := range []string{
		root,
		filepath.Join(root, "diagrams"),
		filepath.Join(root, "diagrams", "missing", "cfg.json"),
		filepath.Join(root, "a", "..", "b"),
	} {
		resolved, err := g.Resolve(p)
		require.NoError(t, err, p)
		assert.Equal(t, filepath.Clean(p), resolved)
	}
}

func TestGuard_RejectsOutsidePaths(t *testing.T) {
	g, root := newGuard(t)

	for _, p := range []string{
		"/etc/passwd",
		filepath.Join(root, ".."),
		filepath.Join(root, "..", "other"),
		root + "-sibling",
		"",
	} {
		_, err := g.Resolve(p)
		assert.ErrorIs(t, err, ErrForbidden, p)
		assert.False(t, g.Allowed(p))
	}
}

func TestGuard_SiblingPrefixIsNotInside(t *testing.T) {
	parent := t.TempDir()
	home := filepath.Join(parent, "bob")
	require.NoError(t, os.Mkdir(home, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(parent, "bobby"), 0o755))

	g, err := New(home)
	require.NoError(t, err)

	_, err = g.Resolve(filepath.Join(g.Root()+"by", "secrets"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGuard_SymlinkEscapeRejected(t *testing.T) {
	g, root := newGuard(t)
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outside, link))

	_, err := g.Resolve(filepath.Join(link, "cfg.json"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGuard_DanglingSymlinkEscapeRejected(t *testing.T) {
	g, root := newGuard(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(outside, "created-outside"), filepath.Join(root, "evil")))

	_, err := g.Join(root, "evil")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = g.Resolve(filepath.Join(root, "evil", "child.json"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoFileExists(t, filepath.Join(outside, "created-outside"))
}

func TestGuard_RelativeDanglingSymlinkInsideRootAllowed(t *testing.T) {
	g, root := newGuard(t)
	require.NoError(t, os.Symlink("not-yet.json", filepath.Join(root, "alias.json")))

	_, err := g.Resolve(filepath.Join(root, "alias.json"))
	assert.NoError(t, err)
}

func TestGuard_SymlinkLoopRejected(t *testing.T) {
	g, root := newGuard(t)
	require.NoError(t, os.Symlink("b", filepath.Join(root, "a")))
	require.NoError(t, os.Symlink("a", filepath.Join(root, "b")))

	_, err := g.Resolve(filepath.Join(root, "a"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGuard_SymlinkEscapeAllowedWhenLexical(t *testing.T) {
	g, root := newGuard(t, WithSymlinkCheck(false))
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outside, link))

	resolved, err := g.Resolve(filepath.Join(link, "cfg.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(link, "cfg.json"), resolved)
}

func TestGuard_SymlinkInsideRootAllowed(t *testing.T) {
	g, root := newGuard(t)
	target := filepath.Join(root, "real")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "alias")))

	_, err := g.Resolve(filepath.Join(root, "alias", "new.json"))
	assert.NoError(t, err)
}

func TestGuard_Join(t *testing.T) {
	g, root := newGuard(t)

	p, err := g.Join(root, "child")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "child"), p)

	_, err = g.Join(root, "../../etc")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
