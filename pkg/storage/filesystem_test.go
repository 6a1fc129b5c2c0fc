package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider/fixture"
)

func TestFixtureRepository_RoundTrip(t *testing.T) {
	repo, err := NewFilesystemFixtureRepositoryWithPath(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save("dialog", fixture.Demo()))
	require.NoError(t, repo.Save("another", fixture.Demo()))
	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir(), "notes.txt"), []byte("x"), 0o644))

	names, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"another", "dialog"}, names)

	tree, err := repo.Load("dialog")
	require.NoError(t, err)
	require.Len(t, tree.Apps, 1)
	assert.Equal(t, "Dialog", tree.Apps[0].Name)
	assert.Equal(t, "OK", tree.Apps[0].Root.Children[0].Children[0].Label)
	assert.Equal(t, 1440, tree.Screen.Width)

	require.NoError(t, repo.Delete("another"))
	_, err = repo.Load("another")
	assert.True(t, axerrors.Is(err, axerrors.NotFound))
}

func TestFixtureRepository_Import(t *testing.T) {
	repo, err := NewFilesystemFixtureRepositoryWithPath(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "form.yaml")
	require.NoError(t, os.WriteFile(src, []byte("app: Form\nroot: {role: AXWindow, label: Form}\n"), 0o644))
	require.NoError(t, repo.Import("form", src))

	path, err := repo.Path("form")
	require.NoError(t, err)
	p, err := fixture.Open(path)
	require.NoError(t, err)
	name, err := p.AppName(mustFrontmost(t, p))
	require.NoError(t, err)
	assert.Equal(t, "Form", name)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("screen: {width: 1}\n"), 0o644))
	assert.True(t, axerrors.Is(repo.Import("bad", bad), axerrors.Invalid))
}

func TestFixtureRepository_RejectsNames(t *testing.T) {
	repo, err := NewFilesystemFixtureRepositoryWithPath(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape", "a/b", "dialog.yaml"} {
		err := repo.Save(name, fixture.Demo())
		assert.True(t, axerrors.Is(err, axerrors.Invalid), "name %q", name)
	}
	assert.Error(t, repo.Save("ok", nil))
}

func mustFrontmost(t *testing.T, p *fixture.Provider) types.AppHandle {
	t.Helper()
	app, err := p.FrontmostApp()
	require.NoError(t, err)
	return app
}
