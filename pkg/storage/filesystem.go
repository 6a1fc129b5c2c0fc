package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider/fixture"
	"github.com/dshills/goax/pkg/validation"
)

// FilesystemFixtureRepository stores named fixture trees as YAML files in
// <base>/fixtures, so `ax --fixture <name>` can replay a saved UI.
type FilesystemFixtureRepository struct {
	baseDir string
}

// NewFilesystemFixtureRepository creates a repository under ~/.goax/fixtures.
func NewFilesystemFixtureRepository() (*FilesystemFixtureRepository, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return NewFilesystemFixtureRepositoryWithPath(filepath.Join(homeDir, ".goax"))
}

// NewFilesystemFixtureRepositoryWithPath creates a repository under
// baseDir/fixtures.
func NewFilesystemFixtureRepositoryWithPath(baseDir string) (*FilesystemFixtureRepository, error) {
	dir := filepath.Join(baseDir, "fixtures")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create fixtures directory: %w", err)
	}
	return &FilesystemFixtureRepository{baseDir: dir}, nil
}

// Dir returns the directory fixtures are stored in.
func (r *FilesystemFixtureRepository) Dir() string {
	return r.baseDir
}

// Save writes tree under name, replacing any previous fixture of that name.
func (r *FilesystemFixtureRepository) Save(name string, tree *fixture.Tree) error {
	if tree == nil {
		return fmt.Errorf("cannot save nil fixture")
	}
	path, err := r.fixturePath(name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal fixture to YAML: %w", err)
	}

	// Write to a temp file then rename so readers never see a partial tree.
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write fixture file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to save fixture file: %w", err)
	}
	return nil
}

// Import validates the fixture at src and stores it under name.
func (r *FilesystemFixtureRepository) Import(name, src string) error {
	tree, err := fixture.LoadFile(src)
	if err != nil {
		return axerrors.Wrap(axerrors.Invalid, "import fixture", err)
	}
	return r.Save(name, tree)
}

// Load reads the fixture stored under name.
func (r *FilesystemFixtureRepository) Load(name string) (*fixture.Tree, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}
	return fixture.LoadFile(path)
}

// Path returns the file backing an existing fixture.
func (r *FilesystemFixtureRepository) Path(name string) (string, error) {
	path, err := r.fixturePath(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", axerrors.New(axerrors.NotFound, "load fixture", "fixture not found: %s", name)
	}
	return path, nil
}

// Delete removes the fixture stored under name.
func (r *FilesystemFixtureRepository) Delete(name string) error {
	path, err := r.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete fixture file: %w", err)
	}
	return nil
}

// List returns the stored fixture names in lexical order.
func (r *FilesystemFixtureRepository) List() ([]string, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if validation.Name(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *FilesystemFixtureRepository) fixturePath(name string) (string, error) {
	if err := validation.Name(name); err != nil {
		return "", axerrors.Wrap(axerrors.Invalid, "fixture name", err)
	}
	path, err := validation.Contain(r.baseDir, name+".yaml")
	if err != nil {
		return "", axerrors.Wrap(axerrors.Invalid, "fixture path", err)
	}
	return path, nil
}
