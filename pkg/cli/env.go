package cli

import (
	"os"
	"path/filepath"

	"github.com/dshills/goax/pkg/action"
	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider"
	"github.com/dshills/goax/pkg/provider/fixture"
	"github.com/dshills/goax/pkg/registry"
	"github.com/dshills/goax/pkg/storage"
	"github.com/dshills/goax/pkg/validation"
	"github.com/dshills/goax/pkg/walker"
)

// env is the provider and input pair one command runs against.
type env struct {
	provider *fixture.Provider
	input    *fixture.Input
}

// openEnv selects the fixture named by --fixture, then provider.fixture from
// the configuration, then the built-in demo tree. A fixture reference is a
// file path when such a file exists and a stored fixture name otherwise.
//
// When the accessibility probe reports access denied, every provider query
// fails with PermissionDenied.
func openEnv() (*env, error) {
	ref := GlobalConfig.Fixture
	if ref == "" {
		ref = current.cfg.Provider.Fixture
	}

	tree, err := loadTree(ref)
	if err != nil {
		return nil, err
	}

	probe := provider.ProbeAccessibility(nil)
	if probe.Err() != nil {
		current.logger.Debug("accessibility probe denied access", "message", probe.Message)
		tree.Denied = true
	}

	p := fixture.New(tree)
	return &env{provider: p, input: fixture.NewInput(p)}, nil
}

func loadTree(ref string) (*fixture.Tree, error) {
	if ref == "" {
		return fixture.Demo(), nil
	}
	if _, err := os.Stat(ref); err == nil {
		tree, err := fixture.LoadFile(ref)
		if err != nil {
			return nil, axerrors.Wrap(axerrors.Invalid, "load fixture", err)
		}
		return tree, nil
	}
	if validation.Name(ref) != nil {
		return nil, axerrors.New(axerrors.NotFound, "load fixture", "fixture file not found: %s", ref)
	}

	repo, err := fixtureRepository()
	if err != nil {
		return nil, err
	}
	return repo.Load(ref)
}

func fixtureRepository() (*storage.FilesystemFixtureRepository, error) {
	return storage.NewFilesystemFixtureRepositoryWithPath(current.dir)
}

func sessionRepository() (*storage.SQLiteSessionRepository, error) {
	return storage.NewSQLiteSessionRepositoryWithPath(filepath.Join(current.dir, storage.DatabaseName))
}

// walkerOptions starts from the configured traversal settings.
func walkerOptions() walker.Options {
	return walker.Options{
		MaxDepth:   current.cfg.Traversal.MaxDepth,
		IncludeAll: current.cfg.Traversal.IncludeAll,
		Logger:     current.logger,
	}
}

func (e *env) walker(opts walker.Options) (*walker.Walker, error) {
	return walker.New(e.provider, opts)
}

func (e *env) executor() (*action.Executor, error) {
	return action.New(e.provider, e.input, action.Options{
		ClickDelay:     current.cfg.Actions.ClickDelay,
		DoubleClickGap: current.cfg.Actions.DoubleClickGap,
		FocusSettle:    current.cfg.Actions.FocusSettle,
		Logger:         current.logger,
	})
}

// capture takes one snapshot of the frontmost application with the default
// traversal settings.
func (e *env) capture() (*element.Snapshot, error) {
	w, err := e.walker(walkerOptions())
	if err != nil {
		return nil, err
	}
	return w.CaptureFrontmost()
}

// registry captures and indexes one snapshot.
func (e *env) registry() (*registry.Registry, error) {
	snap, err := e.capture()
	if err != nil {
		return nil, err
	}
	return registry.New(snap)
}
