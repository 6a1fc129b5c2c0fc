package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
)

func parent(i int) *types.ElementID {
	id := types.ElementID(i)
	return &id
}

func dialog(t *testing.T) *Registry {
	t.Helper()
	snap, err := element.NewSnapshot(element.CaptureInfo{FocusedApp: "Dialog"}, []element.Element{
		{Role: element.RoleButton, Label: "OK", Enabled: true, BBox: element.BoundingBox{X: 100, Y: 200, Width: 80, Height: 30}},
		{Role: element.RoleButton, Label: "Cancel", Enabled: true, BBox: element.BoundingBox{X: 200, Y: 200, Width: 80, Height: 30}},
		{Role: element.RoleTextField, Label: "", Enabled: true, BBox: element.BoundingBox{X: 100, Y: 100, Width: 300, Height: 24}},
	})
	require.NoError(t, err)
	r, err := New(snap)
	require.NoError(t, err)
	return r
}

func nested(t *testing.T) *Registry {
	t.Helper()
	snap, err := element.NewSnapshot(element.CaptureInfo{FocusedApp: "Editor"}, []element.Element{
		{Role: element.RoleWindow, Label: "Main", BBox: element.BoundingBox{X: 0, Y: 0, Width: 800, Height: 600}},
		{Role: element.RoleGroup, Label: "Toolbar", Depth: 1, ParentID: parent(0), BBox: element.BoundingBox{X: 0, Y: 0, Width: 800, Height: 40}},
		{Role: element.RoleButton, Label: "Save", Depth: 2, ParentID: parent(1), Enabled: true, BBox: element.BoundingBox{X: 10, Y: 5, Width: 60, Height: 30}},
		{Role: element.RoleButton, Label: "Save As", Depth: 2, ParentID: parent(1), Enabled: false, BBox: element.BoundingBox{X: 80, Y: 5, Width: 60, Height: 30}},
		{Role: element.RoleTextArea, Label: "Body", Depth: 1, ParentID: parent(0), Focused: true, Enabled: true, BBox: element.BoundingBox{X: 0, Y: 40, Width: 800, Height: 560}},
	})
	require.NoError(t, err)
	r, err := New(snap)
	require.NoError(t, err)
	return r
}

func TestFind_OKResolvesToZero(t *testing.T) {
	r := dialog(t)

	e, err := r.Find(element.ByRoleLabel(element.RoleButton, "OK"))
	require.NoError(t, err)
	assert.Equal(t, types.ElementID(0), e.ID)
}

func TestFind(t *testing.T) {
	r := nested(t)

	tests := []struct {
		name     string
		sel      element.Selector
		wantID   types.ElementID
		wantKind axerrors.Kind
	}{
		{"first match wins", element.Selector{Label: "save"}, 2, axerrors.Unknown},
		{"role narrows", element.ByRoleLabel(element.RoleTextArea, ""), 4, axerrors.Unknown},
		{"enabled only skips disabled", element.Selector{Label: "save as", EnabledOnly: true}, 0, axerrors.NotFound},
		{"by id", element.ByID(3), 3, axerrors.Unknown},
		{"id out of range", element.ByID(5), 0, axerrors.NotFound},
		{"no match", element.ByRoleLabel(element.RoleLink, ""), 0, axerrors.NotFound},
		{"empty selector", element.Selector{}, 0, axerrors.Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.Find(tt.sel)
			if tt.wantKind != axerrors.Unknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, axerrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, e.ID)
		})
	}
}

func TestFindAll(t *testing.T) {
	r := nested(t)

	all, err := r.FindAll(element.ByRoleLabel(element.RoleButton, ""))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Save", all[0].Label)
	assert.Equal(t, "Save As", all[1].Label)

	none, err := r.FindAll(element.ByRoleLabel(element.RoleLink, ""))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAndResolve(t *testing.T) {
	r := dialog(t)

	e, err := r.Get(2)
	require.NoError(t, err)
	assert.Equal(t, element.RoleTextField, e.Role)

	for _, id := range []types.ElementID{-1, 3, 100} {
		_, err := r.Get(id)
		assert.True(t, axerrors.Is(err, axerrors.NotFound), "id %d", id)
	}

	e, err = r.Resolve(r.Ref(1))
	require.NoError(t, err)
	assert.Equal(t, "Cancel", e.Label)

	other := dialog(t)
	require.NotEqual(t, r.Generation(), other.Generation())
	_, err = other.Resolve(r.Ref(1))
	assert.True(t, axerrors.Is(err, axerrors.NotFound), "refs from an older generation must not resolve")
}

func TestAt(t *testing.T) {
	r := nested(t)

	tests := []struct {
		name  string
		x, y  int
		label string
		found bool
	}{
		{"smallest box wins", 20, 10, "Save", true},
		{"toolbar gap", 75, 10, "Toolbar", true},
		{"body", 400, 300, "Body", true},
		{"outside window", 900, 900, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.At(tt.x, tt.y)
			if !tt.found {
				assert.True(t, axerrors.Is(err, axerrors.NotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.label, e.Label)
		})
	}
}

func TestFocusedAndParent(t *testing.T) {
	r := nested(t)

	f, err := r.Focused()
	require.NoError(t, err)
	assert.Equal(t, "Body", f.Label)

	_, err = dialog(t).Focused()
	assert.True(t, axerrors.Is(err, axerrors.NotFound))

	p, err := r.Parent(2)
	require.NoError(t, err)
	assert.Equal(t, "Toolbar", p.Label)

	_, err = r.Parent(0)
	assert.True(t, axerrors.Is(err, axerrors.NotFound))

	kids, err := r.Children(1)
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, types.ElementID(2), kids[0].ID)

	_, err = New(nil)
	assert.Error(t, err)
}
